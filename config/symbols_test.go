package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"顶层列表", "- MSFT\n- AAPL\n- MSFT\n", []string{"AAPL", "MSFT"}},
		{"symbols 键", "symbols:\n  - BRK.B\n  - GOOG\n", []string{"BRK.B", "GOOG"}},
		{"JSON 数组", `["TSLA","AMZN"]`, []string{"AMZN", "TSLA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSymbols([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSymbolsErrors(t *testing.T) {
	_, err := ParseSymbols([]byte(""))
	assert.ErrorContains(t, err, "empty")

	_, err = ParseSymbols([]byte("- AAPL\n- aapl\n"))
	assert.ErrorContains(t, err, `invalid symbol "aapl"`)
	assert.ErrorContains(t, err, "SYMBOL_FORMAT")

	_, err = ParseSymbols([]byte("symbols: {a: b}"))
	assert.Error(t, err)
}

func TestLoadSymbolsFile(t *testing.T) {
	path := writeTempFile(t, "symbols.yaml", "symbols: [AAPL]\n")
	got, err := LoadSymbols(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, got)

	_, err = LoadSymbols(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "read symbols")
}
