package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataspine-go/config"
	"dataspine-go/internal/audit"
)

func TestBuildOptions(t *testing.T) {
	vc := config.Default().Validation
	vc.StrictReferential = true

	opts, err := buildOptions("backfill", "C1", "2025-01-01", "2025-01-31", vc)
	require.NoError(t, err)
	assert.Equal(t, audit.ModeBackfill, opts.Mode)
	assert.Equal(t, "C1", opts.Client)
	assert.True(t, opts.Strict)
	assert.Equal(t, "trade_id", opts.UniqueKey)
	assert.Equal(t, "client_id", opts.UniqueScope)

	_, err = buildOptions("backfill", "", "2025-01-01", "", vc)
	assert.ErrorContains(t, err, "backfill requires")
	_, err = buildOptions("live", "", "2025-01-01", "2025-01-02", vc)
	assert.Error(t, err)
	_, err = buildOptions("hourly", "", "", "", vc)
	assert.Error(t, err)
}

func TestPrintPlan(t *testing.T) {
	cfg := config.Default()
	opts, err := buildOptions("backfill", "C1", "2025-01-01", "2025-01-31", cfg.Validation)
	require.NoError(t, err)

	var buf bytes.Buffer
	printPlan(&buf, opts, cfg, "ticks.jsonl", "", "stored.jsonl", true)
	out := buf.String()
	assert.Contains(t, out, "mode:        backfill")
	assert.Contains(t, out, "2025-01-01 .. 2025-02-01")
	assert.Contains(t, out, "ticks.jsonl")
	assert.NotContains(t, out, "trades:")
	assert.Contains(t, out, "(derived from ticks)")
	assert.Contains(t, out, "trade_id within client_id")
	assert.Contains(t, out, "dry run")
}

func TestReadInputKeepsBadLines(t *testing.T) {
	dir := t.TempDir()
	ticks := filepath.Join(dir, "ticks.jsonl")
	body := `{"symbol":"AAPL","price":"175.43","timestamp":"2025-01-15T14:30:00Z","volume":100,"source":"iex_cloud"}
{"symbol":"AAPL","price":"175.43","timestamp":"2025-01-15T14:31:00Z","volume":[1],"source":"iex_cloud"}
{"symbol":"AAPL","price":"175.44","timestamp":"2025-01-15T14:32:00Z","volume":"lots","source":"iex_cloud"}
`
	require.NoError(t, os.WriteFile(ticks, []byte(body), 0o644))

	in, err := readInput(ticks, "", "")
	require.NoError(t, err)
	assert.Len(t, in.Ticks, 3)
	assert.Empty(t, in.BadTicks)
	assert.Nil(t, in.Trades)

	require.NoError(t, os.WriteFile(ticks, []byte(body+"{oops\n"), 0o644))
	in, err = readInput(ticks, "", "")
	require.NoError(t, err)
	assert.Len(t, in.Ticks, 3)
	require.Len(t, in.BadTicks, 1)
	assert.Equal(t, 4, in.BadTicks[0].Line)
}
