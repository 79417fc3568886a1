package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"dataspine-go/rules"
)

// symbolsFile 兼容两种写法：顶层列表，或 symbols: [...]
type symbolsFile struct {
	Symbols []string `yaml:"symbols"`
}

// LoadSymbols reads the known-symbol universe. Every entry must itself be a
// well-formed symbol; the result is sorted and de-duplicated.
func LoadSymbols(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbols: %w", err)
	}
	return ParseSymbols(raw)
}

// ParseSymbols is LoadSymbols on in-memory YAML (or JSON).
func ParseSymbols(raw []byte) ([]string, error) {
	var list []string
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &list); err != nil {
			var doc symbolsFile
			if err2 := yaml.Unmarshal(raw, &doc); err2 != nil {
				return nil, fmt.Errorf("parse symbols: %w", err)
			}
			list = doc.Symbols
		}
	}
	if len(list) == 0 {
		return nil, ErrInvalid("symbols file is empty")
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if vs := rules.CheckSymbol("symbol", s); len(vs) > 0 {
			return nil, fmt.Errorf("invalid symbol %q: %w", s, ErrInvalid(vs.String()))
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
