// Package batchfile reads record batches stored as JSON Lines: one object
// per line, blank lines and lines starting with '#' ignored. A line that
// cannot be decoded is returned as a LineError next to the good records;
// only I/O failures abort a read.
package batchfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"dataspine-go/schema"
)

// maxLine 单行上限
const maxLine = 1 << 20

// LineError is one line that could not be decoded into a record.
type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"error"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ReadRaw decodes every line into T. Numbers are kept as json.Number so
// decimal fields never pass through float64. Unknown keys are ignored.
func ReadRaw[T any](r io.Reader) ([]T, []LineError, error) {
	return scan(r, func(line []byte) (T, error) {
		var v T
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return v, err
		}
		return v, nil
	})
}

// ReadStoredTrades decodes trades through the trusted path; content is not
// validated.
func ReadStoredTrades(r io.Reader) ([]*schema.Trade, []LineError, error) {
	return scan(r, schema.DecodeTrade)
}

// ReadStoredTicks is ReadStoredTrades for market ticks.
func ReadStoredTicks(r io.Reader) ([]*schema.MarketTick, []LineError, error) {
	return scan(r, schema.DecodeMarketTick)
}

// ReadFile opens path and applies read. An empty path yields no records.
func ReadFile[T any](path string, read func(io.Reader) ([]T, []LineError, error)) ([]T, []LineError, error) {
	if path == "" {
		return nil, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()
	out, bad, err := read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, bad, nil
}

func scan[T any](r io.Reader, decode func([]byte) (T, error)) ([]T, []LineError, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var (
		out []T
		bad []LineError
	)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		v, err := decode(line)
		if err != nil {
			bad = append(bad, LineError{Line: lineNo, Message: err.Error()})
			continue
		}
		out = append(out, v)
	}
	// 超长行无法跳过，整个文件视为读取失败
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read batch: %w", err)
	}
	return out, bad, nil
}
