package audit

import (
	"encoding/json"
	"io"
	"time"

	"dataspine-go/internal/batchfile"
	"dataspine-go/invariant"
	"dataspine-go/rules"
)

// Rejection is one raw input that failed construction or a record that
// failed its contract audit.
type Rejection struct {
	Index      int              `json:"index"`
	Kind       string           `json:"kind"`
	Key        string           `json:"key,omitempty"`
	Violations rules.Violations `json:"violations"`
}

// BatchReport 单类记录的统计
type BatchReport struct {
	Received int `json:"received"`
	Accepted int `json:"accepted"`
	// Filtered 被客户或时间窗过滤掉的记录数
	Filtered int         `json:"filtered"`
	Rejected []Rejection `json:"rejected,omitempty"`
	// Unreadable 无法解码的输入行
	Unreadable []batchfile.LineError `json:"unreadable,omitempty"`
}

// InvariantResult tags a diagnostic with the batch it ran on.
type InvariantResult struct {
	Batch string `json:"batch"`
	invariant.Diagnostic
}

// Report is the outcome of one run.
type Report struct {
	RunID      string            `json:"run_id"`
	Mode       Mode              `json:"mode"`
	Client     string            `json:"client,omitempty"`
	Window     *Window           `json:"window,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Ticks      BatchReport       `json:"ticks"`
	Trades     BatchReport       `json:"trades"`
	Replayed   BatchReport       `json:"replayed"`
	Invariants []InvariantResult `json:"invariants"`
	Passed     bool              `json:"passed"`
}

// Rejected counts rejections across all batches, unreadable lines included.
func (r *Report) Rejected() int {
	n := 0
	for _, b := range []BatchReport{r.Ticks, r.Trades, r.Replayed} {
		n += len(b.Rejected) + len(b.Unreadable)
	}
	return n
}

// Failed returns the invariants that did not pass.
func (r *Report) Failed() []InvariantResult {
	var out []InvariantResult
	for _, res := range r.Invariants {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// WriteJSON renders the report indented.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
