package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

const (
	EventContractViolation  = "contract_violation"
	EventInvariantViolation = "invariant_violation"
	EventRecordRejected     = "record_rejected"
	EventBatchSummary       = "batch_summary"
)

var schemas = map[string]Schema{
	EventContractViolation: {
		Event:    EventContractViolation,
		Required: []string{"kind", "symbol", "error_count", "errors"},
	},
	EventInvariantViolation: {
		Event:    EventInvariantViolation,
		Required: []string{"invariant", "count", "indices"},
	},
	EventRecordRejected: {
		Event:    EventRecordRejected,
		Required: []string{"kind", "index", "error_count", "errors"},
	},
	EventBatchSummary: {
		Event:    EventBatchSummary,
		Required: []string{"run_id", "ticks", "trades", "rejected", "passed"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Required returns the required keys of event, or nil for unknown events.
func Required(event string) []string {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	return append([]string(nil), s.Required...)
}

// Validate 检查日志字段是否包含 schema 中要求的 key。未知事件不校验。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s missing fields: %s", event, strings.Join(missing, ","))
	}
	return nil
}
