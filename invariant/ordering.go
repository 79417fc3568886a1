package invariant

import (
	"fmt"
	"time"
)

// Timed is a record with an optional event time.
type Timed interface {
	EventTime() (time.Time, bool)
}

// DiagnoseMonotonicTimestamps checks every adjacent pair for
// t[i] <= t[i+1]. A record without a timestamp is an offender at its own
// index and the pairs around it are skipped.
func DiagnoseMonotonicTimestamps[T Timed](batch []T) Diagnostic {
	d := Diagnostic{Invariant: MonotonicTimestamps, BatchSize: len(batch)}
	if len(batch) <= 1 {
		d.Passed = true
		return d
	}
	times := make([]time.Time, len(batch))
	ok := make([]bool, len(batch))
	for i, r := range batch {
		if isNil(r) {
			continue
		}
		times[i], ok[i] = r.EventTime()
	}
	for i := range batch {
		if !ok[i] {
			d.add(i, fmt.Sprintf("index %d: missing timestamp", i))
			continue
		}
		if i+1 < len(batch) && ok[i+1] && times[i].After(times[i+1]) {
			d.add(i, fmt.Sprintf("index %d: timestamp decreased from %s to %s",
				i, times[i].Format(time.RFC3339Nano), times[i+1].Format(time.RFC3339Nano)))
		}
	}
	d.Passed = d.Count == 0
	return d
}

// CheckMonotonicTimestamps reports whether timestamps never decrease.
func CheckMonotonicTimestamps[T Timed](batch []T) bool {
	return emit(DiagnoseMonotonicTimestamps(batch))
}
