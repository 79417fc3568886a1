package rules

import "time"

// Clock abstracts "now" so the future-timestamp bound can be tested.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NowUTC is the default clock.
var NowUTC Clock = realClock{}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
