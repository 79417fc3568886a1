package rules

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// floatingLayout renders wall-clock values that carry no offset.
const floatingLayout = "2006-01-02T15:04:05.999999999"

var (
	awareLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
	}
	floatingLayouts = []string{
		floatingLayout,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02",
	}
)

// ErrTimestampFormat is returned when text cannot be read as a timestamp.
var ErrTimestampFormat = errors.New("unrecognised timestamp format")

// Timestamp is an instant together with whether the source stated an offset.
// A floating timestamp is a wall-clock reading with no offset at all; it is
// representable so that replayed records can be audited, but it never passes
// the timestamp contract.
type Timestamp struct {
	t        time.Time
	floating bool
}

// At wraps t, keeping the offset of its location.
func At(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// Floating builds a wall-clock timestamp with no offset from t's date and clock.
func Floating(t time.Time) Timestamp {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return Timestamp{t: wall, floating: true}
}

// ParseTimestamp reads RFC 3339 text. Text without an offset yields a
// floating timestamp rather than an error.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return At(t), nil
		}
	}
	for _, layout := range floatingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t: t, floating: true}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("%w: %q", ErrTimestampFormat, s)
}

// CoerceTimestamp accepts time.Time, *time.Time, Timestamp, *Timestamp or text.
func CoerceTimestamp(v any) (Timestamp, error) {
	switch x := v.(type) {
	case Timestamp:
		return x, nil
	case *Timestamp:
		if x == nil {
			return Timestamp{}, errors.New("timestamp is nil")
		}
		return *x, nil
	case time.Time:
		return At(x), nil
	case *time.Time:
		if x == nil {
			return Timestamp{}, errors.New("timestamp is nil")
		}
		return At(*x), nil
	case string:
		return ParseTimestamp(x)
	case nil:
		return Timestamp{}, errors.New("timestamp is nil")
	default:
		return Timestamp{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func (ts Timestamp) IsZero() bool { return ts.t.IsZero() && !ts.floating }

// Aware reports whether an offset was attached.
func (ts Timestamp) Aware() bool { return !ts.floating }

// Offset returns the attached UTC offset; zero for floating timestamps.
func (ts Timestamp) Offset() time.Duration {
	if ts.floating {
		return 0
	}
	_, secs := ts.t.Zone()
	return time.Duration(secs) * time.Second
}

// Time returns the value as given. Floating values come back in UTC.
func (ts Timestamp) Time() time.Time { return ts.t }

// UTC returns the instant normalised to UTC.
func (ts Timestamp) UTC() time.Time { return ts.t.UTC() }

// Year is the calendar year in the timestamp's own offset.
func (ts Timestamp) Year() int { return ts.t.Year() }

func (ts Timestamp) Equal(o Timestamp) bool {
	return ts.floating == o.floating && ts.t.Equal(o.t)
}

func (ts Timestamp) String() string {
	if ts.floating {
		return ts.t.Format(floatingLayout)
	}
	return ts.t.Format(time.RFC3339Nano)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(ts.String())), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a JSON string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
