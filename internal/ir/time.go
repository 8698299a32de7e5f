package ir

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Time is a sealed interface over temporal literals.
// Only Instant and Period implement it.
type Time interface {
	temporal() // Sealed
	String() string
}

// Indeterminate names a placeholder used instead of an explicit position.
type Indeterminate string

const (
	IndeterminateAfter   Indeterminate = "after"
	IndeterminateBefore  Indeterminate = "before"
	IndeterminateNow     Indeterminate = "now"
	IndeterminateUnknown Indeterminate = "unknown"
)

// ParseIndeterminate matches s against the closed set of keywords.
func ParseIndeterminate(s string) (Indeterminate, bool) {
	switch Indeterminate(s) {
	case IndeterminateAfter, IndeterminateBefore, IndeterminateNow, IndeterminateUnknown:
		return Indeterminate(s), true
	}
	return "", false
}

// Instant is a single point in time. Exactly one of Position and
// Indeterminate is set.
type Instant struct {
	ID            string
	Position      time.Time
	Indeterminate Indeterminate
}

func (Instant) temporal() {}

// IsIndeterminate reports whether the instant has no explicit position.
func (i Instant) IsIndeterminate() bool { return i.Indeterminate != "" }

// String renders the position as RFC 3339 in UTC, or the keyword.
func (i Instant) String() string {
	if i.IsIndeterminate() {
		return string(i.Indeterminate)
	}
	return FormatISO(i.Position)
}

// MarshalJSON implements json.Marshaler.
func (i Instant) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID            string `json:"id,omitempty"`
		Position      string `json:"position,omitempty"`
		Indeterminate string `json:"indeterminate,omitempty"`
	}
	w := wire{ID: i.ID, Indeterminate: string(i.Indeterminate)}
	if !i.IsIndeterminate() {
		w.Position = FormatISO(i.Position)
	}
	return json.Marshal(w)
}

// Period is a closed time interval.
type Period struct {
	ID    string  `json:"id,omitempty"`
	Begin Instant `json:"begin"`
	End   Instant `json:"end"`
}

func (Period) temporal() {}

// String renders the period as begin/end.
func (p Period) String() string {
	return p.Begin.String() + "/" + p.End.String()
}

// FormatISO renders t in UTC with the minimal fractional seconds.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// isoLayouts are tried in order. Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseISOInstant parses an ISO 8601 calendar date-time.
func ParseISOInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO 8601 date-time: %q", s)
}

// ParseTime parses an ISO 8601 instant, an instant interval "a/b", or an
// interval given as "start/duration" or "duration/end".
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	begin, end, ok := strings.Cut(s, "/")
	if !ok {
		t, err := ParseISOInstant(s)
		if err != nil {
			return nil, err
		}
		return Instant{Position: t}, nil
	}

	switch {
	case strings.HasPrefix(end, "P"):
		b, err := ParseISOInstant(begin)
		if err != nil {
			return nil, err
		}
		e, err := AddISODuration(b, end, 1)
		if err != nil {
			return nil, err
		}
		return newPeriod(b, e)
	case strings.HasPrefix(begin, "P"):
		e, err := ParseISOInstant(end)
		if err != nil {
			return nil, err
		}
		b, err := AddISODuration(e, begin, -1)
		if err != nil {
			return nil, err
		}
		return newPeriod(b, e)
	default:
		b, err := ParseISOInstant(begin)
		if err != nil {
			return nil, err
		}
		e, err := ParseISOInstant(end)
		if err != nil {
			return nil, err
		}
		return newPeriod(b, e)
	}
}

func newPeriod(b, e time.Time) (Period, error) {
	if e.Before(b) {
		return Period{}, fmt.Errorf("period ends before it begins: %s/%s", FormatISO(b), FormatISO(e))
	}
	return Period{Begin: Instant{Position: b}, End: Instant{Position: e}}, nil
}

var durationPattern = regexp.MustCompile(
	`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// AddISODuration adds sign times the ISO 8601 duration d to t.
func AddISODuration(t time.Time, d string, sign int) (time.Time, error) {
	m := durationPattern.FindStringSubmatch(d)
	if m == nil || d == "P" || strings.HasSuffix(d, "T") {
		return time.Time{}, fmt.Errorf("not an ISO 8601 duration: %q", d)
	}
	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	years, months := atoi(m[1]), atoi(m[2])
	days := atoi(m[3])*7 + atoi(m[4])
	t = t.AddDate(sign*years, sign*months, sign*days)

	var secs float64
	if m[7] != "" {
		secs, _ = strconv.ParseFloat(m[7], 64)
	}
	clock := time.Duration(atoi(m[5]))*time.Hour +
		time.Duration(atoi(m[6]))*time.Minute +
		time.Duration(secs*float64(time.Second))
	return t.Add(time.Duration(sign) * clock), nil
}
