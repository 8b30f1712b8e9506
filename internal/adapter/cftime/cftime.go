// Package cftime converts CF-convention numeric time coordinates.
package cftime

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Units is a parsed "<unit> since <epoch>" time unit.
type Units struct {
	Step  time.Duration
	Epoch time.Time
}

var stepNames = map[string]time.Duration{
	"day": 24 * time.Hour, "days": 24 * time.Hour, "d": 24 * time.Hour,
	"hour": time.Hour, "hours": time.Hour, "hr": time.Hour, "hrs": time.Hour, "h": time.Hour,
	"minute": time.Minute, "minutes": time.Minute, "min": time.Minute, "mins": time.Minute,
	"second": time.Second, "seconds": time.Second, "sec": time.Second, "secs": time.Second, "s": time.Second,
}

var epochLayouts = []string{
	"2006-1-2 15:4:5Z07:00",
	"2006-1-2 15:4:5 Z07:00",
	"2006-1-2 15:4:5 -07:00",
	"2006-1-2 15:4:5 -0700",
	"2006-1-2 15:4:5",
	"2006-1-2T15:4:5Z07:00",
	"2006-1-2T15:4:5",
	"2006-1-2 15:4",
	"2006-1-2",
}

// ParseUnits parses units such as "hours since 1800-01-01 00:00:0.0".
func ParseUnits(s string) (Units, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 3 || strings.ToLower(fields[1]) != "since" {
		return Units{}, fmt.Errorf("invalid time units %q", s)
	}

	step, ok := stepNames[strings.ToLower(fields[0])]
	if !ok {
		return Units{}, fmt.Errorf("unsupported time unit %q", fields[0])
	}

	epoch, err := parseEpoch(strings.Join(fields[2:], " "))
	if err != nil {
		return Units{}, fmt.Errorf("invalid epoch in %q: %w", s, err)
	}

	return Units{Step: step, Epoch: epoch}, nil
}

// CheckCalendar rejects calendars other than the proleptic Gregorian family.
// An empty calendar defaults to "standard".
func CheckCalendar(calendar string) error {
	switch strings.ToLower(strings.TrimSpace(calendar)) {
	case "", "standard", "gregorian", "proleptic_gregorian":
		return nil
	default:
		return fmt.Errorf("unsupported calendar %q", calendar)
	}
}

// Time converts an offset in these units to an instant.
func (u Units) Time(offset float64) time.Time {
	secs := offset * u.Step.Seconds()
	days := math.Floor(secs / 86400)
	rem := secs - days*86400
	return u.Epoch.AddDate(0, 0, int(days)).Add(time.Duration(math.Round(rem * 1e9)))
}

// Offset converts an instant to an offset in these units.
func (u Units) Offset(t time.Time) float64 {
	secs := float64(t.Unix()-u.Epoch.Unix()) + float64(t.Nanosecond()-u.Epoch.Nanosecond())/1e9
	return secs / u.Step.Seconds()
}

// Times converts a coordinate array to instants.
func (u Units) Times(offsets []float64) []time.Time {
	out := make([]time.Time, len(offsets))
	for i, v := range offsets {
		out[i] = u.Time(v)
	}
	return out
}

func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " UTC")
	s = strings.TrimSuffix(s, " utc")
	// Fractional seconds such as "00:00:0.0" are truncated.
	if i := strings.LastIndex(s, "."); i > strings.LastIndex(s, ":") && strings.Contains(s, ":") {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		s = s[:i] + s[j:]
	}

	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
