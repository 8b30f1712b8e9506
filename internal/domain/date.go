package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// ErrDateOutOfRange is returned when a requested date falls outside the
// archive's supported range.
var ErrDateOutOfRange = errors.New("date out of supported range")

// Date is a civil calendar date without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes y/m/d into a Date (e.g. Feb 30 becomes Mar 1 or 2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Midnight returns 00:00 UTC of the date.
func (d Date) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Midnight().AddDate(0, 0, n))
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Midnight().Before(o.Midnight())
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Midnight().After(o.Midnight())
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Midnight().Format(DateLayout)
}

// Korean formats the date as "2023년 07월 15일".
func (d Date) Korean() string {
	return fmt.Sprintf("%04d년 %02d월 %02d일", d.Year, int(d.Month), d.Day)
}

// DateRange bounds the dates a user may request. The latest selectable date
// trails today by Lag days to allow for upstream publication delay.
type DateRange struct {
	Earliest Date
	Lag      int
}

// DefaultDateRange covers the NCEP/NCAR Reanalysis 1 archive.
func DefaultDateRange() DateRange {
	return DateRange{
		Earliest: NewDate(1948, time.January, 1),
		Lag:      2,
	}
}

// Latest returns today minus the lag, evaluated in UTC.
func (r DateRange) Latest(now time.Time) Date {
	return DateOf(now.UTC()).AddDays(-r.Lag)
}

// Default returns the date preselected when the user has not chosen one.
func (r DateRange) Default(now time.Time) Date {
	return r.Latest(now)
}

// Contains reports whether d is selectable at now.
func (r DateRange) Contains(d Date, now time.Time) bool {
	return !d.Before(r.Earliest) && !d.After(r.Latest(now))
}

// Validate returns ErrDateOutOfRange if d is not selectable at now.
func (r DateRange) Validate(d Date, now time.Time) error {
	if r.Contains(d, now) {
		return nil
	}
	return fmt.Errorf("%w: %s is outside %s..%s", ErrDateOutOfRange, d, r.Earliest, r.Latest(now))
}
