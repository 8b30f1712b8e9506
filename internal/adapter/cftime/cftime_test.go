package cftime

import (
	"testing"
	"time"
)

func TestParseUnits_PSLHours(t *testing.T) {
	u, err := ParseUnits("hours since 1800-01-01 00:00:0.0")
	if err != nil {
		t.Fatalf("ParseUnits: %v", err)
	}
	if u.Step != time.Hour {
		t.Errorf("expected hourly step, got %v", u.Step)
	}
	if !u.Epoch.Equal(time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected epoch %v", u.Epoch)
	}

	// 2023-07-15 00:00 UTC is 1959456 hours after the epoch.
	got := u.Time(1959456)
	want := time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time: expected %v, got %v", want, got)
	}
	if off := u.Offset(want); off != 1959456 {
		t.Errorf("Offset: expected 1959456, got %v", off)
	}
}

func TestParseUnits_Variants(t *testing.T) {
	tests := []struct {
		units string
		step  time.Duration
		epoch time.Time
	}{
		{"days since 1948-01-01", 24 * time.Hour, time.Date(1948, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"seconds since 1970-01-01 00:00:00", time.Second, time.Unix(0, 0).UTC()},
		{"Minutes since 2000-1-1 6:30", time.Minute, time.Date(2000, 1, 1, 6, 30, 0, 0, time.UTC)},
		{"hours since 1900-01-01T00:00:00Z", time.Hour, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"hours since 1800-1-1 00:00:00 UTC", time.Hour, time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		u, err := ParseUnits(tt.units)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.units, err)
			continue
		}
		if u.Step != tt.step || !u.Epoch.Equal(tt.epoch) {
			t.Errorf("%q: got step=%v epoch=%v", tt.units, u.Step, u.Epoch)
		}
	}

	for _, bad := range []string{"", "hours", "fortnights since 1800-01-01", "hours after 1800-01-01", "days since yesterday"} {
		if _, err := ParseUnits(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestTime_FractionalAndNegative(t *testing.T) {
	u := Units{Step: 24 * time.Hour, Epoch: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
	if got := u.Time(1.5); !got.Equal(time.Date(2000, 1, 2, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("1.5 days: got %v", got)
	}
	if got := u.Time(-1); !got.Equal(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("-1 day: got %v", got)
	}
	times := u.Times([]float64{0, 31})
	if !times[1].Equal(time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Times: got %v", times)
	}
}

func TestCheckCalendar(t *testing.T) {
	for _, ok := range []string{"", "standard", "Gregorian", "proleptic_gregorian"} {
		if err := CheckCalendar(ok); err != nil {
			t.Errorf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"noleap", "360_day", "julian"} {
		if err := CheckCalendar(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
