package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-07-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != (Date{Year: 2023, Month: time.July, Day: 15}) {
		t.Errorf("unexpected date %+v", d)
	}
	if d.String() != "2023-07-15" {
		t.Errorf("String: got %s", d.String())
	}
	if d.Korean() != "2023년 07월 15일" {
		t.Errorf("Korean: got %s", d.Korean())
	}

	for _, bad := range []string{"", "2023-7-15", "2023-02-30", "15/07/2023"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDateRange(t *testing.T) {
	r := DefaultDateRange()
	now := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)

	if got := r.Latest(now); got != NewDate(2026, time.October, 12) {
		t.Errorf("Latest: expected 2026-10-12, got %s", got)
	}
	if r.Default(now) != r.Latest(now) {
		t.Errorf("Default must equal Latest")
	}

	tests := []struct {
		d    Date
		want bool
	}{
		{NewDate(1948, time.January, 1), true},
		{NewDate(1947, time.December, 31), false},
		{NewDate(2026, time.October, 12), true},
		{NewDate(2026, time.October, 13), false},
		{NewDate(2023, time.July, 15), true},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.d, now); got != tt.want {
			t.Errorf("Contains(%s): expected %v, got %v", tt.d, tt.want, got)
		}
		err := r.Validate(tt.d, now)
		if tt.want && err != nil {
			t.Errorf("Validate(%s): unexpected error %v", tt.d, err)
		}
		if !tt.want && !errors.Is(err, ErrDateOutOfRange) {
			t.Errorf("Validate(%s): expected ErrDateOutOfRange, got %v", tt.d, err)
		}
	}
}

func TestDateRange_CustomLag(t *testing.T) {
	r := DateRange{Earliest: NewDate(1948, time.January, 1), Lag: 5}
	now := time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC)
	if got := r.Latest(now); got != NewDate(2024, time.February, 27) {
		t.Errorf("expected 2024-02-27 across leap day, got %s", got)
	}
}

func TestVariant(t *testing.T) {
	v, err := VariantByName("surface")
	if err != nil || v.ConvertToDegC {
		t.Fatalf("surface variant: %+v %v", v, err)
	}
	s, err := VariantByName("sea")
	if err != nil || !s.ConvertToDegC {
		t.Fatalf("sea variant: %+v %v", s, err)
	}
	if _, err := VariantByName("ocean"); err == nil {
		t.Error("expected unknown variant error")
	}

	d := NewDate(2023, time.July, 15)
	if got := v.Title(d); got != "지상 2m 기온: 2023년 07월 15일" {
		t.Errorf("Title: got %s", got)
	}
	if got := s.ColorBarLabel(); got != "해상 2m 기온 (°C)" {
		t.Errorf("ColorBarLabel: got %s", got)
	}
}
