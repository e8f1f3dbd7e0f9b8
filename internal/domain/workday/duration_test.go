package workday

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "00h00m"},
		{0, "00h00m"},
		{59 * time.Second, "00h00m"},
		{time.Minute, "00h01m"},
		{7 * time.Hour, "07h00m"},
		{8*time.Hour + 5*time.Minute, "08h05m"},
		{125 * time.Hour, "125h00m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDurationIsMonotonic(t *testing.T) {
	prev := FormatDuration(-time.Hour)
	for d := -time.Hour; d <= 3*time.Hour; d += 7 * time.Second {
		got := FormatDuration(d)
		if got < prev {
			t.Fatalf("FormatDuration(%v) = %q sorts before previous %q", d, got, prev)
		}
		prev = got
	}
}

func TestFormatSpacedAndSigned(t *testing.T) {
	if got := FormatSpaced(90 * time.Minute); got != "01h 30m" {
		t.Fatalf("unexpected spaced format %q", got)
	}
	if got := FormatSigned(-61 * time.Minute); got != "-01h01m" {
		t.Fatalf("unexpected signed format %q", got)
	}
	if got := FormatSigned(61 * time.Minute); got != "+01h01m" {
		t.Fatalf("unexpected signed format %q", got)
	}
	if got := FormatHHMM(7*time.Hour + 30*time.Minute); got != "07:30" {
		t.Fatalf("unexpected HH:MM format %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	ts := at(monday, 18, 5)
	if got := FormatClock(ts, false); got != "18:05" {
		t.Fatalf("unexpected 24h clock %q", got)
	}
	if got := FormatClock(ts, true); got != "06:05 PM" {
		t.Fatalf("unexpected 12h clock %q", got)
	}
}
