package workday

import (
	"fmt"
	"time"
)

func hoursMinutes(d time.Duration) (int64, int64) {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	return total / 60, total % 60
}

// FormatDuration renders d as "HHhMMm". Negative durations floor to "00h00m".
func FormatDuration(d time.Duration) string {
	h, m := hoursMinutes(d)
	return fmt.Sprintf("%02dh%02dm", h, m)
}

// FormatSpaced renders d as "HHh MMm".
func FormatSpaced(d time.Duration) string {
	h, m := hoursMinutes(d)
	return fmt.Sprintf("%02dh %02dm", h, m)
}

// FormatSigned renders d with an explicit sign, "+" for zero and above.
func FormatSigned(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	return "+" + FormatDuration(d)
}

// FormatHHMM renders d as "HH:MM" for tabular exports.
func FormatHHMM(d time.Duration) string {
	h, m := hoursMinutes(d)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FormatClock renders the time of day in the user's preferred convention.
func FormatClock(t time.Time, use12Hour bool) string {
	if use12Hour {
		return t.Format("03:04 PM")
	}
	return t.Format("15:04")
}
