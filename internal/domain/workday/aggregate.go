package workday

import "time"

// SumWorked totals closed entries matching pred. Open entries never contribute.
// Negative durations are kept as-is; clamping happens only when formatting.
func SumWorked(entries []Entry, pred func(Entry) bool) time.Duration {
	var total time.Duration
	for _, e := range entries {
		if e.IsOpen() {
			continue
		}
		if pred != nil && !pred(e) {
			continue
		}
		total += e.Duration()
	}
	return total
}

func onDay(day time.Time) func(Entry) bool {
	return func(e Entry) bool {
		return SameDay(e.StartTime.In(day.Location()), day)
	}
}

// inRange matches entries starting in [from, to).
func inRange(from, to time.Time) func(Entry) bool {
	return func(e Entry) bool {
		return !e.StartTime.Before(from) && e.StartTime.Before(to)
	}
}

// liveAddend is the elapsed time of today's open entry, if any.
func liveAddend(entries []Entry, now time.Time) time.Duration {
	open := OpenEntry(TodayEntries(entries, now))
	if open == nil {
		return 0
	}
	elapsed := now.Sub(open.StartTime)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// DailyWorked is today's closed total plus the running open entry.
func DailyWorked(entries []Entry, now time.Time) time.Duration {
	return SumWorked(entries, onDay(now)) + liveAddend(entries, now)
}

// DayWorked is the closed total for an arbitrary calendar day.
func DayWorked(entries []Entry, day time.Time) time.Duration {
	return SumWorked(entries, onDay(day))
}

// WeeklyWorked is the closed total since Monday of now's week plus today's live addend.
func WeeklyWorked(entries []Entry, now time.Time) time.Duration {
	from := WeekStart(now)
	return SumWorked(entries, inRange(from, from.AddDate(0, 0, 7))) + liveAddend(entries, now)
}

// RangeWorked is the closed total for entries starting in [from, to).
func RangeWorked(entries []Entry, from, to time.Time) time.Duration {
	return SumWorked(entries, inRange(from, to))
}

// Progress is worked as a percentage of target, zero when no target applies.
func Progress(worked, target time.Duration) float64 {
	if target <= 0 {
		return 0
	}
	return float64(worked) / float64(target) * 100
}
