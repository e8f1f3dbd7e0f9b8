package workday

import (
	"sort"
	"time"
)

// Entry is one continuous interval of presence. An entry without EndTime is open.
type Entry struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

func (e Entry) IsOpen() bool {
	return e.EndTime == nil
}

// Duration returns end minus start for closed entries and zero for open ones.
func (e Entry) Duration() time.Duration {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// SortByStart returns a copy of entries ordered by ascending start time.
func SortByStart(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// OnDay returns the entries whose start falls on the calendar day of day, sorted by start.
func OnDay(entries []Entry, day time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if SameDay(e.StartTime.In(day.Location()), day) {
			out = append(out, e)
		}
	}
	return SortByStart(out)
}

// TodayEntries is OnDay for the current wall-clock time.
func TodayEntries(entries []Entry, now time.Time) []Entry {
	return OnDay(entries, now)
}

// OpenEntry returns the open entry among entries, or nil.
func OpenEntry(entries []Entry) *Entry {
	for i := range entries {
		if entries[i].IsOpen() {
			e := entries[i]
			return &e
		}
	}
	return nil
}

// StaleOpenEntry returns an entry left open on a day before now's, or nil.
// It blocks new segments until it is closed through an entry edit.
func StaleOpenEntry(entries []Entry, now time.Time) *Entry {
	today := StartOfDay(now)
	for i := range entries {
		if entries[i].IsOpen() && entries[i].StartTime.Before(today) {
			e := entries[i]
			return &e
		}
	}
	return nil
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns Monday 00:00 of the week containing t.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return StartOfDay(t.AddDate(0, 0, -(wd - 1)))
}

// MonthRange returns the first day of t's month and the first day of the next month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}
