package workday

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// DateKey formats the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// GroupByDate buckets entries by the local calendar date of their start.
func GroupByDate(entries []Entry, loc *time.Location) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range entries {
		key := DateKey(e.StartTime.In(loc))
		out[key] = append(out[key], e)
	}
	for key := range out {
		out[key] = SortByStart(out[key])
	}
	return out
}

// DayGroup is one calendar day of history as the edit and delete views show it.
type DayGroup struct {
	Date      string        `json:"date"`
	Entries   []Entry       `json:"entries"`
	Worked    time.Duration `json:"-"`
	WorkedMs  int64         `json:"workedMs"`
	Formatted string        `json:"formatted"`
	FirstIn   *time.Time    `json:"firstIn,omitempty"`
	LastOut   *time.Time    `json:"lastOut,omitempty"`
}

// History groups entries per day, most recent day first.
func History(entries []Entry, loc *time.Location) []DayGroup {
	grouped := GroupByDate(entries, loc)
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]DayGroup, 0, len(keys))
	for _, key := range keys {
		day := grouped[key]
		worked := SumWorked(day, nil)
		group := DayGroup{
			Date:      key,
			Entries:   day,
			Worked:    worked,
			WorkedMs:  worked.Milliseconds(),
			Formatted: FormatSpaced(worked),
		}
		first := day[0].StartTime
		group.FirstIn = &first
		if last := day[len(day)-1]; last.EndTime != nil {
			lastOut := *last.EndTime
			group.LastOut = &lastOut
		}
		out = append(out, group)
	}
	return out
}

// EntryIDsOn returns the ids of entries starting on day's calendar date.
func EntryIDsOn(entries []Entry, day time.Time) []string {
	var ids []string
	for _, e := range OnDay(entries, day) {
		ids = append(ids, e.ID)
	}
	return ids
}

// EventKind names the most recent clock event of the day.
type EventKind string

const (
	EventNone       EventKind = ""
	EventClockIn    EventKind = "clock_in"
	EventBreakStart EventKind = "break_start"
	EventBreakEnd   EventKind = "break_end"
	EventClockOut   EventKind = "clock_out"
)

// LastEvent returns the latest clock event among today's sorted entries.
func LastEvent(today []Entry) (EventKind, *time.Time) {
	switch {
	case len(today) == 0:
		return EventNone, nil
	case len(today) == 1 && today[0].IsOpen():
		t := today[0].StartTime
		return EventClockIn, &t
	case len(today) == 1:
		t := *today[0].EndTime
		return EventBreakStart, &t
	}
	last := today[len(today)-1]
	if last.IsOpen() {
		t := last.StartTime
		return EventBreakEnd, &t
	}
	t := *last.EndTime
	return EventClockOut, &t
}
