package workday

import "time"

type TriggerKind string

const (
	TriggerClockIn  TriggerKind = "clock_in"
	TriggerBreakEnd TriggerKind = "break_end"
	TriggerClockOut TriggerKind = "clock_out"
)

// Trigger is a point in time an external scheduler may notify the user at.
type Trigger struct {
	Kind TriggerKind `json:"kind"`
	At   time.Time   `json:"at"`
}

// Triggers lists today's reminder times for the toggles the user enabled.
// Delivery is up to the caller; nothing here schedules anything.
func Triggers(today []Entry, settings Settings, now time.Time) []Trigger {
	var out []Trigger
	status, _ := DeriveStatus(today)

	if settings.ClockInReminder && status == StatusNotStarted && settings.Workdays.Includes(now.Weekday()) {
		if at, ok := settings.WorkStartOn(now); ok {
			out = append(out, Trigger{Kind: TriggerClockIn, At: at})
		}
	}
	if settings.BreakReminder {
		if at := BreakEndTime(today, settings); at != nil {
			out = append(out, Trigger{Kind: TriggerBreakEnd, At: *at})
		}
	}
	if settings.ClockOutReminder {
		if at := PredictEndTime(today, settings); at != nil {
			out = append(out, Trigger{Kind: TriggerClockOut, At: *at})
		}
	}
	return out
}

// Due returns the triggers that fall in (after, now].
func Due(triggers []Trigger, after, now time.Time) []Trigger {
	var out []Trigger
	for _, t := range triggers {
		if t.At.After(after) && !t.At.After(now) {
			out = append(out, t)
		}
	}
	return out
}
