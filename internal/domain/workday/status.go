package workday

import "time"

type Status string

const (
	StatusNotStarted         Status = "NOT_STARTED"
	StatusWorkingBeforeBreak Status = "WORKING_BEFORE_BREAK"
	StatusOnBreak            Status = "ON_BREAK"
	StatusWorkingAfterBreak  Status = "WORKING_AFTER_BREAK"
	StatusFinished           Status = "FINISHED"
)

// Action is the single user-facing clock action available in a status.
type Action string

const (
	ActionStart      Action = "start"
	ActionStartBreak Action = "start_break"
	ActionEndBreak   Action = "end_break"
	ActionFinish     Action = "finish"
	ActionNone       Action = "none"
)

// DeriveStatus maps today's entries, sorted by start, to a workday status and the
// open entry if there is one. Days beyond one work, break, work cycle are FINISHED.
func DeriveStatus(today []Entry) (Status, *Entry) {
	current := OpenEntry(today)
	switch {
	case len(today) == 0:
		return StatusNotStarted, nil
	case len(today) == 1 && today[0].IsOpen():
		return StatusWorkingBeforeBreak, current
	case len(today) == 1:
		return StatusOnBreak, nil
	case len(today) == 2 && today[1].IsOpen():
		return StatusWorkingAfterBreak, current
	default:
		return StatusFinished, current
	}
}

// StatusAt is DeriveStatus over the entries of now's calendar day.
func StatusAt(entries []Entry, now time.Time) (Status, *Entry) {
	return DeriveStatus(TodayEntries(entries, now))
}

func NextAction(status Status) Action {
	switch status {
	case StatusNotStarted:
		return ActionStart
	case StatusWorkingBeforeBreak:
		return ActionStartBreak
	case StatusOnBreak:
		return ActionEndBreak
	case StatusWorkingAfterBreak:
		return ActionFinish
	default:
		return ActionNone
	}
}

// Working reports whether a segment is currently running.
func (s Status) Working() bool {
	return s == StatusWorkingBeforeBreak || s == StatusWorkingAfterBreak
}
