package workday

import "time"

// Snapshot is everything presentation needs for one tick, recomputed from
// entries, settings and now on every call and never cached.
type Snapshot struct {
	Now              time.Time  `json:"now"`
	Status           Status     `json:"status"`
	StatusLabel      string     `json:"statusLabel,omitempty"`
	NextAction       Action     `json:"nextAction"`
	CurrentEntry     *Entry     `json:"currentEntry"`
	StaleOpenEntry   *Entry     `json:"staleOpenEntry,omitempty"`
	TodayEntries     []Entry    `json:"todayEntries"`
	DailyMs          int64      `json:"dailyMs"`
	Daily            string     `json:"daily"`
	WeeklyMs         int64      `json:"weeklyMs"`
	Weekly           string     `json:"weekly"`
	DailyTargetMs    int64      `json:"dailyTargetMs"`
	Progress         float64    `json:"progress"`
	TimeBankMs       int64      `json:"timeBankMs"`
	TimeBank         string     `json:"timeBank"`
	PredictedEnd     *time.Time `json:"predictedEnd"`
	PredictedEndText string     `json:"predictedEndText,omitempty"`
	LastEvent        EventKind  `json:"lastEvent,omitempty"`
	LastEventAt      *time.Time `json:"lastEventAt,omitempty"`
	LastEventLabel   string     `json:"lastEventLabel,omitempty"`
	Triggers         []Trigger  `json:"triggers,omitempty"`
}

// Compute derives the snapshot as a pure function of its inputs.
func Compute(entries []Entry, settings Settings, now time.Time) Snapshot {
	today := TodayEntries(entries, now)
	status, current := DeriveStatus(today)
	daily := DailyWorked(entries, now)
	weekly := WeeklyWorked(entries, now)
	target := settings.DailyTarget()
	bank := ComputeBank(entries, settings, now)

	snap := Snapshot{
		Now:            now,
		Status:         status,
		NextAction:     NextAction(status),
		CurrentEntry:   current,
		StaleOpenEntry: StaleOpenEntry(entries, now),
		TodayEntries:   today,
		DailyMs:        daily.Milliseconds(),
		Daily:          FormatDuration(daily),
		WeeklyMs:       weekly.Milliseconds(),
		Weekly:         FormatDuration(weekly),
		DailyTargetMs:  target.Milliseconds(),
		Progress:       Progress(daily, target),
		TimeBankMs:     bank.Balance.Milliseconds(),
		TimeBank:       bank.Formatted(),
		PredictedEnd:   PredictEndTime(today, settings),
		Triggers:       Triggers(today, settings, now),
	}
	if snap.PredictedEnd != nil {
		snap.PredictedEndText = FormatClock(*snap.PredictedEnd, settings.Use12Hour)
	}
	snap.LastEvent, snap.LastEventAt = LastEvent(today)
	return snap
}
