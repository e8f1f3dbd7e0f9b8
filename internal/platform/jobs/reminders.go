package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"timebank/internal/domain/notifications"
	"timebank/internal/domain/settings"
	"timebank/internal/domain/workday"
	"timebank/internal/platform/i18n"
)

type SettingsLister interface {
	ListWithReminders(ctx context.Context) ([]settings.UserSettings, error)
}

type EntryLister interface {
	List(ctx context.Context, userID string) ([]workday.Entry, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

type ReminderCounter interface {
	RecordReminder()
}

// Reminders turns due workday triggers into notifications. Each run covers the
// window since the previous run so a trigger is delivered once.
type Reminders struct {
	Settings SettingsLister
	Entries  EntryLister
	Notify   Notifier
	Metrics  ReminderCounter
	Location *time.Location

	mu      sync.Mutex
	lastRun time.Time
}

type ReminderSummary struct {
	Users int       `json:"users"`
	Sent  int       `json:"sent"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

var reminderTypes = map[workday.TriggerKind]string{
	workday.TriggerClockIn:  notifications.TypeReminderClockIn,
	workday.TriggerBreakEnd: notifications.TypeReminderBreakEnd,
	workday.TriggerClockOut: notifications.TypeReminderClockOut,
}

// Run delivers triggers due in (previous run, now]. The first run looks back
// one interval.
func (r *Reminders) Run(ctx context.Context, now time.Time, interval time.Duration) (ReminderSummary, error) {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	r.mu.Lock()
	from := r.lastRun
	if from.IsZero() {
		from = now.Add(-interval)
	}
	r.lastRun = now
	r.mu.Unlock()

	summary := ReminderSummary{From: from, To: now}
	users, err := r.Settings.ListWithReminders(ctx)
	if err != nil {
		return summary, err
	}
	summary.Users = len(users)

	for _, u := range users {
		entries, err := r.Entries.List(ctx, u.UserID)
		if err != nil {
			slog.Warn("reminder entry lookup failed", "userId", u.UserID, "err", err)
			continue
		}
		today := workday.TodayEntries(entries, now)
		for _, trig := range workday.Due(workday.Triggers(today, u.Settings, now), from, now) {
			if err := r.send(ctx, u, trig); err != nil {
				slog.Warn("reminder notification failed", "userId", u.UserID, "kind", trig.Kind, "err", err)
				continue
			}
			summary.Sent++
			if r.Metrics != nil {
				r.Metrics.RecordReminder()
			}
		}
	}
	return summary, nil
}

func (r *Reminders) send(ctx context.Context, u settings.UserSettings, trig workday.Trigger) error {
	key := "reminder." + string(trig.Kind)
	data := map[string]any{"Time": workday.FormatClock(trig.At, u.Settings.Use12Hour)}
	return r.Notify.Create(ctx, u.UserID, reminderTypes[trig.Kind], i18n.T(ctx, key+".title"), i18n.T(ctx, key+".body", data))
}
