package timeentry

import (
	"context"
	"sync"
	"time"

	"timebank/internal/domain/auth"
	"timebank/internal/domain/workday"
	"timebank/internal/platform/i18n"
)

// SettingsReader is the part of the settings service the entry service needs.
type SettingsReader interface {
	Get(ctx context.Context, userID string) (workday.Settings, error)
}

type Service struct {
	Store    StoreAPI
	Settings SettingsReader
	Location *time.Location
	Now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewService(store StoreAPI, settings SettingsReader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		Store:    store,
		Settings: settings,
		Location: loc,
		Now:      time.Now,
		inFlight: map[string]bool{},
	}
}

func (s *Service) now() time.Time {
	return s.Now().In(s.Location)
}

// ClockResult is what a clock action returns to the caller.
type ClockResult struct {
	Action   workday.Action   `json:"action"`
	Snapshot workday.Snapshot `json:"snapshot"`
}

// Clock runs the next action of the user's workday against entries read from
// the store for this request. A second request for the same user while one is
// running gets ErrActionInFlight.
func (s *Service) Clock(ctx context.Context, userID string, confirm bool) (ClockResult, error) {
	if err := auth.RequireUser(userID); err != nil {
		return ClockResult{}, err
	}
	if !s.acquire(userID) {
		return ClockResult{}, workday.ErrActionInFlight
	}
	defer s.release(userID)

	settings, err := s.Settings.Get(ctx, userID)
	if err != nil {
		return ClockResult{}, err
	}
	entries, err := s.Store.List(ctx, userID)
	if err != nil {
		return ClockResult{}, err
	}
	session := workday.NewSession(userID, s.Store, workday.SortByStart(localize(entries, s.Location)), settings)

	now := s.now()
	action, err := session.Clock(ctx, now, confirm)
	if err != nil {
		return ClockResult{Action: action}, err
	}
	return ClockResult{Action: action, Snapshot: s.decorate(ctx, session.Tick(now), settings)}, nil
}

func (s *Service) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return false
	}
	s.inFlight[userID] = true
	return true
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}

// Snapshot computes the current view model from fresh store reads.
func (s *Service) Snapshot(ctx context.Context, userID string) (workday.Snapshot, error) {
	if err := auth.RequireUser(userID); err != nil {
		return workday.Snapshot{}, err
	}
	settings, err := s.Settings.Get(ctx, userID)
	if err != nil {
		return workday.Snapshot{}, err
	}
	entries, err := s.List(ctx, userID)
	if err != nil {
		return workday.Snapshot{}, err
	}
	return s.decorate(ctx, workday.Compute(entries, settings, s.now()), settings), nil
}

func (s *Service) decorate(ctx context.Context, snap workday.Snapshot, settings workday.Settings) workday.Snapshot {
	snap.StatusLabel = i18n.T(ctx, "status."+string(snap.Status))
	if snap.LastEvent != workday.EventNone && snap.LastEventAt != nil {
		snap.LastEventLabel = i18n.T(ctx, "event."+string(snap.LastEvent), map[string]any{
			"Time": workday.FormatClock(snap.LastEventAt.In(s.Location), settings.Use12Hour),
		})
	}
	return snap
}

// List returns all of the user's entries in the service location, sorted by start.
func (s *Service) List(ctx context.Context, userID string) ([]workday.Entry, error) {
	if err := auth.RequireUser(userID); err != nil {
		return nil, err
	}
	entries, err := s.Store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return workday.SortByStart(localize(entries, s.Location)), nil
}

// ListRange returns entries starting in [from, to).
func (s *Service) ListRange(ctx context.Context, userID string, from, to time.Time) ([]workday.Entry, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, ErrInvalidRange
	}
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if !from.IsZero() && e.StartTime.Before(from) {
			continue
		}
		if !to.IsZero() && !e.StartTime.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// History groups the user's entries per calendar day, latest first.
func (s *Service) History(ctx context.Context, userID string) ([]workday.DayGroup, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return workday.History(entries, s.Location), nil
}

// Edit changes start and end of an existing entry and returns the entry before
// and after the change. A nil end reopens the entry.
func (s *Service) Edit(ctx context.Context, userID, entryID string, start time.Time, end *time.Time) (workday.Entry, workday.Entry, error) {
	if err := auth.RequireUser(userID); err != nil {
		return workday.Entry{}, workday.Entry{}, err
	}
	if start.IsZero() || (end != nil && end.Before(start)) {
		return workday.Entry{}, workday.Entry{}, ErrInvalidRange
	}
	entries, err := s.List(ctx, userID)
	if err != nil {
		return workday.Entry{}, workday.Entry{}, err
	}
	var before *workday.Entry
	for i := range entries {
		if entries[i].ID == entryID {
			before = &entries[i]
			break
		}
	}
	if before == nil {
		return workday.Entry{}, workday.Entry{}, ErrNotFound
	}
	if end == nil && !before.IsOpen() {
		if open := workday.OpenEntry(entries); open != nil {
			return workday.Entry{}, workday.Entry{}, ErrOpenEntryExists
		}
	}

	after := workday.Entry{ID: entryID, StartTime: start}
	if end != nil {
		e := *end
		after.EndTime = &e
	}
	if err := s.Store.Update(ctx, userID, after); err != nil {
		return workday.Entry{}, workday.Entry{}, err
	}
	return *before, after, nil
}

// DeleteDay removes every entry starting on day's calendar date and returns the removed ids.
func (s *Service) DeleteDay(ctx context.Context, userID string, day time.Time) ([]string, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := workday.EntryIDsOn(entries, day.In(s.Location))
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	if err := s.Store.DeleteMany(ctx, userID, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ParseDay parses a YYYY-MM-DD date in the service location.
func (s *Service) ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, s.Location)
}

func localize(entries []workday.Entry, loc *time.Location) []workday.Entry {
	out := make([]workday.Entry, 0, len(entries))
	for _, e := range entries {
		e.StartTime = e.StartTime.In(loc)
		if e.EndTime != nil {
			end := e.EndTime.In(loc)
			e.EndTime = &end
		}
		out = append(out, e)
	}
	return out
}
