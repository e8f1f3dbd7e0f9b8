package workday

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrDayFinished        = errors.New("workday already finished")
	ErrActionInFlight     = errors.New("clock action already in progress")
	ErrConfirmEarlyFinish = errors.New("finishing before the daily target requires confirmation")
	ErrStaleOpenEntry     = errors.New("an entry from an earlier day is still open")
)

// EarlyFinishError carries the deficit a confirmed early clock-out moves into the bank.
type EarlyFinishError struct {
	Deficit time.Duration
}

func (e *EarlyFinishError) Error() string {
	return fmt.Sprintf("%s (%s short)", ErrConfirmEarlyFinish, FormatDuration(e.Deficit))
}

func (e *EarlyFinishError) Unwrap() error {
	return ErrConfirmEarlyFinish
}

// EntryWriter is the part of the entry store a clock action needs.
type EntryWriter interface {
	Create(ctx context.Context, userID string, start time.Time) (Entry, error)
	Update(ctx context.Context, userID string, entry Entry) error
}

// Session holds one user's entries and settings in memory and runs clock actions
// against them. Changes are applied locally first and rolled back if the store
// call fails. Only one action may be in flight at a time.
type Session struct {
	mu       sync.Mutex
	userID   string
	store    EntryWriter
	entries  []Entry
	settings Settings
	busy     bool
}

func NewSession(userID string, store EntryWriter, entries []Entry, settings Settings) *Session {
	return &Session{
		userID:   userID,
		store:    store,
		entries:  append([]Entry(nil), entries...),
		settings: settings,
	}
}

func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) SetSettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Tick recomputes the snapshot for now.
func (s *Session) Tick(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Compute(s.entries, s.settings, now)
}

// Clock performs the single action the current status allows. Ending the day
// short of the daily target returns an *EarlyFinishError unless confirm is set.
func (s *Session) Clock(ctx context.Context, now time.Time, confirm bool) (Action, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ActionNone, ErrActionInFlight
	}

	today := TodayEntries(s.entries, now)
	status, current := DeriveStatus(today)
	action := NextAction(status)

	switch action {
	case ActionNone:
		s.mu.Unlock()
		return action, ErrDayFinished
	case ActionStart, ActionEndBreak:
		if StaleOpenEntry(s.entries, now) != nil {
			s.mu.Unlock()
			return action, ErrStaleOpenEntry
		}
	case ActionFinish:
		if !confirm {
			worked := DailyWorked(s.entries, now)
			if target := s.settings.DailyTarget(); worked < target {
				s.mu.Unlock()
				return action, &EarlyFinishError{Deficit: target - worked}
			}
		}
	}

	prev := append([]Entry(nil), s.entries...)
	s.busy = true

	var err error
	switch action {
	case ActionStart, ActionEndBreak:
		s.entries = append(s.entries, Entry{StartTime: now})
		placeholder := len(s.entries) - 1
		s.mu.Unlock()

		var created Entry
		created, err = s.store.Create(ctx, s.userID, now)

		s.mu.Lock()
		if err == nil {
			s.entries[placeholder] = created
		}
	case ActionStartBreak, ActionFinish:
		closed := *current
		end := now
		closed.EndTime = &end
		s.replace(closed)
		s.mu.Unlock()

		err = s.store.Update(ctx, s.userID, closed)

		s.mu.Lock()
	}

	if err != nil {
		s.entries = prev
	}
	s.busy = false
	s.mu.Unlock()

	if err != nil {
		return action, fmt.Errorf("clock %s: %w", action, err)
	}
	return action, nil
}

func (s *Session) replace(entry Entry) {
	for i := range s.entries {
		if s.entries[i].ID == entry.ID {
			s.entries[i] = entry
			return
		}
	}
}
