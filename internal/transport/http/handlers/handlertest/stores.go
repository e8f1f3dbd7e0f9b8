// Package handlertest holds in-memory stores and request helpers shared by
// the handler tests.
package handlertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"timebank/internal/domain/absence"
	"timebank/internal/domain/audit"
	"timebank/internal/domain/auth"
	"timebank/internal/domain/notifications"
	"timebank/internal/domain/settings"
	"timebank/internal/domain/timeentry"
	"timebank/internal/domain/workday"
)

type EntryStore struct {
	mu      sync.Mutex
	seq     int
	Entries map[string][]workday.Entry
}

func NewEntryStore() *EntryStore {
	return &EntryStore{Entries: map[string][]workday.Entry{}}
}

func (m *EntryStore) List(ctx context.Context, userID string) ([]workday.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]workday.Entry(nil), m.Entries[userID]...), nil
}

func (m *EntryStore) Create(ctx context.Context, userID string, start time.Time) (workday.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if workday.OpenEntry(m.Entries[userID]) != nil {
		return workday.Entry{}, timeentry.ErrOpenEntryExists
	}
	m.seq++
	e := workday.Entry{ID: fmt.Sprintf("e%d", m.seq), StartTime: start}
	m.Entries[userID] = append(m.Entries[userID], e)
	return e, nil
}

func (m *EntryStore) Update(ctx context.Context, userID string, entry workday.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.Entries[userID] {
		if e.ID == entry.ID {
			m.Entries[userID][i] = entry
			return nil
		}
	}
	return timeentry.ErrNotFound
}

func (m *EntryStore) DeleteMany(ctx context.Context, userID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var kept []workday.Entry
	for _, e := range m.Entries[userID] {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	m.Entries[userID] = kept
	return nil
}

// Add seeds a closed entry, or an open one when end is zero.
func (m *EntryStore) Add(userID string, start, end time.Time) workday.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := workday.Entry{ID: fmt.Sprintf("e%d", m.seq), StartTime: start}
	if !end.IsZero() {
		e.EndTime = &end
	}
	m.Entries[userID] = append(m.Entries[userID], e)
	return e
}

type SettingsStore struct {
	mu    sync.Mutex
	Items map[string]workday.Settings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{Items: map[string]workday.Settings{}}
}

func (m *SettingsStore) Get(ctx context.Context, userID string) (*workday.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Items[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *SettingsStore) Save(ctx context.Context, userID string, s workday.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[userID] = s
	return nil
}

func (m *SettingsStore) ListWithReminders(ctx context.Context) ([]settings.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []settings.UserSettings
	for userID, s := range m.Items {
		if s.ClockInReminder || s.BreakReminder || s.ClockOutReminder {
			out = append(out, settings.UserSettings{UserID: userID, Settings: s})
		}
	}
	return out, nil
}

type AbsenceStore struct {
	mu    sync.Mutex
	seq   int
	Items map[string]absence.Request
}

func NewAbsenceStore() *AbsenceStore {
	return &AbsenceStore{Items: map[string]absence.Request{}}
}

func (m *AbsenceStore) Create(ctx context.Context, req absence.Request) (absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	req.ID = fmt.Sprintf("a%d", m.seq)
	req.CreatedAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Minute)
	m.Items[req.ID] = req
	return req, nil
}

func (m *AbsenceStore) Get(ctx context.Context, id string) (absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Items[id]
	if !ok {
		return absence.Request{}, absence.ErrNotFound
	}
	return r, nil
}

func (m *AbsenceStore) ListByUser(ctx context.Context, userID string) ([]absence.Request, error) {
	return m.filter(func(r absence.Request) bool { return r.UserID == userID }), nil
}

func (m *AbsenceStore) ListByStatus(ctx context.Context, status string) ([]absence.Request, error) {
	return m.filter(func(r absence.Request) bool { return r.Status == status }), nil
}

func (m *AbsenceStore) filter(keep func(absence.Request) bool) []absence.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []absence.Request
	for _, r := range m.Items {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *AbsenceStore) Update(ctx context.Context, req absence.Request) (absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Items[req.ID].Status != absence.StatusPending {
		return absence.Request{}, absence.ErrInvalidState
	}
	m.Items[req.ID] = req
	return req, nil
}

func (m *AbsenceStore) Transition(ctx context.Context, id string, d absence.Decision) (absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Items[id]
	if !ok {
		return absence.Request{}, absence.ErrNotFound
	}
	if r.Status != d.From {
		return absence.Request{}, absence.ErrInvalidState
	}
	r.Status = d.To
	if d.To != absence.StatusCancelled {
		r.ApprovedBy = d.DecidedBy
		at := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
		r.ApprovedAt = &at
	}
	r.RejectionReason = d.RejectionReason
	m.Items[id] = r
	return r, nil
}

func (m *AbsenceStore) Delete(ctx context.Context, id string, allowed []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Items[id]
	if !ok {
		return absence.ErrNotFound
	}
	for _, status := range allowed {
		if r.Status == status {
			delete(m.Items, id)
			return nil
		}
	}
	return absence.ErrInvalidState
}

type storedNotification struct {
	userID string
	item   notifications.Notification
}

type NotificationStore struct {
	mu    sync.Mutex
	items []storedNotification
}

func (m *NotificationStore) CreateNotification(ctx context.Context, userID, ntype, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, storedNotification{userID: userID, item: notifications.Notification{
		ID:        fmt.Sprintf("n%d", len(m.items)+1),
		Type:      ntype,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}})
	return nil
}

func (m *NotificationStore) UserEmail(ctx context.Context, userID string) (string, error) {
	return "", nil
}

func (m *NotificationStore) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]notifications.Notification, error) {
	out := m.ForUser(userID)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *NotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, item := range m.ForUser(userID) {
		if item.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *NotificationStore) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, stored := range m.items {
		if stored.item.ID == notificationID && stored.userID == userID {
			now := time.Now()
			m.items[i].item.ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

// ForUser returns the notifications addressed to userID, oldest first.
func (m *NotificationStore) ForUser(userID string) []notifications.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notifications.Notification
	for _, stored := range m.items {
		if stored.userID == userID {
			out = append(out, stored.item)
		}
	}
	return out
}

type UserStore struct {
	mu    sync.Mutex
	Users map[string]auth.User
}

func NewUserStore() *UserStore {
	return &UserStore{Users: map[string]auth.User{}}
}

func (m *UserStore) CreateUser(ctx context.Context, username, email, passwordHash, role string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := m.Users[key]; ok {
		return auth.User{}, auth.ErrUsernameTaken
	}
	u := auth.User{ID: "u-" + key, Username: username, Email: email, Role: role, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.Users[key] = u
	return u, nil
}

func (m *UserStore) FindByUsername(ctx context.Context, username string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[strings.ToLower(username)]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *UserStore) FindByID(ctx context.Context, userID string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.ID == userID {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (m *UserStore) UserIDsByRole(ctx context.Context, role string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, u := range m.Users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type AuditStore struct {
	mu     sync.Mutex
	Events []audit.Event
}

func (m *AuditStore) Insert(ctx context.Context, evt audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt.ID = fmt.Sprintf("ev%d", len(m.Events)+1)
	m.Events = append(m.Events, evt)
	return nil
}

func (m *AuditStore) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Event
	for i := len(m.Events) - 1; i >= 0; i-- {
		evt := m.Events[i]
		if filter.ActorID != "" && evt.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && evt.EntityID != filter.EntityID {
			continue
		}
		out = append(out, evt)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Actions lists the recorded audit actions in insertion order.
func (m *AuditStore) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, evt := range m.Events {
		out = append(out, evt.Action)
	}
	return out
}
