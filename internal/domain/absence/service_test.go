package absence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"timebank/internal/domain/auth"
	"timebank/internal/domain/notifications"
	"timebank/internal/domain/workday"
)

type memoryStore struct {
	items map[string]Request
	seq   int
	calls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[string]Request{}}
}

func (m *memoryStore) Create(ctx context.Context, req Request) (Request, error) {
	m.calls++
	m.seq++
	req.ID = fmt.Sprintf("r%d", m.seq)
	req.CreatedAt = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	m.items[req.ID] = req
	return req, nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (Request, error) {
	m.calls++
	r, ok := m.items[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	m.calls++
	var out []Request
	for _, r := range m.items {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) ListByStatus(ctx context.Context, status string) ([]Request, error) {
	m.calls++
	var out []Request
	for _, r := range m.items {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Update(ctx context.Context, req Request) (Request, error) {
	m.calls++
	if m.items[req.ID].Status != StatusPending {
		return Request{}, ErrInvalidState
	}
	m.items[req.ID] = req
	return req, nil
}

func (m *memoryStore) Transition(ctx context.Context, id string, d Decision) (Request, error) {
	m.calls++
	r := m.items[id]
	if r.Status != d.From {
		return Request{}, ErrInvalidState
	}
	r.Status = d.To
	if d.To != StatusCancelled {
		r.ApprovedBy = d.DecidedBy
		now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
		r.ApprovedAt = &now
	}
	r.RejectionReason = d.RejectionReason
	m.items[id] = r
	return r, nil
}

func (m *memoryStore) Delete(ctx context.Context, id string, allowed []string) error {
	m.calls++
	delete(m.items, id)
	return nil
}

type defaultSettings struct{}

func (defaultSettings) Get(ctx context.Context, userID string) (workday.Settings, error) {
	return workday.DefaultSettings(), nil
}

type sent struct {
	userID, ntype, title, body string
}

type recorder struct {
	sent []sent
}

func (r *recorder) Create(ctx context.Context, userID, ntype, title, body string) error {
	r.sent = append(r.sent, sent{userID, ntype, title, body})
	return nil
}

type managers []string

func (m managers) ManagerIDs(ctx context.Context) ([]string, error) {
	return m, nil
}

var (
	employee = auth.UserContext{UserID: "emp", Role: auth.RoleEmployee}
	manager  = auth.UserContext{UserID: "boss", Role: auth.RoleManager}
)

func vacation() Input {
	return Input{Type: TypeVacation, StartDate: date(2025, 3, 10), EndDate: date(2025, 3, 12), Reason: "trip"}
}

func newTestService() (*Service, *memoryStore, *recorder) {
	store := newMemoryStore()
	rec := &recorder{}
	return NewService(store, defaultSettings{}, rec, managers{"boss"}), store, rec
}

func TestCreateFreezesHoursAndNotifiesManagers(t *testing.T) {
	svc, _, rec := newTestService()
	req, err := svc.Create(context.Background(), "emp", vacation())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != StatusPending || req.HoursAffected != 24 {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(rec.sent) != 1 || rec.sent[0].userID != "boss" || rec.sent[0].ntype != notifications.TypeAbsenceSubmitted {
		t.Fatalf("unexpected notifications %+v", rec.sent)
	}
	if rec.sent[0].body != "emp requested vacation from 2025-03-10 to 2025-03-12." {
		t.Fatalf("unexpected body %q", rec.sent[0].body)
	}
}

func TestCreateValidatesBeforeStoreCall(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		err  error
	}{
		{"reversed dates", Input{Type: TypeSick, StartDate: date(2025, 3, 12), EndDate: date(2025, 3, 10)}, ErrInvalidRange},
		{"missing dates", Input{Type: TypeSick}, ErrMissingDates},
		{"unknown type", Input{Type: "holiday", StartDate: date(2025, 3, 10), EndDate: date(2025, 3, 10)}, ErrInvalidType},
	}
	for _, tc := range tests {
		svc, store, _ := newTestService()
		if _, err := svc.Create(context.Background(), "emp", tc.in); !errors.Is(err, tc.err) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
		if store.calls != 0 {
			t.Errorf("%s: expected no store calls", tc.name)
		}
	}

	svc, store, _ := newTestService()
	if _, err := svc.Create(context.Background(), "", vacation()); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if store.calls != 0 {
		t.Fatal("expected no store calls when unauthenticated")
	}
}

func TestApproveIsTerminal(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()
	req, _ := svc.Create(ctx, "emp", vacation())

	if _, _, err := svc.Approve(ctx, employee, req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee approve: expected ErrForbidden, got %v", err)
	}
	before, after, err := svc.Approve(ctx, manager, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if before.Status != StatusPending || after.Status != StatusApproved || after.ApprovedBy != "boss" || after.ApprovedAt == nil {
		t.Fatalf("unexpected transition %+v -> %+v", before, after)
	}
	last := rec.sent[len(rec.sent)-1]
	if last.userID != "emp" || last.ntype != notifications.TypeAbsenceApproved {
		t.Fatalf("unexpected notification %+v", last)
	}

	if _, _, err := svc.Reject(ctx, manager, req.ID, "too late"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reject after approve: expected ErrInvalidState, got %v", err)
	}
	if _, _, err := svc.Cancel(ctx, "emp", req.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel after approve: expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.Delete(ctx, "emp", req.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete after approve: expected ErrInvalidState, got %v", err)
	}
}

func TestRejectCarriesReason(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()
	req, _ := svc.Create(ctx, "emp", vacation())

	_, after, err := svc.Reject(ctx, manager, req.ID, "team offsite")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if after.Status != StatusRejected || after.RejectionReason != "team offsite" {
		t.Fatalf("unexpected request %+v", after)
	}
	last := rec.sent[len(rec.sent)-1]
	if last.body != "Your vacation from 2025-03-10 to 2025-03-12 was rejected: team offsite" {
		t.Fatalf("unexpected body %q", last.body)
	}
}

func TestManagerCannotDecideOwnRequest(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()
	req, _ := svc.Create(ctx, "boss", vacation())
	if len(rec.sent) != 0 {
		t.Fatalf("managers are not notified about their own requests: %+v", rec.sent)
	}
	if _, _, err := svc.Approve(ctx, manager, req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelUpdateDelete(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	req, _ := svc.Create(ctx, "emp", vacation())

	edit := vacation()
	edit.EndDate = date(2025, 3, 10)
	if _, _, err := svc.Update(ctx, "other", req.ID, edit); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign update, got %v", err)
	}
	_, updated, err := svc.Update(ctx, "emp", req.ID, edit)
	if err != nil || updated.HoursAffected != 8 {
		t.Fatalf("update: %v %+v", err, updated)
	}

	if _, _, err := svc.Cancel(ctx, "other", req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign cancel, got %v", err)
	}
	if _, after, err := svc.Cancel(ctx, "emp", req.ID); err != nil || after.Status != StatusCancelled {
		t.Fatalf("cancel: %v %+v", err, after)
	}
	if _, _, err := svc.Update(ctx, "emp", req.ID, edit); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("update after cancel: expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.Delete(ctx, "emp", req.ID); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	if len(store.items) != 0 {
		t.Fatal("expected request removed")
	}
}

func TestVisibility(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	req, _ := svc.Create(ctx, "emp", vacation())

	if _, err := svc.Get(ctx, auth.UserContext{UserID: "other", Role: auth.RoleEmployee}, req.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, manager, req.ID); err != nil {
		t.Fatalf("manager get: %v", err)
	}
	if _, err := svc.Pending(ctx, employee); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employee queue, got %v", err)
	}
	queue, err := svc.Pending(ctx, manager)
	if err != nil || len(queue) != 1 {
		t.Fatalf("unexpected queue %+v err %v", queue, err)
	}
}
