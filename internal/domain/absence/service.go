package absence

import (
	"context"
	"log/slog"

	"timebank/internal/domain/auth"
	"timebank/internal/domain/notifications"
	"timebank/internal/domain/workday"
	"timebank/internal/platform/i18n"
)

type SettingsReader interface {
	Get(ctx context.Context, userID string) (workday.Settings, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

type ManagerLister interface {
	ManagerIDs(ctx context.Context) ([]string, error)
}

type Service struct {
	Store    StoreAPI
	Settings SettingsReader
	Notify   Notifier
	Managers ManagerLister
}

func NewService(store StoreAPI, settings SettingsReader, notify Notifier, managers ManagerLister) *Service {
	return &Service{Store: store, Settings: settings, Notify: notify, Managers: managers}
}

// Create files a pending request. HoursAffected is frozen from the requester's
// daily target at this moment.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Request, error) {
	if err := auth.RequireUser(userID); err != nil {
		return Request{}, err
	}
	days, err := validateInput(in)
	if err != nil {
		return Request{}, err
	}
	settings, err := s.Settings.Get(ctx, userID)
	if err != nil {
		return Request{}, err
	}
	created, err := s.Store.Create(ctx, Request{
		UserID:        userID,
		Type:          in.Type,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Reason:        in.Reason,
		Status:        StatusPending,
		HoursAffected: HoursAffected(days, settings.DailyTarget()),
	})
	if err != nil {
		return Request{}, err
	}
	s.notifyManagers(ctx, created, notifications.TypeAbsenceSubmitted, "absence.submitted")
	return created, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Request, error) {
	if err := auth.RequireUser(userID); err != nil {
		return nil, err
	}
	return s.Store.ListByUser(ctx, userID)
}

// Get returns a request visible to the actor: their own, or any for managers.
func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Request, error) {
	if err := auth.RequireUser(actor.UserID); err != nil {
		return Request{}, err
	}
	req, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.UserID != actor.UserID && actor.Role != auth.RoleManager {
		return Request{}, ErrForbidden
	}
	return req, nil
}

// Pending is the manager approval queue, oldest first.
func (s *Service) Pending(ctx context.Context, actor auth.UserContext) ([]Request, error) {
	if err := auth.RequireUser(actor.UserID); err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleManager {
		return nil, ErrForbidden
	}
	return s.Store.ListByStatus(ctx, StatusPending)
}

func (s *Service) Approve(ctx context.Context, actor auth.UserContext, id string) (Request, Request, error) {
	return s.decide(ctx, actor, id, StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, actor auth.UserContext, id, reason string) (Request, Request, error) {
	return s.decide(ctx, actor, id, StatusRejected, reason)
}

// decide applies a manager decision and returns the request before and after.
// Managers cannot decide their own requests.
func (s *Service) decide(ctx context.Context, actor auth.UserContext, id, to, reason string) (Request, Request, error) {
	if err := auth.RequireUser(actor.UserID); err != nil {
		return Request{}, Request{}, err
	}
	if actor.Role != auth.RoleManager {
		return Request{}, Request{}, ErrForbidden
	}
	before, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, Request{}, err
	}
	if before.UserID == actor.UserID {
		return Request{}, Request{}, ErrForbidden
	}
	if before.Status != StatusPending {
		return Request{}, Request{}, ErrInvalidState
	}
	after, err := s.Store.Transition(ctx, id, Decision{From: StatusPending, To: to, DecidedBy: actor.UserID, RejectionReason: reason})
	if err != nil {
		return Request{}, Request{}, err
	}

	ntype, key := notifications.TypeAbsenceApproved, "absence.approved"
	if to == StatusRejected {
		ntype, key = notifications.TypeAbsenceRejected, "absence.rejected"
	}
	s.notify(ctx, after.UserID, after, ntype, key, "")
	return before, after, nil
}

// Cancel withdraws the requester's own pending request.
func (s *Service) Cancel(ctx context.Context, userID, id string) (Request, Request, error) {
	before, err := s.owned(ctx, userID, id)
	if err != nil {
		return Request{}, Request{}, err
	}
	if before.Status != StatusPending {
		return Request{}, Request{}, ErrInvalidState
	}
	after, err := s.Store.Transition(ctx, id, Decision{From: StatusPending, To: StatusCancelled})
	if err != nil {
		return Request{}, Request{}, err
	}
	s.notifyManagers(ctx, after, notifications.TypeAbsenceCancelled, "absence.cancelled")
	return before, after, nil
}

// Update edits a pending request. The edit re-files it, so hours are
// recomputed from the current daily target and frozen again.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (Request, Request, error) {
	if err := auth.RequireUser(userID); err != nil {
		return Request{}, Request{}, err
	}
	days, err := validateInput(in)
	if err != nil {
		return Request{}, Request{}, err
	}
	before, err := s.owned(ctx, userID, id)
	if err != nil {
		return Request{}, Request{}, err
	}
	if before.Status != StatusPending {
		return Request{}, Request{}, ErrInvalidState
	}
	settings, err := s.Settings.Get(ctx, userID)
	if err != nil {
		return Request{}, Request{}, err
	}
	next := before
	next.Type = in.Type
	next.StartDate = in.StartDate
	next.EndDate = in.EndDate
	next.Reason = in.Reason
	next.HoursAffected = HoursAffected(days, settings.DailyTarget())

	after, err := s.Store.Update(ctx, next)
	if err != nil {
		return Request{}, Request{}, err
	}
	return before, after, nil
}

// Delete removes the requester's own request while it is pending or cancelled.
func (s *Service) Delete(ctx context.Context, userID, id string) (Request, error) {
	before, err := s.owned(ctx, userID, id)
	if err != nil {
		return Request{}, err
	}
	if before.Status != StatusPending && before.Status != StatusCancelled {
		return Request{}, ErrInvalidState
	}
	if err := s.Store.Delete(ctx, id, []string{StatusPending, StatusCancelled}); err != nil {
		return Request{}, err
	}
	return before, nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (Request, error) {
	if err := auth.RequireUser(userID); err != nil {
		return Request{}, err
	}
	req, err := s.Store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.UserID != userID {
		return Request{}, ErrForbidden
	}
	return req, nil
}

func (s *Service) notifyManagers(ctx context.Context, req Request, ntype, key string) {
	if s.Managers == nil {
		return
	}
	ids, err := s.Managers.ManagerIDs(ctx)
	if err != nil {
		slog.Warn("absence manager lookup failed", "requestId", req.ID, "err", err)
		return
	}
	for _, id := range ids {
		if id == req.UserID {
			continue
		}
		s.notify(ctx, id, req, ntype, key, req.UserID)
	}
}

func (s *Service) notify(ctx context.Context, recipient string, req Request, ntype, key, requester string) {
	if s.Notify == nil {
		return
	}
	data := map[string]any{
		"User":   requester,
		"Type":   req.Type,
		"From":   workday.DateKey(req.StartDate),
		"To":     workday.DateKey(req.EndDate),
		"Reason": req.RejectionReason,
	}
	title := i18n.T(ctx, key+".title")
	body := i18n.T(ctx, key+".body", data)
	if err := s.Notify.Create(ctx, recipient, ntype, title, body); err != nil {
		slog.Warn("absence notification failed", "requestId", req.ID, "recipient", recipient, "err", err)
	}
}
