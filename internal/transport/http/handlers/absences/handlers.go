package absenceshandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/absence"
	"timebank/internal/domain/audit"
	"timebank/internal/domain/auth"
	"timebank/internal/transport/http/api"
	"timebank/internal/transport/http/middleware"
	"timebank/internal/transport/http/shared"
)

type Handler struct {
	Service     *absence.Service
	Audit       *audit.Service
	Permissions middleware.PermissionStore
}

func NewHandler(service *absence.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	if perms == nil {
		perms = auth.StaticPermissions{}
	}
	return &Handler{Service: service, Audit: auditSvc, Permissions: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/absences", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAbsenceApprove, h.Permissions)).Get("/pending", h.handlePending)
		r.Get("/{absenceID}", h.handleGet)
		r.Put("/{absenceID}", h.handleUpdate)
		r.Delete("/{absenceID}", h.handleDelete)
		r.Post("/{absenceID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermAbsenceApprove, h.Permissions)).Post("/{absenceID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermAbsenceApprove, h.Permissions)).Post("/{absenceID}/reject", h.handleReject)
	})
}

type absenceRequest struct {
	Type      string `json:"type" validate:"required,oneof=vacation sick personal other"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// decodeInput validates the payload and writes the 400 itself when it fails.
func decodeInput(w http.ResponseWriter, r *http.Request) (absence.Input, bool) {
	var payload absenceRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return absence.Input{}, false
	}
	validator := shared.NewValidator()
	validator.ValidateStruct(payload)
	var in absence.Input
	if payload.StartDate != "" {
		in.StartDate, _ = validator.Date("startDate", payload.StartDate)
	}
	if payload.EndDate != "" {
		in.EndDate, _ = validator.Date("endDate", payload.EndDate)
	}
	validator.DateOrder("startDate", in.StartDate, "endDate", in.EndDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return absence.Input{}, false
	}
	in.Type = payload.Type
	in.Reason = payload.Reason
	return in, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	items, err := h.Service.List(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("absence list failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "absence_list_failed", "failed to list absence requests", middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []absence.Request{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	items, err := h.Service.Pending(r.Context(), user)
	if err != nil {
		h.fail(w, r, "absence_list_failed", err)
		return
	}
	if items == nil {
		items = []absence.Request{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	item, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "absenceID"))
	if err != nil {
		h.fail(w, r, "absence_failed", err)
		return
	}
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), user.UserID, in)
	if err != nil {
		h.fail(w, r, "absence_create_failed", err)
		return
	}
	h.record(r, user.UserID, "absence.create", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "absenceID")
	before, after, err := h.Service.Update(r.Context(), user.UserID, id, in)
	if err != nil {
		h.fail(w, r, "absence_update_failed", err)
		return
	}
	h.record(r, user.UserID, "absence.update", id, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "absenceID")
	before, err := h.Service.Delete(r.Context(), user.UserID, id)
	if err != nil {
		h.fail(w, r, "absence_delete_failed", err)
		return
	}
	h.record(r, user.UserID, "absence.delete", id, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "absenceID")
	before, after, err := h.Service.Cancel(r.Context(), user.UserID, id)
	if err != nil {
		h.fail(w, r, "absence_update_failed", err)
		return
	}
	h.record(r, user.UserID, "absence.cancel", id, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "absenceID")
	before, after, err := h.Service.Approve(r.Context(), user, id)
	if err != nil {
		h.fail(w, r, "absence_decision_failed", err)
		return
	}
	h.record(r, user.UserID, "absence.approve", id, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.ValidateStruct(payload)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id := chi.URLParam(r, "absenceID")
	before, after, err := h.Service.Reject(r.Context(), user, id, payload.Reason)
	if err != nil {
		h.fail(w, r, "absence_decision_failed", err)
		return
	}
	h.record(r, user.UserID, "absence.reject", id, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, absence.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "absence request not found", reqID)
	case errors.Is(err, absence.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this absence request", reqID)
	case errors.Is(err, absence.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "absence request is no longer pending", reqID)
	case errors.Is(err, absence.ErrInvalidType), errors.Is(err, absence.ErrInvalidRange), errors.Is(err, absence.ErrMissingDates):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Warn("absence request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "failed to process absence request", reqID)
	}
}

func (h *Handler) record(r *http.Request, actorID, action, id string, before, after any) {
	if err := h.Audit.Record(r.Context(), actorID, action, "absence_request", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
