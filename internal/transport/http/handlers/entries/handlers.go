package entrieshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/audit"
	"timebank/internal/domain/timeentry"
	"timebank/internal/transport/http/api"
	"timebank/internal/transport/http/middleware"
	"timebank/internal/transport/http/shared"
)

type Handler struct {
	Entries *timeentry.Service
	Audit   *audit.Service
}

func NewHandler(entries *timeentry.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Entries: entries, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/history", h.handleHistory)
		r.Put("/{entryID}", h.handleEdit)
		r.Delete("/days/{date}", h.handleDeleteDay)
	})
}

type editRequest struct {
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   *string `json:"endTime"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	from := validator.DayBound("from", r.URL.Query().Get("from"), h.Entries.Location, false)
	to := validator.DayBound("to", r.URL.Query().Get("to"), h.Entries.Location, true)
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	entries, err := h.Entries.ListRange(r.Context(), user.UserID, from, to)
	if err != nil {
		slog.Warn("entry list failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "entry_list_failed", "failed to list entries", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	days, err := h.Entries.History(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("entry history failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "entry_history_failed", "failed to load history", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, days, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload editRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.ValidateStruct(payload)
	start, startOK := parseTimestamp(validator, "startTime", payload.StartTime)
	var end *time.Time
	if payload.EndTime != nil && *payload.EndTime != "" {
		if parsed, ok := parseTimestamp(validator, "endTime", *payload.EndTime); ok {
			end = &parsed
			if startOK && parsed.Before(start) {
				validator.Add("endTime", "must not be before startTime")
			}
		}
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	entryID := chi.URLParam(r, "entryID")
	before, after, err := h.Entries.Edit(r.Context(), user.UserID, entryID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, timeentry.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "time entry not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, timeentry.ErrInvalidRange):
			api.Fail(w, http.StatusBadRequest, "invalid_range", "end time must not be before start time", middleware.GetRequestID(r.Context()))
		case errors.Is(err, timeentry.ErrOpenEntryExists):
			api.Fail(w, http.StatusConflict, "open_entry_exists", "an open entry already exists", middleware.GetRequestID(r.Context()))
		default:
			slog.Warn("entry edit failed", "userId", user.UserID, "entryId", entryID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "entry_update_failed", "failed to update entry", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "entry.update", "time_entry", entryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit entry.update failed", "err", err)
	}
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	raw := chi.URLParam(r, "date")
	day, err := h.Entries.ParseDay(raw)
	if err != nil {
		validator := shared.NewValidator()
		validator.Add("date", "must be a valid date in YYYY-MM-DD format")
		validator.Reject(w, middleware.GetRequestID(r.Context()))
		return
	}

	ids, err := h.Entries.DeleteDay(r.Context(), user.UserID, day)
	if err != nil {
		if errors.Is(err, timeentry.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "no entries on that day", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Warn("entry day delete failed", "userId", user.UserID, "date", raw, "err", err)
		api.Fail(w, http.StatusInternalServerError, "entry_delete_failed", "failed to delete entries", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "entry.delete_day", "time_entry", raw, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{"ids": ids}, nil); err != nil {
		slog.Warn("audit entry.delete_day failed", "err", err)
	}
	api.Success(w, map[string]any{"date": raw, "deleted": ids}, middleware.GetRequestID(r.Context()))
}

func parseTimestamp(v *shared.Validator, field, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		v.Add(field, "must be an RFC3339 timestamp")
		return time.Time{}, false
	}
	return parsed, true
}
