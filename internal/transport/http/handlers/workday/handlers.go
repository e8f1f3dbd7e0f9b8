package workdayhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/audit"
	"timebank/internal/domain/auth"
	"timebank/internal/domain/timeentry"
	"timebank/internal/domain/workday"
	"timebank/internal/platform/metrics"
	"timebank/internal/transport/http/api"
	"timebank/internal/transport/http/middleware"
	"timebank/internal/transport/http/shared"
)

const clockEndpoint = "workday.clock"

type Handler struct {
	Entries     *timeentry.Service
	Audit       *audit.Service
	Metrics     *metrics.Collector
	Idempotency middleware.IdempotencyAPI
}

func NewHandler(entries *timeentry.Service, auditSvc *audit.Service, collector *metrics.Collector, idem middleware.IdempotencyAPI) *Handler {
	return &Handler{Entries: entries, Audit: auditSvc, Metrics: collector, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workday", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Post("/clock", h.handleClock)
	})
}

type clockRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	snap, err := h.Entries.Snapshot(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("workday snapshot failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "workday_failed", "failed to load workday", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, snap, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClock(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload clockRequest
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(raw)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, clockEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	result, err := h.Entries.Clock(r.Context(), user.UserID, payload.Confirm)
	if err != nil {
		h.failClock(w, r, user, err)
		return
	}
	h.Metrics.RecordClock(string(result.Action))

	entry := lastToday(result.Snapshot)
	entityID := ""
	if entry != nil {
		entityID = entry.ID
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "workday.clock", "time_entry", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]any{
		"action": result.Action,
		"entry":  entry,
	}); err != nil {
		slog.Warn("audit workday.clock failed", "err", err)
	}

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			slog.Warn("clock response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, clockEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}

	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failClock(w http.ResponseWriter, r *http.Request, user auth.UserContext, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var early *workday.EarlyFinishError
	switch {
	case errors.As(err, &early):
		api.FailWithDetails(w, http.StatusConflict, "confirm_early_finish", "finishing before the daily target requires confirmation", map[string]any{
			"deficitMs": early.Deficit.Milliseconds(),
			"deficit":   workday.FormatDuration(early.Deficit),
		}, reqID)
	case errors.Is(err, workday.ErrConfirmEarlyFinish):
		api.Fail(w, http.StatusConflict, "confirm_early_finish", "finishing before the daily target requires confirmation", reqID)
	case errors.Is(err, workday.ErrDayFinished):
		api.Fail(w, http.StatusConflict, "day_finished", "workday already finished", reqID)
	case errors.Is(err, workday.ErrActionInFlight):
		api.Fail(w, http.StatusConflict, "action_in_flight", "clock action already in progress", reqID)
	case errors.Is(err, workday.ErrStaleOpenEntry):
		api.Fail(w, http.StatusConflict, "stale_open_entry", "close the entry left open on an earlier day before clocking in", reqID)
	case errors.Is(err, timeentry.ErrOpenEntryExists):
		api.Fail(w, http.StatusConflict, "open_entry_exists", "an open entry already exists", reqID)
	default:
		slog.Warn("clock action failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "clock_failed", "failed to record clock action", reqID)
	}
}

func lastToday(snap workday.Snapshot) *workday.Entry {
	if snap.CurrentEntry != nil {
		return snap.CurrentEntry
	}
	if n := len(snap.TodayEntries); n > 0 {
		e := snap.TodayEntries[n-1]
		return &e
	}
	return nil
}
