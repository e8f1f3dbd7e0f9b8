package settingshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/audit"
	"timebank/internal/domain/settings"
	"timebank/internal/domain/workday"
	"timebank/internal/transport/http/api"
	"timebank/internal/transport/http/middleware"
	"timebank/internal/transport/http/shared"
)

type Handler struct {
	Service *settings.Service
	Audit   *audit.Service
}

func NewHandler(service *settings.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleSave)
		r.Get("/history", h.handleHistory)
	})
}

type settingsRequest struct {
	WeeklyHours          float64          `json:"weeklyHours" validate:"gte=0,lte=168"`
	Workdays             workday.Workdays `json:"workdays"`
	TimeBankAdjustmentMs int64            `json:"timeBankAdjustmentMs"`
	Use12Hour            bool             `json:"use12Hour"`
	ClockInReminder      bool             `json:"clockInReminder"`
	BreakReminder        bool             `json:"breakReminder"`
	ClockOutReminder     bool             `json:"clockOutReminder"`
	WorkStartTime        string           `json:"workStartTime" validate:"required,len=5"`
	BreakMinutes         int              `json:"breakMinutes" validate:"gte=0,lte=1440"`
}

func (p settingsRequest) settings() workday.Settings {
	return workday.Settings{
		WeeklyHours:        p.WeeklyHours,
		Workdays:           p.Workdays,
		TimeBankAdjustment: time.Duration(p.TimeBankAdjustmentMs) * time.Millisecond,
		Use12Hour:          p.Use12Hour,
		ClockInReminder:    p.ClockInReminder,
		BreakReminder:      p.BreakReminder,
		ClockOutReminder:   p.ClockOutReminder,
		WorkStartTime:      p.WorkStartTime,
		BreakMinutes:       p.BreakMinutes,
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	current, err := h.Service.Get(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("settings load failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, current, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload settingsRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.ValidateStruct(payload)
	if payload.WorkStartTime != "" {
		if _, _, err := workday.ParseClock(payload.WorkStartTime); err != nil {
			validator.Add("workStartTime", "must be a time in HH:MM format")
		}
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	next := payload.settings()
	prev, err := h.Service.Save(r.Context(), user.UserID, next)
	if err != nil {
		if errors.Is(err, workday.ErrInvalidSettings) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		slog.Warn("settings save failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to save settings", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "settings.save", "settings", user.UserID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), prev, next); err != nil {
		slog.Warn("audit settings.save failed", "err", err)
	}
	api.Success(w, next, middleware.GetRequestID(r.Context()))
}

// handleHistory lists the user's settings changes, newest first. The
// manual time bank adjustment has no other history.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if h.Audit == nil {
		api.Success(w, []audit.Event{}, middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	events, err := h.Audit.List(r.Context(), audit.Filter{ActorID: user.UserID, EntityType: "settings", EntityID: user.UserID}, page.Limit, page.Offset)
	if err != nil {
		slog.Warn("settings history failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_history_failed", "failed to load settings history", middleware.GetRequestID(r.Context()))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}
