package reportshandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/analytics"
	"timebank/internal/domain/auth"
	"timebank/internal/domain/timeentry"
	"timebank/internal/domain/workday"
	"timebank/internal/transport/http/api"
	"timebank/internal/transport/http/middleware"
	"timebank/internal/transport/http/shared"
)

type Handler struct {
	Entries  *timeentry.Service
	Settings timeentry.SettingsReader
	Perms    middleware.PermissionStore
}

func NewHandler(entries *timeentry.Service, settings timeentry.SettingsReader, perms middleware.PermissionStore) *Handler {
	if perms == nil {
		perms = auth.StaticPermissions{}
	}
	return &Handler{Entries: entries, Settings: settings, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/analytics", h.handleAnalytics)
		r.Get("/export.csv", h.handleExportCSV)
		r.Get("/export.pdf", h.handleExportPDF)
	})
}

// load resolves the period and reads entries and settings. It writes the
// error response itself and returns ok=false when anything fails.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (analytics.Period, []workday.Entry, workday.Settings, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return analytics.Period{}, nil, workday.Settings{}, false
	}

	period, ok := h.period(w, r)
	if !ok {
		return analytics.Period{}, nil, workday.Settings{}, false
	}
	settings, err := h.Settings.Get(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("report settings load failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", middleware.GetRequestID(r.Context()))
		return analytics.Period{}, nil, workday.Settings{}, false
	}
	entries, err := h.Entries.List(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("report entries load failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", middleware.GetRequestID(r.Context()))
		return analytics.Period{}, nil, workday.Settings{}, false
	}
	return period, entries, settings, true
}

// period reads ?from=YYYY-MM-DD&to=YYYY-MM-DD (both inclusive) and defaults
// to the current calendar month.
func (h *Handler) period(w http.ResponseWriter, r *http.Request) (analytics.Period, bool) {
	loc := h.Entries.Location
	period := analytics.DefaultPeriod(h.Entries.Now().In(loc))

	validator := shared.NewValidator()
	q := r.URL.Query()
	if from := validator.DayBound("from", q.Get("from"), loc, false); !from.IsZero() {
		period.From = from
	}
	if to := validator.DayBound("to", q.Get("to"), loc, true); !to.IsZero() {
		period.To = to
	}
	if !validator.HasIssues() && !period.To.After(period.From) {
		validator.Add("to", "must be on or after from")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return analytics.Period{}, false
	}
	return period, true
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	period, entries, settings, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, analytics.Build(entries, settings, period), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	period, entries, settings, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := analytics.WriteCSV(&buf, entries, period, settings.Use12Hour); err != nil {
		slog.Warn("csv export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export timesheet", middleware.GetRequestID(r.Context()))
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", filename(period, "csv"), buf.Bytes())
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	period, entries, settings, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	report := analytics.Build(entries, settings, period)
	if err := analytics.WritePDF(&buf, report, entries, settings.Use12Hour); err != nil {
		slog.Warn("pdf export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export timesheet", middleware.GetRequestID(r.Context()))
		return
	}
	writeAttachment(w, "application/pdf", filename(period, "pdf"), buf.Bytes())
}

func filename(period analytics.Period, ext string) string {
	last := period.To.AddDate(0, 0, -1)
	return fmt.Sprintf("timesheet_%s_%s.%s", period.From.Format(shared.DayLayout), last.Format(shared.DayLayout), ext)
}

func writeAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("write export failed", "err", err)
	}
}
