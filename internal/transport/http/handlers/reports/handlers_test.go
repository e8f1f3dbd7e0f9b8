package reportshandler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/analytics"
	"timebank/internal/domain/settings"
	"timebank/internal/domain/timeentry"
	"timebank/internal/transport/http/handlers/handlertest"
)

func day(d, hh, mm int) time.Time {
	return time.Date(2025, 3, d, hh, mm, 0, 0, time.UTC)
}

func newRouter() chi.Router {
	store := handlertest.NewEntryStore()
	store.Add("u1", day(3, 9, 0), day(3, 12, 0))
	store.Add("u1", day(3, 13, 0), day(3, 17, 30))
	store.Add("u1", day(4, 9, 20), day(4, 17, 0))
	store.Add("u1", time.Date(2025, 2, 27, 9, 0, 0, 0, time.UTC), time.Date(2025, 2, 27, 17, 0, 0, 0, time.UTC))

	settingsSvc := settings.NewService(handlertest.NewSettingsStore())
	svc := timeentry.NewService(store, settingsSvc, time.UTC)
	svc.Now = func() time.Time { return day(5, 12, 0) }

	router := chi.NewRouter()
	NewHandler(svc, settingsSvc, nil).RegisterRoutes(router)
	return router
}

func TestAnalyticsDefaultsToCurrentMonth(t *testing.T) {
	rec := handlertest.Do(t, newRouter(), http.MethodGet, "/reports/analytics", "", handlertest.Employee("u1"))
	var report analytics.Report
	handlertest.Decode(t, rec, &report)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics: %d %s", rec.Code, rec.Body.String())
	}
	if !report.Period.From.Equal(day(1, 0, 0)) || report.Punctuality.OnTime != 1 || report.Punctuality.Late != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestAnalyticsRejectsBadPeriod(t *testing.T) {
	router := newRouter()
	for _, query := range []string{"?from=2025-03-10&to=2025-03-01", "?from=march"} {
		rec := handlertest.Do(t, router, http.MethodGet, "/reports/analytics"+query, "", handlertest.Employee("u1"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
	}
	rec := handlertest.Do(t, router, http.MethodGet, "/reports/analytics", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	rec := handlertest.Do(t, newRouter(), http.MethodGet, "/reports/export.csv?from=2025-03-03&to=2025-03-03", "", handlertest.Employee("u1"))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="timesheet_2025-03-03_2025-03-03.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	body := rec.Body.String()
	if strings.Count(body, "2025-03-03,") != 2 || !strings.HasSuffix(body, "Total,,,\"7h 30m\"\n") {
		t.Fatalf("unexpected csv %q", body)
	}
}

func TestExportPDF(t *testing.T) {
	rec := handlertest.Do(t, newRouter(), http.MethodGet, "/reports/export.pdf", "", handlertest.Employee("u1"))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Fatal("expected a pdf document")
	}
}
