package workdayhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"timebank/internal/domain/audit"
	"timebank/internal/domain/settings"
	"timebank/internal/domain/timeentry"
	"timebank/internal/domain/workday"
	"timebank/internal/platform/metrics"
	"timebank/internal/transport/http/handlers/handlertest"
	"timebank/internal/transport/http/middleware"
)

type memoryIdempotency struct {
	hashes    map[string]string
	responses map[string]json.RawMessage
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{hashes: map[string]string{}, responses: map[string]json.RawMessage{}}
}

func (m *memoryIdempotency) Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	k := userID + "|" + endpoint + "|" + key
	hash, ok := m.hashes[k]
	if !ok {
		return nil, false, nil
	}
	if hash != requestHash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return m.responses[k], true, nil
}

func (m *memoryIdempotency) Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	k := userID + "|" + endpoint + "|" + key
	m.hashes[k] = requestHash
	m.responses[k] = response
	return nil
}

type fixture struct {
	router  chi.Router
	entries *handlertest.EntryStore
	events  *handlertest.AuditStore
	metrics *metrics.Collector
	now     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		entries: handlertest.NewEntryStore(),
		events:  &handlertest.AuditStore{},
		metrics: metrics.New(),
		now:     time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC),
	}
	svc := timeentry.NewService(f.entries, settings.NewService(handlertest.NewSettingsStore()), time.UTC)
	svc.Now = func() time.Time { return f.now }

	f.router = chi.NewRouter()
	NewHandler(svc, audit.New(f.events), f.metrics, newMemoryIdempotency()).RegisterRoutes(f.router)
	return f
}

func (f *fixture) clock(t *testing.T, body string) (*httptest.ResponseRecorder, timeentry.ClockResult) {
	t.Helper()
	rec := handlertest.Do(t, f.router, http.MethodPost, "/workday/clock", body, handlertest.Employee("u1"))
	var result timeentry.ClockResult
	if rec.Code == http.StatusOK {
		handlertest.Decode(t, rec, &result)
	}
	return rec, result
}

func TestClockWalksTheDay(t *testing.T) {
	f := newFixture()

	rec, res := f.clock(t, "")
	if rec.Code != http.StatusOK || res.Action != workday.ActionStart || res.Snapshot.Status != workday.StatusWorkingBeforeBreak {
		t.Fatalf("start: %d %+v", rec.Code, res)
	}

	f.now = f.now.Add(3 * time.Hour)
	if rec, res = f.clock(t, `{}`); res.Action != workday.ActionStartBreak {
		t.Fatalf("break: %d %s", rec.Code, rec.Body.String())
	}
	f.now = f.now.Add(time.Hour)
	if rec, res = f.clock(t, `{"confirm":false}`); res.Action != workday.ActionEndBreak {
		t.Fatalf("end break: %d %s", rec.Code, rec.Body.String())
	}

	f.now = f.now.Add(3 * time.Hour)
	rec, _ = f.clock(t, `{"confirm":false}`)
	env := handlertest.Decode(t, rec, nil)
	if rec.Code != http.StatusConflict || env.Error.Code != "confirm_early_finish" {
		t.Fatalf("expected early finish conflict, got %d %s", rec.Code, rec.Body.String())
	}
	var details struct {
		DeficitMs int64  `json:"deficitMs"`
		Deficit   string `json:"deficit"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil || details.DeficitMs != (2*time.Hour).Milliseconds() || details.Deficit != "02h00m" {
		t.Fatalf("unexpected details %s (%v)", env.Error.Details, err)
	}

	if rec, res = f.clock(t, `{"confirm":true}`); res.Action != workday.ActionFinish || res.Snapshot.Status != workday.StatusFinished {
		t.Fatalf("finish: %d %s", rec.Code, rec.Body.String())
	}
	if res.Snapshot.TimeBank != "-02h00m" {
		t.Fatalf("expected 2h deficit in bank, got %s", res.Snapshot.TimeBank)
	}

	rec, _ = f.clock(t, "")
	if rec.Code != http.StatusConflict || handlertest.ErrorCode(t, rec) != "day_finished" {
		t.Fatalf("expected day_finished, got %d", rec.Code)
	}

	if got := len(f.events.Actions()); got != 4 {
		t.Fatalf("expected 4 audited clock actions, got %d", got)
	}
	snap := f.metrics.Snapshot()
	if !strings.Contains(mustJSON(t, snap), `"finish":1`) {
		t.Fatalf("expected finish to be counted, got %v", snap)
	}
}

func TestClockIdempotentReplay(t *testing.T) {
	f := newFixture()
	do := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/workday/clock", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", key)
		req = req.WithContext(middleware.WithUser(req.Context(), *handlertest.Employee("u1")))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	first := do("k1", `{}`)
	f.now = f.now.Add(time.Hour)
	second := do("k1", `{}`)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("unexpected codes %d %d", first.Code, second.Code)
	}
	var a, b timeentry.ClockResult
	handlertest.Decode(t, first, &a)
	handlertest.Decode(t, second, &b)
	if b.Action != workday.ActionStart || !a.Snapshot.Now.Equal(b.Snapshot.Now) {
		t.Fatalf("expected replayed start, got %+v", b)
	}
	if got := len(f.entries.Entries["u1"]); got != 1 {
		t.Fatalf("replay must not clock again, got %d entries", got)
	}

	conflict := do("k1", `{"confirm":true}`)
	if conflict.Code != http.StatusConflict || handlertest.ErrorCode(t, conflict) != "idempotency_conflict" {
		t.Fatalf("expected idempotency conflict, got %d", conflict.Code)
	}
}

func TestSnapshotAndAuth(t *testing.T) {
	f := newFixture()
	f.entries.Add("u1", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC))

	rec := handlertest.Do(t, f.router, http.MethodGet, "/workday", "", handlertest.Employee("u1"))
	var snap workday.Snapshot
	handlertest.Decode(t, rec, &snap)
	if rec.Code != http.StatusOK || snap.Status != workday.StatusNotStarted || snap.NextAction != workday.ActionStart {
		t.Fatalf("unexpected snapshot %d %+v", rec.Code, snap)
	}
	if snap.Weekly != "08h00m" || snap.StatusLabel == "" {
		t.Fatalf("unexpected weekly %q label %q", snap.Weekly, snap.StatusLabel)
	}

	rec = handlertest.Do(t, f.router, http.MethodGet, "/workday", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = handlertest.Do(t, f.router, http.MethodPost, "/workday/clock", "{", handlertest.Employee("u1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid payload, got %d", rec.Code)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestClockBlockedByEntryLeftOpenYesterday(t *testing.T) {
	f := newFixture()
	stale := f.entries.Add("u1", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), time.Time{})

	rec := handlertest.Do(t, f.router, http.MethodGet, "/workday", "", handlertest.Employee("u1"))
	var snap workday.Snapshot
	handlertest.Decode(t, rec, &snap)
	if snap.Status != workday.StatusNotStarted || snap.StaleOpenEntry == nil || snap.StaleOpenEntry.ID != stale.ID {
		t.Fatalf("expected the stale entry in the snapshot, got %+v", snap)
	}

	rec, _ = f.clock(t, "")
	if rec.Code != http.StatusConflict || handlertest.ErrorCode(t, rec) != "stale_open_entry" {
		t.Fatalf("expected stale_open_entry, got %d %s", rec.Code, rec.Body.String())
	}
	if len(f.entries.Entries["u1"]) != 1 {
		t.Fatal("clock-in must not write while the stale entry is open")
	}
}
