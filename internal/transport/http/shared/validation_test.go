package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type registerProbe struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"omitempty,email"`
	Minutes  int    `json:"minutes" validate:"gte=0,lte=1440"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	v := NewValidator()
	v.ValidateStruct(registerProbe{Username: "ab", Email: "nope", Minutes: 2000})

	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %+v", issues)
	}
	want := map[string]string{
		"email":    "must be a valid email address",
		"minutes":  "must be at most 1440",
		"username": "must be at least 3 characters",
	}
	for _, issue := range issues {
		if want[issue.Field] != issue.Reason {
			t.Fatalf("unexpected issue %+v", issue)
		}
	}
}

func TestValidateStructPasses(t *testing.T) {
	v := NewValidator()
	v.ValidateStruct(registerProbe{Username: "ana"})
	if v.HasIssues() {
		t.Fatalf("unexpected issues %+v", v.Issues())
	}
}

func TestRejectWritesFieldDetails(t *testing.T) {
	v := NewValidator()
	v.Required("type", "", "is required")
	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-9") {
		t.Fatal("expected reject")
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusBadRequest || env.Error.Code != "validation_error" || len(env.Error.Details.Fields) != 1 {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Confirm bool `json:"confirm"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"confirm":true,"extra":1}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestDateHelpers(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("startDate", "2025-03-10")
	if !ok || !start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", start)
	}
	end, _ := v.Date("endDate", "2025-03-09")
	v.DateOrder("startDate", start, "endDate", end)
	if len(v.Issues()) != 2 {
		t.Fatalf("expected order issues, got %+v", v.Issues())
	}
	if _, ok := v.Date("x", "10/03/2025"); ok {
		t.Fatal("expected invalid date")
	}
}

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil)
	p := ParsePagination(req, 50, 200)
	if p.Limit != 200 || p.Offset != 0 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}

func TestDayBound(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	v := NewValidator()

	from := v.DayBound("from", "2025-03-03", loc, false)
	to := v.DayBound("to", "2025-03-03", loc, true)
	if !from.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, loc)) || !to.Equal(time.Date(2025, 3, 4, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected bounds %v %v", from, to)
	}
	exact := v.DayBound("to", "2025-03-03T12:00:00+02:00", loc, true)
	if !exact.Equal(time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamps must not be widened, got %v", exact)
	}
	if !v.DayBound("from", "", loc, false).IsZero() || v.HasIssues() {
		t.Fatal("empty bound must be zero without issues")
	}
	v.DayBound("from", "yesterday", loc, false)
	if len(v.Issues()) != 1 {
		t.Fatalf("expected one issue, got %+v", v.Issues())
	}
}
