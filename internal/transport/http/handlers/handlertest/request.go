package handlertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"timebank/internal/domain/auth"
	"timebank/internal/transport/http/middleware"
)

// Envelope mirrors api.Envelope with raw data for per-test decoding.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Do serves one request through handler. A non-nil user is placed on the
// context the way the auth middleware would.
func Do(t *testing.T, handler http.Handler, method, path, body string, user *auth.UserContext) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// Decode parses the envelope and unmarshals its data into dst when dst is non-nil.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if dst != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

// ErrorCode returns the envelope error code or "" on success.
func ErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := Decode(t, rec, nil)
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func Employee(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Username: id, Role: auth.RoleEmployee}
}

func Manager(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Username: id, Role: auth.RoleManager}
}
