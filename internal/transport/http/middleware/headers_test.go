package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequestHashDeterministic(t *testing.T) {
	if RequestHash([]byte(`{"confirm":true}`)) != RequestHash([]byte(`{"confirm":true}`)) {
		t.Fatal("expected deterministic hash")
	}
	if RequestHash([]byte(`{"confirm":true}`)) == RequestHash([]byte(`{}`)) {
		t.Fatal("expected different hash for different payload")
	}
}

func TestIdempotencyStoreWithoutDatabase(t *testing.T) {
	var store *IdempotencyStore
	ctx := context.Background()
	if _, found, err := store.Check(ctx, "u1", "/workday/clock", "k", "h"); found || err != nil {
		t.Fatalf("expected miss, got %v %v", found, err)
	}
	if err := store.Save(ctx, "u1", "/workday/clock", "k", "h", []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n, err := store.Prune(ctx, time.Hour); n != 0 || err != nil {
		t.Fatalf("prune: %d %v", n, err)
	}
}

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("%s: got %q want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS in production")
	}
}

func TestBodyLimitOnMutations(t *testing.T) {
	var readErr error
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"confirm":true}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if readErr == nil {
		t.Fatal("expected oversized POST body to fail")
	}

	req = httptest.NewRequest(http.MethodGet, "/", strings.NewReader(`{"confirm":true}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if readErr != nil {
		t.Fatalf("GET bodies are not limited: %v", readErr)
	}
}
