package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"timebank/internal/transport/http/api"
)

const maxCredentialBody = 16 << 10

type window struct {
	hits  int
	until time.Time
}

// Limiter counts requests per key in fixed windows. Windows that have run out
// are dropped at most once per window length, so idle keys do not pile up.
type Limiter struct {
	Limit  int
	Window time.Duration
	Key    func(r *http.Request) string
	Now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

func NewLimiter(limit int, per time.Duration, key func(r *http.Request) string) *Limiter {
	if key == nil {
		key = actorKey
	}
	return &Limiter{
		Limit:   limit,
		Window:  per,
		Key:     key,
		Now:     time.Now,
		windows: map[string]*window{},
	}
}

// take counts one hit for key and reports whether it fits, what is left of the
// limit and when the window closes.
func (l *Limiter) take(key string) (bool, int, time.Duration) {
	now := l.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if !now.Before(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.until) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.Window)
	}

	w := l.windows[key]
	if w == nil || !now.Before(w.until) {
		w = &window{until: now.Add(l.Window)}
		l.windows[key] = w
	}
	w.hits++
	return w.hits <= l.Limit, max(l.Limit-w.hits, 0), w.until.Sub(now)
}

func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// admit counts r and sets the rate limit headers. On false a 429 has been written.
func (l *Limiter) admit(w http.ResponseWriter, r *http.Request) bool {
	if l.Limit <= 0 {
		return true
	}
	key := l.Key(r)
	if key == "" {
		key = "ip:" + clientIPKey(r)
	}
	ok, remaining, reset := l.take(key)
	resetSec := ceilSeconds(reset)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if ok {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.Limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.admit(w, r) {
			next.ServeHTTP(w, r)
		}
	})
}

// RateLimit allows limit requests per window for each signed-in user, or per
// client address for anonymous calls.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return NewLimiter(limit, per, actorKey).Handler
}

type guardedRoute struct {
	method      string
	pattern     string
	credentials bool
}

// guardedRoutes get a tighter limit than the global one. Patterns are relative
// to /api/v1 and * matches one path segment.
var guardedRoutes = []guardedRoute{
	{http.MethodPost, "/auth/login", true},
	{http.MethodPost, "/auth/register", true},
	{http.MethodPost, "/workday/clock", false},
	{http.MethodPut, "/settings", false},
	{http.MethodPut, "/entries/*", false},
	{http.MethodDelete, "/entries/days/*", false},
	{http.MethodPost, "/absences/*/approve", false},
	{http.MethodPost, "/absences/*/reject", false},
}

// SensitiveMutationRateLimit throttles login and registration per client
// address and per username at a quarter of base, and the guarded mutations per
// user at half of base. Other requests pass untouched.
func SensitiveMutationRateLimit(base int, per time.Duration) func(http.Handler) http.Handler {
	credLimit := max(base/4, 1)
	byAddress := NewLimiter(credLimit, per, func(r *http.Request) string { return "ip:" + clientIPKey(r) })
	byUsername := NewLimiter(credLimit, per, usernameKey)
	byActor := NewLimiter(max(base/2, 1), per, actorKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := matchGuarded(r)
			switch {
			case !ok:
			case route.credentials:
				if !byAddress.admit(w, r) || !byUsername.admit(w, r) {
					return
				}
			default:
				if !byActor.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchGuarded(r *http.Request) (guardedRoute, bool) {
	path := strings.Split(strings.Trim(apiPath(r.URL.Path), "/"), "/")
	for _, route := range guardedRoutes {
		if route.method == r.Method && segmentsMatch(strings.Split(strings.Trim(route.pattern, "/"), "/"), path) {
			return route, true
		}
	}
	return guardedRoute{}, false
}

func segmentsMatch(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if seg != "*" && seg != path[i] {
			return false
		}
	}
	return true
}

func apiPath(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/api/v1")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func actorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return "ip:" + clientIPKey(r)
}

// usernameKey reads the username that login and register both accept and
// leaves the body readable for the handler. An empty key falls back to the
// client address.
func usernameKey(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body := r.Body
	raw, err := io.ReadAll(io.LimitReader(body, maxCredentialBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), body), body}
	if err != nil {
		return ""
	}

	var creds struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(raw, &creds) != nil {
		return ""
	}
	name := strings.ToLower(strings.TrimSpace(creds.Username))
	if name == "" {
		return ""
	}
	return "username:" + name
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
