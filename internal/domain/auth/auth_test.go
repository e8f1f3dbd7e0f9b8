package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[string]User
	calls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]User{}}
}

func (m *memoryStore) CreateUser(ctx context.Context, username, email, passwordHash, role string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	key := strings.ToLower(username)
	if _, ok := m.users[key]; ok {
		return User{}, ErrUsernameTaken
	}
	u := User{ID: "u-" + key, Username: username, Email: email, Role: role, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.users[key] = u
	return u, nil
}

func (m *memoryStore) FindByUsername(ctx context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[strings.ToLower(username)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memoryStore) FindByID(ctx context.Context, userID string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) UserIDsByRole(ctx context.Context, role string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "super-secret"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	claims := Claims{UserID: "u1", Username: "ana", Role: RoleManager}
	token, err := GenerateToken("test-secret", claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	parsed, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if parsed.UserID != "u1" || parsed.Username != "ana" || parsed.Role != RoleManager {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"ana", true},
		{"ana.maria_01-x", true},
		{"ab", false},
		{"ana maria", false},
		{"ana@corp", false},
		{strings.Repeat("a", 33), false},
	}
	for _, tc := range tests {
		err := ValidateUsername(tc.name)
		if tc.valid && err != nil {
			t.Errorf("%q: unexpected error %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidUsername) {
			t.Errorf("%q: expected ErrInvalidUsername, got %v", tc.name, err)
		}
	}
}

func TestRegisterRejectsBeforeStoreCall(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "bad name", "long-enough", ""); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "ana", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if store.calls != 0 {
		t.Fatalf("expected no store calls, got %d", store.calls)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemoryStore(), "secret", time.Hour)
	ctx := context.Background()

	session, err := svc.Register(ctx, "ana", "correct-horse", "ana@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.Token == "" || session.User.Role != RoleEmployee || session.User.Email != "ana@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}
	if _, err := svc.Register(ctx, "ANA", "correct-horse", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if _, err := svc.Login(ctx, "ana", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	login, err := svc.Login(ctx, "ana", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := ParseToken("secret", login.Token)
	if err != nil || claims.UserID != session.User.ID {
		t.Fatalf("unexpected claims %+v, err %v", claims, err)
	}
}

func TestMeRequiresUser(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, "secret", time.Hour)
	if _, err := svc.Me(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if store.calls != 0 {
		t.Fatal("expected no store call for unauthenticated request")
	}
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	svc := NewService(newMemoryStore(), "secret", time.Hour)
	ctx := context.Background()
	first, err := svc.EnsureUser(ctx, "lead", "manager-pass", RoleManager)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := svc.EnsureUser(ctx, "lead", "manager-pass", RoleManager)
	if err != nil || second.ID != first.ID {
		t.Fatalf("expected same user, got %+v err %v", second, err)
	}
	ids, _ := svc.ManagerIDs(ctx)
	if len(ids) != 1 || ids[0] != first.ID {
		t.Fatalf("unexpected manager ids %v", ids)
	}
}

func TestStaticPermissions(t *testing.T) {
	perms := StaticPermissions{}
	ok, _ := perms.HasPermission(context.Background(), RoleEmployee, PermAbsenceApprove)
	if ok {
		t.Fatal("employees must not approve absences")
	}
	ok, _ = perms.HasPermission(context.Background(), RoleManager, PermAbsenceApprove)
	if !ok {
		t.Fatal("managers approve absences")
	}
}
