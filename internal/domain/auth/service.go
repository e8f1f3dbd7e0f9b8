package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	Store    StoreAPI
	Secret   string
	TokenTTL time.Duration
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

// Session is the result of a successful register or login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an employee account. Validation runs before the store is touched.
func (s *Service) Register(ctx context.Context, username, password, email string) (Session, error) {
	return s.register(ctx, username, password, email, RoleEmployee)
}

// EnsureUser creates the user with role unless the username already exists.
func (s *Service) EnsureUser(ctx context.Context, username, password, role string) (User, error) {
	if !ValidRole(role) {
		return User{}, fmt.Errorf("unknown role %q", role)
	}
	existing, err := s.Store.FindByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	session, err := s.register(ctx, username, password, "", role)
	if err != nil {
		return User{}, err
	}
	return session.User, nil
}

func (s *Service) register(ctx context.Context, username, password, email, role string) (Session, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return Session{}, err
	}
	if len(password) < 8 {
		return Session{}, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user, err := s.Store.CreateUser(ctx, username, strings.TrimSpace(email), hash, role)
	if err != nil {
		return Session{}, err
	}
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.Store.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	if err := RequireUser(userID); err != nil {
		return User{}, err
	}
	return s.Store.FindByID(ctx, userID)
}

// Lookup finds a user by username for operator tooling.
func (s *Service) Lookup(ctx context.Context, username string) (User, error) {
	return s.Store.FindByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) ManagerIDs(ctx context.Context) ([]string, error) {
	return s.Store.UserIDsByRole(ctx, RoleManager)
}

func (s *Service) issue(user User) (Session, error) {
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Username: user.Username, Role: user.Role}, s.TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}
