package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type StoreAPI interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, userID string) (User, error)
	UserIDsByRole(ctx context.Context, role string) ([]string, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash, role string) (User, error) {
	out := User{Username: username, Email: email, Role: role, PasswordHash: passwordHash}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (username, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
    RETURNING id, created_at
  `, username, nullIfEmpty(email), passwordHash, role).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return out, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.findOne(ctx, "SELECT id, username, COALESCE(email, ''), role, password_hash, created_at FROM users WHERE lower(username) = lower($1)", username)
}

func (s *Store) FindByID(ctx context.Context, userID string) (User, error) {
	return s.findOne(ctx, "SELECT id, username, COALESCE(email, ''), role, password_hash, created_at FROM users WHERE id = $1", userID)
}

func (s *Store) findOne(ctx context.Context, query, arg string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, query, arg).Scan(&out.ID, &out.Username, &out.Email, &out.Role, &out.PasswordHash, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) UserIDsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM users WHERE role = $1 ORDER BY created_at", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
