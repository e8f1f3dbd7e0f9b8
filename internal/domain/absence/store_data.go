package absence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const requestColumns = `id, user_id, type, start_date, end_date, reason, status, hours_affected, created_at,
    COALESCE(approved_by::text, ''), approved_at, COALESCE(rejection_reason, '')`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.UserID, &r.Type, &r.StartDate, &r.EndDate, &r.Reason, &r.Status, &r.HoursAffected, &r.CreatedAt,
		&r.ApprovedBy, &r.ApprovedAt, &r.RejectionReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (s *Store) Create(ctx context.Context, req Request) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO absence_requests (user_id, type, start_date, end_date, reason, status, hours_affected)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+requestColumns,
		req.UserID, req.Type, req.StartDate, req.EndDate, req.Reason, req.Status, req.HoursAffected))
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, "SELECT "+requestColumns+" FROM absence_requests WHERE id = $1", id))
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	return s.list(ctx, "SELECT "+requestColumns+" FROM absence_requests WHERE user_id = $1 ORDER BY start_date DESC, created_at DESC", userID)
}

func (s *Store) ListByStatus(ctx context.Context, status string) ([]Request, error) {
	return s.list(ctx, "SELECT "+requestColumns+" FROM absence_requests WHERE status = $1 ORDER BY created_at", status)
}

func (s *Store) list(ctx context.Context, query string, arg string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, req Request) (Request, error) {
	out, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE absence_requests
    SET type = $1, start_date = $2, end_date = $3, reason = $4, hours_affected = $5
    WHERE id = $6 AND status = $7
    RETURNING `+requestColumns,
		req.Type, req.StartDate, req.EndDate, req.Reason, req.HoursAffected, req.ID, StatusPending))
	if errors.Is(err, ErrNotFound) {
		return Request{}, ErrInvalidState
	}
	return out, err
}

func (s *Store) Transition(ctx context.Context, id string, d Decision) (Request, error) {
	var decidedBy any
	if d.DecidedBy != "" && d.To != StatusCancelled {
		decidedBy = d.DecidedBy
	}
	out, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE absence_requests
    SET status = $1,
        approved_by = $2,
        approved_at = CASE WHEN $2::uuid IS NULL THEN NULL ELSE now() END,
        rejection_reason = NULLIF($3, '')
    WHERE id = $4 AND status = $5
    RETURNING `+requestColumns,
		d.To, decidedBy, d.RejectionReason, id, d.From))
	if errors.Is(err, ErrNotFound) {
		return Request{}, ErrInvalidState
	}
	return out, err
}

func (s *Store) Delete(ctx context.Context, id string, allowed []string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM absence_requests WHERE id = $1 AND status = ANY($2)", id, allowed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}
