package timeentry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timebank/internal/domain/workday"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context, userID string) ([]workday.Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, start_time, end_time
    FROM time_entries
    WHERE user_id = $1
    ORDER BY start_time
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workday.Entry
	for rows.Next() {
		var e workday.Entry
		if err := rows.Scan(&e.ID, &e.StartTime, &e.EndTime); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, userID string, start time.Time) (workday.Entry, error) {
	out := workday.Entry{StartTime: start}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_entries (user_id, start_time)
    VALUES ($1,$2)
    RETURNING id
  `, userID, start).Scan(&out.ID)
	if err != nil {
		return workday.Entry{}, mapPgError(err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, userID string, entry workday.Entry) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET start_time = $1, end_time = $2, updated_at = now()
    WHERE id = $3 AND user_id = $4
  `, entry.StartTime, entry.EndTime, entry.ID, userID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.DB.Exec(ctx, "DELETE FROM time_entries WHERE user_id = $1 AND id::text = ANY($2)", userID, ids)
	return err
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrOpenEntryExists
		case pgCheckViolation:
			return ErrInvalidRange
		}
	}
	return err
}
