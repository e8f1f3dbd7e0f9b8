package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timebank/internal/domain/workday"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, userID string) (*workday.Settings, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, "SELECT data FROM user_settings WHERE user_id = $1", userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := workday.DefaultSettings()
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &out, nil
}

func (s *Store) Save(ctx context.Context, userID string, settings workday.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO user_settings (user_id, data, updated_at)
    VALUES ($1,$2,now())
    ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
  `, userID, raw)
	return err
}

func (s *Store) ListWithReminders(ctx context.Context) ([]UserSettings, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT user_id, data
    FROM user_settings
    WHERE (data->>'clockInReminder')::boolean
       OR (data->>'breakReminder')::boolean
       OR (data->>'clockOutReminder')::boolean
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserSettings
	for rows.Next() {
		var item UserSettings
		var raw []byte
		if err := rows.Scan(&item.UserID, &raw); err != nil {
			return nil, err
		}
		item.Settings = workday.DefaultSettings()
		if err := json.Unmarshal(raw, &item.Settings); err != nil {
			return nil, fmt.Errorf("decode settings for %s: %w", item.UserID, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
