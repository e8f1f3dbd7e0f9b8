package settings

import (
	"context"

	"timebank/internal/domain/workday"
)

// StoreAPI persists one settings record per user. Get returns nil, nil when
// the user never saved settings.
type StoreAPI interface {
	Get(ctx context.Context, userID string) (*workday.Settings, error)
	Save(ctx context.Context, userID string, settings workday.Settings) error
	ListWithReminders(ctx context.Context) ([]UserSettings, error)
}

// UserSettings pairs a user with their settings for batch jobs.
type UserSettings struct {
	UserID   string
	Settings workday.Settings
}
