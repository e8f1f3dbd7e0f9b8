package settings

import (
	"context"

	"timebank/internal/domain/auth"
	"timebank/internal/domain/workday"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// Get returns the user's saved settings or the defaults when none exist.
func (s *Service) Get(ctx context.Context, userID string) (workday.Settings, error) {
	if err := auth.RequireUser(userID); err != nil {
		return workday.Settings{}, err
	}
	saved, err := s.Store.Get(ctx, userID)
	if err != nil {
		return workday.Settings{}, err
	}
	if saved == nil {
		return workday.DefaultSettings(), nil
	}
	return *saved, nil
}

// Save validates and stores next, returning the settings it replaced.
func (s *Service) Save(ctx context.Context, userID string, next workday.Settings) (workday.Settings, error) {
	if err := auth.RequireUser(userID); err != nil {
		return workday.Settings{}, err
	}
	if err := next.Validate(); err != nil {
		return workday.Settings{}, err
	}
	prev, err := s.Get(ctx, userID)
	if err != nil {
		return workday.Settings{}, err
	}
	if err := s.Store.Save(ctx, userID, next); err != nil {
		return workday.Settings{}, err
	}
	return prev, nil
}

func (s *Service) ListWithReminders(ctx context.Context) ([]UserSettings, error) {
	return s.Store.ListWithReminders(ctx)
}
