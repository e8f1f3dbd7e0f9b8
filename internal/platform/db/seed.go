package db

import (
	"context"
	"log"
	"strings"

	"timebank/internal/domain/auth"
	"timebank/internal/platform/config"
)

type UserEnsurer interface {
	EnsureUser(ctx context.Context, username, password, role string) (auth.User, error)
}

// Seed creates the configured manager account. Without a password it does nothing.
func Seed(ctx context.Context, users UserEnsurer, cfg config.Config) error {
	if strings.TrimSpace(cfg.SeedManagerPassword) == "" {
		log.Printf("seed: SEED_MANAGER_PASSWORD not set, skipping manager account")
		return nil
	}
	user, err := users.EnsureUser(ctx, cfg.SeedManagerUsername, cfg.SeedManagerPassword, auth.RoleManager)
	if err != nil {
		return err
	}
	log.Printf("seed: manager account %q ready", user.Username)
	return nil
}
