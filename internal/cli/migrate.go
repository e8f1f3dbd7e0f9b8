package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timebank/internal/platform/config"
	"timebank/internal/platform/db"
	"timebank/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending Postgres migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := db.Connect(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	applied, err := db.Migrate(cmd.Context(), pool, migrations.FS)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(out(cmd), "Schema is up to date.")
		return nil
	}
	for _, version := range applied {
		fmt.Fprintf(out(cmd), "applied %s\n", version)
	}
	return nil
}
