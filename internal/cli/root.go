// Package cli is the timebankctl operator tool. Commands talk to the same
// stores as the API process and read the same environment.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"timebank/internal/app/server"
	"timebank/internal/platform/config"
	"timebank/internal/platform/i18n"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "timebankctl",
	Short: "Operator tool for the timebank service",
	Long: `timebankctl runs maintenance tasks against the timebank database:
schema migrations, reminder passes and per-user balance, status and
timesheet exports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			config.LoadDotEnv(envFile)
		} else {
			config.LoadDotEnv()
		}
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default .env when present)")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remindCmd)
}

// openApp builds the backend without running migrations or the seed.
func openApp(ctx context.Context) (*server.App, error) {
	cfg := config.Load()
	cfg.RunMigrations = false
	cfg.RunSeed = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := i18n.Init(cfg.DefaultLocale); err != nil {
		return nil, err
	}
	return server.New(ctx, cfg)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
