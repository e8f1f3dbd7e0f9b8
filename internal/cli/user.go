package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timebank/internal/domain/workday"
)

var statusCmd = &cobra.Command{
	Use:   "status <username>",
	Short: "Show a user's workday status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var bankCmd = &cobra.Command{
	Use:   "bank <username>",
	Short: "Print a user's time bank balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBank,
}

func runStatus(cmd *cobra.Command, args []string) error {
	snap, err := userSnapshot(cmd, args[0])
	if err != nil {
		return err
	}
	printStatus(cmd, args[0], snap)
	return nil
}

func runBank(cmd *cobra.Command, args []string) error {
	snap, err := userSnapshot(cmd, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out(cmd), snap.TimeBank)
	return nil
}

func userSnapshot(cmd *cobra.Command, username string) (workday.Snapshot, error) {
	app, err := openApp(cmd.Context())
	if err != nil {
		return workday.Snapshot{}, err
	}
	defer app.Close()

	user, err := app.Services.Auth.Lookup(cmd.Context(), username)
	if err != nil {
		return workday.Snapshot{}, fmt.Errorf("user %q: %w", username, err)
	}
	return app.Services.Entries.Snapshot(cmd.Context(), user.ID)
}

func printStatus(cmd *cobra.Command, username string, snap workday.Snapshot) {
	w := out(cmd)
	label := snap.StatusLabel
	if label == "" {
		label = string(snap.Status)
	}
	fmt.Fprintf(w, "User:      %s\n", username)
	fmt.Fprintf(w, "Status:    %s\n", label)
	if snap.LastEventLabel != "" {
		fmt.Fprintf(w, "Last:      %s\n", snap.LastEventLabel)
	}
	fmt.Fprintf(w, "Today:     %s (%.0f%%)\n", snap.Daily, snap.Progress)
	fmt.Fprintf(w, "Week:      %s\n", snap.Weekly)
	fmt.Fprintf(w, "Time bank: %s\n", snap.TimeBank)
	if snap.PredictedEndText != "" {
		fmt.Fprintf(w, "Done at:   %s\n", snap.PredictedEndText)
	}
}
