package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run one reminder pass now",
	Long:  "Deliver the clock-in, break-end and clock-out reminders due in the last interval.",
	Args:  cobra.NoArgs,
	RunE:  runRemind,
}

func runRemind(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	summary, err := app.Jobs.RunReminders(cmd.Context())
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out(cmd), string(encoded))
	return nil
}
