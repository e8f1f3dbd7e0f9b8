package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"timebank/internal/domain/analytics"
)

const dateLayout = "2006-01-02"

var (
	exportFrom   string
	exportTo     string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <username>",
	Short: "Export a user's timesheet as CSV or PDF",
	Long: `Export the closed entries of a user for a period. The period defaults
to the current month; --from and --to are inclusive dates (YYYY-MM-DD).`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first day of the period (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last day of the period (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")
}

// parsePeriod turns inclusive date flags into a half-open period in loc.
func parsePeriod(from, to string, now time.Time, loc *time.Location) (analytics.Period, error) {
	period := analytics.DefaultPeriod(now.In(loc))
	if from != "" {
		day, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return analytics.Period{}, fmt.Errorf("--from: expected YYYY-MM-DD, got %q", from)
		}
		period.From = day
	}
	if to != "" {
		day, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return analytics.Period{}, fmt.Errorf("--to: expected YYYY-MM-DD, got %q", to)
		}
		period.To = day.AddDate(0, 0, 1)
	}
	if !period.To.After(period.From) {
		return analytics.Period{}, fmt.Errorf("--to must not be before --from")
	}
	return period, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "pdf" {
		return fmt.Errorf("--format must be csv or pdf")
	}
	if exportFormat == "pdf" && exportOut == "" {
		return fmt.Errorf("--output is required for pdf exports")
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	entries := app.Services.Entries
	period, err := parsePeriod(exportFrom, exportTo, entries.Now(), entries.Location)
	if err != nil {
		return err
	}
	user, err := app.Services.Auth.Lookup(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("user %q: %w", args[0], err)
	}
	settings, err := app.Services.Settings.Get(cmd.Context(), user.ID)
	if err != nil {
		return err
	}
	list, err := entries.List(cmd.Context(), user.ID)
	if err != nil {
		return err
	}

	var w io.Writer = out(cmd)
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if exportFormat == "pdf" {
		err = analytics.WritePDF(w, analytics.Build(list, settings, period), list, settings.Use12Hour)
	} else {
		err = analytics.WriteCSV(w, list, period, settings.Use12Hour)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportOut)
	}
	return nil
}
