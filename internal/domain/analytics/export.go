package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"timebank/internal/domain/workday"
)

var csvHeader = []string{"Date", "Clock In", "Clock Out", "Duration (HH:MM)"}

// ExportRow is one closed entry as it appears in an export.
type ExportRow struct {
	Date     string
	ClockIn  string
	ClockOut string
	Duration string
	Worked   time.Duration
}

// ExportRows renders the closed entries starting in period, oldest first.
// Worked is truncated to whole minutes so re-summing the printed column
// always matches the total.
func ExportRows(entries []workday.Entry, period Period, use12Hour bool) ([]ExportRow, time.Duration) {
	loc := period.From.Location()
	var rows []ExportRow
	var total time.Duration
	for _, e := range InPeriod(entries, period) {
		if e.IsOpen() {
			continue
		}
		worked := e.Duration().Truncate(time.Minute)
		if worked < 0 {
			worked = 0
		}
		total += worked
		rows = append(rows, ExportRow{
			Date:     workday.DateKey(e.StartTime.In(loc)),
			ClockIn:  workday.FormatClock(e.StartTime.In(loc), use12Hour),
			ClockOut: workday.FormatClock(e.EndTime.In(loc), use12Hour),
			Duration: workday.FormatHHMM(worked),
			Worked:   worked,
		})
	}
	return rows, total
}

// TotalLabel renders a total as "<H>h <M>m" without padding.
func TotalLabel(total time.Duration) string {
	minutes := int64(total / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// WriteCSV writes the timesheet: header, one row per closed entry, a blank
// line and the quoted total row.
func WriteCSV(w io.Writer, entries []workday.Entry, period Period, use12Hour bool) error {
	rows, total := ExportRows(entries, period, use12Hour)

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Date, row.ClockIn, row.ClockOut, row.Duration}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal,,,%q\n", TotalLabel(total))
	return err
}

// WritePDF renders the analytics summary followed by the timesheet.
func WritePDF(w io.Writer, report Report, entries []workday.Entry, use12Hour bool) error {
	rows, total := ExportRows(entries, report.Period, use12Hour)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Timesheet")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	last := report.Period.To.AddDate(0, 0, -1)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", workday.DateKey(report.Period.From), workday.DateKey(last)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Worked: %s of %s (%.1f%%)", report.Productivity.Worked, report.Productivity.Target, report.Productivity.Efficiency))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("On time: %d, late: %d, average delay %.0f min", report.Punctuality.OnTime, report.Punctuality.Late, report.Punctuality.AvgDelayMinutes))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Burnout risk: %s", report.Predictions.BurnoutRisk))
	pdf.Ln(10)

	widths := []float64{40, 35, 35, 40}
	pdf.SetFont("Helvetica", "B", 11)
	for i, title := range csvHeader {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		for i, value := range []string{row.Date, row.ClockIn, row.ClockOut, row.Duration} {
			pdf.CellFormat(widths[i], 7, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+TotalLabel(total))

	return pdf.Output(w)
}
