package workday

import "time"

// Bank holds the parts of a time-bank computation.
type Bank struct {
	Worked     time.Duration
	Target     time.Duration
	Adjustment time.Duration
	Balance    time.Duration
}

func (b Bank) Formatted() string {
	return FormatSigned(b.Balance)
}

// ComputeBank walks every calendar day from the first entry through today.
// A configured workday accrues its target once it is in the past, or for today
// once it has entries and all of them are closed.
func ComputeBank(entries []Entry, settings Settings, now time.Time) Bank {
	bank := Bank{Adjustment: settings.TimeBankAdjustment}
	if len(entries) == 0 {
		bank.Balance = bank.Adjustment
		return bank
	}

	first := entries[0].StartTime
	for _, e := range entries[1:] {
		if e.StartTime.Before(first) {
			first = e.StartTime
		}
	}

	loc := now.Location()
	today := StartOfDay(now)
	perDay := settings.DailyTarget()

	byDay := GroupByDate(entries, loc)

	for day := StartOfDay(first.In(loc)); !day.After(today); day = day.AddDate(0, 0, 1) {
		dayEntries := byDay[DateKey(day)]
		bank.Worked += SumWorked(dayEntries, nil)

		if !settings.Workdays.Includes(day.Weekday()) {
			continue
		}
		// today counts once it has entries and none is open
		if SameDay(day, today) && (len(dayEntries) == 0 || OpenEntry(dayEntries) != nil) {
			continue
		}
		bank.Target += perDay
	}

	bank.Balance = bank.Worked - bank.Target + bank.Adjustment
	return bank
}

// TimeBank returns the formatted signed balance, e.g. "+01h30m" or "-01h00m".
func TimeBank(entries []Entry, settings Settings, now time.Time) string {
	return ComputeBank(entries, settings, now).Formatted()
}
