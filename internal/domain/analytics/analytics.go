package analytics

import (
	"sort"
	"time"

	"timebank/internal/domain/workday"
)

const (
	predictionWindow = 30
	burnoutWindow    = 10
)

type BurnoutRisk string

const (
	BurnoutLow    BurnoutRisk = "low"
	BurnoutMedium BurnoutRisk = "medium"
	BurnoutHigh   BurnoutRisk = "high"
)

// Period is the half-open range [From, To).
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DefaultPeriod is the calendar month containing now.
func DefaultPeriod(now time.Time) Period {
	from, to := workday.MonthRange(now)
	return Period{From: from, To: to}
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

type Productivity struct {
	WorkedMs   int64   `json:"workedMs"`
	TargetMs   int64   `json:"targetMs"`
	Worked     string  `json:"worked"`
	Target     string  `json:"target"`
	Efficiency float64 `json:"efficiency"`
}

type Punctuality struct {
	OnTime          int     `json:"onTime"`
	Late            int     `json:"late"`
	Rate            float64 `json:"rate"`
	AvgDelayMinutes float64 `json:"avgDelayMinutes"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type WeekdayTotal struct {
	Weekday  string `json:"weekday"`
	WorkedMs int64  `json:"workedMs"`
	Worked   string `json:"worked"`
}

type Patterns struct {
	PeakHours   []HourCount    `json:"peakHours"`
	TopWeekdays []WeekdayTotal `json:"topWeekdays"`
}

type Predictions struct {
	AvgEntryMs   int64       `json:"avgEntryMs"`
	PredictedEnd *time.Time  `json:"predictedEnd,omitempty"`
	BurnoutRisk  BurnoutRisk `json:"burnoutRisk"`
}

type Report struct {
	Period       Period       `json:"period"`
	Productivity Productivity `json:"productivity"`
	Punctuality  Punctuality  `json:"punctuality"`
	Patterns     Patterns     `json:"patterns"`
	Predictions  Predictions  `json:"predictions"`
}

// Build computes every analytic over the entries that start inside period.
func Build(entries []workday.Entry, settings workday.Settings, period Period) Report {
	inPeriod := InPeriod(entries, period)
	return Report{
		Period:       period,
		Productivity: ComputeProductivity(inPeriod, settings, period),
		Punctuality:  ComputePunctuality(inPeriod, settings, period.From.Location()),
		Patterns: Patterns{
			PeakHours:   PeakHours(inPeriod, 3),
			TopWeekdays: TopWeekdays(inPeriod, 3),
		},
		Predictions: Predict(inPeriod),
	}
}

// InPeriod returns the entries starting inside period, sorted by start.
func InPeriod(entries []workday.Entry, period Period) []workday.Entry {
	var out []workday.Entry
	for _, e := range workday.SortByStart(entries) {
		if period.Contains(e.StartTime) {
			out = append(out, e)
		}
	}
	return out
}

// WeekdaysIn counts Monday to Friday dates in the period.
func WeekdaysIn(period Period) int {
	n := 0
	for day := workday.StartOfDay(period.From); day.Before(period.To); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func ComputeProductivity(entries []workday.Entry, settings workday.Settings, period Period) Productivity {
	worked := workday.SumWorked(entries, nil)
	target := time.Duration(WeekdaysIn(period)) * settings.DailyTarget()
	return Productivity{
		WorkedMs:   worked.Milliseconds(),
		TargetMs:   target.Milliseconds(),
		Worked:     workday.FormatDuration(worked),
		Target:     workday.FormatDuration(target),
		Efficiency: workday.Progress(worked, target),
	}
}

// ComputePunctuality judges every entry's start against the configured start
// time of its day in loc. Entries starting at or before it are on time.
func ComputePunctuality(entries []workday.Entry, settings workday.Settings, loc *time.Location) Punctuality {
	var out Punctuality
	var delay time.Duration
	for _, e := range entries {
		start := e.StartTime.In(loc)
		expected, ok := settings.WorkStartOn(start)
		if !ok {
			continue
		}
		if !start.After(expected) {
			out.OnTime++
			continue
		}
		out.Late++
		delay += start.Sub(expected)
	}
	if total := out.OnTime + out.Late; total > 0 {
		out.Rate = float64(out.OnTime) / float64(total) * 100
	}
	if out.Late > 0 {
		out.AvgDelayMinutes = delay.Minutes() / float64(out.Late)
	}
	return out
}

// PeakHours ranks start hours by frequency; ties favour the earlier hour.
func PeakHours(entries []workday.Entry, limit int) []HourCount {
	counts := map[int]int{}
	for _, e := range entries {
		counts[e.StartTime.Hour()]++
	}
	out := make([]HourCount, 0, len(counts))
	for hour, count := range counts {
		out = append(out, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopWeekdays ranks weekdays by closed worked time.
func TopWeekdays(entries []workday.Entry, limit int) []WeekdayTotal {
	totals := map[time.Weekday]time.Duration{}
	for _, e := range entries {
		if e.IsOpen() {
			continue
		}
		totals[e.StartTime.Weekday()] += e.Duration()
	}
	days := make([]time.Weekday, 0, len(totals))
	for day, total := range totals {
		if total > 0 {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool {
		if totals[days[i]] != totals[days[j]] {
			return totals[days[i]] > totals[days[j]]
		}
		return days[i] < days[j]
	})
	if len(days) > limit {
		days = days[:limit]
	}
	out := make([]WeekdayTotal, 0, len(days))
	for _, day := range days {
		out = append(out, WeekdayTotal{
			Weekday:  day.String(),
			WorkedMs: totals[day].Milliseconds(),
			Worked:   workday.FormatDuration(totals[day]),
		})
	}
	return out
}

// Predict extrapolates the open entry's end from the average of the last 30
// completed entries and rates burnout from the last 10.
func Predict(entries []workday.Entry) Predictions {
	var completed []workday.Entry
	for _, e := range workday.SortByStart(entries) {
		if !e.IsOpen() {
			completed = append(completed, e)
		}
	}

	avg := averageOfLast(completed, predictionWindow)
	out := Predictions{
		AvgEntryMs:  avg.Milliseconds(),
		BurnoutRisk: RateBurnout(averageOfLast(completed, burnoutWindow)),
	}
	if current := workday.OpenEntry(entries); current != nil && avg > 0 {
		end := current.StartTime.Add(avg)
		out.PredictedEnd = &end
	}
	return out
}

func RateBurnout(avg time.Duration) BurnoutRisk {
	switch {
	case avg > 10*time.Hour:
		return BurnoutHigh
	case avg > 9*time.Hour:
		return BurnoutMedium
	default:
		return BurnoutLow
	}
}

func averageOfLast(completed []workday.Entry, n int) time.Duration {
	if len(completed) > n {
		completed = completed[len(completed)-n:]
	}
	if len(completed) == 0 {
		return 0
	}
	var total time.Duration
	for _, e := range completed {
		total += e.Duration()
	}
	return total / time.Duration(len(completed))
}
