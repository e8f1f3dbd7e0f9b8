package absence

import (
	"math"
	"time"
)

// InclusiveDays returns the number of calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) (int, error) {
	if start.IsZero() || end.IsZero() {
		return 0, ErrMissingDates
	}
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// HoursAffected is inclusive days times the daily target, rounded to two decimals.
func HoursAffected(days int, dailyTarget time.Duration) float64 {
	return math.Round(float64(days)*dailyTarget.Hours()*100) / 100
}

func validateInput(in Input) (int, error) {
	if !ValidType(in.Type) {
		return 0, ErrInvalidType
	}
	return InclusiveDays(in.StartDate, in.EndDate)
}
