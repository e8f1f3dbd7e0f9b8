package workday

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Workdays flags which weekdays count toward the weekly target.
type Workdays struct {
	Sun bool `json:"sun"`
	Mon bool `json:"mon"`
	Tue bool `json:"tue"`
	Wed bool `json:"wed"`
	Thu bool `json:"thu"`
	Fri bool `json:"fri"`
	Sat bool `json:"sat"`
}

func (w Workdays) Includes(day time.Weekday) bool {
	switch day {
	case time.Sunday:
		return w.Sun
	case time.Monday:
		return w.Mon
	case time.Tuesday:
		return w.Tue
	case time.Wednesday:
		return w.Wed
	case time.Thursday:
		return w.Thu
	case time.Friday:
		return w.Fri
	case time.Saturday:
		return w.Sat
	}
	return false
}

func (w Workdays) Count() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Includes(d) {
			n++
		}
	}
	return n
}

// Settings is the per-user configuration every computation receives explicitly.
type Settings struct {
	WeeklyHours        float64       `json:"weeklyHours"`
	Workdays           Workdays      `json:"workdays"`
	TimeBankAdjustment time.Duration `json:"-"`
	Use12Hour          bool          `json:"use12Hour"`
	ClockInReminder    bool          `json:"clockInReminder"`
	BreakReminder      bool          `json:"breakReminder"`
	ClockOutReminder   bool          `json:"clockOutReminder"`
	WorkStartTime      string        `json:"workStartTime"`
	BreakMinutes       int           `json:"breakMinutes"`
}

var ErrInvalidSettings = errors.New("invalid settings")

func DefaultSettings() Settings {
	return Settings{
		WeeklyHours:   40,
		Workdays:      Workdays{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true},
		WorkStartTime: "09:00",
		BreakMinutes:  60,
	}
}

// DailyTarget is the weekly target spread evenly over configured workdays.
// With no workdays configured the target is zero.
func (s Settings) DailyTarget() time.Duration {
	n := s.Workdays.Count()
	if n == 0 {
		return 0
	}
	return time.Duration(s.WeeklyHours * float64(time.Hour) / float64(n))
}

func (s Settings) ExpectedBreak() time.Duration {
	return time.Duration(s.BreakMinutes) * time.Minute
}

// WorkStartOn returns the configured start time of day placed on day's date.
func (s Settings) WorkStartOn(day time.Time) (time.Time, bool) {
	hh, mm, err := ParseClock(s.WorkStartTime)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location()), true
}

func (s Settings) Validate() error {
	if s.WeeklyHours < 0 || s.WeeklyHours > 168 {
		return fmt.Errorf("%w: weekly hours must be between 0 and 168", ErrInvalidSettings)
	}
	if s.BreakMinutes < 0 || s.BreakMinutes > 24*60 {
		return fmt.Errorf("%w: break minutes must be between 0 and 1440", ErrInvalidSettings)
	}
	if _, _, err := ParseClock(s.WorkStartTime); err != nil {
		return fmt.Errorf("%w: work start time: %v", ErrInvalidSettings, err)
	}
	return nil
}

// ParseClock parses "HH:MM" in 24h form.
func ParseClock(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	return t.Hour(), t.Minute(), nil
}

type settingsJSON struct {
	WeeklyHours          float64  `json:"weeklyHours"`
	Workdays             Workdays `json:"workdays"`
	TimeBankAdjustmentMs int64    `json:"timeBankAdjustmentMs"`
	Use12Hour            bool     `json:"use12Hour"`
	ClockInReminder      bool     `json:"clockInReminder"`
	BreakReminder        bool     `json:"breakReminder"`
	ClockOutReminder     bool     `json:"clockOutReminder"`
	WorkStartTime        string   `json:"workStartTime"`
	BreakMinutes         int      `json:"breakMinutes"`
}

// MarshalJSON exposes the manual adjustment as signed milliseconds.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingsJSON{
		WeeklyHours:          s.WeeklyHours,
		Workdays:             s.Workdays,
		TimeBankAdjustmentMs: s.TimeBankAdjustment.Milliseconds(),
		Use12Hour:            s.Use12Hour,
		ClockInReminder:      s.ClockInReminder,
		BreakReminder:        s.BreakReminder,
		ClockOutReminder:     s.ClockOutReminder,
		WorkStartTime:        s.WorkStartTime,
		BreakMinutes:         s.BreakMinutes,
	})
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw settingsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settings{
		WeeklyHours:        raw.WeeklyHours,
		Workdays:           raw.Workdays,
		TimeBankAdjustment: time.Duration(raw.TimeBankAdjustmentMs) * time.Millisecond,
		Use12Hour:          raw.Use12Hour,
		ClockInReminder:    raw.ClockInReminder,
		BreakReminder:      raw.BreakReminder,
		ClockOutReminder:   raw.ClockOutReminder,
		WorkStartTime:      raw.WorkStartTime,
		BreakMinutes:       raw.BreakMinutes,
	}
	return nil
}
