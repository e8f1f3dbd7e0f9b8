package shared

import "time"

const DayLayout = "2006-01-02"

// ParseDate accepts RFC3339 or a bare YYYY-MM-DD day, which is read as
// midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayLayout, value, loc)
}

// DayBound reads an optional range bound. A bare day taken as an upper bound
// covers the whole day, so the result is the following midnight.
func (v *Validator) DayBound(field, raw string, loc *time.Location, upper bool) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := ParseDate(raw, loc)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	if upper && len(raw) == len(DayLayout) {
		return parsed.AddDate(0, 0, 1)
	}
	return parsed
}
