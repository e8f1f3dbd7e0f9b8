package timeentry

import "errors"

var (
	ErrOpenEntryExists = errors.New("an open entry already exists for this user")
	ErrNotFound        = errors.New("time entry not found")
	ErrInvalidRange    = errors.New("end time must not be before start time")
)
