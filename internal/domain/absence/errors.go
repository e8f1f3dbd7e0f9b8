package absence

import "errors"

var (
	ErrNotFound     = errors.New("absence request not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidType  = errors.New("unknown absence type")
	ErrInvalidRange = errors.New("end date before start date")
	ErrMissingDates = errors.New("start and end date are required")
)
