package query

import "errors"

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrBookingNotFound  = errors.New("booking not found")
)
