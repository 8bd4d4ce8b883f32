package admin

import "errors"

var (
	ErrScheduleConflict = errors.New("schedule already exists")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatInUse        = errors.New("seat is held by a booking")
)
