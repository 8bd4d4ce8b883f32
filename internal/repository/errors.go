package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrSeatsUnavailable = errors.New("some seats unavailable")
	ErrSeatsNotFound    = errors.New("some seats not found")
	ErrInvalidState     = errors.New("invalid state")
)

// SeatConflictError names the exact seats that blocked a reservation so the
// client can refresh its selection. Matches ErrSeatsUnavailable via errors.Is.
type SeatConflictError struct {
	SeatIDs []int64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatsUnavailable
}

// SeatsNotFoundError names requested seats that do not belong to the schedule.
type SeatsNotFoundError struct {
	SeatIDs []int64
}

func (e *SeatsNotFoundError) Error() string {
	return fmt.Sprintf("seats not found: %v", e.SeatIDs)
}

func (e *SeatsNotFoundError) Is(target error) bool {
	return target == ErrSeatsNotFound
}
