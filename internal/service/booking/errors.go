package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

var (
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrScheduleNotBookable = errors.New("schedule is not open for booking")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrSeatsUnavailable    = errors.New("some seats are unavailable")
	ErrSeatsNotFound       = errors.New("some seats not found")
	ErrNoSeatsSelected     = errors.New("no seats selected")
	ErrInvalidState        = errors.New("booking is not in a valid state for this transition")
	ErrForbidden           = errors.New("actor may not perform this transition")
	ErrReasonRequired      = errors.New("a reason is required")
	ErrStaleConfirmation   = errors.New("payment confirmed for a booking that is no longer pending")
	ErrRateLimited         = errors.New("rate limited")
)

// SeatConflictError carries the seat ids that blocked a reservation.
// Matches ErrSeatsUnavailable via errors.Is.
type SeatConflictError struct {
	SeatIDs []int64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("some or all seats are unavailable: %v", e.SeatIDs)
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatsUnavailable
}

// SeatsNotFoundError carries seat ids that do not belong to the schedule.
type SeatsNotFoundError struct {
	SeatIDs []int64
}

func (e *SeatsNotFoundError) Error() string {
	return fmt.Sprintf("seats not found: %v", e.SeatIDs)
}

func (e *SeatsNotFoundError) Is(target error) bool {
	return target == ErrSeatsNotFound
}

// InvalidStateError names the current status blocking a transition, so the
// response can tell the client why the action is not allowed.
type InvalidStateError struct {
	Current domain.BookingStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("transition not allowed from status %q", e.Current)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// RateLimitedError tells the caller when to retry.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
