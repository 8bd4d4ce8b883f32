package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is the audit record published after a booking transition
// commits. Consumers must treat delivery as at-least-once.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	UserID     int64     `json:"user_id"`
	ScheduleID int64     `json:"schedule_id"`
	SeatIDs    []int64   `json:"seat_ids"`
	TotalPrice int64     `json:"total_price"`
	Reason     string    `json:"reason,omitempty"`
	TsUnix     int64     `json:"ts_unix"`
}

// NewBookingEvent builds an event snapshot from the booking's current state.
func NewBookingEvent(typ string, b *domain.Booking, reason string) BookingEvent {
	return BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ScheduleID: b.ScheduleID,
		SeatIDs:    b.SeatIDs,
		TotalPrice: b.TotalPrice,
		Reason:     reason,
		TsUnix:     time.Now().Unix(),
	}
}
