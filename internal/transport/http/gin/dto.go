package httpgin

import (
	"time"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

type CreateBookingRequest struct {
	ScheduleID    int64   `json:"schedule_id" binding:"required"`
	SeatIDs       []int64 `json:"seat_ids" binding:"required,min=1,dive,required"`
	PickupStopID  *int64  `json:"pickup_stop_id"`
	DropoffStopID *int64  `json:"dropoff_stop_id"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=gateway cash"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type ForceCancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CreateScheduleRequest struct {
	RouteID     int64             `json:"route_id" binding:"required"`
	BusID       int64             `json:"bus_id" binding:"required"`
	DriverID    int64             `json:"driver_id" binding:"required"`
	DepartureAt string            `json:"departure_at" binding:"required"`
	SeatPrice   int64             `json:"seat_price" binding:"required,gt=0"`
	Seats       []SeatLayoutInput `json:"seats" binding:"required,min=1,dive"`
}

type SeatLayoutInput struct {
	SeatNumber    string `json:"seat_number" binding:"required"`
	Floor         string `json:"floor" binding:"required,oneof=upper lower main"`
	PriceOverride *int64 `json:"price_override"`
}

type ErrorResponse struct {
	Error   string  `json:"error"`
	SeatIDs []int64 `json:"seat_ids,omitempty"`
	Status  string  `json:"status,omitempty"`
}

type BookingResponse struct {
	ID               string  `json:"id"`
	UserID           int64   `json:"user_id"`
	ScheduleID       int64   `json:"schedule_id"`
	SeatIDs          []int64 `json:"seat_ids"`
	PickupStopID     *int64  `json:"pickup_stop_id,omitempty"`
	DropoffStopID    *int64  `json:"dropoff_stop_id,omitempty"`
	TotalPrice       int64   `json:"total_price"`
	Status           string  `json:"status"`
	PaymentMethod    string  `json:"payment_method"`
	BookedAt         string  `json:"booked_at"`
	PaidAt           *string `json:"paid_at,omitempty"`
	CancelledAt      *string `json:"cancelled_at,omitempty"`
	CancelReason     *string `json:"cancel_reason,omitempty"`
	OrderCode        *int64  `json:"order_code,omitempty"`
	PaymentRequestID *string `json:"payment_request_id,omitempty"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		UserID:           b.UserID,
		ScheduleID:       b.ScheduleID,
		SeatIDs:          b.SeatIDs,
		PickupStopID:     b.PickupStopID,
		DropoffStopID:    b.DropoffStopID,
		TotalPrice:       b.TotalPrice,
		Status:           string(b.Status),
		PaymentMethod:    string(b.PaymentMethod),
		BookedAt:         b.BookedAt.Format(time.RFC3339),
		PaidAt:           formatTimePtr(b.PaidAt),
		CancelledAt:      formatTimePtr(b.CancelledAt),
		CancelReason:     b.CancelReason,
		OrderCode:        b.OrderCode,
		PaymentRequestID: b.PaymentRequestID,
	}
}

type CreateScheduleResponse struct {
	ScheduleID int64 `json:"schedule_id"`
	Seats      int   `json:"seats"`
}

type SweepResponse struct {
	Processed int    `json:"processed"`
	Timestamp string `json:"timestamp"`
}

type PendingStatsResponse struct {
	TotalPending   int64 `json:"total_pending"`
	ExpiringSoon   int64 `json:"expiring_soon"`
	Expired        int64 `json:"expired"`
	TimeoutMinutes int   `json:"timeout_minutes"`
}

type CompleteScheduleResponse struct {
	ScheduleID int64 `json:"schedule_id"`
	Completed  int64 `json:"completed"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
