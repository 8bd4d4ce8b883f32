package domain

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatPending   SeatStatus = "pending"
	SeatBooked    SeatStatus = "booked"
	SeatBlocked   SeatStatus = "blocked"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "paid"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

type Floor string

const (
	FloorUpper Floor = "upper"
	FloorLower Floor = "lower"
	FloorMain  Floor = "main"
)

type PaymentMethod string

const (
	PaymentGateway PaymentMethod = "gateway"
	PaymentCash    PaymentMethod = "cash"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Actor is the authenticated principal a mutation runs on behalf of.
// The expiry sweeper and the payment gateway act as RoleSystem with UserID 0.
type Actor struct {
	UserID int64
	Role   Role
}

var SystemActor = Actor{Role: RoleSystem}

type Schedule struct {
	ID          int64
	RouteID     int64
	BusID       int64
	DriverID    int64
	DepartureAt time.Time
	SeatPrice   int64 // VND per seat
	Status      ScheduleStatus
	Enabled     bool
}

// Bookable reports whether new bookings may be created for the schedule.
func (s Schedule) Bookable(now time.Time) bool {
	return s.Enabled && s.Status == ScheduleScheduled && s.DepartureAt.After(now)
}

type Seat struct {
	ID            int64
	ScheduleID    int64
	SeatNumber    string
	Floor         Floor
	Status        SeatStatus
	PriceOverride *int64
	PendingSince  *time.Time
}

// Price returns the effective price of the seat given the schedule seat price.
func (s Seat) Price(schedulePrice int64) int64 {
	if s.PriceOverride != nil {
		return *s.PriceOverride
	}
	return schedulePrice
}

type Booking struct {
	ID               uuid.UUID
	UserID           int64
	ScheduleID       int64
	SeatIDs          []int64
	PickupStopID     *int64
	DropoffStopID    *int64
	TotalPrice       int64
	Status           BookingStatus
	PaymentMethod    PaymentMethod
	BookedAt         time.Time
	PaidAt           *time.Time
	CancelledAt      *time.Time
	CancelReason     *string
	OrderCode        *int64
	PaymentRequestID *string
}

type ScheduleCounts struct {
	Available int64
	Pending   int64
	Booked    int64
	Blocked   int64
	Total     int64
}

// PendingStats is the sweeper's read-only view of the pending backlog.
type PendingStats struct {
	TotalPending   int64
	ExpiringSoon   int64
	Expired        int64
	TimeoutMinutes int
}
