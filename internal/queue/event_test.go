package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

func TestNewBookingEvent(t *testing.T) {
	b := &domain.Booking{
		ID:         uuid.New(),
		UserID:     7,
		ScheduleID: 12,
		SeatIDs:    []int64{1, 2},
		TotalPrice: 360_000,
	}

	before := time.Now().Unix()
	ev := NewBookingEvent(TypeBookingCancelled, b, "expired")

	if ev.Type != TypeBookingCancelled {
		t.Fatalf("type = %q", ev.Type)
	}
	if ev.BookingID != b.ID || ev.UserID != 7 || ev.ScheduleID != 12 {
		t.Fatalf("identity fields not copied: %+v", ev)
	}
	if len(ev.SeatIDs) != 2 || ev.TotalPrice != 360_000 {
		t.Fatalf("payload fields not copied: %+v", ev)
	}
	if ev.Reason != "expired" {
		t.Fatalf("reason = %q", ev.Reason)
	}
	if ev.TsUnix < before {
		t.Fatalf("timestamp %d predates the call", ev.TsUnix)
	}
}
