package domain

import (
	"testing"
	"time"
)

func TestScheduleBookable(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	departure := now.Add(2 * time.Hour)

	base := Schedule{
		Status:      ScheduleScheduled,
		Enabled:     true,
		DepartureAt: departure,
	}

	if !base.Bookable(now) {
		t.Fatal("enabled scheduled future schedule should be bookable")
	}

	disabled := base
	disabled.Enabled = false
	if disabled.Bookable(now) {
		t.Fatal("disabled schedule must not be bookable")
	}

	completed := base
	completed.Status = ScheduleCompleted
	if completed.Bookable(now) {
		t.Fatal("completed schedule must not be bookable")
	}

	departed := base
	departed.DepartureAt = now.Add(-time.Minute)
	if departed.Bookable(now) {
		t.Fatal("departed schedule must not be bookable")
	}

	if base.Bookable(departure) {
		t.Fatal("schedule departing exactly now must not be bookable")
	}
}

func TestSeatPrice(t *testing.T) {
	if got := (Seat{}).Price(150_000); got != 150_000 {
		t.Fatalf("Price without override = %d, want 150000", got)
	}

	override := int64(200_000)
	if got := (Seat{PriceOverride: &override}).Price(150_000); got != 200_000 {
		t.Fatalf("Price with override = %d, want 200000", got)
	}

	zero := int64(0)
	if got := (Seat{PriceOverride: &zero}).Price(150_000); got != 0 {
		t.Fatalf("zero override should win, got %d", got)
	}
}
