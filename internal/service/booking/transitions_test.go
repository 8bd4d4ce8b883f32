package booking

import (
	"testing"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		role domain.Role
		from domain.BookingStatus
		to   domain.BookingStatus
		want bool
	}{
		{"customer cancels pending", domain.RoleCustomer, domain.BookingPending, domain.BookingCancelled, true},
		{"customer cannot cancel paid", domain.RoleCustomer, domain.BookingPaid, domain.BookingCancelled, false},
		{"customer cannot mark paid", domain.RoleCustomer, domain.BookingPending, domain.BookingPaid, false},
		{"customer cannot complete", domain.RoleCustomer, domain.BookingPaid, domain.BookingCompleted, false},

		{"system confirms pending", domain.RoleSystem, domain.BookingPending, domain.BookingPaid, true},
		{"system cancels pending", domain.RoleSystem, domain.BookingPending, domain.BookingCancelled, true},
		{"system cannot cancel paid", domain.RoleSystem, domain.BookingPaid, domain.BookingCancelled, false},
		{"system cannot revive cancelled", domain.RoleSystem, domain.BookingCancelled, domain.BookingPaid, false},

		{"admin marks pending paid", domain.RoleAdmin, domain.BookingPending, domain.BookingPaid, true},
		{"admin cancels pending", domain.RoleAdmin, domain.BookingPending, domain.BookingCancelled, true},
		{"admin cancels paid", domain.RoleAdmin, domain.BookingPaid, domain.BookingCancelled, true},
		{"admin completes paid", domain.RoleAdmin, domain.BookingPaid, domain.BookingCompleted, true},
		{"admin cannot revive cancelled", domain.RoleAdmin, domain.BookingCancelled, domain.BookingPending, false},
		{"admin cannot un-complete", domain.RoleAdmin, domain.BookingCompleted, domain.BookingPaid, false},
		{"admin cannot complete pending", domain.RoleAdmin, domain.BookingPending, domain.BookingCompleted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanTransition(tc.role, tc.from, tc.to)
			if got != tc.want {
				t.Fatalf("CanTransition(%s, %s, %s) = %v, want %v", tc.role, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCancellableFrom(t *testing.T) {
	adminFrom := cancellableFrom(domain.RoleAdmin)
	if len(adminFrom) != 2 || adminFrom[0] != domain.BookingPending || adminFrom[1] != domain.BookingPaid {
		t.Fatalf("admin cancellableFrom = %v", adminFrom)
	}

	custFrom := cancellableFrom(domain.RoleCustomer)
	if len(custFrom) != 1 || custFrom[0] != domain.BookingPending {
		t.Fatalf("customer cancellableFrom = %v", custFrom)
	}

	sysFrom := cancellableFrom(domain.RoleSystem)
	if len(sysFrom) != 1 || sysFrom[0] != domain.BookingPending {
		t.Fatalf("system cancellableFrom = %v", sysFrom)
	}
}

func TestTotalPrice(t *testing.T) {
	override := int64(250_000)

	seats := []domain.Seat{
		{ID: 1},
		{ID: 2, PriceOverride: &override},
		{ID: 3},
	}

	got := TotalPrice(seats, 180_000)
	want := int64(180_000 + 250_000 + 180_000)
	if got != want {
		t.Fatalf("TotalPrice = %d, want %d", got, want)
	}

	if got := TotalPrice(nil, 180_000); got != 0 {
		t.Fatalf("TotalPrice(nil) = %d, want 0", got)
	}
}
