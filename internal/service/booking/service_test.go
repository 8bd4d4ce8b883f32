package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

func TestSamePaymentRef(t *testing.T) {
	ref := "pr_123"

	if !samePaymentRef(&ref, "pr_123") {
		t.Fatal("identical refs should match")
	}
	if samePaymentRef(&ref, "pr_456") {
		t.Fatal("different refs must not match")
	}

	// An empty incoming ref carries no information; treat as matching so a
	// bare retry stays idempotent.
	if !samePaymentRef(&ref, "") {
		t.Fatal("empty incoming ref should match")
	}
	if !samePaymentRef(nil, "") {
		t.Fatal("both empty should match")
	}

	if samePaymentRef(nil, "pr_123") {
		t.Fatal("stored nil must not match a concrete ref")
	}
}

func TestNewOrderCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base := now.UnixMilli() * 1000

	for i := 0; i < 100; i++ {
		oc := newOrderCode(now)
		if oc < base || oc >= base+1000 {
			t.Fatalf("order code %d outside [%d, %d)", oc, base, base+1000)
		}
	}

	later := newOrderCode(now.Add(time.Second))
	if later <= newOrderCode(now) {
		t.Fatal("later timestamps must produce larger order codes")
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	var err error = &SeatConflictError{SeatIDs: []int64{7, 9}}
	if !errors.Is(err, ErrSeatsUnavailable) {
		t.Fatal("SeatConflictError should match ErrSeatsUnavailable")
	}

	var conflict *SeatConflictError
	if !errors.As(err, &conflict) || len(conflict.SeatIDs) != 2 {
		t.Fatalf("errors.As lost seat ids: %v", conflict)
	}

	err = &SeatsNotFoundError{SeatIDs: []int64{3}}
	if !errors.Is(err, ErrSeatsNotFound) {
		t.Fatal("SeatsNotFoundError should match ErrSeatsNotFound")
	}

	err = &InvalidStateError{Current: domain.BookingCancelled}
	if !errors.Is(err, ErrInvalidState) {
		t.Fatal("InvalidStateError should match ErrInvalidState")
	}

	var invalid *InvalidStateError
	if !errors.As(err, &invalid) || invalid.Current != domain.BookingCancelled {
		t.Fatalf("errors.As lost current status: %v", invalid)
	}

	err = &RateLimitedError{RetryAfter: 30 * time.Second}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("RateLimitedError should match ErrRateLimited")
	}
}
