package booking

import "github.com/BlackAll2225/ZenoBus-sub000/internal/domain"

// CanTransition is the single authorization point for booking status changes.
// Every caller (customer endpoints, the payment adapter, the expiry sweeper,
// the admin overrides) goes through this table instead of comparing role
// strings at the call site.
//
// The state machine is monotonic: pending -> paid -> completed, or
// pending -> cancelled. Cancelled and completed are terminal; the one relaxed
// precondition is that an admin may cancel a paid booking (refund path).
func CanTransition(role domain.Role, from, to domain.BookingStatus) bool {
	switch role {
	case domain.RoleCustomer:
		return from == domain.BookingPending && to == domain.BookingCancelled

	case domain.RoleSystem:
		// The sweeper cancels stale pending bookings; the gateway confirms them.
		if from != domain.BookingPending {
			return false
		}
		return to == domain.BookingPaid || to == domain.BookingCancelled

	case domain.RoleAdmin:
		switch from {
		case domain.BookingPending:
			return to == domain.BookingPaid || to == domain.BookingCancelled
		case domain.BookingPaid:
			return to == domain.BookingCancelled || to == domain.BookingCompleted
		}
	}

	return false
}

// cancellableFrom lists the statuses a cancel may start from for the role.
// Used as the compare-and-set guard on the booking row.
func cancellableFrom(role domain.Role) []domain.BookingStatus {
	if role == domain.RoleAdmin {
		return []domain.BookingStatus{domain.BookingPending, domain.BookingPaid}
	}
	return []domain.BookingStatus{domain.BookingPending}
}

// TotalPrice sums the effective price of every reserved seat. Seats may carry
// a per-seat override; the rest cost the schedule's base price.
func TotalPrice(seats []domain.Seat, schedulePrice int64) int64 {
	var total int64
	for _, s := range seats {
		total += s.Price(schedulePrice)
	}
	return total
}
