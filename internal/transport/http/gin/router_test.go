package httpgin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/payment"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doRespondErr(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondErr(c, err)

	var body ErrorResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return w, body
}

func TestRespondErrSeatConflict(t *testing.T) {
	w, body := doRespondErr(t, &booking.SeatConflictError{SeatIDs: []int64{4, 5}})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if len(body.SeatIDs) != 2 || body.SeatIDs[0] != 4 || body.SeatIDs[1] != 5 {
		t.Fatalf("seat_ids = %v, want [4 5]", body.SeatIDs)
	}
}

func TestRespondErrSeatsNotFound(t *testing.T) {
	w, body := doRespondErr(t, &booking.SeatsNotFoundError{SeatIDs: []int64{11}})

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if len(body.SeatIDs) != 1 || body.SeatIDs[0] != 11 {
		t.Fatalf("seat_ids = %v, want [11]", body.SeatIDs)
	}
}

func TestRespondErrInvalidState(t *testing.T) {
	w, body := doRespondErr(t, &booking.InvalidStateError{Current: domain.BookingPaid})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if body.Status != string(domain.BookingPaid) {
		t.Fatalf("status field = %q, want %q", body.Status, domain.BookingPaid)
	}
}

func TestRespondErrRateLimited(t *testing.T) {
	w, _ := doRespondErr(t, &booking.RateLimitedError{RetryAfter: 42 * time.Second})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestRespondErrSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"schedule not found", booking.ErrScheduleNotFound, http.StatusNotFound},
		{"booking not found", booking.ErrBookingNotFound, http.StatusNotFound},
		{"schedule not bookable", booking.ErrScheduleNotBookable, http.StatusConflict},
		{"no seats selected", booking.ErrNoSeatsSelected, http.StatusBadRequest},
		{"reason required", booking.ErrReasonRequired, http.StatusBadRequest},
		{"forbidden", booking.ErrForbidden, http.StatusForbidden},
		{"stale confirmation", booking.ErrStaleConfirmation, http.StatusConflict},
		{"invalid signature", payment.ErrInvalidSignature, http.StatusBadRequest},
		{"order not found", payment.ErrOrderNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := doRespondErr(t, tc.err)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := parseIntDefault("", 25); got != 25 {
		t.Fatalf("empty = %d, want 25", got)
	}
	if got := parseIntDefault("7", 25); got != 7 {
		t.Fatalf("\"7\" = %d, want 7", got)
	}
	if got := parseIntDefault("junk", 25); got != 25 {
		t.Fatalf("junk = %d, want 25", got)
	}
}
