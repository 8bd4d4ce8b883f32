package httpgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/admin"
)

// @Summary  Create schedule with seat layout
// @Param    req  body  CreateScheduleRequest  true  "schedule + seats"
// @Success  201  {object}  CreateScheduleResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/schedules [post]
func handleCreateSchedule(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		departureAt, err := parseRFC3339(req.DepartureAt)
		if err != nil {
			badRequest(c, "departure_at must be RFC3339")
			return
		}

		layout := make([]admin.SeatLayout, 0, len(req.Seats))
		for _, s := range req.Seats {
			layout = append(layout, admin.SeatLayout{
				SeatNumber:    s.SeatNumber,
				Floor:         domain.Floor(s.Floor),
				PriceOverride: s.PriceOverride,
			})
		}

		id, err := svcs.Admin.CreateSchedule(
			c.Request.Context(),
			req.RouteID, req.BusID, req.DriverID,
			departureAt,
			req.SeatPrice,
			layout,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateScheduleResponse{
			ScheduleID: id,
			Seats:      len(layout),
		})
	}
}

func handleSetScheduleEnabled(svcs *service.Services, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheduleID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.SetScheduleEnabled(c.Request.Context(), scheduleID, enabled); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedule_id": scheduleID, "enabled": enabled})
	}
}

// @Summary  Complete departed schedule
// @Description  Marks the schedule completed and rolls its paid bookings to
// @Description  completed in one transaction.
// @Param    id  path  int  true  "Schedule ID"
// @Success  200  {object}  CompleteScheduleResponse
// @Failure  409  {object}  ErrorResponse  "schedule not in scheduled state"
// @Router   /admin/schedules/{id}/complete [post]
func handleCompleteSchedule(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheduleID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		n, err := svcs.Admin.CompleteSchedule(c.Request.Context(), scheduleID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CompleteScheduleResponse{ScheduleID: scheduleID, Completed: n})
	}
}

func handleSetSeatBlocked(svcs *service.Services, blocked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		seatID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.SetSeatBlocked(c.Request.Context(), seatID, blocked); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"seat_id": seatID, "blocked": blocked})
	}
}

// @Summary  Force a booking to paid
// @Description  Records an out-of-band payment. Pending only; anything else
// @Description  conflicts with the current status.
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  BookingResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/bookings/{id}/force-paid [put]
func handleForcePaid(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Admin.ForceMarkPaid(c.Request.Context(), actorFrom(c), bookingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Force-cancel a booking
// @Description  Cancels a pending or paid booking. A reason is mandatory for
// @Description  the audit trail.
// @Param    id   path  string              true  "Booking ID (uuid)"
// @Param    req  body  ForceCancelRequest  true  "reason"
// @Success  200  {object}  BookingResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/bookings/{id}/force-cancel [put]
func handleForceCancel(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req ForceCancelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "reason is required")
			return
		}

		b, err := svcs.Admin.ForceCancel(c.Request.Context(), actorFrom(c), bookingID, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Sweep expired pending bookings now
// @Success  200  {object}  SweepResponse
// @Router   /admin/cleanup/pending-bookings [post]
func handleSweep(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		processed, err := svcs.Cleanup.Sweep(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SweepResponse{
			Processed: processed,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary  Pending booking backlog stats
// @Success  200  {object}  PendingStatsResponse
// @Router   /admin/cleanup/pending-stats [get]
func handlePendingStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svcs.Cleanup.PendingStats(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, PendingStatsResponse{
			TotalPending:   stats.TotalPending,
			ExpiringSoon:   stats.ExpiringSoon,
			Expired:        stats.Expired,
			TimeoutMinutes: stats.TimeoutMinutes,
		})
	}
}
