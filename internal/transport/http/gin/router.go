package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	redisrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/redis"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/admin"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/payment"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/query"
)

type Config struct {
	JWTSecret        string
	PaymentReturnURL string
	PaymentCancelURL string
}

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	cfg Config,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/schedules/:id", handleGetSchedule(svcs))
	r.GET("/schedules/:id/availability", handleGetAvailability(svcs))
	r.GET("/schedules/:id/seats", handleListScheduleSeats(svcs))

	// Payment gateway callbacks (unauthenticated by contract)
	r.POST("/payments/webhook", handlePaymentWebhook(svcs, logger))
	r.GET("/payments/callback/success", handlePaymentCallback(svcs, logger, cfg.PaymentReturnURL, payment.StatusPaid))
	r.GET("/payments/callback/cancel", handlePaymentCallback(svcs, logger, cfg.PaymentCancelURL, payment.StatusCancelled))

	// Customer API
	authed := r.Group("/", Auth(cfg.JWTSecret))
	{
		authed.POST("/bookings", handleCreateBooking(svcs, idem))
		authed.GET("/bookings", handleListMyBookings(svcs))
		authed.GET("/bookings/:id", handleGetBooking(svcs))
		authed.PUT("/bookings/:id/cancel", handleCancelBooking(svcs))
	}

	// Admin API
	adm := r.Group("/admin", Auth(cfg.JWTSecret), RequireRole(domain.RoleAdmin))
	{
		adm.POST("/schedules", handleCreateSchedule(svcs))
		adm.PUT("/schedules/:id/enable", handleSetScheduleEnabled(svcs, true))
		adm.PUT("/schedules/:id/disable", handleSetScheduleEnabled(svcs, false))
		adm.POST("/schedules/:id/complete", handleCompleteSchedule(svcs))
		adm.PUT("/seats/:id/block", handleSetSeatBlocked(svcs, true))
		adm.PUT("/seats/:id/unblock", handleSetSeatBlocked(svcs, false))
		adm.PUT("/bookings/:id/force-paid", handleForcePaid(svcs))
		adm.PUT("/bookings/:id/force-cancel", handleForceCancel(svcs))
		adm.POST("/cleanup/pending-bookings", handleSweep(svcs))
		adm.GET("/cleanup/pending-stats", handlePendingStats(svcs))
	}

	return r
}

// --- Public handlers ---

// @Summary  Get schedule
// @Param    id  path  int  true  "Schedule ID"
// @Success  200  {object}  domain.Schedule
// @Failure  404  {object}  ErrorResponse
// @Router   /schedules/{id} [get]
func handleGetSchedule(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheduleID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		s, err := svcs.Query.GetSchedule(c.Request.Context(), scheduleID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, s, "public, max-age=60", true)
	}
}

// @Summary  Get seat availability counters
// @Param    id  path  int  true  "Schedule ID"
// @Success  200  {object}  domain.ScheduleCounts
// @Router   /schedules/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheduleID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		cnt, err := svcs.Query.CountsByStatus(c.Request.Context(), scheduleID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, cnt, "public, max-age=15", true)
	}
}

// @Summary  List schedule seats
// @Param    id     path   int     true  "Schedule ID"
// @Param    only   query  string  false "available"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   domain.Seat
// @Router   /schedules/{id}/seats [get]
func handleListScheduleSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheduleID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		onlyAvailable := c.Query("only") == "available" || c.Query("only_available") == "true"
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		seats, err := svcs.Query.ListScheduleSeats(
			c.Request.Context(),
			scheduleID,
			onlyAvailable,
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, seats, "public, max-age=15", true)
	}
}

// --- Customer handlers ---

// @Summary  Create booking (idempotent)
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "schedule or seats not found"
// @Failure  409 {object} ErrorResponse "seats unavailable / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		actor := actorFrom(c)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(actor.UserID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		b, err := svcs.Booking.CreateBooking(
			c.Request.Context(),
			actor,
			booking.CreateBookingInput{
				ScheduleID:    req.ScheduleID,
				SeatIDs:       req.SeatIDs,
				PickupStopID:  req.PickupStopID,
				DropoffStopID: req.DropoffStopID,
				PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
			},
			"ip:"+c.ClientIP(),
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" && idem != nil {
			payload, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(payload))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  List own bookings
// @Success  200 {array} BookingResponse
// @Router   /bookings [get]
func handleListMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		bookings, err := svcs.Query.ListUserBookings(c.Request.Context(), actor.UserID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			out = append(out, toBookingResponse(&bookings[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		b, err := svcs.Query.GetBooking(c.Request.Context(), bookingID)
		if err != nil {
			respondErr(c, err)
			return
		}

		actor := actorFrom(c)
		if actor.Role != domain.RoleAdmin && b.UserID != actor.UserID {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
			return
		}

		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Cancel own booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "not cancellable; names current status"
// @Router   /bookings/{id}/cancel [put]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req CancelBookingRequest
		_ = c.ShouldBindJSON(&req) // body is optional

		b, err := svcs.Booking.CancelBooking(c.Request.Context(), actorFrom(c), bookingID, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	// Typed errors first: they carry detail the client needs.
	var conflict *booking.SeatConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "seats unavailable",
			SeatIDs: conflict.SeatIDs,
		})
		return
	}

	var missing *booking.SeatsNotFoundError
	if errors.As(err, &missing) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "seats not found",
			SeatIDs: missing.SeatIDs,
		})
		return
	}

	var invalid *booking.InvalidStateError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:  "transition not allowed",
			Status: string(invalid.Current),
		})
		return
	}

	var limited *booking.RateLimitedError
	if errors.As(err, &limited) {
		c.Header("Retry-After", strconv.Itoa(int(limited.RetryAfter/time.Second)+1))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: limited.Error()})
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "schedule not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrScheduleNotBookable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "schedule is not open for booking"})
	case errors.Is(err, booking.ErrNoSeatsSelected),
		errors.Is(err, booking.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, booking.ErrStaleConfirmation):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "payment conflicts with booking state"})
	case errors.Is(err, booking.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid state"})

	// query service
	case errors.Is(err, query.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "schedule not found"})
	case errors.Is(err, query.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})

	// admin service
	case errors.Is(err, admin.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "schedule not found"})
	case errors.Is(err, admin.ErrSeatNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "seat not found"})
	case errors.Is(err, admin.ErrScheduleConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "schedule conflict"})
	case errors.Is(err, admin.ErrSeatInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "seat is held by a booking"})

	// payment service
	case errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	case errors.Is(err, payment.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
