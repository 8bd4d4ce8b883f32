package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const bookingColumns = `b.id, b.user_id, b.schedule_id, b.pickup_stop_id, b.dropoff_stop_id,
       b.total_price, b.status, b.payment_method, b.booked_at, b.paid_at,
       b.cancelled_at, b.cancel_reason, b.order_code, b.payment_request_id`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.ScheduleID, &b.PickupStopID, &b.DropoffStopID,
		&b.TotalPrice, &b.Status, &b.PaymentMethod, &b.BookedAt, &b.PaidAt,
		&b.CancelledAt, &b.CancelReason, &b.OrderCode, &b.PaymentRequestID,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts the booking row and its seat claims.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO bookings(
       		id, user_id, schedule_id, pickup_stop_id, dropoff_stop_id,
       		total_price, status, payment_method, booked_at, order_code
     	 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.UserID, b.ScheduleID, b.PickupStopID, b.DropoffStopID,
		b.TotalPrice, b.Status, b.PaymentMethod, b.BookedAt, b.OrderCode,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	batch := &pgx.Batch{}
	for _, sid := range b.SeatIDs {
		batch.Queue(
			`INSERT INTO booking_seats(booking_id, seat_id) VALUES ($1, $2)`,
			b.ID, sid,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate locks the booking row for the remainder of the transaction.
// Every status transition starts here so paid/cancelled cannot interleave.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.get(ctx, id, true)
}

func (r *BookingRepo) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	db := r.handle()

	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	b, err := scanBooking(db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if b.SeatIDs, err = r.seatIDs(ctx, db, id); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

// GetByOrderCode resolves a gateway notification to its booking.
func (r *BookingRepo) GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.GetByOrderCode"

	db := r.handle()

	b, err := scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.order_code = $1`,
		orderCode,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if b.SeatIDs, err = r.seatIDs(ctx, db, b.ID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

func (r *BookingRepo) seatIDs(ctx context.Context, db DB, bookingID uuid.UUID) ([]int64, error) {
	rows, err := db.Query(ctx,
		`SELECT seat_id FROM booking_seats WHERE booking_id = $1 ORDER BY seat_id`,
		bookingID,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// MarkPaid transitions pending -> paid. The status guard in the WHERE clause
// makes the update a compare-and-set; zero rows means the booking left
// pending under our feet and the caller decides what that means.
func (r *BookingRepo) MarkPaid(
	ctx context.Context,
	id uuid.UUID,
	paymentRequestID *string,
	now time.Time,
) error {
	const op = "postgres.BookingRepo.MarkPaid"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
        	SET status = 'paid',
          	paid_at = $2,
          	payment_request_id = COALESCE($3, payment_request_id)
      	 WHERE id = $1 AND status = 'pending'`,
		id, now, paymentRequestID,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidState)
	}

	return nil
}

// MarkCancelled transitions the booking to cancelled when its current status
// is one of from. Zero rows affected reports ErrInvalidState.
func (r *BookingRepo) MarkCancelled(
	ctx context.Context,
	id uuid.UUID,
	reason string,
	now time.Time,
	from []domain.BookingStatus,
) error {
	const op = "postgres.BookingRepo.MarkCancelled"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
        	SET status = 'cancelled', cancelled_at = $2, cancel_reason = $3
      	 WHERE id = $1 AND status = ANY($4)`,
		id, now, reason, from,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidState)
	}

	return nil
}

// CompleteForSchedule flips every paid booking of a departed schedule to
// completed. Returns the number of bookings completed.
func (r *BookingRepo) CompleteForSchedule(ctx context.Context, scheduleID int64) (int64, error) {
	const op = "postgres.BookingRepo.CompleteForSchedule"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
        	SET status = 'completed'
      	 WHERE schedule_id = $1 AND status = 'paid'`,
		scheduleID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

// ListExpiredPending returns the ids of pending bookings booked at or before
// cutoff, oldest first, so the sweeper can cancel each one independently.
func (r *BookingRepo) ListExpiredPending(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]uuid.UUID, error) {
	const op = "postgres.BookingRepo.ListExpiredPending"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id
       	 FROM bookings
      	 WHERE status = 'pending' AND booked_at <= $1
      	 ORDER BY booked_at
      	 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return ids, nil
}

// PendingCounts aggregates the pending backlog against the two age cutoffs.
func (r *BookingRepo) PendingCounts(
	ctx context.Context,
	soonCutoff time.Time,
	expiredCutoff time.Time,
) (total, soon, expired int64, err error) {
	const op = "postgres.BookingRepo.PendingCounts"

	db := r.handle()

	err = db.QueryRow(ctx,
		`SELECT count(*),
            count(*) FILTER (WHERE booked_at <= $1),
            count(*) FILTER (WHERE booked_at <= $2)
       	 FROM bookings
      	 WHERE status = 'pending'`,
		soonCutoff, expiredCutoff,
	).Scan(&total, &soon, &expired)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return total, soon, expired, nil
}

// ListByUser returns a page of the user's bookings, newest first, each with
// its seat ids aggregated in.
func (r *BookingRepo) ListByUser(
	ctx context.Context,
	userID int64,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`,
            COALESCE(array_agg(bs.seat_id ORDER BY bs.seat_id)
                     FILTER (WHERE bs.seat_id IS NOT NULL), '{}')
       	 FROM bookings b
       	 LEFT JOIN booking_seats bs ON bs.booking_id = b.id
      	 WHERE b.user_id = $1
      	 GROUP BY b.id
      	 ORDER BY b.booked_at DESC
      	 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ScheduleID, &b.PickupStopID, &b.DropoffStopID,
			&b.TotalPrice, &b.Status, &b.PaymentMethod, &b.BookedAt, &b.PaidAt,
			&b.CancelledAt, &b.CancelReason, &b.OrderCode, &b.PaymentRequestID,
			&b.SeatIDs,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
