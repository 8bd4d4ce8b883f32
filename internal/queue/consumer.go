package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains booking.events and writes each event to the structured
// log, giving operators an append-only audit of booking transitions. It keeps
// reconnecting with backoff until ctx is cancelled.
type Consumer struct {
	url    string
	logger *slog.Logger
}

func NewConsumer(url string, logger *slog.Logger) *Consumer {
	return &Consumer{url: url, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Error("booking-consumer: dial failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		backoff = time.Second

		if err := c.consume(ctx, conn); err != nil {
			c.logger.Error("booking-consumer: consume loop ended", "error", err)
		}
		conn.Close()
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(bookingEventsQueue, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(bookingEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			var ev BookingEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				c.logger.Error("booking-consumer: bad payload", "error", err)
				_ = d.Reject(false)
				continue
			}

			c.logger.Info("booking event",
				"type", ev.Type,
				"booking_id", ev.BookingID,
				"user_id", ev.UserID,
				"schedule_id", ev.ScheduleID,
				"seat_ids", ev.SeatIDs,
				"total_price", ev.TotalPrice,
				"reason", ev.Reason,
			)

			_ = d.Ack(false)
		}
	}
}
