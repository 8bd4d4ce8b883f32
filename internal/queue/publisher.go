package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const bookingEventsQueue = "booking.events"

// Publisher writes booking events to a durable queue. Publishing happens in
// after-commit hooks, so a lost message never means a lost booking: the
// queue is an audit trail, not the source of truth.
type Publisher struct {
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	const op = "queue.NewPublisher"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if _, err := ch.QueueDeclare(bookingEventsQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	const op = "queue.Publisher.PublishBookingEvent"

	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", bookingEventsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
