package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/metrics"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Outcome tells the broker what to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	Requeue
	Reject
)

const maxBackoff = 30 * time.Second

// Consumer delivers booking events to a handler. Delivery is at least once,
// so each event id is claimed in the deduplicator before it is handled.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handler  service.BookingEventHandler
	dedupe   Deduplicator
}

func NewConsumer(url, queue string, prefetch int, handler service.BookingEventHandler, dedupe Deduplicator) *Consumer {
	return &Consumer{
		url:      url,
		queue:    queue,
		prefetch: prefetch,
		handler:  handler,
		dedupe:   dedupe,
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.Warn("Booking event consumer failed to dial broker", "error", err, "retryIn", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Booking event consumer loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		logger.Warn("Booking event consumer could not set QoS", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue: %w", err)
	}
	logger.Info("Booking event consumer started", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(d, c.Handle(ctx, d.Body, d.Redelivered))
		}
	}
}

func (c *Consumer) settle(d amqp.Delivery, outcome Outcome) {
	var err error
	switch outcome {
	case Ack:
		err = d.Ack(false)
	case Requeue:
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		logger.Error("Failed to settle booking event delivery", "messageID", d.MessageId, "error", err)
	}
}

// Handle processes one message body. A failed first delivery is requeued once;
// a failed redelivery is rejected so a poison message cannot loop forever.
func (c *Consumer) Handle(ctx context.Context, body []byte, redelivered bool) Outcome {
	event, err := Decode(body)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues("malformed").Inc()
		logger.Error("Dropping malformed booking event", "error", err)
		return Reject
	}

	claimed, err := c.dedupe.Claim(ctx, event.ID)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues("failed").Inc()
		logger.Error("Could not claim booking event", "eventID", event.ID, "error", err)
		return retryOutcome(redelivered)
	}
	if !claimed {
		metrics.EventsConsumed.WithLabelValues("duplicate").Inc()
		logger.Info("Skipping duplicate booking event", "eventID", event.ID, "type", event.Type)
		return Ack
	}

	if err := c.handler.HandleBookingEvent(ctx, event); err != nil {
		metrics.EventsConsumed.WithLabelValues("failed").Inc()
		logger.Error("Booking event handler failed", "eventID", event.ID, "type", event.Type, "redelivered", redelivered, "error", err)
		if relErr := c.dedupe.Release(ctx, event.ID); relErr != nil {
			logger.Error("Could not release booking event claim", "eventID", event.ID, "error", relErr)
		}
		return retryOutcome(redelivered)
	}

	metrics.EventsConsumed.WithLabelValues("handled").Inc()
	return Ack
}

func retryOutcome(redelivered bool) Outcome {
	if redelivered {
		return Reject
	}
	return Requeue
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
