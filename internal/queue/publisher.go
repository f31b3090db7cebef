package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a channel and returns a func closing everything it opened.
type dialFunc func(url string) (channel, func(), error)

func dialAMQP(url string) (channel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, func() { _ = ch.Close(); _ = conn.Close() }, nil
}

// Publisher sends booking events to a durable queue. It keeps one channel open
// and redials on the next publish after a failure.
type Publisher struct {
	url   string
	queue string
	dial  dialFunc

	mu       sync.Mutex
	ch       channel
	closeFn  func()
	declared bool
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue, dial: dialAMQP}
}

func (p *Publisher) Publish(ctx context.Context, event *domain.BookingEvent) error {
	body, err := Encode(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	logger.ExternalServiceCall("rabbitmq", "publish", "queue", p.queue, "eventID", event.ID, "type", event.Type)
	err = p.publishLocked(ctx, amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	logger.ExternalServiceResult("rabbitmq", "publish", err, "eventID", event.ID)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish booking event %s: %w", event.ID, err)
	}
	return nil
}

func (p *Publisher) publishLocked(ctx context.Context, msg amqp.Publishing) error {
	if p.ch == nil {
		ch, closeFn, err := p.dial(p.url)
		if err != nil {
			return err
		}
		p.ch, p.closeFn, p.declared = ch, closeFn, false
	}
	if !p.declared {
		if _, err := p.ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue: %w", err)
		}
		p.declared = true
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
}

func (p *Publisher) resetLocked() {
	if p.closeFn != nil {
		p.closeFn()
	}
	p.ch, p.closeFn, p.declared = nil, nil, false
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}
