// Package service holds integrations used by the HTTP layer that are not
// storage: publishing domain events to RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-manager/internal/queue"
)

// Publisher sends domain events.  Handlers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, kind string, orgID uint64, payload any) error
}

// DefaultDialTimeout bounds connecting to the broker when the caller's
// context has no deadline.
const DefaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes persistent JSON envelopes to the topic exchange
// with publisher confirms.  The connection is opened lazily and reopened
// after the broker drops it, so the API can start before RabbitMQ.
//
// Every step, including waiting for another publish to finish, gives up
// when the caller's context is done.
type AMQPPublisher struct {
	url    string
	logger *log.Logger

	// lock is a one-slot semaphore guarding the fields below.
	lock chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
	acks <-chan amqp.Confirmation
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, logger *log.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, logger: logger, lock: make(chan struct{}, 1)}
}

func (p *AMQPPublisher) acquire(ctx context.Context) error {
	select {
	case p.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AMQPPublisher) release() { <-p.lock }

// dialTimeout is the time left before ctx's deadline, or
// DefaultDialTimeout without one.
func dialTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return time.Until(dl)
	}
	return DefaultDialTimeout
}

// connect opens connection and channel if needed.  Callers hold lock.
func (p *AMQPPublisher) connect(ctx context.Context) error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	if err := ctx.Err(); err != nil {
		return err
	}
	d := dialTimeout(ctx)
	if d <= 0 {
		return context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(d),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if err := queue.DeclareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.acks = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch, p.acks = nil, nil, nil
}

// Publish wraps payload in an envelope and waits for the broker's confirm.
// Errors are logged and returned.
func (p *AMQPPublisher) Publish(ctx context.Context, kind string, orgID uint64, payload any) error {
	err := p.publish(ctx, kind, orgID, payload)
	if err != nil {
		p.logger.Warn("publish event failed", "type", kind, "org", orgID, "err", err)
	}
	return err
}

func (p *AMQPPublisher) publish(ctx context.Context, kind string, orgID uint64, payload any) error {
	env, err := queue.NewEnvelope(kind, orgID, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	if err := p.connect(ctx); err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, queue.ExchangeName, kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Type:         kind,
		Timestamp:    env.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	select {
	case conf, ok := <-p.acks:
		if !ok {
			p.reset()
			return errors.New("channel closed before confirm")
		}
		if !conf.Ack {
			return errors.New("publish NACK from broker")
		}
		p.logger.Debug("event published", "type", kind, "id", env.ID)
		return nil
	case <-ctx.Done():
		// The confirm for this message may still arrive; drop the channel so
		// it cannot be mistaken for the next message's confirm.
		p.reset()
		return ctx.Err()
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.lock <- struct{}{}
	defer p.release()
	p.reset()
	return nil
}

// NopPublisher drops every event.  serve uses it when neither RABBITMQ_URL
// nor AMQP_URL is set.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, uint64, any) error { return nil }
