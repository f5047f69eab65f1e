package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultActivityLog is where the consumer appends event lines.
var DefaultActivityLog = filepath.Join("logs", "activity.log")

// ActivityLog appends lines to a file, creating its directory on demand.
type ActivityLog struct {
	mu   sync.Mutex
	path string
}

// NewActivityLog returns a log writing to path.
func NewActivityLog(path string) *ActivityLog { return &ActivityLog{path: path} }

// Append writes line followed by a newline.
func (a *ActivityLog) Append(line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// Consumer binds the activity queue to every routing key of the events
// exchange and records each event.
type Consumer struct {
	URL      string
	Log      *ActivityLog
	Logger   *log.Logger
	Prefetch int

	// MinBackoff and MaxBackoff bound the reconnect delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewConsumer returns a consumer with the default prefetch and backoff.
func NewConsumer(url string, activity *ActivityLog, logger *log.Logger) *Consumer {
	return &Consumer{
		URL:        url,
		Log:        activity,
		Logger:     logger,
		Prefetch:   50,
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial and
// channel failures are retried with exponential backoff.  It returns nil
// once ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.MinBackoff
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("broker dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, c.MaxBackoff)
			continue
		}
		backoff = c.MinBackoff

		err = c.session(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.Logger.Warn("consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, backoff) {
			return nil
		}
	}
}

func (c *Consumer) session(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		c.Logger.Warn("set QoS failed", "err", err)
	}
	if err := DeclareTopology(ch); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(ActivityQueueName, "#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Logger.Info("consuming", "queue", ActivityQueueName, "exchange", ExchangeName)
	return c.consume(ctx, msgs)
}

// consume handles deliveries until ctx is done or msgs is closed.
// Messages that cannot be recorded are rejected without requeue so a bad
// message never loops.
func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.Logger.Error("handle message failed", "err", err, "routing_key", d.RoutingKey)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if env.Type == "" {
		return errors.New("event without type")
	}
	c.Logger.Debug("event", "type", env.Type, "id", env.ID, "org", env.OrganizationID)
	return c.Log.Append(Describe(env))
}

// DeclareTopology declares the durable topic exchange.  Publisher and
// consumer both call it so either may start first.
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}

func nextBackoff(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}

// sleep waits for d and reports false if ctx ended first.
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
