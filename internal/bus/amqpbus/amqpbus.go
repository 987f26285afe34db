// Package amqpbus provides an AMQP implementation of the bus interface.
// Endpoints map to durable queues published to via the default exchange.
// Messages are acknowledged after the handler returns and requeued when it
// fails.
package amqpbus

import (
	"context"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"message-dispatcher/internal/bus"
	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/common/retry"
)

// Config holds AMQP connection parameters.
type Config struct {
	URL string `json:"url"`
	// Prefetch bounds unacknowledged deliveries per consumer; 0 means the
	// server default.
	Prefetch int `json:"prefetch"`
	// DialAttempts overrides the number of connection attempts; 0 means the
	// retry default.
	DialAttempts int `json:"dial_attempts"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil || c.URL == "" {
		return errors.ConfigError("amqp url is required")
	}
	return nil
}

// Bus implements bus.Bus over a single AMQP connection. Publishes share one
// channel guarded by a mutex; each subscription gets its own channel.
type Bus struct {
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	pubMu  sync.Mutex
	cfg    *Config
	logger logging.Logger

	mu       sync.Mutex
	declared map[string]bool
	closed   bool
}

// New dials the AMQP server and opens the publishing channel. The dial is
// retried with backoff since the broker often comes up after the worker.
func New(cfg *Config) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rc := retry.DefaultConfig()
	if cfg.DialAttempts > 0 {
		rc.Attempts = cfg.DialAttempts
	}
	var conn *amqp.Connection
	dial := func() error {
		var err error
		conn, err = amqp.Dial(cfg.URL)
		return err
	}
	if err := retry.Do(context.Background(), rc, dial); err != nil {
		return nil, errors.ConnectionError("failed to connect to AMQP broker", err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.ConnectionError("failed to open AMQP channel", err)
	}

	return &Bus{
		conn:     conn,
		pubCh:    pubCh,
		cfg:      cfg,
		logger:   logging.GetGlobalLogger().WithFields(logging.String("bus", "amqp")),
		declared: make(map[string]bool),
	}, nil
}

// declareQueue declares the durable queue for an endpoint once per process.
func (b *Bus) declareQueue(ch *amqp.Channel, endpoint string) error {
	b.mu.Lock()
	done := b.declared[endpoint]
	b.mu.Unlock()
	if done {
		return nil
	}

	if _, err := ch.QueueDeclare(endpoint, true, false, false, false, nil); err != nil {
		return errors.InternalError("failed to declare queue "+endpoint, err)
	}

	b.mu.Lock()
	b.declared[endpoint] = true
	b.mu.Unlock()
	return nil
}

func (b *Bus) Publish(ctx context.Context, endpoint string, body []byte) error {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	if err := b.declareQueue(b.pubCh, endpoint); err != nil {
		return err
	}

	err := b.pubCh.Publish(
		"",       // default exchange routes by queue name
		endpoint, // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return errors.ConnectionError("failed to publish to "+endpoint, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, endpoint string, handler bus.Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return errors.ConnectionError("failed to open AMQP channel", err)
	}

	if b.cfg.Prefetch > 0 {
		if err := ch.Qos(b.cfg.Prefetch, 0, false); err != nil {
			ch.Close()
			return errors.InternalError("failed to set prefetch", err)
		}
	}

	if err := b.declareQueue(ch, endpoint); err != nil {
		ch.Close()
		return err
	}

	msgs, err := ch.Consume(endpoint, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return errors.InternalError("failed to start consuming from "+endpoint, err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-msgs:
				if !ok {
					return
				}
				if err := handler(ctx, delivery.Body); err != nil {
					b.logger.Error("handler failed, requeueing delivery", err,
						logging.String("endpoint", endpoint))
					_ = delivery.Nack(false, true)
					continue
				}
				_ = delivery.Ack(false)
			}
		}
	}()

	return nil
}

func (b *Bus) Health() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.conn.IsClosed() {
		return errors.ConnectionError("amqp connection is closed", nil)
	}
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pubCh != nil {
		b.pubCh.Close()
	}
	return b.conn.Close()
}
