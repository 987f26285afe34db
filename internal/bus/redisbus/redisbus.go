// Package redisbus provides a Redis pub/sub implementation of the bus
// interface for single-box and development deployments. Delivery is
// at-most-once: subscribers only see messages published while they are
// connected.
package redisbus

import (
	"context"

	"github.com/go-redis/redis/v8"

	"message-dispatcher/internal/bus"
	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
)

// Config holds Redis connection parameters for the bus.
type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Bus implements bus.Bus over Redis pub/sub channels.
type Bus struct {
	rdb    *redis.Client
	logger logging.Logger
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg *Config) (*Bus, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, errors.ConfigError("redis bus address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &Bus{
		rdb:    rdb,
		logger: logging.GetGlobalLogger().WithFields(logging.String("bus", "redis")),
	}, nil
}

func (b *Bus) Publish(ctx context.Context, endpoint string, body []byte) error {
	if err := b.rdb.Publish(ctx, endpoint, body).Err(); err != nil {
		return errors.ConnectionError("failed to publish to "+endpoint, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, endpoint string, handler bus.Handler) error {
	sub := b.rdb.Subscribe(ctx, endpoint)

	// Wait for the subscription to be confirmed so publishes after this
	// call are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return errors.ConnectionError("failed to subscribe to "+endpoint, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(ctx, []byte(msg.Payload)); err != nil {
					b.logger.Error("handler failed, dropping delivery", err,
						logging.String("endpoint", endpoint))
				}
			}
		}
	}()

	return nil
}

func (b *Bus) Health() error {
	return b.rdb.Ping(context.Background()).Err()
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}
