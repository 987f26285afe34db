// Package membus provides an in-process bus used by tests and dry runs.
// Publishes are delivered synchronously to every handler subscribed to the
// endpoint; there is no persistence and no redelivery.
package membus

import (
	"context"
	"sync"

	"message-dispatcher/internal/bus"
	"message-dispatcher/internal/common/errors"
)

// Bus implements bus.Bus entirely in memory.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]bus.Handler
	closed   bool
}

// New creates an empty in-memory bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[string][]bus.Handler),
	}
}

func (b *Bus) Publish(ctx context.Context, endpoint string, body []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return errors.ConnectionError("bus is closed", nil)
	}
	handlers := append([]bus.Handler(nil), b.handlers[endpoint]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, body); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, endpoint string, handler bus.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.ConnectionError("bus is closed", nil)
	}
	b.handlers[endpoint] = append(b.handlers[endpoint], handler)
	return nil
}

func (b *Bus) Health() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.ConnectionError("bus is closed", nil)
	}
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = make(map[string][]bus.Handler)
	return nil
}
