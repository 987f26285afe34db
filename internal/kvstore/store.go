// Package kvstore provides the durable key-value state shared by dispatcher
// processes: round-robin counters, group assignments and outbound message
// correlation entries. Keys are colon-joined from a per-dispatcher prefix so
// several processes behind the same dispatcher name share routing state.
package kvstore

import (
	"context"
	"strings"
	"time"
)

// Store is the contract the routers need from the backing key-value store.
// Every call may block on a network round-trip; mutation discipline across
// processes is last write wins, no locking.
type Store interface {
	// Get returns the value for key, with ok false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes key to value with no expiry.
	Set(ctx context.Context, key, value string) error
	// SetWithExpiry writes key to value and schedules its removal after ttl.
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
	// Expire schedules removal of an existing key after ttl.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Incr atomically increments the integer at key, starting from 0,
	// and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Health reports whether the store is reachable.
	Health() error
	// Close releases the store's connections.
	Close() error
}

// KeyBuilder joins semantic key segments under a fixed prefix, e.g.
// "keyword-dispatcher:message:abc123".
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a key builder for the given dispatcher prefix.
func NewKeyBuilder(prefix string) KeyBuilder {
	return KeyBuilder{prefix: prefix}
}

// Key returns the colon-joined key for the given segments.
func (b KeyBuilder) Key(parts ...string) string {
	return strings.Join(append([]string{b.prefix}, parts...), ":")
}
