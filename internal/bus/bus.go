// Package bus defines the dispatcher's view of the publish/subscribe message
// bus. Endpoints are named queues derived from a transport or application
// name: <name>.inbound, <name>.outbound and <name>.event. Delivery guarantees
// and connection management belong to the backend implementations.
package bus

import "context"

// Handler processes one delivery from a subscribed endpoint. Returning an
// error asks the backend to redeliver where it supports that.
type Handler func(ctx context.Context, body []byte) error

// Bus is a named-endpoint publish/subscribe transport.
type Bus interface {
	// Publish sends body to the named endpoint. May block on network I/O.
	Publish(ctx context.Context, endpoint string, body []byte) error
	// Subscribe registers handler for deliveries on the named endpoint.
	// Consumption stops when ctx is cancelled.
	Subscribe(ctx context.Context, endpoint string, handler Handler) error
	// Health reports whether the bus is reachable.
	Health() error
	// Close tears down connections and stops all consumers.
	Close() error
}

// Inbound returns the endpoint carrying user messages from name.
func Inbound(name string) string { return name + ".inbound" }

// Outbound returns the endpoint carrying user messages toward name.
func Outbound(name string) string { return name + ".outbound" }

// Event returns the endpoint carrying delivery events for name.
func Event(name string) string { return name + ".event" }
