package routing

import (
	"context"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/kvstore"
	"message-dispatcher/internal/message"
)

// Router is the contract shared by all routing strategies. Calls are
// fire-and-forget from the worker's perspective; a nil return covers both
// successful publication and a logged routing miss. Errors are reserved for
// infrastructure failures (bus or store unreachable) and configuration
// mistakes that only show up at dispatch time.
type Router interface {
	// DispatchInboundMessage routes a message arriving from a transport
	// toward one or more applications.
	DispatchInboundMessage(ctx context.Context, msg *message.Message) error
	// DispatchInboundEvent routes a delivery event arriving from a
	// transport toward the application that should receive it.
	DispatchInboundEvent(ctx context.Context, ev *message.Event) error
	// DispatchOutboundMessage routes a message produced by an application
	// toward the correct transport.
	DispatchOutboundMessage(ctx context.Context, msg *message.Message) error
}

// Publisher is the router's view of the dispatch worker's fixed endpoint
// sets. Publishing to a name outside those sets returns a not-found error.
type Publisher interface {
	// PublishExposedInbound publishes a message onto an application's
	// inbound endpoint.
	PublishExposedInbound(ctx context.Context, name string, msg *message.Message) error
	// PublishExposedEvent publishes an event onto an application's event
	// endpoint.
	PublishExposedEvent(ctx context.Context, name string, ev *message.Event) error
	// PublishTransportOutbound publishes a message onto a transport's
	// outbound endpoint.
	PublishTransportOutbound(ctx context.Context, name string, msg *message.Message) error
}

// BuildRouter constructs the router variant selected by cfg.Router. The
// variant set is closed at compile time; unknown kinds are configuration
// errors. Stateful variants require a KV store, pure variants ignore it.
func BuildRouter(cfg *Config, pub Publisher, store kvstore.Store, diag Diagnostics) (Router, error) {
	if cfg == nil {
		return nil, errors.ConfigError("routing config is required")
	}
	if diag == nil {
		diag = NopDiagnostics()
	}

	if NeedsStore(cfg.Router) && store == nil {
		return nil, errors.ConfigError("router " + cfg.Router + " requires a key-value store")
	}

	switch cfg.Router {
	case KindSimple:
		return NewSimpleRouter(cfg.Simple, pub, diag)
	case KindTransportToTransport:
		return NewTransportToTransportRouter(cfg.TransportToTransport, pub, diag)
	case KindToAddr:
		return NewToAddrRouter(cfg.ToAddr, pub, diag)
	case KindFromAddrMultiplex:
		return NewFromAddrMultiplexRouter(cfg.FromAddrMultiplex, cfg.ExposedNames, pub, diag)
	case KindUserGrouping:
		return NewUserGroupingRouter(cfg.UserGrouping, cfg.DispatcherName, pub, store, diag)
	case KindContentKeyword:
		return NewContentKeywordRouter(cfg.ContentKeyword, cfg.DispatcherName, pub, store, diag)
	default:
		return nil, errors.ConfigError("unknown router kind: " + cfg.Router)
	}
}

// NeedsStore reports whether the router kind keeps durable state in the KV
// store.
func NeedsStore(kind string) bool {
	return kind == KindUserGrouping || kind == KindContentKeyword
}
