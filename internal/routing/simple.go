package routing

import (
	"context"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/message"
)

// SimpleRouter routes by static table lookup: inbound traffic fans out to the
// applications listed for its transport, outbound traffic goes to the
// transport the message names, optionally remapped.
type SimpleRouter struct {
	routes map[string][]string
	remap  map[string]string
	pub    Publisher
	diag   Diagnostics
}

// NewSimpleRouter validates the configuration and builds the router.
func NewSimpleRouter(cfg *SimpleConfig, pub Publisher, diag Diagnostics) (*SimpleRouter, error) {
	if cfg == nil || len(cfg.RouteMappings) == 0 {
		return nil, errors.ConfigError("simple router requires route_mappings")
	}
	return &SimpleRouter{
		routes: cfg.RouteMappings,
		remap:  cfg.TransportMappings,
		pub:    pub,
		diag:   diag,
	}, nil
}

func (r *SimpleRouter) DispatchInboundMessage(ctx context.Context, msg *message.Message) error {
	return dispatchStaticInboundMessage(ctx, r.pub, r.routes, msg)
}

func (r *SimpleRouter) DispatchInboundEvent(ctx context.Context, ev *message.Event) error {
	return dispatchStaticInboundEvent(ctx, r.pub, r.routes, ev)
}

func (r *SimpleRouter) DispatchOutboundMessage(ctx context.Context, msg *message.Message) error {
	return dispatchStaticOutbound(ctx, r.pub, r.remap, msg)
}
