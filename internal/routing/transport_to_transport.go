package routing

import (
	"context"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/message"
)

// TransportToTransportRouter bridges transports directly: inbound messages
// are republished onto other transports' outbound endpoints. No applications
// are involved.
type TransportToTransportRouter struct {
	routes map[string][]string
	pub    Publisher
	diag   Diagnostics
}

// NewTransportToTransportRouter validates the configuration and builds the
// router.
func NewTransportToTransportRouter(cfg *TransportToTransportConfig, pub Publisher, diag Diagnostics) (*TransportToTransportRouter, error) {
	if cfg == nil || len(cfg.RouteMappings) == 0 {
		return nil, errors.ConfigError("transport_to_transport router requires route_mappings")
	}
	return &TransportToTransportRouter{
		routes: cfg.RouteMappings,
		pub:    pub,
		diag:   diag,
	}, nil
}

func (r *TransportToTransportRouter) DispatchInboundMessage(ctx context.Context, msg *message.Message) error {
	transports, err := staticRouteApps(r.routes, msg.TransportName)
	if err != nil {
		return err
	}
	for _, name := range transports {
		if err := r.pub.PublishTransportOutbound(ctx, name, msg); err != nil {
			return err
		}
	}
	return nil
}

// DispatchInboundEvent throws events away: transports cannot consume them.
func (r *TransportToTransportRouter) DispatchInboundEvent(ctx context.Context, ev *message.Event) error {
	r.diag.Discarded("transport event")
	return nil
}

// DispatchOutboundMessage is a no-op: with only transports hooked up to each
// other there are no applications producing outbound messages.
func (r *TransportToTransportRouter) DispatchOutboundMessage(ctx context.Context, msg *message.Message) error {
	return nil
}
