package routing

import (
	"context"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/message"
)

// FromAddrMultiplexRouter presents a pool of single-address transports as one
// logical multi-address transport. Inbound traffic has its transport name
// rewritten to the single exposed name; outbound traffic is demultiplexed to
// the owning transport by from_addr. Useful for pools of XMPP-style
// transports that each hold one external address.
type FromAddrMultiplexRouter struct {
	exposedName string
	fromAddrs   map[string]string
	pub         Publisher
	diag        Diagnostics
}

// NewFromAddrMultiplexRouter requires exactly one exposed name; any other
// cardinality is a configuration error.
func NewFromAddrMultiplexRouter(cfg *FromAddrMultiplexConfig, exposedNames []string, pub Publisher, diag Diagnostics) (*FromAddrMultiplexRouter, error) {
	if cfg == nil || len(cfg.FromAddrMappings) == 0 {
		return nil, errors.ConfigError("from_addr_multiplex router requires fromaddr_mappings")
	}
	if len(exposedNames) != 1 {
		return nil, errors.ConfigError("only one exposed name allowed for from_addr_multiplex router").
			WithContext("exposed_names", exposedNames)
	}
	return &FromAddrMultiplexRouter{
		exposedName: exposedNames[0],
		fromAddrs:   cfg.FromAddrMappings,
		pub:         pub,
		diag:        diag,
	}, nil
}

func (r *FromAddrMultiplexRouter) DispatchInboundMessage(ctx context.Context, msg *message.Message) error {
	rewritten := *msg
	rewritten.TransportName = r.exposedName
	return r.pub.PublishExposedInbound(ctx, r.exposedName, &rewritten)
}

func (r *FromAddrMultiplexRouter) DispatchInboundEvent(ctx context.Context, ev *message.Event) error {
	rewritten := *ev
	rewritten.TransportName = r.exposedName
	return r.pub.PublishExposedEvent(ctx, r.exposedName, &rewritten)
}

func (r *FromAddrMultiplexRouter) DispatchOutboundMessage(ctx context.Context, msg *message.Message) error {
	transport, ok := r.fromAddrs[msg.FromAddr]
	if !ok {
		r.diag.RoutingMiss("no transport for from_addr",
			logging.String("from_addr", msg.FromAddr),
			logging.String("message_id", msg.MessageID))
		return nil
	}
	rewritten := *msg
	rewritten.TransportName = transport
	return r.pub.PublishTransportOutbound(ctx, transport, &rewritten)
}
