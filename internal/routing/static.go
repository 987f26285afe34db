package routing

import (
	"context"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/message"
)

// The helpers below carry the static table behavior several variants share.
// Composition instead of embedding keeps each variant's three operations
// explicit.

// staticRouteApps resolves the applications listed for a transport name. A
// missing key is a configuration mistake, not a routing miss: the mapping is
// supposed to cover every transport the worker consumes from.
func staticRouteApps(routes map[string][]string, transportName string) ([]string, error) {
	if routes == nil {
		return nil, errors.ConfigError("route_mappings not configured")
	}
	apps, ok := routes[transportName]
	if !ok {
		return nil, errors.ConfigError("no route_mappings entry for transport").
			WithContext("transport_name", transportName)
	}
	return apps, nil
}

// dispatchStaticInboundMessage fans a message out to every application listed
// for its transport.
func dispatchStaticInboundMessage(ctx context.Context, pub Publisher, routes map[string][]string, msg *message.Message) error {
	apps, err := staticRouteApps(routes, msg.TransportName)
	if err != nil {
		return err
	}
	for _, app := range apps {
		if err := pub.PublishExposedInbound(ctx, app, msg); err != nil {
			return err
		}
	}
	return nil
}

// dispatchStaticInboundEvent fans an event out to every application listed
// for its transport.
func dispatchStaticInboundEvent(ctx context.Context, pub Publisher, routes map[string][]string, ev *message.Event) error {
	apps, err := staticRouteApps(routes, ev.TransportName)
	if err != nil {
		return err
	}
	for _, app := range apps {
		if err := pub.PublishExposedEvent(ctx, app, ev); err != nil {
			return err
		}
	}
	return nil
}

// dispatchStaticOutbound publishes an outbound message to the transport it
// names, routed through an optional remap table.
func dispatchStaticOutbound(ctx context.Context, pub Publisher, remap map[string]string, msg *message.Message) error {
	name := msg.TransportName
	if mapped, ok := remap[name]; ok {
		name = mapped
	}
	return pub.PublishTransportOutbound(ctx, name, msg)
}
