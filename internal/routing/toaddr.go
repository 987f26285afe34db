package routing

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/message"
)

// ToAddrRouter routes inbound messages by matching to_addr against one
// regular expression per application. Patterns match from position zero, not
// the whole string. Outbound behavior is the shared static table.
type ToAddrRouter struct {
	mappings []toAddrMapping
	remap    map[string]string
	pub      Publisher
	diag     Diagnostics
}

type toAddrMapping struct {
	app     string
	pattern *regexp.Regexp
}

// NewToAddrRouter compiles every pattern once; an invalid pattern fails
// startup. Mappings are evaluated in application-name order so fan-out is
// deterministic.
func NewToAddrRouter(cfg *ToAddrConfig, pub Publisher, diag Diagnostics) (*ToAddrRouter, error) {
	if cfg == nil || len(cfg.ToAddrMappings) == 0 {
		return nil, errors.ConfigError("to_addr router requires toaddr_mappings")
	}

	apps := make([]string, 0, len(cfg.ToAddrMappings))
	for app := range cfg.ToAddrMappings {
		apps = append(apps, app)
	}
	sort.Strings(apps)

	mappings := make([]toAddrMapping, 0, len(apps))
	for _, app := range apps {
		raw := cfg.ToAddrMappings[app]
		// Anchor at position zero only; a pattern may match a prefix of
		// to_addr without covering all of it.
		pattern, err := regexp.Compile(`\A(?:` + raw + `)`)
		if err != nil {
			return nil, errors.ConfigError(
				fmt.Sprintf("invalid toaddr_mappings pattern for %s: %v", app, err))
		}
		mappings = append(mappings, toAddrMapping{app: app, pattern: pattern})
	}

	return &ToAddrRouter{
		mappings: mappings,
		remap:    cfg.TransportMappings,
		pub:      pub,
		diag:     diag,
	}, nil
}

// DispatchInboundMessage publishes to every application whose pattern matches
// the message to_addr. A message matching nothing is dropped without a
// diagnostic; this mirrors the router's long-standing behavior, which callers
// may depend on for silent address filtering.
func (r *ToAddrRouter) DispatchInboundMessage(ctx context.Context, msg *message.Message) error {
	for _, m := range r.mappings {
		if m.pattern.MatchString(msg.ToAddr) {
			if err := r.pub.PublishExposedInbound(ctx, m.app, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// DispatchInboundEvent discards events. There is no record of where the
// original outbound message was dispatched, so events cannot be correlated
// back to an application.
// TODO: route events via user_message_id once a correlation store exists for
// this variant.
func (r *ToAddrRouter) DispatchInboundEvent(ctx context.Context, ev *message.Event) error {
	r.diag.Discarded("event without return route")
	return nil
}

func (r *ToAddrRouter) DispatchOutboundMessage(ctx context.Context, msg *message.Message) error {
	return dispatchStaticOutbound(ctx, r.pub, r.remap, msg)
}
