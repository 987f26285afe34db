package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/kvstore"
	"message-dispatcher/internal/message"
)

// ContentKeywordRouter routes inbound messages on the first word of their
// content. Rules are evaluated in declaration order and every matching rule
// fires. Outbound messages are resolved to a transport by from_addr, and a
// correlation entry (message id to transport name) is written with a TTL so
// later delivery events can find their way back to the application that sent
// the original message.
type ContentKeywordRouter struct {
	rules      []Rule
	fallback   string
	transports map[string]string
	expiry     time.Duration
	keys       kvstore.KeyBuilder
	store      kvstore.Store
	pub        Publisher
	diag       Diagnostics
}

// NewContentKeywordRouter validates every rule and normalizes keywords to
// lower case. KeywordMappings entries are appended after the explicit rules
// in application-name order.
func NewContentKeywordRouter(cfg *ContentKeywordConfig, dispatcherName string, pub Publisher, store kvstore.Store, diag Diagnostics) (*ContentKeywordRouter, error) {
	if cfg == nil {
		return nil, errors.ConfigError("content_keyword router requires configuration")
	}
	if dispatcherName == "" {
		return nil, errors.ConfigError("content_keyword router requires dispatcher_name")
	}
	if len(cfg.TransportMappings) == 0 {
		return nil, errors.ConfigError("content_keyword router requires transport_mappings")
	}
	if cfg.ExpireRoutingMemorySeconds <= 0 {
		return nil, errors.ConfigError("content_keyword router requires a positive expire_routing_memory")
	}

	rules := make([]Rule, 0, len(cfg.Rules)+len(cfg.KeywordMappings))
	for i, rule := range cfg.Rules {
		if rule.App == "" || rule.Keyword == "" {
			return nil, errors.ConfigError(
				fmt.Sprintf("rule %d must contain values for both 'app' and 'keyword'", i))
		}
		rule.Keyword = strings.ToLower(rule.Keyword)
		rules = append(rules, rule)
	}

	apps := make([]string, 0, len(cfg.KeywordMappings))
	for app := range cfg.KeywordMappings {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	for _, app := range apps {
		rules = append(rules, Rule{
			App:     app,
			Keyword: strings.ToLower(cfg.KeywordMappings[app]),
		})
	}

	return &ContentKeywordRouter{
		rules:      rules,
		fallback:   cfg.FallbackApplication,
		transports: cfg.TransportMappings,
		expiry:     time.Duration(cfg.ExpireRoutingMemorySeconds) * time.Second,
		keys:       kvstore.NewKeyBuilder(dispatcherName),
		store:      store,
		pub:        pub,
		diag:       diag,
	}, nil
}

// ruleMatches reports whether a rule fires for the given keyword and message.
func ruleMatches(rule Rule, keyword string, msg *message.Message) bool {
	if keyword != rule.Keyword {
		return false
	}
	if rule.ToAddr != nil && msg.ToAddr != *rule.ToAddr {
		return false
	}
	if rule.Prefix != nil && !strings.HasPrefix(msg.FromAddr, *rule.Prefix) {
		return false
	}
	return true
}

func (r *ContentKeywordRouter) DispatchInboundMessage(ctx context.Context, msg *message.Message) error {
	keyword := strings.ToLower(message.FirstWord(msg.Content))

	matched := false
	for _, rule := range r.rules {
		if ruleMatches(rule, keyword, msg) {
			matched = true
			if err := r.pub.PublishExposedInbound(ctx, rule.App, msg); err != nil {
				return err
			}
		}
	}
	if matched {
		return nil
	}

	if r.fallback != "" {
		return r.pub.PublishExposedInbound(ctx, r.fallback, msg)
	}

	r.diag.RoutingMiss("no rule matched and no fallback configured",
		logging.String("message_id", msg.MessageID),
		logging.String("keyword", keyword),
		logging.String("from_addr", msg.FromAddr))
	return nil
}

// DispatchInboundEvent looks up the correlation entry for the event's
// user_message_id. An absent or expired entry, or a lookup naming an unknown
// endpoint, degrades to a logged drop. Never a misdelivery, never a crash.
func (r *ContentKeywordRouter) DispatchInboundEvent(ctx context.Context, ev *message.Event) error {
	name, ok, err := r.store.Get(ctx, r.keys.Key("message", ev.UserMessageID))
	if err != nil {
		return err
	}
	if !ok {
		r.diag.CorrelationMiss(ev.UserMessageID, "no return route found")
		return nil
	}

	if err := r.pub.PublishExposedEvent(ctx, name, ev); err != nil {
		r.diag.RoutingMiss("no publishing route for correlated application",
			logging.String("application", name),
			logging.String("user_message_id", ev.UserMessageID))
	}
	return nil
}

func (r *ContentKeywordRouter) DispatchOutboundMessage(ctx context.Context, msg *message.Message) error {
	transport, ok := r.transports[msg.FromAddr]
	if !ok {
		r.diag.RoutingMiss("no transport for from_addr",
			logging.String("from_addr", msg.FromAddr),
			logging.String("message_id", msg.MessageID))
		return nil
	}

	if err := r.pub.PublishTransportOutbound(ctx, transport, msg); err != nil {
		return err
	}

	// The publish above and the correlation write below are not
	// transactional: a crash in between leaves the message sent with no
	// return route, and its events degrade to logged drops.
	messageKey := r.keys.Key("message", msg.MessageID)
	if err := r.store.Set(ctx, messageKey, msg.TransportName); err != nil {
		return err
	}
	return r.store.Expire(ctx, messageKey, r.expiry)
}
