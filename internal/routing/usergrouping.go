package routing

import (
	"context"
	"sort"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/kvstore"
	"message-dispatcher/internal/message"
)

// UserGroupingRouter assigns each distinct from_addr to one of the configured
// groups, round-robin on first contact, and routes the user's messages to the
// application mapped to that group. Assignments persist in the KV store so
// they survive restarts and are shared by every dispatcher process using the
// same dispatcher name. Useful for A/B testing.
type UserGroupingRouter struct {
	groups      map[string]string
	sortedNames []string
	routes      map[string][]string
	remap       map[string]string
	keys        kvstore.KeyBuilder
	store       kvstore.Store
	pub         Publisher
	diag        Diagnostics
}

// NewUserGroupingRouter validates the configuration and builds the router.
// Group order is the sorted group-name list, so assignment is deterministic
// across restarts given the same configuration.
func NewUserGroupingRouter(cfg *UserGroupingConfig, dispatcherName string, pub Publisher, store kvstore.Store, diag Diagnostics) (*UserGroupingRouter, error) {
	if cfg == nil || len(cfg.GroupMappings) == 0 {
		return nil, errors.ConfigError("user_grouping router requires group_mappings")
	}
	if dispatcherName == "" {
		return nil, errors.ConfigError("user_grouping router requires dispatcher_name")
	}

	sortedNames := make([]string, 0, len(cfg.GroupMappings))
	for name := range cfg.GroupMappings {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)

	return &UserGroupingRouter{
		groups:      cfg.GroupMappings,
		sortedNames: sortedNames,
		routes:      cfg.RouteMappings,
		remap:       cfg.TransportMappings,
		keys:        kvstore.NewKeyBuilder(dispatcherName),
		store:       store,
		pub:         pub,
		diag:        diag,
	}, nil
}

// nextGroup advances the shared round-robin counter and returns the group it
// lands on. The counter starts effectively at zero.
func (r *UserGroupingRouter) nextGroup(ctx context.Context) (string, error) {
	counter, err := r.store.Incr(ctx, r.keys.Key("round-robin"))
	if err != nil {
		return "", err
	}
	index := (counter - 1) % int64(len(r.sortedNames))
	return r.sortedNames[index], nil
}

// GroupForUser returns the persisted group for a user, assigning and storing
// the next round-robin group on first contact.
//
// The read and the conditional write are separate store round-trips, so two
// concurrent first messages from the same user can each assign a group; the
// last write wins and later lookups converge on it. That race is accepted:
// fixing it would need locking the original design never had.
func (r *UserGroupingRouter) GroupForUser(ctx context.Context, userID string) (string, error) {
	userKey := r.keys.Key("user", userID)

	group, ok, err := r.store.Get(ctx, userKey)
	if err != nil {
		return "", err
	}
	if ok {
		return group, nil
	}

	group, err = r.nextGroup(ctx)
	if err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, userKey, group); err != nil {
		return "", err
	}
	return group, nil
}

func (r *UserGroupingRouter) DispatchInboundMessage(ctx context.Context, msg *message.Message) error {
	group, err := r.GroupForUser(ctx, msg.User())
	if err != nil {
		return err
	}

	app, ok := r.groups[group]
	if !ok {
		// A persisted assignment can outlive the group it names when the
		// configuration shrinks.
		r.diag.RoutingMiss("persisted group has no mapping",
			logging.String("group", group),
			logging.String("from_addr", msg.FromAddr),
			logging.String("message_id", msg.MessageID))
		return nil
	}
	return r.pub.PublishExposedInbound(ctx, app, msg)
}

func (r *UserGroupingRouter) DispatchInboundEvent(ctx context.Context, ev *message.Event) error {
	return dispatchStaticInboundEvent(ctx, r.pub, r.routes, ev)
}

func (r *UserGroupingRouter) DispatchOutboundMessage(ctx context.Context, msg *message.Message) error {
	return dispatchStaticOutbound(ctx, r.pub, r.remap, msg)
}
