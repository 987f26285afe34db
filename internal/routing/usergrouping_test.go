package routing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/kvstore"
	"message-dispatcher/internal/message"
)

func newGroupingRouter(t *testing.T, store kvstore.Store) (*UserGroupingRouter, *fakePublisher) {
	t.Helper()
	pub := newFakePublisher()
	r, err := NewUserGroupingRouter(&UserGroupingConfig{
		GroupMappings: map[string]string{
			"group1": "app1",
			"group2": "app2",
		},
		RouteMappings:     map[string][]string{"sms_tx": {"app1"}},
		TransportMappings: map[string]string{"upstream": "sms_tx"},
	}, "grouping-dispatcher", pub, store, NopDiagnostics())
	require.NoError(t, err)
	return r, pub
}

func TestNewUserGroupingRouter_Validation(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := NewUserGroupingRouter(&UserGroupingConfig{}, "d", newFakePublisher(), store, NopDiagnostics())
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	_, err = NewUserGroupingRouter(&UserGroupingConfig{
		GroupMappings: map[string]string{"group1": "app1"},
	}, "", newFakePublisher(), store, NopDiagnostics())
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestUserGroupingRouter_RoundRobinAssignment(t *testing.T) {
	store, _ := newTestStore(t)
	r, pub := newGroupingRouter(t, store)
	ctx := context.Background()

	// First-time users alternate between the name-sorted groups.
	var want []string
	for i := 0; i < 6; i++ {
		msg := inboundMessage("sms_tx", "12345", fmt.Sprintf("+2783000000%d", i), "hi")
		require.NoError(t, r.DispatchInboundMessage(ctx, msg))
		if i%2 == 0 {
			want = append(want, "app1")
		} else {
			want = append(want, "app2")
		}
	}

	assert.Equal(t, want, pub.destinations("exposed_inbound"))
}

func TestUserGroupingRouter_AssignmentIsStable(t *testing.T) {
	store, _ := newTestStore(t)
	r, _ := newGroupingRouter(t, store)
	ctx := context.Background()

	first, err := r.GroupForUser(ctx, "+27831234567")
	require.NoError(t, err)

	// Later lookups return the persisted group, even with other users
	// advancing the counter in between.
	for i := 0; i < 5; i++ {
		_, err := r.GroupForUser(ctx, fmt.Sprintf("+2782000000%d", i))
		require.NoError(t, err)

		again, err := r.GroupForUser(ctx, "+27831234567")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestUserGroupingRouter_AssignmentSurvivesRestart(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	r1, _ := newGroupingRouter(t, store)
	first, err := r1.GroupForUser(ctx, "+27831234567")
	require.NoError(t, err)

	// A new router instance over the same store sees the same assignment.
	r2, _ := newGroupingRouter(t, store)
	again, err := r2.GroupForUser(ctx, "+27831234567")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestUserGroupingRouter_StaleGroupIsDropped(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Persist an assignment to a group the configuration no longer has.
	require.NoError(t, store.Set(ctx, "grouping-dispatcher:user:+27831234567", "gone"))

	pub := newFakePublisher()
	diag := &fakeDiagnostics{}
	r, err := NewUserGroupingRouter(&UserGroupingConfig{
		GroupMappings: map[string]string{"group1": "app1", "group2": "app2"},
	}, "grouping-dispatcher", pub, store, diag)
	require.NoError(t, err)

	msg := inboundMessage("sms_tx", "12345", "+27831234567", "hi")
	require.NoError(t, r.DispatchInboundMessage(ctx, msg))

	assert.Empty(t, pub.published)
	assert.Len(t, diag.routingMisses, 1)
}

func TestUserGroupingRouter_InheritedStaticBehavior(t *testing.T) {
	store, _ := newTestStore(t)
	r, pub := newGroupingRouter(t, store)
	ctx := context.Background()

	ev := &message.Event{EventID: "e1", UserMessageID: "m1", TransportName: "sms_tx"}
	require.NoError(t, r.DispatchInboundEvent(ctx, ev))
	assert.Equal(t, []string{"app1"}, pub.destinations("exposed_event"))

	msg := inboundMessage("upstream", "+27831234567", "12345", "reply")
	require.NoError(t, r.DispatchOutboundMessage(ctx, msg))
	assert.Equal(t, []string{"sms_tx"}, pub.destinations("transport_outbound"))
}
