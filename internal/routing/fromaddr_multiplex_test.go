package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/message"
)

func newMultiplexRouter(t *testing.T) (*FromAddrMultiplexRouter, *fakePublisher, *fakeDiagnostics) {
	t.Helper()
	pub := newFakePublisher()
	diag := &fakeDiagnostics{}
	r, err := NewFromAddrMultiplexRouter(&FromAddrMultiplexConfig{
		FromAddrMappings: map[string]string{
			"bot1@example.org": "xmpp_tx_1",
			"bot2@example.org": "xmpp_tx_2",
		},
	}, []string{"multi"}, pub, diag)
	require.NoError(t, err)
	return r, pub, diag
}

func TestNewFromAddrMultiplexRouter_ExposedNameCardinality(t *testing.T) {
	cfg := &FromAddrMultiplexConfig{
		FromAddrMappings: map[string]string{"bot1@example.org": "xmpp_tx_1"},
	}

	for _, exposed := range [][]string{nil, {}, {"a", "b"}} {
		_, err := NewFromAddrMultiplexRouter(cfg, exposed, newFakePublisher(), NopDiagnostics())
		assert.True(t, errors.IsType(err, errors.ErrTypeConfig), "exposed=%v", exposed)
	}
}

func TestFromAddrMultiplexRouter_InboundRewritesTransportName(t *testing.T) {
	r, pub, _ := newMultiplexRouter(t)

	msg := inboundMessage("xmpp_tx_2", "bot2@example.org", "user@example.org", "hi")
	require.NoError(t, r.DispatchInboundMessage(context.Background(), msg))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "multi", pub.published[0].name)
	assert.Equal(t, "multi", pub.published[0].msg.TransportName)
	// The caller's copy is left alone.
	assert.Equal(t, "xmpp_tx_2", msg.TransportName)
}

func TestFromAddrMultiplexRouter_InboundEventRewritesTransportName(t *testing.T) {
	r, pub, _ := newMultiplexRouter(t)

	ev := &message.Event{EventID: "e1", UserMessageID: "m1", TransportName: "xmpp_tx_1"}
	require.NoError(t, r.DispatchInboundEvent(context.Background(), ev))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "exposed_event", pub.published[0].kind)
	assert.Equal(t, "multi", pub.published[0].ev.TransportName)
}

func TestFromAddrMultiplexRouter_OutboundDemultiplexes(t *testing.T) {
	r, pub, _ := newMultiplexRouter(t)

	msg := inboundMessage("multi", "user@example.org", "bot1@example.org", "reply")
	require.NoError(t, r.DispatchOutboundMessage(context.Background(), msg))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "xmpp_tx_1", pub.published[0].name)
	assert.Equal(t, "xmpp_tx_1", pub.published[0].msg.TransportName)
}

func TestFromAddrMultiplexRouter_OutboundUnknownFromAddr(t *testing.T) {
	r, pub, diag := newMultiplexRouter(t)

	msg := inboundMessage("multi", "user@example.org", "stranger@example.org", "reply")
	require.NoError(t, r.DispatchOutboundMessage(context.Background(), msg))

	assert.Empty(t, pub.published)
	assert.Len(t, diag.routingMisses, 1)
}
