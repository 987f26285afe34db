package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"message-dispatcher/internal/bus/membus"
	"message-dispatcher/internal/message"
	"message-dispatcher/internal/routing"
)

func startSimpleWorker(t *testing.T) (*Worker, *membus.Bus) {
	t.Helper()

	b := membus.New()
	w := NewWorker("test-dispatcher", b, []string{"sms_tx"}, []string{"app1", "app2"})

	router, err := routing.BuildRouter(&routing.Config{
		Router: routing.KindSimple,
		Simple: &routing.SimpleConfig{
			RouteMappings: map[string][]string{"sms_tx": {"app1", "app2"}},
		},
	}, w, nil, routing.NopDiagnostics())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background(), router))
	return w, b
}

func collect(t *testing.T, b *membus.Bus, endpoint string) *[][]byte {
	t.Helper()
	var got [][]byte
	require.NoError(t, b.Subscribe(context.Background(), endpoint, func(ctx context.Context, body []byte) error {
		got = append(got, body)
		return nil
	}))
	return &got
}

func TestWorker_RoutesInboundToExposedEndpoints(t *testing.T) {
	_, b := startSimpleWorker(t)
	ctx := context.Background()

	app1 := collect(t, b, "app1.inbound")
	app2 := collect(t, b, "app2.inbound")

	msg := message.New("sms_tx", "12345", "+27831234567", "hello")
	body, err := msg.Encode()
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "sms_tx.inbound", body))

	require.Len(t, *app1, 1)
	require.Len(t, *app2, 1)

	got, err := message.DecodeMessage((*app1)[0])
	require.NoError(t, err)
	assert.Equal(t, msg.MessageID, got.MessageID)
}

func TestWorker_RoutesEventsToExposedEventEndpoints(t *testing.T) {
	_, b := startSimpleWorker(t)
	ctx := context.Background()

	events := collect(t, b, "app1.event")

	ev := &message.Event{EventID: "e1", EventType: "ack", UserMessageID: "m1", TransportName: "sms_tx"}
	body, err := ev.Encode()
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "sms_tx.event", body))
	assert.Len(t, *events, 1)
}

func TestWorker_RoutesOutboundToTransport(t *testing.T) {
	_, b := startSimpleWorker(t)
	ctx := context.Background()

	out := collect(t, b, "sms_tx.outbound")

	msg := message.New("sms_tx", "+27831234567", "12345", "reply")
	body, err := msg.Encode()
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "app1.outbound", body))
	assert.Len(t, *out, 1)
}

func TestWorker_DropsUndecodablePayloads(t *testing.T) {
	_, b := startSimpleWorker(t)

	// A broken payload must not surface an error to the bus.
	assert.NoError(t, b.Publish(context.Background(), "sms_tx.inbound", []byte("{broken")))
}

func TestWorker_PublishToUnknownEndpoint(t *testing.T) {
	b := membus.New()
	w := NewWorker("test-dispatcher", b, []string{"sms_tx"}, []string{"app1"})

	msg := message.New("sms_tx", "12345", "+27831234567", "hello")
	err := w.PublishExposedInbound(context.Background(), "ghost_app", msg)
	assert.Error(t, err)

	err = w.PublishTransportOutbound(context.Background(), "ghost_tx", msg)
	assert.Error(t, err)
}

func TestWorker_StartRequiresRouter(t *testing.T) {
	w := NewWorker("test-dispatcher", membus.New(), nil, nil)
	assert.Error(t, w.Start(context.Background(), nil))
}
