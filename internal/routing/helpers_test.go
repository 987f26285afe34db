package routing

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/kvstore"
	"message-dispatcher/internal/message"
)

// publication records one publish call made by a router under test.
type publication struct {
	kind string // "exposed_inbound", "exposed_event", "transport_outbound"
	name string
	msg  *message.Message
	ev   *message.Event
}

// fakePublisher records publishes and can simulate unknown endpoints.
type fakePublisher struct {
	mu         sync.Mutex
	published  []publication
	knownNames map[string]bool // nil means every name is known
}

func newFakePublisher(known ...string) *fakePublisher {
	p := &fakePublisher{}
	if len(known) > 0 {
		p.knownNames = make(map[string]bool, len(known))
		for _, name := range known {
			p.knownNames[name] = true
		}
	}
	return p
}

func (p *fakePublisher) check(name string) error {
	if p.knownNames != nil && !p.knownNames[name] {
		return errors.NotFoundError("endpoint " + name)
	}
	return nil
}

func (p *fakePublisher) PublishExposedInbound(ctx context.Context, name string, msg *message.Message) error {
	if err := p.check(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publication{kind: "exposed_inbound", name: name, msg: msg})
	return nil
}

func (p *fakePublisher) PublishExposedEvent(ctx context.Context, name string, ev *message.Event) error {
	if err := p.check(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publication{kind: "exposed_event", name: name, ev: ev})
	return nil
}

func (p *fakePublisher) PublishTransportOutbound(ctx context.Context, name string, msg *message.Message) error {
	if err := p.check(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publication{kind: "transport_outbound", name: name, msg: msg})
	return nil
}

// destinations returns the endpoint names published to, in order, filtered by
// kind.
func (p *fakePublisher) destinations(kind string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, pub := range p.published {
		if pub.kind == kind {
			names = append(names, pub.name)
		}
	}
	return names
}

// fakeDiagnostics counts diagnostic events by category.
type fakeDiagnostics struct {
	mu                sync.Mutex
	routingMisses     []string
	correlationMisses []string
	discarded         []string
}

func (d *fakeDiagnostics) RoutingMiss(reason string, fields ...logging.Field) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routingMisses = append(d.routingMisses, reason)
}

func (d *fakeDiagnostics) CorrelationMiss(userMessageID, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.correlationMisses = append(d.correlationMisses, userMessageID)
}

func (d *fakeDiagnostics) Discarded(what string, fields ...logging.Field) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discarded = append(d.discarded, what)
}

// newTestStore returns a Redis store backed by miniredis.
func newTestStore(t *testing.T) (*kvstore.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := kvstore.NewRedisStore(&kvstore.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func inboundMessage(transportName, toAddr, fromAddr, content string) *message.Message {
	m := message.New(transportName, toAddr, fromAddr, content)
	return m
}

func strPtr(s string) *string { return &s }
