// Package dispatcher wires a router to the bus. The worker owns a fixed set
// of transport and exposed (application) endpoint names, subscribes to the
// inbound side of each, and delegates every delivery verbatim to its single
// configured router. It has no routing intelligence of its own.
package dispatcher

import (
	"context"
	"fmt"

	"message-dispatcher/internal/bus"
	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/message"
	"message-dispatcher/internal/routing"
)

// Worker owns the dispatcher's endpoint sets and bus subscriptions. The
// endpoint sets are fixed at construction; nothing is added or removed at
// runtime.
type Worker struct {
	name       string
	bus        bus.Bus
	transports map[string]bool
	exposed    map[string]bool
	router     routing.Router
	logger     logging.Logger
}

// NewWorker creates a worker over the given bus and endpoint name sets.
func NewWorker(name string, b bus.Bus, transportNames, exposedNames []string) *Worker {
	transports := make(map[string]bool, len(transportNames))
	for _, t := range transportNames {
		transports[t] = true
	}
	exposed := make(map[string]bool, len(exposedNames))
	for _, e := range exposedNames {
		exposed[e] = true
	}

	return &Worker{
		name:       name,
		bus:        b,
		transports: transports,
		exposed:    exposed,
		logger: logging.GetGlobalLogger().WithFields(
			logging.String("dispatcher", name)),
	}
}

// Start binds the router and subscribes to every transport's inbound and
// event endpoints and every exposed application's outbound endpoint.
// Consumption stops when ctx is cancelled.
func (w *Worker) Start(ctx context.Context, router routing.Router) error {
	if router == nil {
		return errors.ConfigError("worker requires a router")
	}
	w.router = router

	w.logger.Info("starting dispatcher",
		logging.String("router", fmt.Sprintf("%T", router)),
		logging.Int("transports", len(w.transports)),
		logging.Int("exposed", len(w.exposed)))

	for name := range w.transports {
		if err := w.bus.Subscribe(ctx, bus.Inbound(name), w.handleInboundMessage); err != nil {
			return err
		}
		if err := w.bus.Subscribe(ctx, bus.Event(name), w.handleInboundEvent); err != nil {
			return err
		}
	}
	for name := range w.exposed {
		if err := w.bus.Subscribe(ctx, bus.Outbound(name), w.handleOutboundMessage); err != nil {
			return err
		}
	}
	return nil
}

// dispatchOutcome applies the shared error policy: decode failures and
// configuration mistakes are logged and dropped so a poison message cannot
// wedge the consumer; infrastructure failures propagate so the bus backend
// can redeliver.
func (w *Worker) dispatchOutcome(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.IsType(err, errors.ErrTypeConfig) || errors.IsType(err, errors.ErrTypeNotFound) {
		w.logger.Error("dropping "+what, err)
		return nil
	}
	w.logger.Error("dispatch failed for "+what, err)
	return err
}

func (w *Worker) handleInboundMessage(ctx context.Context, body []byte) error {
	msg, err := message.DecodeMessage(body)
	if err != nil {
		w.logger.Error("dropping undecodable inbound message", err)
		return nil
	}
	return w.dispatchOutcome(w.router.DispatchInboundMessage(ctx, msg), "inbound message")
}

func (w *Worker) handleInboundEvent(ctx context.Context, body []byte) error {
	ev, err := message.DecodeEvent(body)
	if err != nil {
		w.logger.Error("dropping undecodable event", err)
		return nil
	}
	return w.dispatchOutcome(w.router.DispatchInboundEvent(ctx, ev), "inbound event")
}

func (w *Worker) handleOutboundMessage(ctx context.Context, body []byte) error {
	msg, err := message.DecodeMessage(body)
	if err != nil {
		w.logger.Error("dropping undecodable outbound message", err)
		return nil
	}
	return w.dispatchOutcome(w.router.DispatchOutboundMessage(ctx, msg), "outbound message")
}

// PublishExposedInbound implements routing.Publisher.
func (w *Worker) PublishExposedInbound(ctx context.Context, name string, msg *message.Message) error {
	if !w.exposed[name] {
		return errors.NotFoundError("exposed endpoint " + name)
	}
	body, err := msg.Encode()
	if err != nil {
		return errors.InternalError("failed to encode message", err)
	}
	return w.bus.Publish(ctx, bus.Inbound(name), body)
}

// PublishExposedEvent implements routing.Publisher.
func (w *Worker) PublishExposedEvent(ctx context.Context, name string, ev *message.Event) error {
	if !w.exposed[name] {
		return errors.NotFoundError("exposed endpoint " + name)
	}
	body, err := ev.Encode()
	if err != nil {
		return errors.InternalError("failed to encode event", err)
	}
	return w.bus.Publish(ctx, bus.Event(name), body)
}

// PublishTransportOutbound implements routing.Publisher.
func (w *Worker) PublishTransportOutbound(ctx context.Context, name string, msg *message.Message) error {
	if !w.transports[name] {
		return errors.NotFoundError("transport endpoint " + name)
	}
	body, err := msg.Encode()
	if err != nil {
		return errors.InternalError("failed to encode message", err)
	}
	return w.bus.Publish(ctx, bus.Outbound(name), body)
}
