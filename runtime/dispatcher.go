package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

// Dispatcher fans a protocol event out to the sessions of a room.
//
// Delivery is best effort and fire-and-forget per recipient: one slow or
// vanished session never aborts delivery to the others and never raises
// to the caller. Within a single session, events are delivered in
// dispatch order because each sink is a FIFO channel fed sequentially.
type Dispatcher struct {
	log         *slog.Logger
	registry    *Registry
	monitor     *observability.Monitor
	sinkTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, registry *Registry, monitor *observability.Monitor, sinkTimeout time.Duration) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, monitor: monitor, sinkTimeout: sinkTimeout}
}

// ToRoom delivers e to every session currently in roomID, skipping
// excludeSessionID when non-empty. Membership is snapshotted under the
// registry read lock; sends happen after it is released.
func (d *Dispatcher) ToRoom(roomID string, e event.Event, excludeSessionID string) {
	sinks := d.registry.RoomSinks(roomID, excludeSessionID)
	for _, sink := range sinks {
		d.deliver(sink, e, roomID)
	}
}

// ToSession delivers e to one session; silently drops if the session is
// already gone.
func (d *Dispatcher) ToSession(sessionID string, e event.Event) {
	sink, ok := d.registry.Sink(sessionID)
	if !ok {
		return
	}
	d.deliver(sink, e, "")
}

func (d *Dispatcher) deliver(sink contract.EventSink, e event.Event, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
	defer cancel()

	if err := sink.Consume(ctx, e); err != nil {
		d.monitor.IncrEventsDropped()
		d.log.Debug("Event dropped for one recipient",
			"event", e.Name(), "room", roomID, "error", err)
		return
	}
	d.monitor.IncrEventsDelivered()
}
