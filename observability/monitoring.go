// Package observability aggregates process-wide relay counters.
package observability

import (
	"sync/atomic"
)

// Monitor keeps real-time telemetry for the relay. All counters are
// atomic; Snapshot can be called from any goroutine.
type Monitor struct {
	messagesRelayed  uint64
	messagesFallback uint64
	eventsDelivered  uint64
	eventsDropped    uint64
	authFailures     uint64
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) IncrMessagesRelayed() {
	atomic.AddUint64(&m.messagesRelayed, 1)
}

// IncrMessagesFallback counts messages that landed in the in-memory
// window because the durable store was unavailable.
func (m *Monitor) IncrMessagesFallback() {
	atomic.AddUint64(&m.messagesFallback, 1)
}

func (m *Monitor) IncrEventsDelivered() {
	atomic.AddUint64(&m.eventsDelivered, 1)
}

// IncrEventsDropped counts per-recipient delivery failures; they are
// swallowed by the dispatcher, this counter is their only trace.
func (m *Monitor) IncrEventsDropped() {
	atomic.AddUint64(&m.eventsDropped, 1)
}

func (m *Monitor) IncrAuthFailures() {
	atomic.AddUint64(&m.authFailures, 1)
}

// Snapshot returns the current counter values for health endpoints and
// heartbeat logs.
func (m *Monitor) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"messages_relayed":  atomic.LoadUint64(&m.messagesRelayed),
		"messages_fallback": atomic.LoadUint64(&m.messagesFallback),
		"events_delivered":  atomic.LoadUint64(&m.eventsDelivered),
		"events_dropped":    atomic.LoadUint64(&m.eventsDropped),
		"auth_failures":     atomic.LoadUint64(&m.authFailures),
	}
}
