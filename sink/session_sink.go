// Package sink bridges the dispatcher to one connection's write pump.
package sink

import (
	"chat-relay/domain/event"
	"context"
	"sync"
)

// SessionSink is the buffered FIFO channel behind one session. The
// dispatcher feeds it sequentially, which is what preserves per-session
// delivery order; the connection's write pump drains it.
type SessionSink struct {
	events    chan event.Event
	closeOnce sync.Once
	done      chan struct{}
}

func NewSessionSink(bufferSize int) *SessionSink {
	return &SessionSink{
		events: make(chan event.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume queues an event for the session. It waits at most until the
// deadline carried by ctx; a full buffer past that point means the
// client cannot keep up and the event is dropped by the caller.
func (s *SessionSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return context.Canceled
	default:
	}

	select {
	case s.events <- e:
		return nil
	case <-s.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the queue to the write pump.
func (s *SessionSink) Events() <-chan event.Event {
	return s.events
}

// Close releases any blocked producer. Safe to call more than once.
func (s *SessionSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
