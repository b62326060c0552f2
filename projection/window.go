// Package projection builds local views over relayed messages.
// The window is a bounded, process-wide projection used when durable
// storage is unavailable. It does not emit events.
package projection

import (
	"chat-relay/domain"
	"sync"
)

// Window keeps the most recent messages process-wide, oldest evicted
// first. It is the fallback behind the message store and is safe for
// concurrent use.
type Window struct {
	mu       sync.RWMutex
	capacity int
	messages []domain.Message
}

func NewWindow(capacity int) *Window {
	return &Window{capacity: capacity}
}

// Append records a message, evicting the oldest entry once capacity is
// reached.
func (w *Window) Append(m domain.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, m)
	if len(w.messages) > w.capacity {
		// Copy down instead of re-slicing so the evicted head can be
		// collected.
		copy(w.messages, w.messages[1:])
		w.messages = w.messages[:w.capacity]
	}
}

// Recent returns up to limit messages for a room in chronological order.
func (w *Window) Recent(roomID string, limit int) []domain.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []domain.Message
	for _, m := range w.messages {
		if m.Room == roomID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Count reports how many retained messages belong to a room.
func (w *Window) Count(roomID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n := 0
	for _, m := range w.messages {
		if m.Room == roomID {
			n++
		}
	}
	return n
}

// Len reports the total number of retained messages.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.messages)
}
