// Package runtime coordinates sessions, rooms, and event propagation.
// It orchestrates the relay without containing transport or storage logic.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"sort"
	"sync"
	"time"
)

type registered struct {
	session domain.Session
	sink    contract.EventSink
}

// Registry tracks every live session and is the single source of truth
// for "who is where": room membership is always derived by scanning
// sessions, there is no separate membership set that could drift.
//
// All reads return copies, so a caller never observes a session with a
// room pointer mid-transition. Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registered
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*registered)}
}

// Register creates the session record for a freshly authenticated
// connection. A duplicate session id is a transport protocol violation
// and is rejected.
func (r *Registry) Register(sessionID string, identity domain.Identity, sink contract.EventSink) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; ok {
		return domain.Session{}, errors.ErrDuplicateSession
	}
	s := domain.Session{
		SessionID: sessionID,
		Identity:  identity,
		JoinedAt:  time.Now().UTC(),
	}
	r.sessions[sessionID] = &registered{session: s, sink: sink}
	return s, nil
}

// Lookup returns a copy of the session record.
func (r *Registry) Lookup(sessionID string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	return reg.session, true
}

// SetRoom moves the session into roomID (empty for "no room").
// Leaving a room always clears the typing flag as well, atomically.
func (r *Registry) SetRoom(sessionID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.sessions[sessionID]
	if !ok {
		return errors.ErrUnknownSession
	}
	reg.session.CurrentRoom = roomID
	reg.session.Typing = false
	return nil
}

// SetTyping flips the typing flag and returns the updated session copy.
func (r *Registry) SetTyping(sessionID string, typing bool) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, errors.ErrUnknownSession
	}
	reg.session.Typing = typing
	return reg.session, nil
}

// Remove destroys the session record atomically and returns the removed
// copy so callers can clean up room and typing state from the last-known
// room. Removing an already-removed session is a no-op.
func (r *Registry) Remove(sessionID string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, sessionID)
	return reg.session, true
}

// Sink resolves the delivery channel of one session.
func (r *Registry) Sink(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return reg.sink, true
}

// RoomSinks snapshots the delivery channels of every session currently
// in roomID, optionally excluding one session. The snapshot is taken
// under the read lock; sends happen outside of it.
func (r *Registry) RoomSinks(roomID, excludeSessionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for id, reg := range r.sessions {
		if id == excludeSessionID {
			continue
		}
		if reg.session.CurrentRoom == roomID {
			sinks = append(sinks, reg.sink)
		}
	}
	return sinks
}

// Members returns copies of every session in roomID, sorted by username
// for deterministic listings.
func (r *Registry) Members(roomID string) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []domain.Session
	for _, reg := range r.sessions {
		if reg.session.CurrentRoom == roomID {
			members = append(members, reg.session)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Identity.Username != members[j].Identity.Username {
			return members[i].Identity.Username < members[j].Identity.Username
		}
		return members[i].SessionID < members[j].SessionID
	})
	return members
}

// TypingUsernames returns the sorted usernames of sessions typing in
// roomID.
func (r *Registry) TypingUsernames(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0)
	for _, reg := range r.sessions {
		if reg.session.CurrentRoom == roomID && reg.session.Typing {
			names = append(names, reg.session.Identity.Username)
		}
	}
	sort.Strings(names)
	return names
}

// Online returns copies of every registered session except the excluded
// one, sorted by username.
func (r *Registry) Online(excludeSessionID string) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var online []domain.Session
	for id, reg := range r.sessions {
		if id == excludeSessionID {
			continue
		}
		online = append(online, reg.session)
	}
	sort.Slice(online, func(i, j int) bool {
		if online[i].Identity.Username != online[j].Identity.Username {
			return online[i].Identity.Username < online[j].Identity.Username
		}
		return online[i].SessionID < online[j].SessionID
	})
	return online
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
