// Package domain contains core concepts of the chat relay.
// This file defines Session entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"
)

// Identity is the resolved, immutable identity behind a connection.
type Identity struct {
	UserID   string
	Username string
}

// Session represents one live connection with its resolved identity
// and its current room assignment.
//
// A session is in exactly zero or one room at any time. The registry is
// the single owner of session state; everything else holds a SessionID
// and re-checks existence before acting.
type Session struct {
	SessionID   string
	Identity    Identity
	CurrentRoom string // empty means no room
	JoinedAt    time.Time
	Typing      bool
}

// InRoom reports whether the session currently belongs to a room.
func (s Session) InRoom() bool {
	return s.CurrentRoom != ""
}
