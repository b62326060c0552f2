package domain

import (
	"strings"
	"time"
)

// DefaultRoom is the named room every client lands in first.
// Named rooms have no stored record: they materialize when the first
// session joins and their membership is always derived from session state.
const DefaultRoom = "general"

// DMPrefix is reserved for direct message room identifiers so they can
// never collide with named rooms.
const DMPrefix = "dm_"

// DMRoom is the explicit record behind a two-participant room.
type DMRoom struct {
	ID            string
	Participants  [2]string // session ids, canonical order
	CreatedAt     time.Time
	LastMessageAt time.Time
}

// HasParticipant reports whether the given session id is one of the two
// recorded participants.
func (r DMRoom) HasParticipant(sessionID string) bool {
	return r.Participants[0] == sessionID || r.Participants[1] == sessionID
}

// OtherParticipant returns the participant that is not the given session.
func (r DMRoom) OtherParticipant(sessionID string) string {
	if r.Participants[0] == sessionID {
		return r.Participants[1]
	}
	return r.Participants[0]
}

// CanonicalDMID derives the room identifier for a participant pair.
// Swapping the arguments yields the same identifier.
func CanonicalDMID(a, b string) string {
	lo, hi := a, b
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return DMPrefix + lo + "_" + hi
}

// IsDMRoom reports whether a room identifier belongs to the DM namespace.
func IsDMRoom(roomID string) bool {
	return strings.HasPrefix(roomID, DMPrefix)
}
