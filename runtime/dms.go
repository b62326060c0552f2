package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"sort"
	"sync"
	"time"
)

// Directory tracks direct message rooms. Only DM rooms carry an explicit
// record; named rooms are a derived view over session state.
type Directory struct {
	mu          sync.Mutex
	rooms       map[string]domain.DMRoom
	registry    *Registry
	coordinator *Coordinator
}

func NewDirectory(registry *Registry, coordinator *Coordinator) *Directory {
	return &Directory{
		rooms:       make(map[string]domain.DMRoom),
		registry:    registry,
		coordinator: coordinator,
	}
}

// CreateResult reports the outcome of a DM creation.
type CreateResult struct {
	Room      domain.DMRoom
	Requester domain.Session
	Target    domain.Session
	Existed   bool
	Recent    []domain.Message
}

// Create upserts the DM record for requester and target and joins the
// requester to the underlying room. The target is a conceptual member
// but must join explicitly; the caller is expected to send it an
// invitation unless the record already existed.
//
// Re-creating an existing pair returns the existing record untouched.
func (d *Directory) Create(ctx context.Context, requesterSessionID, targetSessionID string) (CreateResult, error) {
	if targetSessionID == requesterSessionID {
		return CreateResult{}, errors.ErrInvalidTarget
	}
	requester, ok := d.registry.Lookup(requesterSessionID)
	if !ok {
		return CreateResult{}, errors.ErrUnknownSession
	}
	target, ok := d.registry.Lookup(targetSessionID)
	if !ok {
		return CreateResult{}, errors.ErrTargetNotFound
	}

	id := domain.CanonicalDMID(requesterSessionID, targetSessionID)

	d.mu.Lock()
	room, existed := d.rooms[id]
	if !existed {
		now := time.Now().UTC()
		room = domain.DMRoom{
			ID:            id,
			CreatedAt:     now,
			LastMessageAt: now,
		}
		if requesterSessionID < targetSessionID {
			room.Participants = [2]string{requesterSessionID, targetSessionID}
		} else {
			room.Participants = [2]string{targetSessionID, requesterSessionID}
		}
		d.rooms[id] = room
	}
	d.mu.Unlock()

	result, err := d.coordinator.Join(ctx, requesterSessionID, id)
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Room:      room,
		Requester: requester,
		Target:    target,
		Existed:   existed,
		Recent:    result.Recent,
	}, nil
}

// Join admits a recorded participant into the DM room with full join
// semantics (implicit leave, history fetch) but without re-triggering
// any invitation.
func (d *Directory) Join(ctx context.Context, sessionID, dmRoomID string) (JoinResult, error) {
	d.mu.Lock()
	room, ok := d.rooms[dmRoomID]
	d.mu.Unlock()

	if !ok {
		return JoinResult{}, errors.ErrDMNotFound
	}
	if !room.HasParticipant(sessionID) {
		return JoinResult{}, errors.ErrNotAParticipant
	}
	return d.coordinator.Join(ctx, sessionID, dmRoomID)
}

// Summary is one DM listing entry resolved against live session state.
type Summary struct {
	Room         domain.DMRoom
	OtherSession string
	Other        domain.Session // zero value when offline
	OtherOnline  bool
	UnreadCount  int
}

// List returns the session's DM rooms ordered by last message time,
// most recent first. The unread count is approximated by the room's
// total message count.
func (d *Directory) List(ctx context.Context, sessionID string) []Summary {
	d.mu.Lock()
	var rooms []domain.DMRoom
	for _, room := range d.rooms {
		if room.HasParticipant(sessionID) {
			rooms = append(rooms, room)
		}
	}
	d.mu.Unlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		otherID := room.OtherParticipant(sessionID)
		other, online := d.registry.Lookup(otherID)
		summaries = append(summaries, Summary{
			Room:         room,
			OtherSession: otherID,
			Other:        other,
			OtherOnline:  online,
			UnreadCount:  d.coordinator.MessageCount(ctx, room.ID),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Room.LastMessageAt.After(summaries[j].Room.LastMessageAt)
	})
	return summaries
}

// Touch refreshes the last message time of a DM room; no-op for named
// rooms or unknown ids.
func (d *Directory) Touch(roomID string, at time.Time) {
	if !domain.IsDMRoom(roomID) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return
	}
	room.LastMessageAt = at
	d.rooms[roomID] = room
}
