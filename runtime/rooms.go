package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/projection"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Coordinator owns room membership transitions, presence snapshots, and
// typing aggregation. It mutates session state only through the
// registry and emits notifications through the dispatcher, so the
// ordering rules around joins and leaves live in exactly one place.
type Coordinator struct {
	log          *slog.Logger
	registry     *Registry
	dispatcher   *Dispatcher
	store        contract.MessageStore
	window       *projection.Window
	historyLimit int
	storeTimeout time.Duration
}

func NewCoordinator(log *slog.Logger, registry *Registry, dispatcher *Dispatcher,
	store contract.MessageStore, window *projection.Window,
	historyLimit int, storeTimeout time.Duration) *Coordinator {
	return &Coordinator{
		log:          log,
		registry:     registry,
		dispatcher:   dispatcher,
		store:        store,
		window:       window,
		historyLimit: historyLimit,
		storeTimeout: storeTimeout,
	}
}

// JoinResult is handed back to the caller so the transport layer decides
// which confirmation event to emit (joined_thread, room_messages, ...).
type JoinResult struct {
	Room   string
	Recent []domain.Message
}

// Join moves the session into roomID.
//
// When the session is already in a different room, the old room first
// observes a user_left, then a typing_update without the leaving user.
// Only then does the new room observe a user_joined, joiner excluded.
// The join confirmation itself goes to the joining session only.
func (c *Coordinator) Join(ctx context.Context, sessionID, roomID string) (JoinResult, error) {
	session, ok := c.registry.Lookup(sessionID)
	if !ok {
		return JoinResult{}, errors.ErrUnknownSession
	}

	oldRoom := session.CurrentRoom
	if oldRoom == roomID {
		// Re-joining the current room just refreshes history.
		return JoinResult{Room: roomID, Recent: c.history(ctx, roomID)}, nil
	}

	// Detach from the old room first so its members observe the leave
	// before anyone observes the join.
	c.Leave(sessionID)

	if err := c.registry.SetRoom(sessionID, roomID); err != nil {
		return JoinResult{}, err
	}

	c.dispatcher.ToRoom(roomID, event.UserJoined{
		Username: session.Identity.Username,
		Message:  fmt.Sprintf("%s joined the chat", session.Identity.Username),
	}, sessionID)

	return JoinResult{Room: roomID, Recent: c.history(ctx, roomID)}, nil
}

// Leave detaches the session from its current room and notifies the
// remaining members. Sessions without a room are left untouched.
func (c *Coordinator) Leave(sessionID string) {
	session, ok := c.registry.Lookup(sessionID)
	if !ok || !session.InRoom() {
		return
	}
	if err := c.registry.SetRoom(sessionID, ""); err != nil {
		return
	}
	c.notifyLeft(session, session.CurrentRoom)
}

// Disconnect performs the leave bookkeeping for a session that is going
// away entirely. It runs exactly once per session even under concurrent
// disconnect signals: the registry removal is the linearization point,
// a second call finds nothing to remove and returns.
func (c *Coordinator) Disconnect(sessionID string) {
	session, ok := c.registry.Remove(sessionID)
	if !ok {
		return
	}
	if session.InRoom() {
		c.notifyLeft(session, session.CurrentRoom)
	}
	c.log.Debug("Session disconnected", "session_id", sessionID, "username", session.Identity.Username)
}

// notifyLeft tells a room one of its members is gone, then republishes
// the typing list so observers drop the leaving user. Ordering matters:
// user_left strictly before typing_update.
func (c *Coordinator) notifyLeft(session domain.Session, roomID string) {
	c.dispatcher.ToRoom(roomID, event.UserLeft{
		Username: session.Identity.Username,
		Message:  fmt.Sprintf("%s left the chat", session.Identity.Username),
	}, session.SessionID)
	c.dispatcher.ToRoom(roomID, event.TypingUpdate{
		TypingUsers: c.registry.TypingUsernames(roomID),
	}, session.SessionID)
}

// RoomInfoResult describes the session's current room. A session without
// a room gets a zero result with HasRoom false; that is a benign query
// state, not an error.
type RoomInfoResult struct {
	HasRoom       bool
	Room          string
	Members       []domain.Session
	TotalMessages int
}

// RoomInfo answers a membership and volume query for the session's room.
func (c *Coordinator) RoomInfo(ctx context.Context, sessionID string) (RoomInfoResult, error) {
	session, ok := c.registry.Lookup(sessionID)
	if !ok {
		return RoomInfoResult{}, errors.ErrUnknownSession
	}
	if !session.InRoom() {
		return RoomInfoResult{}, nil
	}

	room := session.CurrentRoom
	return RoomInfoResult{
		HasRoom:       true,
		Room:          room,
		Members:       c.registry.Members(room),
		TotalMessages: c.MessageCount(ctx, room),
	}, nil
}

// SetTyping updates the typing flag and broadcasts the recomputed list
// to the room, sender excluded. Sessions without a room are silently
// ignored.
func (c *Coordinator) SetTyping(sessionID string, typing bool) {
	session, err := c.registry.SetTyping(sessionID, typing)
	if err != nil || !session.InRoom() {
		return
	}
	c.dispatcher.ToRoom(session.CurrentRoom, event.TypingUpdate{
		TypingUsers: c.registry.TypingUsernames(session.CurrentRoom),
	}, sessionID)
}

// MessageCount delegates to the store's aggregate, falling back to the
// local window when the store is unavailable.
func (c *Coordinator) MessageCount(ctx context.Context, roomID string) int {
	storeCtx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	stats, err := c.store.Stats(storeCtx, roomID)
	if err != nil {
		c.log.Warn("Message store stats unavailable, using window", "room", roomID, "error", err)
		return c.window.Count(roomID)
	}
	return stats.TotalMessages
}

// history fetches up to historyLimit messages for a room in
// chronological order, degrading to the window on store failure.
func (c *Coordinator) history(ctx context.Context, roomID string) []domain.Message {
	storeCtx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	messages, err := c.store.Recent(storeCtx, roomID, c.historyLimit)
	if err != nil {
		c.log.Warn("Message store history unavailable, using window", "room", roomID, "error", err)
		return c.window.Recent(roomID, c.historyLimit)
	}
	return messages
}

// ToPayloads converts stored messages to their wire shape.
func ToPayloads(messages []domain.Message) []event.MessagePayload {
	return lo.Map(messages, func(m domain.Message, _ int) event.MessagePayload {
		return ToPayload(m)
	})
}

// ToPayload converts one message to its wire shape.
func ToPayload(m domain.Message) event.MessagePayload {
	return event.MessagePayload{
		ID:        m.ID.String(),
		Username:  m.Username,
		Message:   m.Content,
		Room:      m.Room,
		Timestamp: float64(m.CreatedAt.UnixNano()) / float64(time.Second),
		UserID:    m.SenderSession,
		StoredRef: m.StoredRef,
	}
}
