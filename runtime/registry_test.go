package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingSink collects every consumed event in order.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
	fail   bool
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

func identityFor(username string) domain.Identity {
	return domain.Identity{UserID: "u-" + username, Username: username}
}

func register(t *testing.T, r *Registry, sessionID, username string) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	_, err := r.Register(sessionID, domain.Identity{UserID: "u-" + sessionID, Username: username}, sink)
	require.NoError(t, err)
	return sink
}

func TestRegistry_RejectsDuplicateSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	register(t, registry, "s1", "alice")

	// When the same session id registers twice
	_, err := registry.Register("s1", domain.Identity{Username: "bob"}, &recordingSink{})

	// Then the second registration is refused
	req.ErrorIs(err, errors.ErrDuplicateSession)
	req.Equal(1, registry.Count())
}

func TestRegistry_SetRoomClearsTyping(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	register(t, registry, "s1", "alice")

	req.NoError(registry.SetRoom("s1", "general"))
	_, err := registry.SetTyping("s1", true)
	req.NoError(err)

	// When the session changes room
	req.NoError(registry.SetRoom("s1", "random"))

	// Then the typing flag went down with the move
	session, ok := registry.Lookup("s1")
	req.True(ok)
	req.Equal("random", session.CurrentRoom)
	req.False(session.Typing)
	req.Empty(registry.TypingUsernames("random"))
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	register(t, registry, "s1", "alice")

	removed, ok := registry.Remove("s1")
	req.True(ok)
	req.Equal("alice", removed.Identity.Username)

	_, ok = registry.Remove("s1")
	req.False(ok)
	req.Zero(registry.Count())
}

func TestRegistry_MembersSortedByUsername(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	register(t, registry, "s1", "zoe")
	register(t, registry, "s2", "alice")
	register(t, registry, "s3", "bob")
	for _, id := range []string{"s1", "s2", "s3"} {
		req.NoError(registry.SetRoom(id, "general"))
	}

	members := registry.Members("general")

	req.Len(members, 3)
	req.Equal("alice", members[0].Identity.Username)
	req.Equal("bob", members[1].Identity.Username)
	req.Equal("zoe", members[2].Identity.Username)
}

func TestRegistry_RoomSinksExcludesSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	register(t, registry, "s1", "alice")
	register(t, registry, "s2", "bob")
	req.NoError(registry.SetRoom("s1", "general"))
	req.NoError(registry.SetRoom("s2", "general"))

	sinks := registry.RoomSinks("general", "s1")

	req.Len(sinks, 1)
}

func TestRegistry_OnlineExcludesRequester(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	register(t, registry, "s1", "alice")
	register(t, registry, "s2", "bob")

	online := registry.Online("s1")

	req.Len(online, 1)
	req.Equal("bob", online[0].Identity.Username)
}

var _ contract.EventSink = (*recordingSink)(nil)
