package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/projection"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPipeline_RejectsWhitespaceMessage(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := register(t, h.registry, "s1", "alice")
	_, err := h.coordinator.Join(context.Background(), "s1", "general")
	req.NoError(err)
	before := len(alice.Events())

	// When sending only whitespace
	_, err = h.pipeline.Send(context.Background(), "s1", "   \t  ")

	// Then nothing was broadcast, not even to the sender
	req.ErrorIs(err, errors.ErrEmptyMessage)
	req.Len(alice.Events(), before)
	req.Zero(h.monitor.Snapshot()["messages_relayed"])
}

func TestPipeline_RequiresARoom(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	_ = register(t, h.registry, "s1", "alice")

	_, err := h.pipeline.Send(context.Background(), "s1", "hello")

	req.ErrorIs(err, errors.ErrNotInRoom)
}

func TestPipeline_BroadcastIncludesSender(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := register(t, h.registry, "s1", "alice")
	bob := register(t, h.registry, "s2", "bob")
	_, err := h.coordinator.Join(context.Background(), "s1", "general")
	req.NoError(err)
	_, err = h.coordinator.Join(context.Background(), "s2", "general")
	req.NoError(err)
	aliceBefore := len(alice.Events())
	bobBefore := len(bob.Events())

	message, err := h.pipeline.Send(context.Background(), "s1", "hi there")
	req.NoError(err)

	// Then both members received the same relayed message
	aliceEvents := alice.Events()
	bobEvents := bob.Events()
	req.Len(aliceEvents, aliceBefore+1)
	req.Len(bobEvents, bobBefore+1)

	toAlice, ok := aliceEvents[aliceBefore].(event.NewMessage)
	req.True(ok)
	toBob, ok := bobEvents[bobBefore].(event.NewMessage)
	req.True(ok)
	req.Equal(message.ID.String(), toAlice.ID)
	req.Equal(toAlice.ID, toBob.ID)
	req.Equal("hi there", toAlice.Message)
	req.Equal("s1", toAlice.UserID)
	req.NotEmpty(toAlice.StoredRef)
}

func TestPipeline_MasksListedWords(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := register(t, h.registry, "s1", "alice")
	_, err := h.coordinator.Join(context.Background(), "s1", "general")
	req.NoError(err)
	before := len(alice.Events())

	_, err = h.pipeline.Send(context.Background(), "s1", "that is stupid")
	req.NoError(err)

	relayed := alice.Events()[before].(event.NewMessage)
	req.Equal("that is ******", relayed.Message)
}

func TestPipeline_StoreFailureFallsBackToWindow(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("store down")).
		AnyTimes()
	store.EXPECT().
		Recent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("store down")).
		AnyTimes()
	store.EXPECT().
		Stats(gomock.Any(), gomock.Any()).
		Return(domain.RoomStats{}, fmt.Errorf("store down")).
		AnyTimes()

	monitor := observability.NewMonitor()
	registry := NewRegistry()
	window := projection.NewWindow(1000)
	dispatcher := NewDispatcher(log, registry, monitor, 100*time.Millisecond)
	coordinator := NewCoordinator(log, registry, dispatcher, store, window, 50, time.Second)
	directory := NewDirectory(registry, coordinator)
	moderator, err := moderation.NewModerator([]string{"stupid"}, '*')
	req.NoError(err)
	pipeline := NewPipeline(log, registry, dispatcher, store, window, directory, moderator, monitor, time.Second)

	alice := register(t, registry, "s1", "alice")
	_, err = coordinator.Join(context.Background(), "s1", "general")
	req.NoError(err)
	before := len(alice.Events())

	// When the durable store is down
	message, err := pipeline.Send(context.Background(), "s1", "still here")
	req.NoError(err)

	// Then the message was still broadcast, kept in the window, and
	// carries no durable reference
	req.Empty(message.StoredRef)
	req.Len(alice.Events(), before+1)
	req.Equal(1, window.Count("general"))
	req.Equal(uint64(1), monitor.Snapshot()["messages_fallback"])

	// And history degrades to the window
	recent := coordinator.history(context.Background(), "general")
	req.Len(recent, 1)
	req.Equal("still here", recent[0].Content)
}
