package projection

import (
	"chat-relay/domain"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func makeMessage(room, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Room:      room,
		Username:  "alice",
		Content:   content,
		CreatedAt: at,
	}
}

func TestWindow_EvictsOldestAtCapacity(t *testing.T) {
	req := require.New(t)
	window := NewWindow(1000)
	at := time.Now().UTC()

	// When one message more than capacity is appended
	for i := 0; i < 1001; i++ {
		window.Append(makeMessage("general", fmt.Sprintf("msg-%d", i), at.Add(time.Duration(i)*time.Millisecond)))
	}

	// Then the very first message is gone and the rest survive in order
	req.Equal(1000, window.Len())
	recent := window.Recent("general", 0)
	req.Equal("msg-1", recent[0].Content)
	req.Equal("msg-1000", recent[len(recent)-1].Content)
}

func TestWindow_RecentFiltersByRoomAndLimit(t *testing.T) {
	req := require.New(t)
	window := NewWindow(100)
	at := time.Now().UTC()

	window.Append(makeMessage("general", "a", at))
	window.Append(makeMessage("random", "b", at.Add(time.Millisecond)))
	window.Append(makeMessage("general", "c", at.Add(2*time.Millisecond)))
	window.Append(makeMessage("general", "d", at.Add(3*time.Millisecond)))

	recent := window.Recent("general", 2)

	req.Len(recent, 2)
	req.Equal("c", recent[0].Content)
	req.Equal("d", recent[1].Content)
	req.Equal(3, window.Count("general"))
	req.Equal(1, window.Count("random"))
}

func TestWindow_UnknownRoomIsEmpty(t *testing.T) {
	window := NewWindow(10)

	require.Empty(t, window.Recent("nowhere", 5))
	require.Zero(t, window.Count("nowhere"))
}
