package repositories

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func storedMessage(room, sender, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:            uuid.New(),
		Room:          room,
		SenderSession: "sess-" + sender,
		SenderID:      "user-" + sender,
		Username:      sender,
		Content:       content,
		CreatedAt:     at,
	}
}

func TestMessageRepository_AppendAndRecentRoundtrip(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Nanosecond)

	messages := []domain.Message{
		storedMessage("general", "alice", "first", at),
		storedMessage("general", "bob", "second", at.Add(time.Minute)),
		storedMessage("general", "clara", "third", at.Add(2*time.Minute)),
	}
	for _, m := range messages {
		ref, err := repository.Append(context.Background(), m)
		req.NoError(err)
		req.NotEmpty(ref)
	}

	fetched, err := repository.Recent(context.Background(), "general", 50)
	req.NoError(err)
	req.Len(fetched, len(messages))

	// Chronological order, full payload preserved
	for i, m := range messages {
		req.Equal(m.ID, fetched[i].ID)
		req.Equal(m.Content, fetched[i].Content)
		req.Equal(m.Username, fetched[i].Username)
		req.Equal(m.SenderSession, fetched[i].SenderSession)
		req.True(m.CreatedAt.Equal(fetched[i].CreatedAt))
	}
}

func TestMessageRepository_RecentHonorsLimitKeepingNewest(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := repository.Append(context.Background(),
			storedMessage("general", "alice", fmt.Sprintf("msg-%d", i), at.Add(time.Duration(i)*time.Second)))
		req.NoError(err)
	}

	fetched, err := repository.Recent(context.Background(), "general", 2)
	req.NoError(err)

	// The two newest, oldest first
	req.Len(fetched, 2)
	req.Equal("msg-3", fetched[0].Content)
	req.Equal("msg-4", fetched[1].Content)
}

func TestMessageRepository_RecentIsScopedToRoom(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	_, err := repository.Append(context.Background(), storedMessage("general", "alice", "public", at))
	req.NoError(err)
	_, err = repository.Append(context.Background(), storedMessage("dm_s1_s2", "alice", "private", at))
	req.NoError(err)

	fetched, err := repository.Recent(context.Background(), "general", 50)
	req.NoError(err)

	req.Len(fetched, 1)
	req.Equal("public", fetched[0].Content)
}

func TestMessageRepository_RoomNamesWithSeparatorDoNotCollide(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	// "a" must never see keys of "a:b", even though the raw names share
	// a prefix around the key separator
	_, err := repository.Append(context.Background(), storedMessage("a", "alice", "short room", at))
	req.NoError(err)
	_, err = repository.Append(context.Background(), storedMessage("a:b", "bob", "long room", at.Add(time.Second)))
	req.NoError(err)

	fetched, err := repository.Recent(context.Background(), "a", 50)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("short room", fetched[0].Content)

	stats, err := repository.Stats(context.Background(), "a")
	req.NoError(err)
	req.Equal(1, stats.TotalMessages)

	stats, err = repository.Stats(context.Background(), "a:b")
	req.NoError(err)
	req.Equal(1, stats.TotalMessages)
}

func TestMessageRepository_StatsCountsDistinctRecentSenders(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	now := time.Now().UTC()

	_, err := repository.Append(context.Background(), storedMessage("general", "alice", "a", now))
	req.NoError(err)
	_, err = repository.Append(context.Background(), storedMessage("general", "alice", "b", now.Add(time.Second)))
	req.NoError(err)
	_, err = repository.Append(context.Background(), storedMessage("general", "bob", "c", now.Add(2*time.Second)))
	req.NoError(err)
	// A sender outside the 24h activity window still counts in the total
	_, err = repository.Append(context.Background(), storedMessage("general", "clara", "old", now.Add(-48*time.Hour)))
	req.NoError(err)

	stats, err := repository.Stats(context.Background(), "general")
	req.NoError(err)

	req.Equal(4, stats.TotalMessages)
	req.Equal(2, stats.ActiveUsers)
}
