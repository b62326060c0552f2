package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) contract.MessageStore {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored form of a message. Values are JSON; the
// ordering lives entirely in the key.
type diskMessage struct {
	ID            string `json:"id"`
	Room          string `json:"room"`
	SenderSession string `json:"sender_session"`
	SenderID      string `json:"sender_id"`
	Username      string `json:"username"`
	Content       string `json:"content"`
	At            int64  `json:"at"`
}

// roomPrefix builds the per-room key prefix "msg:{room_hex}:". The room
// is hex-encoded because room names are arbitrary strings: a raw ":"
// inside a name would make one room's prefix a prefix of another's and
// leak messages across scans.
func roomPrefix(room string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", hex.EncodeToString([]byte(room))))
}

// messageKey formats "msg:{room_hex}:{timestamp_padded}:{uuid}" so that:
//  1. A prefix scan per room returns messages in chronological order,
//     thanks to the 19-digit zero padding (lexicographical order).
//  2. The UUID acts as a collision disconnector if two messages arrive
//     at the same nanosecond.
func messageKey(message domain.Message) string {
	return fmt.Sprintf("%s%019d:%s",
		roomPrefix(message.Room),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

// Append persists a message and returns its storage key as the durable
// reference.
func (m MessageRepository) Append(ctx context.Context, message domain.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := messageKey(message)
	bytes, err := json.Marshal(diskMessage{
		ID:            message.ID.String(),
		Room:          message.Room,
		SenderSession: message.SenderSession,
		SenderID:      message.SenderID,
		Username:      message.Username,
		Content:       message.Content,
		At:            message.CreatedAt.UnixNano(),
	})
	if err != nil {
		return "", err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Recent returns the last limit messages of a room in chronological
// order. It scans the room prefix backwards from the newest key, then
// reverses the collected batch.
func (m MessageRepository) Recent(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room, then walk back
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(byteMessages) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for i := len(byteMessages) - 1; i >= 0; i-- {
		message, err := toMessage(byteMessages[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Stats counts every stored message of a room and the distinct senders
// seen over the last 24 hours.
func (m MessageRepository) Stats(ctx context.Context, room string) (domain.RoomStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoomStats{}, err
	}

	var total int
	senders := make(map[string]struct{})
	cutoff := time.Now().Add(-24 * time.Hour).UnixNano()

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			total++
			err := it.Item().Value(func(value []byte) error {
				var disk diskMessage
				if err := json.Unmarshal(value, &disk); err != nil {
					return err
				}
				if disk.At >= cutoff {
					senders[disk.SenderID] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.RoomStats{}, err
	}

	return domain.RoomStats{
		TotalMessages: total,
		ActiveUsers:   len(senders),
	}, nil
}

func toMessage(bytes []byte) (domain.Message, error) {
	var disk diskMessage
	if err := json.Unmarshal(bytes, &disk); err != nil {
		return domain.Message{}, err
	}
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:            parsedID,
		Room:          disk.Room,
		SenderSession: disk.SenderSession,
		SenderID:      disk.SenderID,
		Username:      disk.Username,
		Content:       disk.Content,
		CreatedAt:     time.Unix(0, disk.At).UTC(),
	}, nil
}
