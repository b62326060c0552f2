// Package domain contains core concepts of the chat relay.
// This file defines Message entities and related rules.
// Messages are immutable once created by the pipeline.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event relayed to a room.
type Message struct {
	ID            uuid.UUID
	Room          string
	SenderSession string
	SenderID      string
	Username      string
	Content       string
	CreatedAt     time.Time
	StoredRef     string // set by the message store, empty on fallback
}

// RoomStats aggregates per-room figures computed by the message store.
type RoomStats struct {
	TotalMessages int
	ActiveUsers   int // distinct senders inside the activity window
}
