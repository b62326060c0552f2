// Package event defines the outbound protocol events pushed to sessions.
// Each event serializes to the "data" part of a wire frame; Name is the
// frame's event discriminator.
package event

// Event is anything that can be delivered to a session sink.
type Event interface {
	Name() string
}

// Connected acknowledges a successful authentication.
type Connected struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
}

func (Connected) Name() string { return "connected" }

// AuthError rejects a connection attempt; the transport closes afterwards.
type AuthError struct {
	Message string `json:"message"`
}

func (AuthError) Name() string { return "auth_error" }

// Error reports a failed request to its sender only.
type Error struct {
	Message string `json:"message"`
}

func (Error) Name() string { return "error" }

// MessagePayload is the wire shape of one relayed chat message.
// Timestamps travel as epoch seconds.
type MessagePayload struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Message   string  `json:"message"`
	Room      string  `json:"room"`
	Timestamp float64 `json:"timestamp"`
	UserID    string  `json:"user_id"`
	StoredRef string  `json:"stored_ref,omitempty"`
}

// NewMessage broadcasts a relayed message to a whole room, sender included.
type NewMessage struct {
	MessagePayload
}

func (NewMessage) Name() string { return "new_message" }

// JoinedThread confirms a join to the joining session with recent history.
type JoinedThread struct {
	Room           string           `json:"room"`
	Message        string           `json:"message"`
	RecentMessages []MessagePayload `json:"recent_messages"`
}

func (JoinedThread) Name() string { return "joined_thread" }

// UserJoined notifies a room that somebody else arrived.
type UserJoined struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (UserJoined) Name() string { return "user_joined" }

// UserLeft notifies a room that a member departed.
type UserLeft struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (UserLeft) Name() string { return "user_left" }

// TypingUpdate carries the usernames currently typing in a room,
// sorted for reproducibility.
type TypingUpdate struct {
	TypingUsers []string `json:"typing_users"`
}

func (TypingUpdate) Name() string { return "typing_update" }

// RoomUser is one member entry inside RoomInfo.
type RoomUser struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

// RoomInfo answers a room query for the requesting session. A session
// without a room receives a nil Room and empty Users, not an error.
type RoomInfo struct {
	Room          *string    `json:"room"`
	Users         []RoomUser `json:"users"`
	TotalMessages int        `json:"total_messages"`
}

func (RoomInfo) Name() string { return "room_info" }

// DMParticipant identifies one side of a direct message room.
type DMParticipant struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// DMCreated confirms a direct message room to its requester.
type DMCreated struct {
	DMRoomID     string          `json:"dm_room_id"`
	Participants []DMParticipant `json:"participants"`
}

func (DMCreated) Name() string { return "dm_created" }

// DMInvitation tells the target session a DM room awaits it.
type DMInvitation struct {
	DMRoomID string        `json:"dm_room_id"`
	FromUser DMParticipant `json:"from_user"`
}

func (DMInvitation) Name() string { return "dm_invitation" }

// RoomMessages delivers DM history to a session that joined a DM room.
type RoomMessages struct {
	Room     string           `json:"room"`
	Messages []MessagePayload `json:"messages"`
}

func (RoomMessages) Name() string { return "room_messages" }

// DMOtherUser describes the opposite participant inside a DM summary.
type DMOtherUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// DMSummary is one entry of a DM listing.
type DMSummary struct {
	DMRoomID      string      `json:"dm_room_id"`
	OtherUser     DMOtherUser `json:"other_user"`
	LastMessageAt float64     `json:"last_message_at"`
	UnreadCount   int         `json:"unread_count"`
}

// DMList answers a DM listing request, most recent conversation first.
type DMList struct {
	DMs []DMSummary `json:"dms"`
}

func (DMList) Name() string { return "dm_list" }

// OnlineUser is one entry of an online-users listing.
type OnlineUser struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	LastSeen float64 `json:"last_seen"`
}

// OnlineUsers answers an online-users request, requester excluded,
// sorted by username.
type OnlineUsers struct {
	Users []OnlineUser `json:"users"`
}

func (OnlineUsers) Name() string { return "online_users" }
