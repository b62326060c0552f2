package ws

import "encoding/json"

// frame is the wire envelope in both directions: an event name and its
// JSON payload.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundFrame mirrors frame with an already-typed payload.
type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound event names accepted from clients.
const (
	evtJoinThread     = "join_thread"
	evtSendMessage    = "send_message"
	evtTyping         = "typing"
	evtGetRoomInfo    = "get_room_info"
	evtCreateDM       = "create_dm"
	evtJoinDM         = "join_dm"
	evtGetDMList      = "get_dm_list"
	evtGetOnlineUsers = "get_online_users"
)

type joinThreadPayload struct {
	Room string `json:"room"`
}

type sendMessagePayload struct {
	Message string `json:"message"`
}

type typingPayload struct {
	Typing bool `json:"typing"`
}

type createDMPayload struct {
	TargetUserID string `json:"target_user_id"`
}

type joinDMPayload struct {
	DMRoomID string `json:"dm_room_id"`
}
