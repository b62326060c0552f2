package ws

import (
	"chat-relay/auth"
	"chat-relay/domain/event"
	"chat-relay/services"
	"chat-relay/sink"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readDeadline = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// connection glues one websocket to one session: a read loop decoding
// inbound frames into service calls, and a write pump draining the
// session sink into outbound frames. The sink is the only path events
// take to the socket, so per-session ordering is the channel's FIFO
// order.
type connection struct {
	log       *slog.Logger
	service   services.IChatService
	conn      *websocket.Conn
	sessionID string
	sink      *sink.SessionSink
}

// handleSocket authenticates the credential carried in the query string
// and runs the connection until either side goes away.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &connection{
		log:       s.log,
		service:   s.chatService,
		conn:      wsConn,
		sessionID: uuid.New().String(),
		sink:      sink.NewSessionSink(s.bufferSize),
	}
	defer wsConn.Close()

	cred := auth.Credential{
		Token:    r.URL.Query().Get("token"),
		Username: r.URL.Query().Get("username"),
	}

	if _, err := s.chatService.Connect(c.sessionID, cred, c.sink); err != nil {
		// No session registered: push the rejection directly and close.
		c.write(outboundFrame{
			Event: event.AuthError{}.Name(),
			Data:  event.AuthError{Message: "Invalid authentication token"},
		})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go c.writePump(ctx)

	c.readLoop(ctx)

	// Read loop ended: tear the session down before the pump stops.
	s.chatService.Disconnect(c.sessionID)
	c.sink.Close()
}

// readLoop decodes inbound frames until the socket dies.
func (c *connection) readLoop(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug("Websocket read error", "session_id", c.sessionID, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))

		c.dispatch(ctx, f)
	}
}

// dispatch routes one inbound frame to its service operation. Unknown
// event names are reported to the sender and otherwise ignored.
func (c *connection) dispatch(ctx context.Context, f frame) {
	switch f.Event {
	case evtJoinThread:
		var p joinThreadPayload
		c.decode(f.Data, &p)
		c.service.JoinThread(ctx, c.sessionID, p.Room)

	case evtSendMessage:
		var p sendMessagePayload
		c.decode(f.Data, &p)
		c.service.SendMessage(ctx, c.sessionID, p.Message)

	case evtTyping:
		var p typingPayload
		c.decode(f.Data, &p)
		c.service.Typing(c.sessionID, p.Typing)

	case evtGetRoomInfo:
		c.service.GetRoomInfo(ctx, c.sessionID)

	case evtCreateDM:
		var p createDMPayload
		c.decode(f.Data, &p)
		c.service.CreateDM(ctx, c.sessionID, p.TargetUserID)

	case evtJoinDM:
		var p joinDMPayload
		c.decode(f.Data, &p)
		c.service.JoinDM(ctx, c.sessionID, p.DMRoomID)

	case evtGetDMList:
		c.service.GetDMList(ctx, c.sessionID)

	case evtGetOnlineUsers:
		c.service.GetOnlineUsers(c.sessionID)

	default:
		c.write(outboundFrame{
			Event: event.Error{}.Name(),
			Data:  event.Error{Message: "Unsupported event: " + f.Event},
		})
	}
}

func (c *connection) decode(raw json.RawMessage, into any) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, into); err != nil {
		c.log.Debug("Malformed payload", "session_id", c.sessionID, "error", err)
	}
}

// writePump drains the session sink into the socket and keeps the
// connection alive with pings. A write failure closes the socket, which
// in turn stops the read loop.
func (c *connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-c.sink.Events():
			if !ok {
				return
			}
			if !c.write(outboundFrame{Event: e.Name(), Data: e}) {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (c *connection) write(f outboundFrame) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(f); err != nil {
		c.log.Debug("Websocket write failed", "session_id", c.sessionID, "error", err)
		return false
	}
	return true
}
