package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/runtime"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// IChatService is the transport-facing boundary of the relay. Every
// method corresponds to one inbound protocol event; results and errors
// travel back to sessions as outbound events, never as return values,
// except for Connect which the transport needs to gate the connection.
type IChatService interface {
	Connect(sessionID string, cred auth.Credential, sink contract.EventSink) (domain.Session, error)
	Disconnect(sessionID string)
	JoinThread(ctx context.Context, sessionID, room string)
	SendMessage(ctx context.Context, sessionID, text string)
	Typing(sessionID string, typing bool)
	GetRoomInfo(ctx context.Context, sessionID string)
	CreateDM(ctx context.Context, sessionID, targetSessionID string)
	JoinDM(ctx context.Context, sessionID, dmRoomID string)
	GetDMList(ctx context.Context, sessionID string)
	GetOnlineUsers(sessionID string)
}

type ChatService struct {
	log         *slog.Logger
	resolver    *auth.Resolver
	registry    *runtime.Registry
	coordinator *runtime.Coordinator
	directory   *runtime.Directory
	pipeline    *runtime.Pipeline
	dispatcher  *runtime.Dispatcher
	monitor     *observability.Monitor
}

func NewChatService(
	log *slog.Logger,
	resolver *auth.Resolver,
	registry *runtime.Registry,
	coordinator *runtime.Coordinator,
	directory *runtime.Directory,
	pipeline *runtime.Pipeline,
	dispatcher *runtime.Dispatcher,
	monitor *observability.Monitor,
) IChatService {
	return &ChatService{
		log:         log,
		resolver:    resolver,
		registry:    registry,
		coordinator: coordinator,
		directory:   directory,
		pipeline:    pipeline,
		dispatcher:  dispatcher,
		monitor:     monitor,
	}
}

// Connect authenticates the credential, registers the session, and
// acknowledges with a connected event. On failure the transport is
// expected to push auth_error itself and close: the session was never
// registered, so no sink exists to dispatch to.
func (s *ChatService) Connect(sessionID string, cred auth.Credential, sink contract.EventSink) (domain.Session, error) {
	identity, err := s.resolver.Resolve(sessionID, cred)
	if err != nil {
		s.monitor.IncrAuthFailures()
		s.log.Warn("Authentication rejected", "session_id", sessionID, "error", err)
		return domain.Session{}, err
	}

	session, err := s.registry.Register(sessionID, identity, sink)
	if err != nil {
		return domain.Session{}, err
	}

	s.dispatcher.ToSession(sessionID, event.Connected{
		Message:   "Connected successfully",
		SessionID: sessionID,
		UserID:    identity.UserID,
		Username:  identity.Username,
	})
	s.log.Info("Session connected", "session_id", sessionID, "username", identity.Username)
	return session, nil
}

// Disconnect tears the session down and notifies its room. Safe to call
// more than once for the same session.
func (s *ChatService) Disconnect(sessionID string) {
	s.coordinator.Disconnect(sessionID)
}

// JoinThread moves the session into a room, defaulting to the lobby.
func (s *ChatService) JoinThread(ctx context.Context, sessionID, room string) {
	if room == "" {
		room = domain.DefaultRoom
	}

	result, err := s.coordinator.Join(ctx, sessionID, room)
	if err != nil {
		s.fail(sessionID, err)
		return
	}

	s.dispatcher.ToSession(sessionID, event.JoinedThread{
		Room:           result.Room,
		Message:        fmt.Sprintf("Joined %s", result.Room),
		RecentMessages: runtime.ToPayloads(result.Recent),
	})
}

// SendMessage relays a message to the session's current room.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, text string) {
	if _, err := s.pipeline.Send(ctx, sessionID, text); err != nil {
		s.fail(sessionID, err)
	}
}

// Typing updates the session's typing flag. Invalid states are silently
// ignored, matching the fire-and-forget nature of the signal.
func (s *ChatService) Typing(sessionID string, typing bool) {
	s.coordinator.SetTyping(sessionID, typing)
}

// GetRoomInfo answers with the members and volume of the current room.
// A session without a room gets a null room, not an error.
func (s *ChatService) GetRoomInfo(ctx context.Context, sessionID string) {
	result, err := s.coordinator.RoomInfo(ctx, sessionID)
	if err != nil {
		s.fail(sessionID, err)
		return
	}

	if !result.HasRoom {
		s.dispatcher.ToSession(sessionID, event.RoomInfo{Room: nil, Users: []event.RoomUser{}})
		return
	}

	s.dispatcher.ToSession(sessionID, event.RoomInfo{
		Room: &result.Room,
		Users: lo.Map(result.Members, func(member domain.Session, _ int) event.RoomUser {
			return event.RoomUser{
				Username: member.Identity.Username,
				UserID:   member.SessionID,
			}
		}),
		TotalMessages: result.TotalMessages,
	})
}

// CreateDM opens (or reopens) a direct conversation with another
// session. The target only gets an invitation for a brand new room;
// reopening an existing conversation stays silent on the other side.
func (s *ChatService) CreateDM(ctx context.Context, sessionID, targetSessionID string) {
	if targetSessionID == "" {
		s.dispatcher.ToSession(sessionID, event.Error{Message: "Target user ID is required"})
		return
	}

	result, err := s.directory.Create(ctx, sessionID, targetSessionID)
	if err != nil {
		s.fail(sessionID, err)
		return
	}

	s.dispatcher.ToSession(sessionID, event.DMCreated{
		DMRoomID: result.Room.ID,
		Participants: []event.DMParticipant{
			{UserID: result.Requester.SessionID, Username: result.Requester.Identity.Username},
			{UserID: result.Target.SessionID, Username: result.Target.Identity.Username},
		},
	})

	if !result.Existed {
		s.dispatcher.ToSession(targetSessionID, event.DMInvitation{
			DMRoomID: result.Room.ID,
			FromUser: event.DMParticipant{
				UserID:   result.Requester.SessionID,
				Username: result.Requester.Identity.Username,
			},
		})
	}
}

// JoinDM admits a recorded participant into a DM room and replays its
// recent history.
func (s *ChatService) JoinDM(ctx context.Context, sessionID, dmRoomID string) {
	if dmRoomID == "" {
		s.dispatcher.ToSession(sessionID, event.Error{Message: "DM room ID is required"})
		return
	}

	result, err := s.directory.Join(ctx, sessionID, dmRoomID)
	if err != nil {
		s.fail(sessionID, err)
		return
	}

	s.dispatcher.ToSession(sessionID, event.RoomMessages{
		Room:     result.Room,
		Messages: runtime.ToPayloads(result.Recent),
	})
}

// GetDMList answers with the session's conversations, most recent
// first.
func (s *ChatService) GetDMList(ctx context.Context, sessionID string) {
	summaries := s.directory.List(ctx, sessionID)

	dms := lo.Map(summaries, func(summary runtime.Summary, _ int) event.DMSummary {
		username := summary.Other.Identity.Username
		if !summary.OtherOnline {
			username = "Unknown"
		}
		return event.DMSummary{
			DMRoomID: summary.Room.ID,
			OtherUser: event.DMOtherUser{
				UserID:   summary.OtherSession,
				Username: username,
				Online:   summary.OtherOnline,
			},
			LastMessageAt: epochSeconds(summary.Room.LastMessageAt),
			UnreadCount:   summary.UnreadCount,
		}
	})

	s.dispatcher.ToSession(sessionID, event.DMList{DMs: dms})
}

// GetOnlineUsers answers with every other live session, sorted by
// username.
func (s *ChatService) GetOnlineUsers(sessionID string) {
	online := s.registry.Online(sessionID)

	users := lo.Map(online, func(session domain.Session, _ int) event.OnlineUser {
		return event.OnlineUser{
			UserID:   session.SessionID,
			Username: session.Identity.Username,
			LastSeen: epochSeconds(session.JoinedAt),
		}
	})

	s.dispatcher.ToSession(sessionID, event.OnlineUsers{Users: users})
}

// fail reports a request failure to its sender only.
func (s *ChatService) fail(sessionID string, err error) {
	s.dispatcher.ToSession(sessionID, event.Error{Message: errors.ClientMessage(err)})
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
