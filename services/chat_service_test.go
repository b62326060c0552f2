package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/projection"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingSink collects every consumed event in order.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *recordingSink) Named(name string) []event.Event {
	var out []event.Event
	for _, e := range s.Events() {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

func newChatService(t *testing.T) (IChatService, *runtime.Registry) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	store.EXPECT().
		Recent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil).
		AnyTimes()
	store.EXPECT().
		Stats(gomock.Any(), gomock.Any()).
		Return(domain.RoomStats{}, nil).
		AnyTimes()
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.Message) (string, error) {
			return "ref-" + m.ID.String(), nil
		}).
		AnyTimes()

	monitor := observability.NewMonitor()
	registry := runtime.NewRegistry()
	window := projection.NewWindow(1000)
	dispatcher := runtime.NewDispatcher(log, registry, monitor, 100*time.Millisecond)
	coordinator := runtime.NewCoordinator(log, registry, dispatcher, store, window, 50, time.Second)
	directory := runtime.NewDirectory(registry, coordinator)
	moderator, err := moderation.NewModerator([]string{"stupid"}, '*')
	require.NoError(t, err)
	pipeline := runtime.NewPipeline(log, registry, dispatcher, store, window, directory, moderator, monitor, time.Second)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	resolver := auth.NewResolver(tokens, true)

	service := NewChatService(log, resolver, registry, coordinator, directory, pipeline, dispatcher, monitor)
	return service, registry
}

func connect(t *testing.T, service IChatService, sessionID, username string) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	_, err := service.Connect(sessionID, auth.Credential{Token: "dev-token-" + username}, sink)
	require.NoError(t, err)
	return sink
}

func TestChatService_ConnectAcknowledges(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t)

	sink := connect(t, service, "s1", "alice")

	events := sink.Events()
	req.Len(events, 1)
	connected, ok := events[0].(event.Connected)
	req.True(ok)
	req.Equal("Connected successfully", connected.Message)
	req.Equal("alice", connected.Username)
	req.Equal("s1", connected.SessionID)
}

func TestChatService_ConnectRejectsBadToken(t *testing.T) {
	req := require.New(t)
	service, registry := newChatService(t)

	_, err := service.Connect("s1", auth.Credential{Token: "not-a-real-token"}, &recordingSink{})

	req.Error(err)
	req.Zero(registry.Count())
}

func TestChatService_MessageReachesEveryMemberWithSameID(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t)
	alice := connect(t, service, "s1", "alice")
	bob := connect(t, service, "s2", "bob")

	ctx := context.Background()
	service.JoinThread(ctx, "s1", "")
	service.JoinThread(ctx, "s2", "")

	// When alice says hi in the default room
	service.SendMessage(ctx, "s1", "hi")

	aliceMsgs := alice.Named("new_message")
	bobMsgs := bob.Named("new_message")
	req.Len(aliceMsgs, 1)
	req.Len(bobMsgs, 1)

	toAlice := aliceMsgs[0].(event.NewMessage)
	toBob := bobMsgs[0].(event.NewMessage)
	req.Equal(toAlice.ID, toBob.ID)
	req.Equal("hi", toAlice.Message)
	req.Equal(domain.DefaultRoom, toAlice.Room)
}

func TestChatService_SendWithoutRoomReportsToSenderOnly(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t)
	alice := connect(t, service, "s1", "alice")
	bob := connect(t, service, "s2", "bob")

	service.SendMessage(context.Background(), "s1", "hello?")

	failures := alice.Named("error")
	req.Len(failures, 1)
	req.Equal("Not in any room", failures[0].(event.Error).Message)
	req.Empty(bob.Named("error"))
}

func TestChatService_JoinThreadDefaultsToGeneral(t *testing.T) {
	req := require.New(t)
	service, registry := newChatService(t)
	alice := connect(t, service, "s1", "alice")

	service.JoinThread(context.Background(), "s1", "")

	joins := alice.Named("joined_thread")
	req.Len(joins, 1)
	joined := joins[0].(event.JoinedThread)
	req.Equal(domain.DefaultRoom, joined.Room)
	req.Equal("Joined general", joined.Message)
	req.NotNil(joined.RecentMessages)

	session, ok := registry.Lookup("s1")
	req.True(ok)
	req.Equal(domain.DefaultRoom, session.CurrentRoom)
}

func TestChatService_RoomInfoWithoutRoomIsNull(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t)
	alice := connect(t, service, "s1", "alice")

	service.GetRoomInfo(context.Background(), "s1")

	infos := alice.Named("room_info")
	req.Len(infos, 1)
	info := infos[0].(event.RoomInfo)
	req.Nil(info.Room)
	req.Empty(info.Users)
}

func TestChatService_DMFlow(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t)
	alice := connect(t, service, "s1", "alice")
	bob := connect(t, service, "s2", "bob")

	ctx := context.Background()
	service.JoinThread(ctx, "s1", "")
	service.JoinThread(ctx, "s2", "")

	// When alice opens a DM with bob
	service.CreateDM(ctx, "s1", "s2")

	created := alice.Named("dm_created")
	req.Len(created, 1)
	dmRoomID := created[0].(event.DMCreated).DMRoomID

	invitations := bob.Named("dm_invitation")
	req.Len(invitations, 1)
	invitation := invitations[0].(event.DMInvitation)
	req.Equal(dmRoomID, invitation.DMRoomID)
	req.Equal("alice", invitation.FromUser.Username)

	// Bob accepts and gets the history
	service.JoinDM(ctx, "s2", dmRoomID)
	histories := bob.Named("room_messages")
	req.Len(histories, 1)
	req.Equal(dmRoomID, histories[0].(event.RoomMessages).Room)

	// Messages now flow privately between the two
	service.SendMessage(ctx, "s1", "psst")
	req.Len(bob.Named("new_message"), 1)

	// Reopening the same DM does not re-invite bob
	service.CreateDM(ctx, "s1", "s2")
	req.Len(bob.Named("dm_invitation"), 1)

	// And it shows up in alice's listing
	service.GetDMList(ctx, "s1")
	lists := alice.Named("dm_list")
	req.Len(lists, 1)
	list := lists[0].(event.DMList)
	req.Len(list.DMs, 1)
	req.Equal(dmRoomID, list.DMs[0].DMRoomID)
	req.Equal("bob", list.DMs[0].OtherUser.Username)
	req.True(list.DMs[0].OtherUser.Online)
}

func TestChatService_OnlineUsersExcludesRequester(t *testing.T) {
	req := require.New(t)
	service, _ := newChatService(t)
	alice := connect(t, service, "s1", "alice")
	_ = connect(t, service, "s2", "bob")

	service.GetOnlineUsers("s1")

	listings := alice.Named("online_users")
	req.Len(listings, 1)
	users := listings[0].(event.OnlineUsers).Users
	req.Len(users, 1)
	req.Equal("bob", users[0].Username)
}
