package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/projection"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pipeline carries a chat message from reception to delivery:
// validated, masked, persisted, dispatched. Persistence is best effort:
// a failing store degrades to the in-memory window and never blocks the
// broadcast.
type Pipeline struct {
	log          *slog.Logger
	registry     *Registry
	dispatcher   *Dispatcher
	store        contract.MessageStore
	window       *projection.Window
	directory    *Directory
	moderator    *moderation.Moderator
	monitor      *observability.Monitor
	storeTimeout time.Duration
}

func NewPipeline(log *slog.Logger, registry *Registry, dispatcher *Dispatcher,
	store contract.MessageStore, window *projection.Window, directory *Directory,
	moderator *moderation.Moderator, monitor *observability.Monitor,
	storeTimeout time.Duration) *Pipeline {
	return &Pipeline{
		log:          log,
		registry:     registry,
		dispatcher:   dispatcher,
		store:        store,
		window:       window,
		directory:    directory,
		moderator:    moderator,
		monitor:      monitor,
		storeTimeout: storeTimeout,
	}
}

// Send validates and relays one message from the given session. On
// validation failure nothing is broadcast and the error is reported to
// the caller only.
func (p *Pipeline) Send(ctx context.Context, sessionID, text string) (domain.Message, error) {
	session, ok := p.registry.Lookup(sessionID)
	if !ok {
		return domain.Message{}, errors.ErrUnknownSession
	}
	if !session.InRoom() {
		return domain.Message{}, errors.ErrNotInRoom
	}

	content := strings.TrimSpace(text)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	if p.moderator != nil {
		content = p.moderator.Mask(content)
	}

	message := domain.Message{
		ID:            uuid.New(),
		Room:          session.CurrentRoom,
		SenderSession: session.SessionID,
		SenderID:      session.Identity.UserID,
		Username:      session.Identity.Username,
		Content:       content,
		CreatedAt:     time.Now().UTC(),
	}

	message.StoredRef = p.persist(ctx, message)
	p.directory.Touch(message.Room, message.CreatedAt)

	p.dispatcher.ToRoom(message.Room, event.NewMessage{MessagePayload: ToPayload(message)}, "")
	p.monitor.IncrMessagesRelayed()
	return message, nil
}

// persist hands the message to the store under a bounded wait; on
// failure it appends to the window so history survives a store outage.
// The returned ref is empty on the fallback path.
func (p *Pipeline) persist(ctx context.Context, m domain.Message) string {
	storeCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	ref, err := p.store.Append(storeCtx, m)
	if err != nil {
		p.log.Warn("Message store unavailable, keeping message in window",
			"room", m.Room, "error", err)
		p.window.Append(m)
		p.monitor.IncrMessagesFallback()
		return ""
	}
	return ref
}
