// Package runtime wires the send pipeline: policy checks, moderation, media
// upload, persistence and the event fanout feeding live subscribers.
package runtime

import (
	"chispa/contract"
	"chispa/domain"
	"chispa/domain/event"
	chisperrors "chispa/errors"
	"chispa/media"
	"chispa/moderation"
	"chispa/repositories"
	"chispa/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sendState labels the phases of one send action for debug logging.
// A send either reaches Idle again with the message persisted, or fails and
// the whole action is abandoned: no partial message is ever visible.
type sendState string

const (
	stateIdle       sendState = "Idle"
	stateValidating sendState = "Validating"
	stateUploading  sendState = "Uploading"
	statePersisting sendState = "Persisting"
	stateMetaUpdate sendState = "UpdatingConversationMeta"
)

// Config tunes the runtime pipeline.
type Config struct {
	EventBuffer       int
	SinkTimeout       time.Duration
	RestartInterval   time.Duration
	TelemetryInterval time.Duration // zero disables the telemetry worker
}

// Orchestrator coordinates one send action end to end and owns the supervised
// background workers. Sends of the same author are serialized through a
// per-sender lock, which preserves the author's submission order all the way
// to the persisted stream.
type Orchestrator struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	moderator     *moderation.Moderator
	uploader      *media.Uploader
	registry      contract.IRegistry
	supervisor    contract.ISupervisor
	sinks         []contract.EventSink
	cfg           Config

	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.DomainEvent

	mu          sync.Mutex
	senderLocks map[string]*sync.Mutex
}

func NewOrchestrator(
	log *slog.Logger,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	uploader *media.Uploader,
	registry contract.IRegistry,
	sinks []contract.EventSink,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		log:             log,
		conversations:   conversations,
		messages:        messages,
		moderator:       moderator,
		uploader:        uploader,
		registry:        registry,
		supervisor:      workers.NewSupervisor(log, cfg.RestartInterval),
		sinks:           sinks,
		cfg:             cfg,
		domainEvents:    make(chan event.DomainEvent, cfg.EventBuffer),
		telemetryEvents: make(chan event.DomainEvent, cfg.EventBuffer),
		senderLocks:     make(map[string]*sync.Mutex),
	}
}

// Start launches the fanout and telemetry workers under supervision.
// Sends work without Start, events are then dropped instead of delivered.
func (o *Orchestrator) Start(ctx context.Context) error {
	fanout := workers.NewEventFanout(o.log, o.registry,
		o.domainEvents, o.telemetryEvents, o.sinks, o.cfg.SinkTimeout)
	o.supervisor.Add(fanout)

	if o.cfg.TelemetryInterval > 0 {
		telemetry, err := workers.NewTelemetry(o.log, o.domainEvents, o.cfg.TelemetryInterval)
		if err != nil {
			return fmt.Errorf("starting telemetry: %w", err)
		}
		o.supervisor.Add(telemetry)
	}

	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the workers and waits for them.
func (o *Orchestrator) Stop() {
	o.supervisor.Stop()
}

// TelemetryEvents exposes the observability stream consumed by the monitor.
func (o *Orchestrator) TelemetryEvents() <-chan event.DomainEvent {
	return o.telemetryEvents
}

// SendText runs one text send action: Idle -> Validating -> Persisting ->
// UpdatingConversationMeta -> Idle. The text is censored before it is
// persisted, messages are immutable afterwards.
func (o *Orchestrator) SendText(cmd domain.SendTextCommand) (domain.Message, error) {
	lock := o.senderLock(cmd.SenderID)
	lock.Lock()
	defer lock.Unlock()

	state := o.transition(cmd.SenderID, stateIdle, stateValidating)
	conversation, err := o.memberConversation(cmd.ConversationID, cmd.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(cmd.Text) == "" {
		return domain.Message{}, chisperrors.ErrEmptyMessage
	}
	if err = domain.CheckText(cmd.Tier, cmd.Text); err != nil {
		return domain.Message{}, err
	}

	censored, found := o.moderator.Censor(cmd.Text)
	lang := moderation.DetectLang(cmd.Text)
	if len(found) > 0 {
		o.log.Info("Forbidden words censored",
			"sender_id", cmd.SenderID, "lang", lang, "count", len(found))
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		AuthorID:       cmd.SenderID,
		Type:           domain.MessageText,
		Text:           censored,
		CreatedAt:      time.Now().UTC(),
	}
	state = o.transition(cmd.SenderID, state, statePersisting)
	return o.finishSend(state, message, conversation, lang)
}

// SendMedia runs one media send action, with the extra Uploading phase before
// persistence. The attachment batch is all-or-nothing: the message references
// every blob or none is ever referenced.
func (o *Orchestrator) SendMedia(cmd domain.SendMediaCommand) (domain.Message, error) {
	lock := o.senderLock(cmd.SenderID)
	lock.Lock()
	defer lock.Unlock()

	state := o.transition(cmd.SenderID, stateIdle, stateValidating)
	conversation, err := o.memberConversation(cmd.ConversationID, cmd.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	if len(cmd.Attachments) == 0 {
		return domain.Message{}, chisperrors.ErrEmptyMessage
	}
	for _, attachment := range cmd.Attachments {
		switch attachment.Kind {
		case domain.MediaImage, domain.MediaVideo, domain.MediaAudio:
		default:
			return domain.Message{}, chisperrors.ErrUnknownMediaType
		}
	}
	photos, videos := cmd.CountByKind()
	if err = domain.CheckAttachments(cmd.Tier, photos, videos); err != nil {
		return domain.Message{}, err
	}

	state = o.transition(cmd.SenderID, state, stateUploading)
	items := make([]domain.MediaItem, 0, len(cmd.Attachments))
	for _, attachment := range cmd.Attachments {
		item, err := o.uploader.Upload(cmd.SenderID, cmd.ConversationID, attachment)
		if err != nil {
			// Siblings uploaded before the failure stay in blob storage as
			// orphans: nothing references them, nothing cleans them either.
			o.log.Warn("Media send abandoned during upload",
				"sender_id", cmd.SenderID, "filename", attachment.Filename, "error", err)
			return domain.Message{}, err
		}
		items = append(items, item)
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		AuthorID:       cmd.SenderID,
		Type:           domain.MessageMedia,
		Media:          items,
		CreatedAt:      time.Now().UTC(),
	}
	state = o.transition(cmd.SenderID, state, statePersisting)
	return o.finishSend(state, message, conversation, "")
}

// finishSend persists the message, refreshes the conversation metadata and
// emits the resulting events. CreatedAt was assigned before this call, under
// the sender lock, so per-sender stream order matches submission order.
func (o *Orchestrator) finishSend(state sendState, message domain.Message,
	conversation domain.Conversation, lang string) (domain.Message, error) {
	if err := o.messages.StoreMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	state = o.transition(message.AuthorID, state, stateMetaUpdate)
	preview := domain.Preview(message)
	if err := o.conversations.TouchConversation(
		message.ConversationID, preview, message.AuthorID, message.CreatedAt); err != nil {
		return domain.Message{}, fmt.Errorf("updating conversation metadata: %w", err)
	}

	conversation.LastMessage = preview
	conversation.LastSenderID = message.AuthorID
	conversation.UpdatedAt = message.CreatedAt

	o.publish(event.MessageSent{Message: message, Lang: lang})
	o.publish(event.ConversationUpdated{Conversation: conversation})
	o.transition(message.AuthorID, state, stateIdle)
	return message, nil
}

// GetMessages pages through a conversation's stream, oldest first.
// Only members may read.
func (o *Orchestrator) GetMessages(requesterID, conversationID string, cursor *string) ([]domain.Message, *string, error) {
	if _, err := o.memberConversation(conversationID, requesterID); err != nil {
		return nil, nil, err
	}
	return o.messages.GetMessages(conversationID, cursor)
}

// ListConversations returns the requester's conversations, most recently
// updated first.
func (o *Orchestrator) ListConversations(userID string) ([]domain.Conversation, error) {
	return o.conversations.ListByMember(userID)
}

// EnsureConversation opens (or finds) the thread between two users.
func (o *Orchestrator) EnsureConversation(a, b string) (domain.Conversation, error) {
	return o.conversations.EnsureConversation(a, b)
}

// JoinConversation attaches a member's live sink to a conversation. The
// caller is expected to deliver a snapshot through GetMessages first, then
// rely on events for deltas.
func (o *Orchestrator) JoinConversation(participantID, conversationID string, sink contract.EventSink) error {
	if _, err := o.memberConversation(conversationID, participantID); err != nil {
		return err
	}
	o.registry.Subscribe(participantID, conversationID, sink)
	return nil
}

func (o *Orchestrator) LeaveConversation(participantID, conversationID string) {
	o.registry.Unsubscribe(participantID, conversationID)
}

// Conversation returns the conversation, or ErrNotAMember when userID does
// not participate in it.
func (o *Orchestrator) Conversation(conversationID, userID string) (domain.Conversation, error) {
	return o.memberConversation(conversationID, userID)
}

func (o *Orchestrator) memberConversation(conversationID, userID string) (domain.Conversation, error) {
	conversation, err := o.conversations.Get(conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasMember(userID) {
		return domain.Conversation{}, chisperrors.ErrNotAMember
	}
	return conversation, nil
}

func (o *Orchestrator) senderLock(senderID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.senderLocks[senderID]
	if !ok {
		lock = &sync.Mutex{}
		o.senderLocks[senderID] = lock
	}
	return lock
}

func (o *Orchestrator) transition(senderID string, from, to sendState) sendState {
	o.log.Debug("Send transition", "sender_id", senderID, "from", string(from), "to", string(to))
	return to
}

// publish hands an event to the fanout without ever blocking a send.
func (o *Orchestrator) publish(e event.DomainEvent) {
	select {
	case o.domainEvents <- e:
	default:
		o.log.Warn("Domain event dropped, fanout not keeping up")
	}
}
