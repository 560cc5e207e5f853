package workers

import (
	"chispa/contract"
	"chispa/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanout broadcasts domain events to in-process consumers: the live
// subscriber sinks of the event's conversation plus the permanent sinks
// (search index, timeline, telemetry).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering across senders, durability, or retries. EventFanout is not a
// message broker: persistence happened before the event was emitted.
type EventFanout struct {
	log             *slog.Logger
	registry        contract.IRegistry
	domainEvents    chan event.DomainEvent
	telemetryEvents chan event.DomainEvent
	sinks           []contract.EventSink
	sinkTimeout     time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	domainEvents, telemetryEvents chan event.DomainEvent,
	sinks []contract.EventSink, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:             log,
		registry:        registry,
		domainEvents:    domainEvents,
		telemetryEvents: telemetryEvents,
		sinks:           sinks,
		sinkTimeout:     sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvents:
			w.Fanout(ctx, evt)
			select {
			case w.telemetryEvents <- evt:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one event to every permanent sink and to the live
// subscribers of its conversation. Each sink gets a bounded window so one
// slow consumer cannot stall the pipeline.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	targets := append([]contract.EventSink(nil), w.sinks...)
	if conversationID := evt.ConversationID(); conversationID != "" {
		targets = append(targets, w.registry.GetSinksForConversation(conversationID)...)
	}

	for _, sink := range targets {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink rejected event", "error", err)
		}
		cancel()
	}
}
