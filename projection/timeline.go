// Package projection maintains in-memory read models derived from the event
// stream. Projections are rebuilt empty on restart, BadgerDB remains the
// source of truth.
package projection

import (
	"chispa/domain"
	"chispa/domain/event"
	"context"
	"sync"
)

// Timeline keeps the most recent messages of each conversation in memory so
// a freshly joined subscriber can render instantly, before the paginated
// snapshot arrives. It consumes the fanout as a permanent sink.
type Timeline struct {
	mu       sync.RWMutex
	capacity int
	recent   map[string][]domain.Message
}

func NewTimeline(capacity int) *Timeline {
	return &Timeline{capacity: capacity, recent: make(map[string][]domain.Message)}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	sent, ok := e.(event.MessageSent)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	messages := append(t.recent[sent.Message.ConversationID], sent.Message)
	if len(messages) > t.capacity {
		messages = messages[len(messages)-t.capacity:]
	}
	t.recent[sent.Message.ConversationID] = messages
	return nil
}

// Recent returns a copy of the conversation's tail, oldest first.
func (t *Timeline) Recent(conversationID string) []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Message(nil), t.recent[conversationID]...)
}
