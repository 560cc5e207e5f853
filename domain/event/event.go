// Package event defines the domain events flowing through the fanout pipeline.
package event

import (
	"chispa/domain"
	"time"
)

// DomainEvent is anything the runtime can broadcast to subscribers and sinks.
// Events not scoped to a conversation return an empty ID and are only seen by
// permanent sinks.
type DomainEvent interface {
	ConversationID() string
}

// MessageSent fires after a message has been persisted and the conversation
// metadata refreshed. Subscribers of the conversation receive it live.
type MessageSent struct {
	Message domain.Message
	Lang    string // ISO 639-1 of the detected text language, empty for media
}

func (e MessageSent) ConversationID() string {
	return e.Message.ConversationID
}

// ConversationUpdated fires alongside MessageSent with the refreshed
// denormalized preview fields, so conversation lists can re-render without a
// round trip.
type ConversationUpdated struct {
	Conversation domain.Conversation
}

func (e ConversationUpdated) ConversationID() string {
	return e.Conversation.ID
}

// ProcessStats is a telemetry sample of the service's own process.
type ProcessStats struct {
	CPU        float64
	RAM        float32
	Goroutines int
	At         time.Time
}

func (e ProcessStats) ConversationID() string { return "" }
