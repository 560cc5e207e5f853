// Package domain contains core concepts of the chat system.
// This file defines Message entities and related rules.
// Messages are immutable after creation: no edit or delete exists.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageMedia MessageType = "media"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// MediaItem references one uploaded attachment. The URL is an opaque handle
// into blob storage and only ever exists for a fully durable object, there is
// no partial or placeholder state.
type MediaItem struct {
	Type        MediaType
	URL         string
	DurationSec int // audio only
}

// Message is one immutable unit of chat content inside a Conversation.
// CreatedAt is assigned server side at persist time and is monotonic per
// conversation by write order, not globally across senders.
type Message struct {
	ID             uuid.UUID
	ConversationID string
	AuthorID       string
	Type           MessageType
	Text           string
	Media          []MediaItem
	CreatedAt      time.Time
}
