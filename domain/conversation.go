package domain

import "time"

// Preview strings shown in the conversation list when the last message
// carries media instead of text.
const (
	PreviewPhoto = "📷 Foto"
	PreviewVideo = "🎥 Video"
	PreviewAudio = "🎤 Audio"
)

const previewMaxRunes = 60

// Conversation is a two-party thread. LastMessage, LastSenderID and UpdatedAt
// are denormalized from the message stream and refreshed on every send so the
// conversation list can render without fetching messages.
type Conversation struct {
	ID           string
	Members      [2]string
	LastMessage  string
	LastSenderID string
	UpdatedAt    time.Time
}

// HasMember reports whether userID participates in the conversation.
func (c Conversation) HasMember(userID string) bool {
	return c.Members[0] == userID || c.Members[1] == userID
}

// Peer returns the other participant.
func (c Conversation) Peer(userID string) string {
	if c.Members[0] == userID {
		return c.Members[1]
	}
	return c.Members[0]
}

// Preview derives the denormalized LastMessage text for a message.
// Text is truncated to a fixed rune budget, media collapses to a fixed
// per-kind label.
func Preview(m Message) string {
	if m.Type == MessageText || len(m.Media) == 0 {
		runes := []rune(m.Text)
		if len(runes) > previewMaxRunes {
			return string(runes[:previewMaxRunes])
		}
		return m.Text
	}
	switch m.Media[0].Type {
	case MediaVideo:
		return PreviewVideo
	case MediaAudio:
		return PreviewAudio
	default:
		return PreviewPhoto
	}
}
