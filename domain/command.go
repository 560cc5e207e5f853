package domain

import "io"

// Attachment is a media item before upload: raw content captured from the
// client plus the declared kind. The uploader turns it into a MediaItem once
// the blob is durable.
type Attachment struct {
	Kind        MediaType
	Filename    string
	Content     io.Reader
	DurationSec int // audio only, measured by the recording session
}

// SendTextCommand is one logical user action sending plain text.
type SendTextCommand struct {
	ConversationID string
	SenderID       string
	Tier           Tier
	Text           string
}

// SendMediaCommand is one logical user action sending a media batch.
// The batch is persisted as exactly one message or not at all.
type SendMediaCommand struct {
	ConversationID string
	SenderID       string
	Tier           Tier
	Attachments    []Attachment
}

// CountByKind tallies photos and videos for the policy check.
func (c SendMediaCommand) CountByKind() (photos, videos int) {
	for _, a := range c.Attachments {
		switch a.Kind {
		case MediaImage:
			photos++
		case MediaVideo:
			videos++
		}
	}
	return photos, videos
}
