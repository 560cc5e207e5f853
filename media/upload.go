// Package media adapts capture devices and raw attachments into durable,
// validated media items ready to hang off a message.
package media

import (
	"bytes"
	"chispa/domain"
	"chispa/errors"
	"chispa/storage"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Uploader validates an attachment's real content type and uploads it.
// A MediaItem is only ever produced after the blob store confirmed the
// object is durable; there is no placeholder state.
type Uploader struct {
	blobs storage.BlobStore
	log   *slog.Logger
}

func NewUploader(blobs storage.BlobStore, log *slog.Logger) *Uploader {
	return &Uploader{blobs: blobs, log: log}
}

// Upload sniffs the content, checks it against the declared kind and writes
// it to the blob store. Single-shot: any failure is terminal for this
// attachment, there is no chunked retry.
func (u *Uploader) Upload(senderID, conversationID string, attachment domain.Attachment) (domain.MediaItem, error) {
	data, err := io.ReadAll(attachment.Content)
	if err != nil {
		return domain.MediaItem{}, fmt.Errorf("reading attachment %q: %w", attachment.Filename, err)
	}

	detected := mimetype.Detect(data)
	if !matchesKind(detected.String(), attachment.Kind) {
		u.log.Warn("Attachment content does not match its declared kind",
			"filename", attachment.Filename,
			"declared", attachment.Kind,
			"detected", detected.String())
		return domain.MediaItem{}, errors.ErrMediaTypeMismatch
	}

	url, err := u.blobs.Put(senderID, conversationID, attachment.Filename, bytes.NewReader(data))
	if err != nil {
		return domain.MediaItem{}, fmt.Errorf("uploading %q: %w", attachment.Filename, err)
	}

	item := domain.MediaItem{Type: attachment.Kind, URL: url}
	if attachment.Kind == domain.MediaAudio {
		item.DurationSec = attachment.DurationSec
	}
	return item, nil
}

// matchesKind compares the sniffed MIME type with the declared media kind.
// The check is on the top-level type: "image/png" satisfies MediaImage.
func matchesKind(detected string, kind domain.MediaType) bool {
	switch kind {
	case domain.MediaImage:
		return strings.HasPrefix(detected, "image/")
	case domain.MediaVideo:
		return strings.HasPrefix(detected, "video/")
	case domain.MediaAudio:
		// Some audio containers (ogg, mp4 audio) sniff as application/*.
		return strings.HasPrefix(detected, "audio/") ||
			detected == "application/ogg" || detected == "application/octet-stream"
	default:
		return false
	}
}
