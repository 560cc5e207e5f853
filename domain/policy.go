package domain

import (
	"chispa/errors"
	"fmt"
	"unicode/utf8"
)

// CheckText validates an outgoing text against the sender's tier.
// Pure lookup and comparison, no side effects.
func CheckText(t Tier, text string) error {
	limits := LimitsFor(t)
	if utf8.RuneCountInString(text) > limits.MaxTextLen {
		return &errors.PolicyError{
			Reason:      errors.ErrTextTooLong,
			UserMessage: fmt.Sprintf("El mensaje supera los %d caracteres permitidos en tu plan", limits.MaxTextLen),
		}
	}
	return nil
}

// CheckAttachments validates an outgoing media batch against the sender's tier.
// A batch exceeding either bound is rejected whole: there is no partial attach.
// Audio is absent here on purpose, recordings are clamped at capture time
// rather than rejected (see media.RecordingSession).
func CheckAttachments(t Tier, photos, videos int) error {
	limits := LimitsFor(t)
	if photos > limits.MaxPhotos {
		return &errors.PolicyError{
			Reason:      errors.ErrTooManyItems,
			UserMessage: fmt.Sprintf("Máximo %d foto(s) por mensaje en tu plan", limits.MaxPhotos),
		}
	}
	if videos > limits.MaxVideos {
		return &errors.PolicyError{
			Reason:      errors.ErrTooManyItems,
			UserMessage: fmt.Sprintf("Máximo %d video(s) por mensaje en tu plan", limits.MaxVideos),
		}
	}
	return nil
}
