//go:generate go run go.uber.org/mock/mockgen -source=capture.go -destination=../mocks/mock_capture_device.go -package=mocks
package media

import (
	"bytes"
	"chispa/domain"
	"chispa/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Clip is a finalized audio capture. It only exists after the device has
// been stopped and its buffer flushed.
type Clip struct {
	Filename string
	Data     []byte
	Duration time.Duration
}

// CaptureDevice abstracts the platform microphone handle.
// Start acquires the device and may fail with a permission error, in which
// case the device was never held. Stop releases every track and must be safe
// to call more than once. Clip is only valid after Stop.
type CaptureDevice interface {
	Start() error
	Stop() error
	Clip() (Clip, error)
}

// RecordingSession holds a capture device exclusively for the duration of one
// audio recording and guarantees its release on every exit path: the timer
// boundary, a manual stop, or an error. The tier's audio limit is enforced
// here as a clamp, the recording is truncated at the boundary rather than
// rejected. This is an advisory client-side cutoff, not a security boundary.
type RecordingSession struct {
	mu        sync.Mutex
	device    CaptureDevice
	log       *slog.Logger
	timer     *time.Timer
	startedAt time.Time
	limit     time.Duration
	finished  bool
	clip      Clip
	stopErr   error
	done      chan struct{}
}

// StartRecording acquires the device and arms the auto-stop timer at the
// tier's MaxAudioSec boundary. If the device cannot be acquired (permission
// denied, hardware busy) no session exists and nothing needs releasing.
func StartRecording(device CaptureDevice, limits domain.TierLimits, log *slog.Logger) (*RecordingSession, error) {
	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCapturePermission, err)
	}

	s := &RecordingSession{
		device:    device,
		log:       log,
		startedAt: time.Now(),
		limit:     limits.MaxAudioDuration(),
		done:      make(chan struct{}),
	}
	s.timer = time.AfterFunc(s.limit, func() {
		s.log.Debug("Recording reached the tier boundary, auto-stopping",
			"limit", s.limit)
		_, _ = s.finalize()
	})
	return s, nil
}

// Stop ends the recording early and returns the finalized clip.
// Calling Stop after the auto-stop boundary returns the already finalized
// clip instead of an error, the caller cannot lose the race against the
// timer.
func (s *RecordingSession) Stop() (Clip, error) {
	return s.finalize()
}

// Done is closed once the session has been finalized, whichever path got
// there first.
func (s *RecordingSession) Done() <-chan struct{} {
	return s.done
}

// finalize stops the timer, releases the device and fixes the clip duration.
// It runs exactly once; concurrent callers observe the same result.
func (s *RecordingSession) finalize() (Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return s.clip, s.stopErr
	}
	s.finished = true
	s.timer.Stop()
	defer close(s.done)

	elapsed := time.Since(s.startedAt)
	if elapsed > s.limit {
		elapsed = s.limit
	}

	// Release the device whatever else happens: leaving the microphone
	// locked would block every later recording on this client.
	stopErr := s.device.Stop()

	clip, clipErr := s.device.Clip()
	if stopErr != nil {
		s.stopErr = stopErr
		return Clip{}, stopErr
	}
	if clipErr != nil {
		s.stopErr = clipErr
		return Clip{}, clipErr
	}

	clip.Duration = min(clip.Duration, elapsed)
	if clip.Duration == 0 {
		clip.Duration = elapsed
	}
	s.clip = clip
	return s.clip, nil
}

// Attachment converts a finalized clip into a sendable attachment.
func (c Clip) Attachment() domain.Attachment {
	seconds := int(c.Duration.Round(time.Second) / time.Second)
	return domain.Attachment{
		Kind:        domain.MediaAudio,
		Filename:    c.Filename,
		Content:     bytes.NewReader(c.Data),
		DurationSec: seconds,
	}
}
