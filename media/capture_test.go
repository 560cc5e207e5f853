package media

import (
	"chispa/domain"
	"chispa/errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDevice mimics a microphone handle. It records how often it was
// acquired and released so tests can assert the scoped-release discipline.
type fakeDevice struct {
	mu        sync.Mutex
	startErr  error
	started   int
	stopped   int
	recording bool
	data      []byte
}

func (d *fakeDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.started++
	d.recording = true
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped++
	d.recording = false
	return nil
}

func (d *fakeDevice) Clip() (Clip, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.recording {
		return Clip{}, fmt.Errorf("clip requested while still recording")
	}
	return Clip{Filename: "voice.wav", Data: d.data}, nil
}

func (d *fakeDevice) releases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

func shortLimits(maxAudioSec int) domain.TierLimits {
	limits := domain.LimitsFor(domain.TierBasic)
	limits.MaxAudioSec = maxAudioSec
	return limits
}

func Test_Recording_Auto_Stops_At_Tier_Boundary(t *testing.T) {
	req := require.New(t)
	device := &fakeDevice{data: []byte("pcm")}

	// 0 seconds is not usable in a test, clamp at the smallest unit the
	// limits type can express and wait past it.
	limits := domain.TierLimits{MaxAudioSec: 1}
	session, err := StartRecording(device, limits, slog.Default())
	req.NoError(err)

	select {
	case <-session.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("recording never auto-stopped")
	}

	clip, err := session.Stop()
	req.NoError(err)
	req.Equal("voice.wav", clip.Filename)
	req.LessOrEqual(clip.Duration, limits.MaxAudioDuration())
	req.Equal(1, device.releases(), "device must be released exactly once")
}

func Test_Manual_Stop_Before_Boundary(t *testing.T) {
	req := require.New(t)
	device := &fakeDevice{data: []byte("pcm")}

	session, err := StartRecording(device, shortLimits(30), slog.Default())
	req.NoError(err)

	clip, err := session.Stop()
	req.NoError(err)
	req.LessOrEqual(clip.Duration, 30*time.Second)
	req.Equal(1, device.releases())

	// A second stop returns the same finalized clip, the device stays released.
	again, err := session.Stop()
	req.NoError(err)
	req.Equal(clip, again)
	req.Equal(1, device.releases())
}

func Test_Permission_Denied_Creates_No_Session(t *testing.T) {
	req := require.New(t)
	device := &fakeDevice{startErr: fmt.Errorf("NotAllowedError")}

	session, err := StartRecording(device, shortLimits(30), slog.Default())
	req.Nil(session)
	req.ErrorIs(err, errors.ErrCapturePermission)
	req.Zero(device.releases(), "a device that was never acquired must not be released")
}

func Test_Clip_Attachment_Carries_Duration(t *testing.T) {
	req := require.New(t)

	clip := Clip{Filename: "voice.wav", Data: []byte("pcm"), Duration: 12400 * time.Millisecond}
	attachment := clip.Attachment()
	req.Equal(domain.MediaAudio, attachment.Kind)
	req.Equal(12, attachment.DurationSec)
	req.NotNil(attachment.Content)
}
