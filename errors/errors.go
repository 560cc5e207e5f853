package errors

import "fmt"

var (
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrEmptyWords   = fmt.Errorf("no censored words have been found")
	ErrTextTooLong  = fmt.Errorf("text exceeds tier limit")
	ErrTooManyItems = fmt.Errorf("attachment count exceeds tier limit")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password is not complex enough")

	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrNotAMember           = fmt.Errorf("user is not a member of the conversation")

	ErrMediaTypeMismatch = fmt.Errorf("content does not match the declared media type")
	ErrCapturePermission = fmt.Errorf("capture device permission denied")
	ErrRecordingFinished = fmt.Errorf("recording session already finished")
	ErrEmptyMessage      = fmt.Errorf("message has neither text nor media")
	ErrUnknownMediaType  = fmt.Errorf("unknown media type")
)

// PolicyError is a tier quota rejection. It wraps one of the sentinel errors
// above and carries the message shown to the end user, already localized.
// Policy rejections happen before any network or storage call.
type PolicyError struct {
	Reason      error
	UserMessage string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%v: %s", e.Reason, e.UserMessage)
}

func (e *PolicyError) Unwrap() error {
	return e.Reason
}
