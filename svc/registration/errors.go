package registration

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// Session errors.
	ErrSessionNotFound  = errors.New("registration session not found")
	ErrSessionExpired   = errors.New("registration session expired")
	ErrVersionConflict  = errors.New("registration session version conflict")
	ErrStepMismatch     = errors.New("registration session step mismatch")
	ErrAlreadyCompleted = errors.New("registration already completed")

	// Verification code errors.
	ErrCodeNotFound    = errors.New("verification code not found")
	ErrCodeInvalid     = errors.New("verification code invalid")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// Finalization errors.
	ErrDuplicateAccount = errors.New("account with this email already exists")
	ErrCollegeNotFound  = errors.New("college not found")

	// Service wiring errors.
	ErrMissingDependency = errors.New("missing service dependency")
	ErrUnsupportedStep   = errors.New("step not part of this flow")
	ErrFlowMismatch      = errors.New("session belongs to a different flow")
)

// CooldownError reports a code reissue attempted before the per-channel
// cooldown elapsed. RetryAfter is the remaining wait, rounded up to a
// whole second so it can go straight into a Retry-After header.
type CooldownError struct {
	Channel    Channel
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("code for channel %q was issued recently, retry in %s", e.Channel, e.RetryAfter)
}

// IsCooldownError reports whether err is a *CooldownError.
func IsCooldownError(err error) bool {
	var ce *CooldownError
	return errors.As(err, &ce)
}

// VerificationError carries per-field failures from a verification
// submission. A partially correct submission (one channel verified, the
// other rejected) returns this error while the verified channel stays
// consumed, so only the failing code needs to be resubmitted.
type VerificationError struct {
	Fields map[string]string
}

func (e *VerificationError) Error() string {
	if len(e.Fields) == 0 {
		return "verification failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "verification failed: " + strings.Join(fields, ", ")
}

// IsVerificationError reports whether err is a *VerificationError.
func IsVerificationError(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}

// NotifyError reports a code delivery failure on a specific channel. The
// session keeps whatever state it reached; the client recovers through the
// resend endpoint once the transport is healthy again.
type NotifyError struct {
	Channel Channel
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("failed to deliver verification code over %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// IsNotifyError reports whether err is a *NotifyError.
func IsNotifyError(err error) bool {
	var ne *NotifyError
	return errors.As(err, &ne)
}
