package registration

import (
	"context"

	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
)

// SessionStore persists registration sessions. ApplyStep and Complete are
// compare-and-swap operations: they succeed for exactly one caller per
// (version, step) pair and fail with ErrVersionConflict for everyone else.
//
// All methods return ErrSessionNotFound for unknown ids and
// ErrSessionExpired for sessions past their deadline.
type SessionStore interface {
	// Create stores a new session. The session's ExpiresAt bounds its
	// lifetime in every backend.
	Create(ctx context.Context, session *Session) error

	// Get returns a copy of the session.
	Get(ctx context.Context, id string) (*Session, error)

	// ApplyStep atomically advances the session from expectedStep to next,
	// folding patch into the collected data and incrementing the version.
	// It fails with ErrVersionConflict when expectedVersion is stale and
	// with ErrStepMismatch when the stored step differs from expectedStep.
	ApplyStep(ctx context.Context, id string, expectedVersion int64, expectedStep stepflow.Step, patch map[string]string, next stepflow.Step) (*Session, error)

	// MarkVerified records a successful code consumption for a channel.
	// It does not touch the step or the version, so a partially verified
	// submission leaves the client's token valid.
	MarkVerified(ctx context.Context, id string, channel Channel) (*Session, error)

	// Complete atomically moves the session to its terminal step and caches
	// the finalization result for idempotent replays. Same conflict
	// semantics as ApplyStep.
	Complete(ctx context.Context, id string, expectedVersion int64, terminal stepflow.Step, result *FinalizeResult) (*Session, error)

	// Delete removes the session. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
}

// CodeStore persists verification codes, one active code per
// (session, channel) pair. Saving a new code replaces the prior one.
type CodeStore interface {
	// Save stores the code, replacing any existing code for the same
	// session and channel.
	Save(ctx context.Context, code *Code) error

	// Get returns the active code or ErrCodeNotFound.
	Get(ctx context.Context, sessionID string, channel Channel) (*Code, error)

	// Update persists attempt counter and consumption changes.
	Update(ctx context.Context, code *Code) error

	// DeleteBySession removes all codes for a session.
	DeleteBySession(ctx context.Context, sessionID string) error
}
