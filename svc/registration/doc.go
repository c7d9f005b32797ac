// Package registration implements a stateless multi-step signup pipeline:
// identity capture, college selection, out-of-band verification over email
// and SMS, and an atomic, idempotent account commit.
//
// The server holds no per-client affinity between steps. Continuity comes
// from a signed temp token (pkg/temptoken) carrying the session id, the
// current step, and the session's version counter. Every mutation goes
// through the SessionStore's compare-and-swap operations, so two concurrent
// submissions holding the same token produce exactly one winner and one
// typed ErrVersionConflict.
//
// Two flows run on the same machinery: the student flow
// (initiated → college_selected → verification_pending → completed) and the
// college-admin flow, which inserts a profile step and a skippable
// token-grant configuration step before verification.
package registration
