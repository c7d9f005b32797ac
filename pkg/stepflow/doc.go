// Package stepflow models strictly linear multi-step flows: an ordered list
// of named steps where the only legal move is from the current step to the
// next one.
//
// It exists for wizard-style server workflows (registration, onboarding)
// where the client resubmitting an old step, skipping ahead, or replaying a
// completed flow must each fail with a distinct, inspectable error.
//
// # Usage
//
//	flow, err := stepflow.New("signup",
//	    "initiated",
//	    "college_selected",
//	    "verification_pending",
//	    "completed",
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	next, err := flow.Advance("initiated", "initiated") // "college_selected", nil
//	switch {
//	case stepflow.IsOrderError(err):
//	    // client state is stale, re-sync
//	case stepflow.IsCompletedError(err):
//	    // idempotent echo, not a failure
//	}
//
// A Flow is immutable after construction and safe for concurrent use.
package stepflow
