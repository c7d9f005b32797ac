package stepflow

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewSteps indicates a flow definition with fewer than two steps.
	ErrTooFewSteps = errors.New("stepflow: a flow needs at least two steps")

	// ErrDuplicateStep indicates the same step name appears twice in a flow.
	ErrDuplicateStep = errors.New("stepflow: duplicate step in flow")

	// ErrEmptyStep indicates an empty step name in a flow definition.
	ErrEmptyStep = errors.New("stepflow: empty step name")
)

// UnknownStepError indicates a step that is not part of the flow at all.
type UnknownStepError struct {
	Flow string
	Step Step
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("step %q is not part of flow %q", e.Step, e.Flow)
}

// OrderError indicates a submission for a step other than the current one.
// The client's view of the flow is stale and must be re-synced.
type OrderError struct {
	Flow      string
	Current   Step
	Submitted Step
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("flow %q is at step %q, got submission for %q", e.Flow, e.Current, e.Submitted)
}

// CompletedError indicates a submission against a flow that already reached
// its terminal step. Callers usually treat this as an idempotent no-op.
type CompletedError struct {
	Flow string
}

func (e *CompletedError) Error() string {
	return fmt.Sprintf("flow %q is already completed", e.Flow)
}

func IsUnknownStepError(err error) bool {
	var e *UnknownStepError
	return errors.As(err, &e)
}

func IsOrderError(err error) bool {
	var e *OrderError
	return errors.As(err, &e)
}

func IsCompletedError(err error) bool {
	var e *CompletedError
	return errors.As(err, &e)
}
