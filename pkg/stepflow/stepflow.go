package stepflow

import "slices"

// Step identifies a single step in a flow.
type Step string

func (s Step) String() string {
	return string(s)
}

// Flow is an immutable, strictly ordered list of steps. The last step is
// terminal: once reached, no further advance is possible.
type Flow struct {
	name  string
	steps []Step
	index map[Step]int
}

// New builds a flow from an ordered step list. At least two steps are
// required (an initial and a terminal one) and names must be unique.
func New(name string, steps ...Step) (*Flow, error) {
	if len(steps) < 2 {
		return nil, ErrTooFewSteps
	}

	index := make(map[Step]int, len(steps))
	for i, s := range steps {
		if s == "" {
			return nil, ErrEmptyStep
		}
		if _, dup := index[s]; dup {
			return nil, ErrDuplicateStep
		}
		index[s] = i
	}

	return &Flow{
		name:  name,
		steps: slices.Clone(steps),
		index: index,
	}, nil
}

// MustNew is like New but panics on an invalid definition. Flow definitions
// are static program data, so a bad one is a programming error.
func MustNew(name string, steps ...Step) *Flow {
	f, err := New(name, steps...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Flow) Name() string {
	return f.name
}

// First returns the initial step of the flow.
func (f *Flow) First() Step {
	return f.steps[0]
}

// Terminal returns the final step of the flow.
func (f *Flow) Terminal() Step {
	return f.steps[len(f.steps)-1]
}

// Steps returns a copy of the ordered step list.
func (f *Flow) Steps() []Step {
	return slices.Clone(f.steps)
}

// Contains reports whether the step belongs to this flow.
func (f *Flow) Contains(s Step) bool {
	_, ok := f.index[s]
	return ok
}

// Next returns the step following s. The second return is false when s is
// terminal or unknown.
func (f *Flow) Next(s Step) (Step, bool) {
	i, ok := f.index[s]
	if !ok || i == len(f.steps)-1 {
		return "", false
	}
	return f.steps[i+1], true
}

// IsLast reports whether s is the step immediately before the terminal one,
// i.e. the step whose successful submission completes the flow.
func (f *Flow) IsLast(s Step) bool {
	i, ok := f.index[s]
	return ok && i == len(f.steps)-2
}

// Advance validates a submission for the given current step and returns the
// step the flow moves to. It rejects unknown steps, submissions for any step
// other than the current one, and submissions against a completed flow, each
// with its own error type.
func (f *Flow) Advance(current, submitted Step) (Step, error) {
	if current == f.Terminal() {
		return "", &CompletedError{Flow: f.name}
	}
	if !f.Contains(submitted) {
		return "", &UnknownStepError{Flow: f.name, Step: submitted}
	}
	if submitted != current {
		return "", &OrderError{Flow: f.name, Current: current, Submitted: submitted}
	}

	next, ok := f.Next(current)
	if !ok {
		// current verified non-terminal above, so this is unreachable for a
		// well-formed flow; treat a corrupt current step as unknown.
		return "", &UnknownStepError{Flow: f.name, Step: current}
	}
	return next, nil
}
