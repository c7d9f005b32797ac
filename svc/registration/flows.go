package registration

import "github.com/dmitrymomot/enrollkit/pkg/stepflow"

// Steps shared by both flows. Each name describes the state reached after
// the corresponding submission; verification_pending additionally means
// codes have been issued on both channels.
const (
	StepInitiated           stepflow.Step = "initiated"
	StepCollegeSelected     stepflow.Step = "college_selected"
	StepProfileCompleted    stepflow.Step = "profile_completed"
	StepTokenConfigured     stepflow.Step = "token_configured"
	StepVerificationPending stepflow.Step = "verification_pending"
	StepCompleted           stepflow.Step = "completed"
)

// Role values assigned at finalization.
const (
	RoleStudent      = "student"
	RoleCollegeAdmin = "college_admin"
)

// StudentFlow is the default signup path.
var StudentFlow = stepflow.MustNew("student_signup",
	StepInitiated,
	StepCollegeSelected,
	StepVerificationPending,
	StepCompleted,
)

// AdminFlow extends the student path with a staff profile step and a
// skippable token-grant configuration step before verification.
var AdminFlow = stepflow.MustNew("admin_signup",
	StepInitiated,
	StepCollegeSelected,
	StepProfileCompleted,
	StepTokenConfigured,
	StepVerificationPending,
	StepCompleted,
)

// FlowByName resolves a stored flow name back to its machine.
func FlowByName(name string) (*stepflow.Flow, bool) {
	switch name {
	case StudentFlow.Name():
		return StudentFlow, true
	case AdminFlow.Name():
		return AdminFlow, true
	default:
		return nil, false
	}
}
