package stepflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
)

func newSignupFlow(t *testing.T) *stepflow.Flow {
	t.Helper()
	f, err := stepflow.New("signup", "initiated", "college_selected", "verification_pending", "completed")
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		steps   []stepflow.Step
		wantErr error
	}{
		{"valid", []stepflow.Step{"a", "b"}, nil},
		{"too few", []stepflow.Step{"a"}, stepflow.ErrTooFewSteps},
		{"none", nil, stepflow.ErrTooFewSteps},
		{"duplicate", []stepflow.Step{"a", "b", "a"}, stepflow.ErrDuplicateStep},
		{"empty name", []stepflow.Step{"a", ""}, stepflow.ErrEmptyStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := stepflow.New("test", tt.steps...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFlow_Accessors(t *testing.T) {
	t.Parallel()

	f := newSignupFlow(t)

	assert.Equal(t, "signup", f.Name())
	assert.Equal(t, stepflow.Step("initiated"), f.First())
	assert.Equal(t, stepflow.Step("completed"), f.Terminal())
	assert.True(t, f.Contains("college_selected"))
	assert.False(t, f.Contains("profile_pending"))
	assert.True(t, f.IsLast("verification_pending"))
	assert.False(t, f.IsLast("initiated"))

	next, ok := f.Next("initiated")
	assert.True(t, ok)
	assert.Equal(t, stepflow.Step("college_selected"), next)

	_, ok = f.Next("completed")
	assert.False(t, ok)
	_, ok = f.Next("unknown")
	assert.False(t, ok)
}

func TestFlow_Advance(t *testing.T) {
	t.Parallel()

	f := newSignupFlow(t)

	t.Run("walks the full flow in order", func(t *testing.T) {
		t.Parallel()

		current := f.First()
		for current != f.Terminal() {
			next, err := f.Advance(current, current)
			require.NoError(t, err)
			current = next
		}
		assert.Equal(t, f.Terminal(), current)
	})

	t.Run("rejects skipping ahead", func(t *testing.T) {
		t.Parallel()

		_, err := f.Advance("initiated", "verification_pending")
		require.Error(t, err)
		assert.True(t, stepflow.IsOrderError(err))
	})

	t.Run("rejects resubmitting an earlier step", func(t *testing.T) {
		t.Parallel()

		_, err := f.Advance("verification_pending", "initiated")
		require.Error(t, err)
		assert.True(t, stepflow.IsOrderError(err))
	})

	t.Run("rejects unknown step", func(t *testing.T) {
		t.Parallel()

		_, err := f.Advance("initiated", "nope")
		require.Error(t, err)
		assert.True(t, stepflow.IsUnknownStepError(err))
	})

	t.Run("completed flow is terminal", func(t *testing.T) {
		t.Parallel()

		_, err := f.Advance("completed", "verification_pending")
		require.Error(t, err)
		assert.True(t, stepflow.IsCompletedError(err))

		// Even a nonsense submission reports completion, not order violation.
		_, err = f.Advance("completed", "nope")
		assert.True(t, stepflow.IsCompletedError(err))
	})
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		stepflow.MustNew("broken", "only")
	})
}
