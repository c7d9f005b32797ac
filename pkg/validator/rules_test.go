package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.RequiredString("name", "Ada"),
			validator.ValidEmail("email", "ada@x.edu"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects all failures", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.RequiredString("name", "  "),
			validator.ValidEmail("email", "not-an-email"),
			validator.ValidPhone("phone", "abc"),
		)
		require.Error(t, err)

		ve := validator.ExtractValidationErrors(err)
		require.NotNil(t, ve)
		assert.ElementsMatch(t, []string{"name", "email", "phone"}, ve.Fields())
		assert.True(t, ve.Has("email"))
		assert.False(t, ve.Has("password"))
		assert.Len(t, ve.ToMap()["phone"], 1)
	})

	t.Run("identifies validation errors", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(validator.RequiredString("name", ""))
		assert.True(t, validator.IsValidationError(err))
		assert.False(t, validator.IsValidationError(assert.AnError))
		assert.Nil(t, validator.ExtractValidationErrors(assert.AnError))
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  bool
	}{
		{"a@x.edu", true},
		{"first.last@sub.example.com", true},
		{"", false},
		{"no-at-sign", false},
		{"@x.edu", false},
		{"a@nodot", false},
		{"a@.leading.dot", false},
		{"a@trailing.dot.", false},
		{"Name <a@x.edu>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			err := validator.Apply(validator.ValidEmail("email", tt.email))
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		phone string
		want  bool
	}{
		{"+14155552671", true},
		{"4155552671", true},
		{"+919876543210", true},
		{"", false},
		{"0123456", false},
		{"+1-415-555", false},
		{"12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			t.Parallel()
			err := validator.Apply(validator.ValidPhone("phone", tt.phone))
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStrongPassword(t *testing.T) {
	t.Parallel()

	cfg := validator.DefaultPasswordStrength()

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"two classes", "longenough1", true},
		{"mixed case", "LongEnough", true},
		{"too short", "ab1", false},
		{"single class", "lowercaseonly", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validator.Apply(validator.StrongPassword("password", tt.password, cfg))
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStringRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.LenString("code", "123456", 6)))
	assert.Error(t, validator.Apply(validator.LenString("code", "12345", 6)))
	assert.NoError(t, validator.Apply(validator.ValidNumericString("code", "007123")))
	assert.Error(t, validator.Apply(validator.ValidNumericString("code", "12a456")))
	assert.NoError(t, validator.Apply(validator.MinLenString("name", "Ada", 2)))
	assert.Error(t, validator.Apply(validator.MaxLenString("name", "Ada", 2)))
}
