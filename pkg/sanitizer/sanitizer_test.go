package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/enrollkit/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  Ada@X.EDU  ", "ada@x.edu"},
		{"a@x.edu", "a@x.edu"},
		{"A+tag@X.edu", "a+tag@x.edu"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.in))
	}
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"+1 (415) 555-2671", "+14155552671"},
		{"415.555.2671", "4155552671"},
		{"  +91 98765 43210 ", "+919876543210"},
		{"41+55", "4155"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizer.NormalizePhone(tt.in))
	}
}

func TestSingleLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Springfield State College", sanitizer.SingleLine("  Springfield \n State\tCollege "))
	assert.Equal(t, "", sanitizer.SingleLine("  \n\t "))
}

func TestMasking(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a**@x.edu", sanitizer.MaskEmail("ada@x.edu"))
	assert.Equal(t, "a*@x.edu", sanitizer.MaskEmail("ab@x.edu"))
	assert.Equal(t, "not-an-email", sanitizer.MaskEmail("not-an-email"))
	assert.Equal(t, "**********71", sanitizer.MaskPhone("+14155552671"))
	assert.Equal(t, "12", sanitizer.MaskPhone("12"))
}
