package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

var (
	// International phone format, optional leading plus, E.164 length bounds.
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

	numericStringRegex = regexp.MustCompile(`^[0-9]+$`)
)

// RequiredString validates that a string is not empty after trimming.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:   field,
			Message: "is required",
		},
	}
}

// MinLenString validates a minimum string length in bytes.
func MinLenString(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters", min),
		},
	}
}

// MaxLenString validates a maximum string length in bytes.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters", max),
		},
	}
}

// LenString validates an exact string length, used for verification codes.
func LenString(field, value string, exact int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) == exact
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be exactly %d characters", exact),
		},
	}
}

// ValidEmail validates an email address for typical web signup use.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}

			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}

			parts := strings.Split(addr.Address, "@")
			if len(parts) != 2 || parts[0] == "" {
				return false
			}

			domain := parts[1]
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") &&
				!strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		},
	}
}

// ValidPhone validates an international phone number in E.164-like format.
func ValidPhone(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return phoneRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be a valid phone number",
		},
	}
}

// ValidNumericString validates that a string contains digits only.
func ValidNumericString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return numericStringRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:   field,
			Message: "must contain only digits",
		},
	}
}

// PasswordStrengthConfig controls StrongPassword requirements.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int // of: lowercase, uppercase, digit, special
}

// DefaultPasswordStrength returns pragmatic signup-form defaults: long enough
// to resist trivial guessing without punishing users with rigid class rules.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:      8,
		MaxLength:      128,
		MinCharClasses: 2,
	}
}

// StrongPassword validates a password against the given strength config.
func StrongPassword(field, value string, config PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < config.MinLength || len(value) > config.MaxLength {
				return false
			}

			var lower, upper, digit, special bool
			for _, r := range value {
				switch {
				case unicode.IsLower(r):
					lower = true
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsDigit(r):
					digit = true
				default:
					special = true
				}
			}

			classes := 0
			for _, present := range []bool{lower, upper, digit, special} {
				if present {
					classes++
				}
			}
			return classes >= config.MinCharClasses
		},
		Error: ValidationError{
			Field: field,
			Message: fmt.Sprintf("must be %d-%d characters with at least %d character classes",
				config.MinLength, config.MaxLength, config.MinCharClasses),
		},
	}
}
