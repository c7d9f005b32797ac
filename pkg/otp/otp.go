package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
)

// DefaultLength is the standard number of digits in a verification code.
const DefaultLength = 6

// Bounds keep codes usable over voice/SMS while leaving enough keyspace
// that the attempt limit, not the code length, is the effective defense.
const (
	MinLength = 4
	MaxLength = 10
)

var (
	ErrInvalidLength     = errors.New("otp: code length out of range")
	ErrGenerationFailure = errors.New("otp: failed to read random source")
)

// Generate returns a cryptographically random numeric code of the given
// length. Leading zeros are preserved: Generate(6) may return "004217".
func Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", errors.Join(ErrGenerationFailure, err)
	}

	return fmt.Sprintf("%0*d", length, n), nil
}

// Match reports whether submitted equals expected using a constant-time
// comparison. Length differences are still rejected, which leaks only the
// configured code length - a public parameter.
func Match(expected, submitted string) bool {
	if len(expected) == 0 || len(expected) != len(submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
