package temptoken

import "errors"

var (
	// ErrMissingSecret indicates the codec was constructed without a signing secret.
	ErrMissingSecret = errors.New("temptoken: missing signing secret")

	// ErrMalformedToken indicates the token is structurally invalid or its
	// signature does not verify.
	ErrMalformedToken = errors.New("temptoken: malformed token")

	// ErrExpiredToken indicates a correctly signed token whose expiry has passed.
	ErrExpiredToken = errors.New("temptoken: token expired")
)
