package temptoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// signatureLen is the truncated HMAC-SHA256 length in bytes. 16 bytes keeps
// tokens compact while leaving forgery infeasible for short-lived artifacts.
const signatureLen = 16

// Claims is the payload embedded in a temp token.
type Claims struct {
	SessionID string `json:"sid"`
	Step      string `json:"stp"`
	Version   int64  `json:"ver"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Codec mints and parses signed temp tokens with a single server-held secret.
type Codec struct {
	secret []byte
}

// New creates a Codec. The secret should be at least 32 bytes of entropy.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Mint produces a URL-safe signed token for the given session coordinates.
// The expiry is absolute, not sliding: callers pass the session's own
// expiration so the token can never outlive the draft it points at.
func (c *Codec) Mint(sessionID, step string, version int64, expiresAt time.Time) (string, error) {
	payload, err := json.Marshal(Claims{
		SessionID: sessionID,
		Step:      step,
		Version:   version,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(c.sign(payload)), nil
}

// Parse verifies the token signature and expiry and returns the embedded
// claims. Any structural defect, bad base64, or signature mismatch yields
// ErrMalformedToken; expiry is only checked after the signature verifies.
func (c *Codec) Parse(raw string) (Claims, error) {
	var claims Claims

	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return claims, ErrMalformedToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return claims, ErrMalformedToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims, ErrMalformedToken
	}

	if subtle.ConstantTimeCompare(sig, c.sign(payload)) != 1 {
		return claims, ErrMalformedToken
	}

	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, ErrMalformedToken
	}

	if claims.ExpiresAt > 0 && time.Now().Unix() > claims.ExpiresAt {
		return Claims{}, ErrExpiredToken
	}

	return claims, nil
}

func (c *Codec) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(payload)
	return h.Sum(nil)[:signatureLen]
}
