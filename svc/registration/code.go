package registration

import "time"

// Code is a one-time verification code bound to a session and channel.
// Reissuing replaces the record wholesale, which is what invalidates the
// previous code.
type Code struct {
	SessionID string    `json:"session_id"`
	Channel   Channel   `json:"channel"`
	Value     string    `json:"value"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	Consumed  bool      `json:"consumed"`
}

// IsExpired reports whether the code passed its deadline.
func (c *Code) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
