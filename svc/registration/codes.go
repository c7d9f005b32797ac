package registration

import (
	"context"
	"time"

	"github.com/dmitrymomot/enrollkit/pkg/otp"
)

// CodeConfig bounds the verification code lifecycle.
type CodeConfig struct {
	Length         int           `env:"VERIFICATION_CODE_LENGTH" envDefault:"6"`
	TTL            time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	ResendCooldown time.Duration `env:"VERIFICATION_RESEND_COOLDOWN" envDefault:"60s"`
	MaxAttempts    int           `env:"VERIFICATION_MAX_ATTEMPTS" envDefault:"5"`
}

// CodeService issues and validates one-time verification codes with a
// per-channel reissue cooldown and a bounded attempt counter.
type CodeService struct {
	store CodeStore
	cfg   CodeConfig
	now   func() time.Time
}

// CodeServiceOption customizes a CodeService.
type CodeServiceOption func(*CodeService)

// WithClock overrides the time source. Used by tests to step through
// cooldown and expiry windows.
func WithClock(now func() time.Time) CodeServiceOption {
	return func(s *CodeService) { s.now = now }
}

// NewCodeService returns a code service over the given store.
func NewCodeService(store CodeStore, cfg CodeConfig, opts ...CodeServiceOption) (*CodeService, error) {
	if store == nil {
		return nil, ErrMissingDependency
	}
	if cfg.Length == 0 {
		cfg.Length = otp.DefaultLength
	}
	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.ResendCooldown == 0 {
		cfg.ResendCooldown = time.Minute
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	s := &CodeService{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue generates a fresh code for the channel, replacing and thereby
// invalidating any prior one. A reissue inside the cooldown window fails
// with *CooldownError. The code never outlives the session: its deadline
// is capped at sessionExpiry.
func (s *CodeService) Issue(ctx context.Context, sessionID string, channel Channel, sessionExpiry time.Time) (*Code, error) {
	now := s.now()

	prior, err := s.store.Get(ctx, sessionID, channel)
	if err == nil && !prior.Consumed {
		if elapsed := now.Sub(prior.IssuedAt); elapsed < s.cfg.ResendCooldown {
			remaining := (s.cfg.ResendCooldown - elapsed).Round(time.Second)
			if remaining <= 0 {
				remaining = time.Second
			}
			return nil, &CooldownError{Channel: channel, RetryAfter: remaining}
		}
	}

	value, err := otp.Generate(s.cfg.Length)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.cfg.TTL)
	if expiresAt.After(sessionExpiry) {
		expiresAt = sessionExpiry
	}
	if !now.Before(expiresAt) {
		return nil, ErrSessionExpired
	}

	code := &Code{
		SessionID: sessionID,
		Channel:   channel,
		Value:     value,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	if err := s.store.Save(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// Validate checks a submitted code. On match the code is consumed and
// cannot validate again. A mismatch burns one attempt; once the attempt
// budget is exhausted every further call short-circuits with
// ErrTooManyAttempts before any comparison.
func (s *CodeService) Validate(ctx context.Context, sessionID string, channel Channel, submitted string) error {
	code, err := s.store.Get(ctx, sessionID, channel)
	if err != nil {
		// An aged-out record and an expired one look the same to the
		// client: the remedy is a resend either way.
		if err == ErrCodeNotFound {
			return ErrCodeExpired
		}
		return err
	}
	if code.Consumed {
		return ErrCodeInvalid
	}
	if code.IsExpired(s.now()) {
		return ErrCodeExpired
	}
	if code.Attempts >= s.cfg.MaxAttempts {
		return ErrTooManyAttempts
	}
	if !otp.Match(code.Value, submitted) {
		code.Attempts++
		if err := s.store.Update(ctx, code); err != nil {
			return err
		}
		return ErrCodeInvalid
	}
	code.Consumed = true
	if err := s.store.Update(ctx, code); err != nil {
		return err
	}
	return nil
}
