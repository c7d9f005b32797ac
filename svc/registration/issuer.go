package registration

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSigningKey is returned when the issuer is built without a key.
var ErrMissingSigningKey = errors.New("missing access token signing key")

// AuthConfig configures access token issuance.
type AuthConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"enrollkit"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"24h"`
}

// AccessClaims are the JWT claims of a freshly registered account.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	CollegeID string `json:"college_id"`
}

// TokenIssuer mints access credentials for finalized accounts.
type TokenIssuer interface {
	IssueAccessToken(account *Account) (string, error)
}

// JWTIssuer signs HS256 access tokens.
type JWTIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewJWTIssuer returns an issuer for the given config.
func NewJWTIssuer(cfg AuthConfig) (*JWTIssuer, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	return &JWTIssuer{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTTL,
	}, nil
}

func (i *JWTIssuer) IssueAccessToken(account *Account) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Role:      account.Role,
		CollegeID: account.College.ID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}
