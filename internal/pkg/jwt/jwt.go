package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired         = errors.New("JWT token has expired")
	ErrInvalidToken         = errors.New("invalid token")
	ErrSubjectRequired      = errors.New("JWT subject is required")
)

// JWT generates and verifies bearer tokens. Production tokens come from the
// identity platform; Generate exists for operators and tests holding the
// shared secret.
type JWT interface {
	Generate(subject, email, name string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config holds the shared secret and the claims every token must carry.
type Config struct {
	Secret     []byte
	Issuer     string
	Audiences  []string
	TTLMinutes time.Duration
	Clock      clocker
	// UUID mints the jti of generated tokens.
	UUID generator
}

// Claims is the verified token content. The user id travels in "sub".
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type authKey struct{}

// SetAuth stores verified claims in ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}

// GetAuth returns the claims stored by SetAuth, or nil for anonymous requests.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(authKey{}).(Claims); ok {
		return &clm
	}
	return nil
}
