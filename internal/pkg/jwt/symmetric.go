package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minSecretLen = 64

// Symmetric signs and verifies HS512 tokens with one shared secret.
type Symmetric struct {
	cfg    Config
	parser *libJWT.Parser
}

// NewHS512 rejects secrets shorter than 512 bits.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(func() time.Time { return cfg.Clock.Now() }),
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}

	return &Symmetric{cfg: cfg, parser: libJWT.NewParser(opts...)}, nil
}

// Generate signs a token for subject valid for the configured TTL.
func (s *Symmetric) Generate(subject, email, name string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrSubjectRequired
	}

	now := s.cfg.Clock.Now()
	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTLMinutes)),
		},
		Email: email,
		Name:  name,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.cfg.Secret, nil
}

// Verify returns ErrTokenExpired for expired tokens and wraps ErrInvalidToken
// for every other rejection, including a blank subject.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !token.Valid || strings.TrimSpace(claims.Subject) == "":
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
