package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSymmetric(t *testing.T, c clocker) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:     []byte(strings.Repeat("s", 64)),
		Issuer:     "safex-identity",
		Audiences:  []string{"safex"},
		TTLMinutes: 10 * time.Minute,
		Clock:      c,
		UUID:       uid.NewUUID(),
	})
	require.NoError(t, err)
	return j
}

func TestSymmetric(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		j := newSymmetric(t, clock.New())

		// Act
		token, err := j.Generate("user-1", "user@safex.test", "User One")
		require.NoError(t, err)
		claims, err := j.Verify(token)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "user@safex.test", claims.Email)
		assert.Equal(t, "User One", claims.Name)
	})

	t.Run("Expired", func(t *testing.T) {
		// Arrange
		past := clock.NewManual(time.Now().Add(-time.Hour))
		token, err := newSymmetric(t, past).Generate("user-1", "", "")
		require.NoError(t, err)

		// Act
		_, err = newSymmetric(t, clock.New()).Verify(token)

		// Assert
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("ExpiryFollowsClock", func(t *testing.T) {
		// Arrange
		c := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		j := newSymmetric(t, c)
		token, err := j.Generate("user-1", "", "")
		require.NoError(t, err)

		// Act
		c.Advance(11 * time.Minute)
		_, err = j.Verify(token)

		// Assert
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		// Arrange
		other, err := NewHS512(Config{
			Secret:     []byte(strings.Repeat("x", 64)),
			Issuer:     "safex-identity",
			Audiences:  []string{"safex"},
			TTLMinutes: time.Minute,
			Clock:      clock.New(),
			UUID:       uid.NewUUID(),
		})
		require.NoError(t, err)
		token, err := other.Generate("user-1", "", "")
		require.NoError(t, err)

		// Act
		_, err = newSymmetric(t, clock.New()).Verify(token)

		// Assert
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := newSymmetric(t, clock.New()).Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("SubjectRequired", func(t *testing.T) {
		_, err := newSymmetric(t, clock.New()).Generate(" ", "", "")
		assert.ErrorIs(t, err, ErrSubjectRequired)
	})

	t.Run("ShortSecret", func(t *testing.T) {
		_, err := NewHS512(Config{Secret: []byte("short")})
		assert.ErrorIs(t, err, ErrSigningKeyTooShort)
	})
}

func TestAuthContext(t *testing.T) {
	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{Email: "a@b.c"})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, "a@b.c", GetAuth(ctx).Email)
}
