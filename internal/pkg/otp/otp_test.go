package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric_Generate(t *testing.T) {
	// Arrange
	gen, err := NewNumeric(0)
	require.NoError(t, err)

	// Act & Assert
	for range 500 {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, DefaultLength)
		assert.NotEqual(t, byte('0'), code[0])
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "unexpected char %q in %s", c, code)
		}
	}
}

func TestNewNumeric(t *testing.T) {
	gen, err := NewNumeric(8)
	require.NoError(t, err)
	assert.Equal(t, 8, gen.Length())

	_, err = NewNumeric(19)
	assert.ErrorIs(t, err, ErrInvalidLength)
}
