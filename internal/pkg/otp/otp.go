package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// DefaultLength is the number of digits produced by NewNumeric(0).
const DefaultLength = 6

// ErrInvalidLength is returned when a generator is built with a length above 18.
var ErrInvalidLength = errors.New("otp: code length must be between 1 and 18")

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-length decimal codes whose first digit is 1-9.
type Numeric struct {
	length int
}

// NewNumeric returns a Numeric generator. A non-positive length uses DefaultLength.
func NewNumeric(length int) (*Numeric, error) {
	if length <= 0 {
		length = DefaultLength
	}
	if length > 18 {
		return nil, ErrInvalidLength
	}
	return &Numeric{length: length}, nil
}

// Length returns the number of digits in generated codes.
func (n *Numeric) Length() int {
	return n.length
}

// Generate returns a new random code.
func (n *Numeric) Generate() (string, error) {
	var b strings.Builder
	b.Grow(n.length)

	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", err
	}
	b.WriteByte(byte('1' + first.Int64()))

	ten := big.NewInt(10)
	for i := 1; i < n.length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}

	return b.String(), nil
}
