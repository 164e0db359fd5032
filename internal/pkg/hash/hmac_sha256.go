package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 digests codes with a server-side key. The output is lowercase hex.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

func (s *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, s.key)
	_, _ = mac.Write([]byte(str))
	return mac.Sum(nil)
}

func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return hex.AppendEncode(nil, s.sum(str)), nil
}

// Verify decodes hashed and compares MACs in constant time. An empty or
// non-hex hashed never matches.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil || len(want) == 0 {
		return false
	}
	return hmac.Equal(want, s.sum(str))
}
