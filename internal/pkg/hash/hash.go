package hash

// Hash produces and verifies one-way digests of short secrets.
type Hash interface {
	// Hash returns the digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str produces hashed. Comparison is constant-time.
	Verify(hashed, str string) bool
}
