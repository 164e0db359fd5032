package entity

import "time"

// Policy holds the issuance and verification limits.
type Policy struct {
	CodeTTL        time.Duration
	MaxAttempts    int
	LockDuration   time.Duration
	VerifiedTTL    time.Duration
	ResendInterval time.Duration
}

// DefaultPolicy is three minute codes, three attempts and a fifteen minute block.
func DefaultPolicy() Policy {
	return Policy{
		CodeTTL:      3 * time.Minute,
		MaxAttempts:  3,
		LockDuration: 15 * time.Minute,
		VerifiedTTL:  2 * time.Minute,
	}
}

// Normalize replaces non-positive limits with the defaults. ResendInterval
// stays zero (disabled) when unset.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.CodeTTL <= 0 {
		p.CodeTTL = def.CodeTTL
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.LockDuration <= 0 {
		p.LockDuration = def.LockDuration
	}
	if p.VerifiedTTL <= 0 {
		p.VerifiedTTL = def.VerifiedTTL
	}
	if p.ResendInterval < 0 {
		p.ResendInterval = 0
	}
	return p
}
