package entity

import (
	"math"
	"time"
)

// State is the derived lifecycle stage of a challenge at a given instant.
type State int

const (
	// StateStale is an entry with nothing left to enforce: a lapsed block or
	// an expired verification marker.
	StateStale State = iota
	// StatePending holds a live code awaiting verification.
	StatePending
	// StateExpired holds a code whose validity window has passed.
	StateExpired
	// StateBlocked refuses issuance and verification until BlockedUntil.
	StateBlocked
	// StateVerified marks a recently completed verification.
	StateVerified
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateExpired:
		return "expired"
	case StateBlocked:
		return "blocked"
	case StateVerified:
		return "verified"
	default:
		return "stale"
	}
}

// Challenge is the per-subject second-factor record. At most one exists
// per subject.
type Challenge struct {
	SubjectID string
	// CodeHash is the keyed digest of the issued code; empty unless a code
	// is outstanding.
	CodeHash          string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	Attempts          int
	MaxAttempts       int
	BlockedUntil      time.Time
	Verified          bool
	VerifiedExpiresAt time.Time
}

// State derives the lifecycle stage at now. A block wins over an
// outstanding code; an expired code is reported before an active one.
func (c Challenge) State(now time.Time) State {
	if c.Verified {
		if now.After(c.VerifiedExpiresAt) {
			return StateStale
		}
		return StateVerified
	}
	if now.Before(c.BlockedUntil) {
		return StateBlocked
	}
	if c.CodeHash == "" {
		return StateStale
	}
	if now.After(c.ExpiresAt) {
		return StateExpired
	}
	return StatePending
}

// AttemptsRemaining is MaxAttempts minus Attempts, never negative.
func (c Challenge) AttemptsRemaining() int {
	return max(c.MaxAttempts-c.Attempts, 0)
}

// BlockRemaining is how long the block still holds at now.
func (c Challenge) BlockRemaining(now time.Time) time.Duration {
	if !now.Before(c.BlockedUntil) {
		return 0
	}
	return c.BlockedUntil.Sub(now)
}

// ExpiresIn is how long the outstanding code stays valid at now.
func (c Challenge) ExpiresIn(now time.Time) time.Duration {
	if c.CodeHash == "" || now.After(c.ExpiresAt) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Reclaimable reports whether the sweeper may drop the entry at now.
func (c Challenge) Reclaimable(now time.Time) bool {
	switch c.State(now) {
	case StateStale, StateExpired:
		return true
	default:
		return false
	}
}

// CeilMinutes rounds d up to whole minutes; any positive d is at least 1.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// CeilSeconds rounds d up to whole seconds; any positive d is at least 1.
func CeilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
