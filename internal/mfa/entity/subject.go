package entity

import "time"

// Subject is the authenticated user as known by the user directory.
type Subject struct {
	ID    string
	Email string
	Name  string
	// Local2FAEnabled is the per-user opt in; nil when never set.
	Local2FAEnabled *bool
}

// Enabled resolves the opt in, falling back to def when unset.
func (s Subject) Enabled(def bool) bool {
	if s.Local2FAEnabled == nil {
		return def
	}
	return *s.Local2FAEnabled
}

// Delivery is one code to hand to the delivery gateway.
type Delivery struct {
	Destination string
	Code        string
	Subject     Subject
	ValidFor    time.Duration
}
