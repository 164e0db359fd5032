// Package clock provides a tiny time abstraction.
//
// Challenge expiry, lockout windows and sweeping all read time through the
// Clocker interface so tests can drive a Manual clock instead of sleeping.
package clock
