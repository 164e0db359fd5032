// Package otp generates numeric one-time codes for out-of-band delivery.
//
// Codes come from crypto/rand and never start with a zero digit, so they keep
// their full length when a recipient's device or a spreadsheet treats them as
// numbers.
package otp
