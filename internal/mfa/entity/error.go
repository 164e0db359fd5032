package entity

import "errors"

var (
	ErrChallengeNotFound = errors.New("mfa: no active challenge")
	ErrChallengeExpired  = errors.New("mfa: challenge expired")
	ErrInvalidCode       = errors.New("mfa: invalid code")
	ErrLocked            = errors.New("mfa: challenge locked")
	ErrBlocked           = errors.New("mfa: issuance blocked")
	ErrResendTooSoon     = errors.New("mfa: resend too soon")
	ErrConfiguration     = errors.New("mfa: delivery not configured")
	ErrDelivery          = errors.New("mfa: delivery failed")
)
