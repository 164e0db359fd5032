package entity

import "time"

// AuditAction names an auditable second-factor outcome.
type AuditAction string

const (
	AuditOTPSent        AuditAction = "otp_sent"
	AuditOTPSendFailed  AuditAction = "otp_send_failed"
	AuditOTPDevFallback AuditAction = "otp_dev_fallback"
	AuditOTPBlocked     AuditAction = "otp_blocked"
	AuditOTPVerified    AuditAction = "otp_verified"
	AuditOTPInvalid     AuditAction = "otp_invalid"
	AuditOTPLocked      AuditAction = "otp_locked"
	AuditOTPExpired     AuditAction = "otp_expired"
)

// AuditEvent is published for every issuance and verification outcome.
// Details never carry the code.
type AuditEvent struct {
	SubjectID  string
	Action     AuditAction
	Details    map[string]any
	OccurredAt time.Time
}
