package event

import "time"

const MFAAuditDestination string = "mfa_audit"
const MFAAuditConsumerPersist string = "mfa_audit_persist"

// KeyOfCorrelationID is the message header carrying the request correlation id.
const KeyOfCorrelationID string = "cID"

type MFAAuditMessage struct {
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
