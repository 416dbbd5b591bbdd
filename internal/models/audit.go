package models

import "time"

// Audit event types emitted by the lifecycle engines.
const (
	AuditRefreshTokenRotated       = "REFRESH_TOKEN_ROTATED"
	AuditRefreshTokenReuseDetected = "REFRESH_TOKEN_REUSE_DETECTED"
	AuditSessionRevoked            = "SESSION_REVOKED"
	AuditSlidingExpirationExtended = "SLIDING_EXPIRATION_EXTENDED"
)

// Audit severities.
const (
	SeverityInfo     = "INFO"
	SeverityCritical = "CRITICAL"
)

// AuditEvent is one lifecycle event handed to the audit collaborator.
// Emission is fire-and-forget; a failed write never blocks a rotation or
// revocation decision.
type AuditEvent struct {
	ID              string    `db:"id" json:"id"`
	EventType       string    `db:"event_type" json:"event_type"`
	Severity        string    `db:"severity" json:"severity"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	AuthorizationID *string   `db:"authorization_id" json:"authorization_id,omitempty"`
	Details         []byte    `db:"details" json:"details,omitempty"`
	IPAddress       string    `db:"ip_address" json:"ip_address"`
	UserAgent       string    `db:"user_agent" json:"user_agent"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
