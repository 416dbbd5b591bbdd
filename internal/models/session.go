package models

import "time"

// RevocationReason explains why a session was terminated.
type RevocationReason string

const (
	ReasonUserLogout       RevocationReason = "user_logout"
	ReasonAdminRevoke      RevocationReason = "admin_revoke"
	ReasonReuseDetected    RevocationReason = "reuse_detected"
	ReasonExpired          RevocationReason = "expired"
	ReasonPersonTerminated RevocationReason = "person_terminated"
	ReasonChainRevoked     RevocationReason = "chain_revoked"
)

// SessionStatus values reported in session summaries.
const (
	SessionStatusActive  = "active"
	SessionStatusRevoked = "revoked"
	SessionStatusExpired = "expired"
)

// Session is the shadow record this service keeps for one authorization
// grant, independent of whatever the OAuth engine persists internally.
// Rotation state holds only salted digests; raw secrets are never stored.
type Session struct {
	ID              string `db:"id" json:"id"`
	UserID          string `db:"user_id" json:"user_id"`
	AuthorizationID string `db:"authorization_id" json:"authorization_id"`

	ClientID   string `db:"client_id" json:"client_id"`
	ClientName string `db:"client_name" json:"client_name"`

	Salt              string     `db:"salt" json:"-"`
	CurrentTokenHash  string     `db:"current_token_hash" json:"-"`
	PreviousTokenHash *string    `db:"previous_token_hash" json:"-"`
	RotatedAt         *time.Time `db:"rotated_at" json:"-"`

	AbsoluteExpiry    time.Time `db:"absolute_expiry" json:"absolute_expiry"`
	SlidingExpiry     time.Time `db:"sliding_expiry" json:"sliding_expiry"`
	SlidingExtensions int       `db:"sliding_extensions" json:"sliding_extensions"`

	ActiveRoleID     string     `db:"active_role_id" json:"active_role_id"`
	LastRoleSwitchAt *time.Time `db:"last_role_switch_at" json:"last_role_switch_at,omitempty"`

	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`

	RevokedAt        *time.Time        `db:"revoked_at" json:"revoked_at,omitempty"`
	RevocationReason *RevocationReason `db:"revocation_reason" json:"revocation_reason,omitempty"`
	ReuseDetectedAt  *time.Time        `db:"reuse_detected_at" json:"reuse_detected_at,omitempty"`

	DeviceInfo string `db:"device_info" json:"device_info"`
	IPAddress  string `db:"ip_address" json:"ip_address"`
	UserAgent  string `db:"user_agent" json:"user_agent"`
}

// Revoked reports whether the session has been terminated.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Status classifies the session for admin display.
func (s *Session) Status(now time.Time) string {
	switch {
	case s.RevokedAt != nil:
		return SessionStatusRevoked
	case now.After(s.AbsoluteExpiry) || now.After(s.SlidingExpiry):
		return SessionStatusExpired
	default:
		return SessionStatusActive
	}
}

// WithinLeeway reports whether the last rotation happened recently enough
// that the superseded secret is still tolerated as a benign retry.
func (s *Session) WithinLeeway(now time.Time, leeway time.Duration) bool {
	if s.RotatedAt == nil {
		return false
	}
	return !now.After(s.RotatedAt.Add(leeway))
}
