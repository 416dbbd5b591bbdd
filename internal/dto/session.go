package dto

import (
	"time"

	"github.com/noah-isme/idp-session-api/internal/models"
)

// CreateSessionRequest registers a shadow session for a freshly issued
// authorization grant.
type CreateSessionRequest struct {
	UserID          string `json:"userId" binding:"required" validate:"required"`
	AuthorizationID string `json:"authorizationId" binding:"required" validate:"required"`
	ClientID        string `json:"clientId" binding:"required" validate:"required"`
	ClientName      string `json:"clientName"`
	RoleID          string `json:"roleId" binding:"required" validate:"required"`
	RefreshToken    string `json:"refreshToken" binding:"required" validate:"required"`
	DeviceInfo      string `json:"deviceInfo"`
	IPAddress       string `json:"ipAddress"`
	UserAgent       string `json:"userAgent"`
}

// CreateSessionResponse echoes the stored session identifiers.
type CreateSessionResponse struct {
	SessionID       string    `json:"sessionId"`
	AuthorizationID string    `json:"authorizationId"`
	AbsoluteExpiry  time.Time `json:"absoluteExpiry"`
	SlidingExpiry   time.Time `json:"slidingExpiry"`
}

// RotateRequest presents a refresh secret for rotation.
type RotateRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
	IPAddress    string `json:"ipAddress"`
	UserAgent    string `json:"userAgent"`
}

// RotateResponse carries the outcome of a rotation attempt. Retry is true
// when the presented secret was the just-superseded one and the original
// rotation's secret is returned again.
type RotateResponse struct {
	RefreshToken   string    `json:"refreshToken"`
	SlidingExpiry  time.Time `json:"slidingExpiry"`
	AbsoluteExpiry time.Time `json:"absoluteExpiry"`
	Retry          bool      `json:"retry"`
}

// RoleSwitchRequest binds the session to a different role before first use.
type RoleSwitchRequest struct {
	RoleID string `json:"roleId" binding:"required"`
}

// RevokeForPersonRequest triggers the cascading person-level revocation.
type RevokeForPersonRequest struct {
	Reason models.RevocationReason `json:"reason"`
}

// RevokeForPersonResponse reports how far the cascade got.
type RevokeForPersonResponse struct {
	AccountsVisited int `json:"accountsVisited"`
	SessionsRevoked int `json:"sessionsRevoked"`
	Failures        int `json:"failures"`
}

// SessionSummary is the admin-facing view of one session. Token material
// never appears here.
type SessionSummary struct {
	SessionID         string     `json:"sessionId"`
	AuthorizationID   string     `json:"authorizationId"`
	ClientID          string     `json:"clientId"`
	ClientName        string     `json:"clientName"`
	Status            string     `json:"status"`
	ActiveRoleID      string     `json:"activeRoleId"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastActivityAt    time.Time  `json:"lastActivityAt"`
	AbsoluteExpiry    time.Time  `json:"absoluteExpiry"`
	SlidingExpiry     time.Time  `json:"slidingExpiry"`
	SlidingExtensions int        `json:"slidingExtensions"`
	RevokedAt         *time.Time `json:"revokedAt,omitempty"`
	RevocationReason  *string    `json:"revocationReason,omitempty"`
	DeviceInfo        string     `json:"deviceInfo,omitempty"`
	IPAddress         string     `json:"ipAddress,omitempty"`
}

// ClaimsResponse is the assembled claim set for an active session.
type ClaimsResponse struct {
	UserID          string   `json:"userId"`
	AuthorizationID string   `json:"authorizationId"`
	RoleID          string   `json:"roleId"`
	RoleName        string   `json:"roleName"`
	Permissions     []string `json:"permissions"`
	SessionID       string   `json:"sessionId"`
}
