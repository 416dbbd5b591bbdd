package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the JWT payload this service understands. Tokens are
// signed by the external OAuth engine with a shared secret; this service
// assembles the claim set for a session and validates tokens presented on
// its admin surface, but never signs grant tokens itself.
type AccessClaims struct {
	UserID          string   `json:"user_id"`
	AuthorizationID string   `json:"authorization_id"`
	RoleID          string   `json:"role_id"`
	RoleName        string   `json:"role_name"`
	Permissions     []string `json:"permissions"`
	Admin           bool     `json:"admin"`
	jwt.RegisteredClaims
}
