package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/middleware"
	"github.com/noah-isme/idp-session-api/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil on
// routes reachable without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.AccessClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.AccessClaims)
	return claims
}
