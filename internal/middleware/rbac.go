package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/models"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
	"github.com/noah-isme/idp-session-api/pkg/response"
)

// AdminOrSelf allows admins through unconditionally and non-admins only
// when the :id path parameter matches their own user id.
func AdminOrSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.AccessClaims)

		if claims.Admin {
			c.Next()
			return
		}
		if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// AdminOnly restricts a route to admin tokens.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claimsValue.(*models.AccessClaims).Admin {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
