package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
	"github.com/noah-isme/idp-session-api/pkg/response"
)

// InternalAuth guards the service-to-service surface with a static bearer
// token shared with the OAuth engine.
func InternalAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "internal surface disabled"))
			c.Abort()
			return
		}

		presented := c.GetHeader("X-Internal-Token")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
