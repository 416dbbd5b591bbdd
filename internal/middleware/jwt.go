package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/service"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
	"github.com/noah-isme/idp-session-api/pkg/response"
)

// ContextUserKey is the gin context key storing access token claims.
const ContextUserKey = "currentUser"

// JWT requires a valid access token minted by the OAuth engine and stores
// its claims on the context for downstream handlers.
func JWT(claimsService *service.ClaimsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed bearer token"))
			c.Abort()
			return
		}

		claims, err := claimsService.ValidateToken(raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
