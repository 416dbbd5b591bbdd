package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/models"
	"github.com/noah-isme/idp-session-api/internal/service"
)

// AdminAudit records admin surface actions after successful requests.
func AdminAudit(audit *service.AuditService, eventType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := c.Get(ContextUserKey); ok {
			actor := claims.(*models.AccessClaims)
			userID = &actor.UserID
		}

		details, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
			"target":  c.Param("id"),
		})

		audit.Emit(models.AuditEvent{
			EventType: eventType,
			Severity:  models.SeverityInfo,
			UserID:    userID,
			Details:   details,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
