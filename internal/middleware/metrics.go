package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/service"
)

// Metrics records per-request duration and counts. The route template is
// used as the path label so session IDs do not explode cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
