package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/service"
)

// Metrics records one duration/count observation per request. Routes
// are labeled by gin's route template, not the raw URL, so path
// parameters do not explode label cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
