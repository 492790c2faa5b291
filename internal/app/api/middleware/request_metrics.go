package middleware

import (
	"strconv"

	"github.com/propmarket/portal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RequestMetricsMiddleware counts served requests by route template, so
// path params do not explode label cardinality.
func RequestMetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.IncHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))
	}
}
