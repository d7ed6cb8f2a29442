package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency labelled by route template, so
// /classifications/:id stays one series.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		prometheus.RecordHTTPRequest(m, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
