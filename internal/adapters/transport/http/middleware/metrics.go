package middleware

import (
	"strconv"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency. Routes are labelled by their
// pattern so path parameters do not blow up cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(ts).Seconds())
	}
}
