package config

import (
	"time"

	"salon-backoffice/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const slowRequestThreshold = 200 * time.Millisecond

// PerformanceLogger logs every request with its latency and records it in
// the HTTP metrics. m may be nil.
func PerformanceLogger(log *logrus.Logger, m metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		if latency > slowRequestThreshold {
			entry.Warn("Slow request")
		} else {
			entry.Info("Request handled")
		}

		if m != nil {
			m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), latency)
		}
	}
}
