package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/scoring/logging"
	"github.com/seo-optimizer/scoring/metrics"
)

// ContextDomainKey is the gin context key handlers set to the analysed
// domain so it shows up in the statistics.
const ContextDomainKey = "analysed_domain"

// analysisPaths are the routes counted as analysis requests.
var analysisPaths = map[string]bool{
	"/api/analyze":   true,
	"/api/backlinks": true,
	"/api/disavow":   true,
}

// StatsMiddleware tracks visitors and analysis requests, persisting the
// statistics every 100 analyses.
func StatsMiddleware(stats *logging.Statistics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if !analysisPaths[c.FullPath()] {
			return
		}
		loadTime := float64(time.Since(start).Milliseconds())
		stats.TrackAnalysis(c.GetString(ContextDomainKey), loadTime, c.Writer.Status() >= 400)

		if stats.TotalRequests()%100 == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("Could not save statistics", zap.Error(err))
				}
			}()
		}
	}
}

// RequestLogger logs each request and records it in m.
func RequestLogger(logger *zap.Logger, m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
