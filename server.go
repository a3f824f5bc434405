package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/scoring/analyzer"
	"github.com/seo-optimizer/scoring/logging"
	"github.com/seo-optimizer/scoring/metrics"
	"github.com/seo-optimizer/scoring/middleware"
)

// maxPayloadBytes bounds request bodies.
const maxPayloadBytes = 10 << 20

type server struct {
	analyzer    *analyzer.Analyzer
	stats       *logging.Statistics
	metrics     *metrics.Collector
	rateLimiter *middleware.RateLimiter
	logger      *zap.Logger
	started     time.Time
}

func (s *server) router() *gin.Engine {
	r := gin.New()

	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.RequestLogger(s.logger, s.metrics))
	r.Use(cors())
	r.Use(middleware.StatsMiddleware(s.stats, s.logger))

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)

		scoring := api.Group("")
		scoring.Use(s.rateLimiter.RateLimit())
		scoring.POST("/analyze", s.analyze)
		scoring.POST("/backlinks", s.backlinks)
		scoring.POST("/disavow", s.disavow)
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *server) statistics(c *gin.Context) {
	out := s.stats.GetStatistics()
	out["cache"] = s.analyzer.GetCacheStats()
	out["month"] = s.analyzer.MonthlyStats()
	c.JSON(http.StatusOK, out)
}

// readPayload reads the raw request body, answering the request itself
// when it cannot.
func (s *server) readPayload(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body"})
		return nil, false
	}
	return body, true
}

func (s *server) fail(c *gin.Context, err error) {
	if errors.Is(err, analyzer.ErrInvalidPayload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	s.logger.Error("Analysis failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze payload: " + err.Error()})
}

func (s *server) analyze(c *gin.Context) {
	raw, ok := s.readPayload(c)
	if !ok {
		return
	}
	report, err := s.analyzer.Analyze(raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(middleware.ContextDomainKey, report.Metadata.Domain)
	c.JSON(http.StatusOK, report)
}

func (s *server) backlinks(c *gin.Context) {
	raw, ok := s.readPayload(c)
	if !ok {
		return
	}
	analysis, err := s.analyzer.Backlinks(raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(middleware.ContextDomainKey, analysis.Metadata.Domain)
	c.JSON(http.StatusOK, analysis)
}

func (s *server) disavow(c *gin.Context) {
	raw, ok := s.readPayload(c)
	if !ok {
		return
	}
	file, err := s.analyzer.Disavow(raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("X-Disavow-Domains", strconv.Itoa(file.DomainsCount))
	c.Header("X-Disavow-Urls", strconv.Itoa(file.URLsCount))
	c.Header("Content-Disposition", `attachment; filename="disavow.txt"`)
	c.String(http.StatusOK, file.Content)
}
