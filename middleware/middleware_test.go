package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seo-optimizer/scoring/logging"
	"github.com/seo-optimizer/scoring/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	rec := perform(r, http.MethodGet, "/boom", "10.0.0.1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, rec.Body.String())

	rec = perform(r, http.MethodGet, "/fail", "10.0.0.1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), assert.AnError.Error())
}

func TestRateLimiter(t *testing.T) {
	m := metrics.New()
	rl := NewRateLimiter(0.001, 2, m)

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("burst then reject", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "10.0.0.1").Code)
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "10.0.0.1").Code)
		assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/", "10.0.0.1").Code)
	})

	t.Run("clients are independent", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "10.0.0.2").Code)
		assert.Equal(t, 2, rl.Clients())
	})

	t.Run("prune keeps recent clients", func(t *testing.T) {
		assert.Equal(t, 0, rl.Prune())
		rl.idleTTL = -1
		assert.Equal(t, 2, rl.Prune())
		assert.Equal(t, 0, rl.Clients())
	})
}

func TestStatsMiddleware(t *testing.T) {
	stats, err := logging.NewStatistics("")
	require.NoError(t, err)

	r := gin.New()
	r.Use(StatsMiddleware(stats, zap.NewNop()))
	r.POST("/api/analyze", func(c *gin.Context) {
		c.Set(ContextDomainKey, "example.com")
		c.Status(http.StatusOK)
	})
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodPost, "/api/analyze", "10.0.0.1")
	perform(r, http.MethodGet, "/api/health", "10.0.0.2")

	assert.Equal(t, 1, stats.TotalRequests())
	assert.Equal(t, 2, stats.GetUniqueVisitorsCount())
	assert.Equal(t, []logging.DomainCount{{Domain: "example.com", Count: 1}}, stats.GetPopularDomains(5))
}

func TestRequestLogger(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop(), m))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/api/health", "10.0.0.1")
	perform(r, http.MethodGet, "/missing", "10.0.0.1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `seoscore_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `route="unmatched",status="404"`)
}
