// Package metrics exposes prometheus collectors for the scoring service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric on its own registry so tests can build as
// many as they like.
type Collector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	rateLimited    prometheus.Counter
	reports        *prometheus.CounterVec
	engineDuration *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEntries   prometheus.Gauge
	toxicLinks     prometheus.Counter
}

// New registers the collectors plus the Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoscore_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seoscore_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seoscore_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoscore_reports_total",
				Help: "Reports built by section and grade",
			},
			[]string{"section", "grade"},
		),
		engineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seoscore_engine_duration_seconds",
				Help:    "Time spent normalizing and scoring a payload",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"section"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seoscore_report_cache_hits_total",
			Help: "Report cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seoscore_report_cache_misses_total",
			Help: "Report cache misses",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seoscore_report_cache_entries",
			Help: "Reports currently cached",
		}),
		toxicLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seoscore_toxic_links_total",
			Help: "Toxic links found across all reports",
		}),
	}
	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.rateLimited,
		c.reports,
		c.engineDuration,
		c.cacheHits,
		c.cacheMisses,
		c.cacheEntries,
		c.toxicLinks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected request.
func (c *Collector) RateLimited() {
	if c == nil {
		return
	}
	c.rateLimited.Inc()
}

// ObserveReport records a freshly built report section.
func (c *Collector) ObserveReport(section, grade string, toxicLinks int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.reports.WithLabelValues(section, grade).Inc()
	c.engineDuration.WithLabelValues(section).Observe(elapsed.Seconds())
	c.toxicLinks.Add(float64(toxicLinks))
}

// CacheHit counts a report served from cache.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// CacheMiss counts a report that had to be built.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

// SetCacheEntries reports the current cache size.
func (c *Collector) SetCacheEntries(n int) {
	if c == nil {
		return
	}
	c.cacheEntries.Set(float64(n))
}
