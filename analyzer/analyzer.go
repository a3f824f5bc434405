package analyzer

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/seo-optimizer/scoring/metrics"
	"github.com/seo-optimizer/scoring/stats"
)

// ErrInvalidPayload is returned for request bodies that are not JSON.
var ErrInvalidPayload = errors.New("payload is not valid JSON")

// Cache entry with expiration
type cacheEntry struct {
	report    Report
	timestamp time.Time
}

// CacheStats provides statistics about the report cache
type CacheStats struct {
	Entries     int           `json:"entries"`
	CacheHits   int           `json:"cacheHits"`
	CacheMisses int           `json:"cacheMisses"`
	CacheTTL    time.Duration `json:"cacheTTL"`
	MaxEntries  int           `json:"maxEntries"`
}

// Analyzer serves reports from an Engine through a TTL cache keyed by the
// payload bytes.
type Analyzer struct {
	engine          *Engine
	cache           map[string]cacheEntry
	cacheMutex      sync.RWMutex
	cacheTTL        time.Duration
	maxCacheSize    int
	lastCleanup     time.Time
	cleanupInterval time.Duration
	stats           *stats.Storage
	metrics         *metrics.Collector
	logger          *zap.Logger
	done            chan struct{}
	closeOnce       sync.Once
}

// ServiceOption customizes an Analyzer.
type ServiceOption func(*Analyzer)

// WithMetrics reports cache and engine activity to m.
func WithMetrics(m *metrics.Collector) ServiceOption {
	return func(a *Analyzer) { a.metrics = m }
}

// WithCacheTTL overrides the 30 minute report TTL.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(a *Analyzer) { a.cacheTTL = ttl }
}

// WithMaxCacheSize overrides the 1000 report cache bound.
func WithMaxCacheSize(n int) ServiceOption {
	return func(a *Analyzer) { a.maxCacheSize = n }
}

// New creates a new Analyzer whose statistics live under dataDir. A nil
// engine uses the default configuration.
func New(dataDir string, engine *Engine, logger *zap.Logger, opts ...ServiceOption) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = defaultEngine
	}

	statsStorage, err := stats.NewStorage(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stats storage: %w", err)
	}

	a := &Analyzer{
		engine:          engine,
		cache:           make(map[string]cacheEntry),
		cacheTTL:        30 * time.Minute,
		maxCacheSize:    1000,
		cleanupInterval: 5 * time.Minute,
		lastCleanup:     time.Now(),
		stats:           statsStorage,
		logger:          logger,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	go a.periodicCleanup()

	return a, nil
}

// Engine returns the engine reports are built with.
func (a *Analyzer) Engine() *Engine { return a.engine }

// periodicCleanup removes expired entries until Close.
func (a *Analyzer) periodicCleanup() {
	ticker := time.NewTicker(a.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.cleanup()
		case <-a.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size limit
func (a *Analyzer) cleanup() {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cleanupLocked()
}

func (a *Analyzer) cleanupLocked() {
	now := time.Now()
	for key, entry := range a.cache {
		if now.Sub(entry.timestamp) > a.cacheTTL {
			delete(a.cache, key)
		}
	}

	// If still over size limit, remove oldest entries
	if len(a.cache) > a.maxCacheSize {
		type aged struct {
			key       string
			timestamp time.Time
		}
		entries := make([]aged, 0, len(a.cache))
		for key, entry := range a.cache {
			entries = append(entries, aged{key, entry.timestamp})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].timestamp.Before(entries[j].timestamp)
		})
		for i := 0; i < len(entries)-a.maxCacheSize; i++ {
			delete(a.cache, entries[i].key)
		}
	}

	a.lastCleanup = now
	a.metrics.SetCacheEntries(len(a.cache))
}

// SetMaxCacheSize sets the maximum number of cached reports
func (a *Analyzer) SetMaxCacheSize(size int) {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.maxCacheSize = size
	a.cleanupLocked()
}

// SetCacheTTL sets the cache TTL
func (a *Analyzer) SetCacheTTL(ttl time.Duration) {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cacheTTL = ttl
}

// ClearCache clears the report cache
func (a *Analyzer) ClearCache() {
	a.cacheMutex.Lock()
	defer a.cacheMutex.Unlock()
	a.cache = make(map[string]cacheEntry)
	a.metrics.SetCacheEntries(0)
}

// generateCacheKey creates a unique key for a payload
func generateCacheKey(raw []byte) string {
	hash := md5.Sum(raw)
	return hex.EncodeToString(hash[:])
}

// GetCacheStats returns statistics about the cache
func (a *Analyzer) GetCacheStats() CacheStats {
	current := a.stats.GetCurrentStats()

	a.cacheMutex.RLock()
	defer a.cacheMutex.RUnlock()

	return CacheStats{
		Entries:     len(a.cache),
		CacheHits:   current.ReportCacheHits,
		CacheMisses: current.ReportCacheMisses,
		CacheTTL:    a.cacheTTL,
		MaxEntries:  a.maxCacheSize,
	}
}

// MonthlyStats returns the persisted counters for the current month.
func (a *Analyzer) MonthlyStats() stats.MonthlyStats {
	return a.stats.GetCurrentStats()
}

// IsCached checks if a payload has a live cached report
func (a *Analyzer) IsCached(raw []byte) bool {
	a.cacheMutex.RLock()
	defer a.cacheMutex.RUnlock()

	entry, found := a.cache[generateCacheKey(raw)]
	return found && time.Since(entry.timestamp) < a.cacheTTL
}

// Analyze returns the full report for raw, from cache when the same bytes
// were analysed within the TTL.
func (a *Analyzer) Analyze(raw []byte) (Report, error) {
	if !gjson.ValidBytes(raw) {
		return Report{}, ErrInvalidPayload
	}
	if time.Since(a.lastCleanupTime()) > a.cleanupInterval {
		go a.cleanup()
	}

	cacheKey := generateCacheKey(raw)
	a.cacheMutex.RLock()
	entry, found := a.cache[cacheKey]
	ttl := a.cacheTTL
	a.cacheMutex.RUnlock()
	if found && time.Since(entry.timestamp) < ttl {
		a.stats.IncrementStats(1, 0)
		a.metrics.CacheHit()
		return entry.report, nil
	}

	a.stats.IncrementStats(0, 1)
	a.metrics.CacheMiss()

	start := time.Now()
	report := a.engine.MapBackendToReport(raw)
	elapsed := time.Since(start)

	a.metrics.ObserveReport("overview", report.Overview.Grade.String(), len(report.Backlinks.Toxicity.ToxicLinks), elapsed)
	a.stats.Record(stats.Delta{Reports: 1, Grade: report.Overview.Grade.String()})
	a.logger.Debug("Report built",
		zap.String("report_id", report.ID),
		zap.String("domain", report.Metadata.Domain),
		zap.Float64("overall", report.Overview.Overall),
		zap.Int("backlinks", report.Backlinks.Backlinks.Total),
		zap.Duration("elapsed", elapsed),
	)

	a.cacheMutex.Lock()
	a.cache[cacheKey] = cacheEntry{report: report, timestamp: time.Now()}
	size := len(a.cache)
	if size > a.maxCacheSize {
		a.cleanupLocked()
		size = len(a.cache)
	}
	a.cacheMutex.Unlock()
	a.metrics.SetCacheEntries(size)

	return report, nil
}

func (a *Analyzer) lastCleanupTime() time.Time {
	a.cacheMutex.RLock()
	defer a.cacheMutex.RUnlock()
	return a.lastCleanup
}

// Backlinks returns the backlinks section of raw's report.
func (a *Analyzer) Backlinks(raw []byte) (BacklinksAnalysis, error) {
	report, err := a.Analyze(raw)
	if err != nil {
		return BacklinksAnalysis{}, err
	}
	return report.Backlinks, nil
}

// Disavow returns the disavow file for raw's toxic links.
func (a *Analyzer) Disavow(raw []byte) (DisavowFile, error) {
	report, err := a.Analyze(raw)
	if err != nil {
		return DisavowFile{}, err
	}
	a.stats.Record(stats.Delta{DisavowFiles: 1})
	return report.Backlinks.Toxicity.Disavow, nil
}

// Close stops background cleanup and flushes statistics.
func (a *Analyzer) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.done)
		err = a.stats.Close()
	})
	return err
}
