package analyzer

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seo-optimizer/scoring/metrics"
)

func newTestAnalyzer(t *testing.T, opts ...ServiceOption) *Analyzer {
	t.Helper()
	a, err := New(t.TempDir(), nil, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func payloadFor(i int) []byte {
	return []byte(fmt.Sprintf(`{"profile":{"domain":"site%d.com","total_backlinks":%d},
		"backlinks":[{"source_url":"https://ref%d.org/p","anchor_text":"site%d","domain_authority":50}]}`, i, i+1, i, i))
}

func TestAnalyzeCaches(t *testing.T) {
	m := metrics.New()
	a := newTestAnalyzer(t, WithMetrics(m))
	raw := payloadFor(1)

	first, err := a.Analyze(raw)
	require.NoError(t, err)
	assert.True(t, a.IsCached(raw))

	second, err := a.Analyze(raw)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "cached report is returned as built")

	stats := a.GetCacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.CacheMisses)

	third, err := a.Analyze(payloadFor(2))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	month := a.MonthlyStats()
	assert.Equal(t, 2, month.Reports)
}

func TestAnalyzeInvalidPayload(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, raw := range [][]byte{nil, []byte(""), []byte("{oops"), []byte(`{"a":`)} {
		_, err := a.Analyze(raw)
		assert.ErrorIs(t, err, ErrInvalidPayload, "payload %q", raw)
	}
	assert.Equal(t, 0, a.GetCacheStats().Entries)
}

func TestAnalyzeNonObjectJSON(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, raw := range []string{`[]`, `42`, `"text"`, `null`, `{}`} {
		r, err := a.Analyze([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, 0.0, r.Overview.Overall, raw)
		assert.Equal(t, GradeF, r.Overview.Grade, raw)
	}
}

func TestCachePurging(t *testing.T) {
	a := newTestAnalyzer(t)
	a.SetCacheTTL(50 * time.Millisecond)

	raw := payloadFor(1)
	_, err := a.Analyze(raw)
	require.NoError(t, err)
	assert.True(t, a.IsCached(raw), "payload should be cached immediately after analysis")

	time.Sleep(100 * time.Millisecond)
	assert.False(t, a.IsCached(raw), "payload should not be cached after TTL expiration")

	a.cleanup()
	assert.Equal(t, 0, a.GetCacheStats().Entries)
}

func TestCacheSizeLimit(t *testing.T) {
	a := newTestAnalyzer(t, WithMaxCacheSize(3))

	for i := 0; i < 10; i++ {
		_, err := a.Analyze(payloadFor(i))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, a.GetCacheStats().Entries, 3)
	assert.True(t, a.IsCached(payloadFor(9)), "newest report survives eviction")

	a.SetMaxCacheSize(1)
	assert.Equal(t, 1, a.GetCacheStats().Entries)

	a.ClearCache()
	assert.Equal(t, 0, a.GetCacheStats().Entries)
}

func TestBacklinksAndDisavow(t *testing.T) {
	a := newTestAnalyzer(t)
	raw := []byte(`{"toxic_links":[
		{"source_url":"https://bad.example.net/1","toxicity_score":90},
		{"source_url":"https://bad.example.net/2","toxicity_score":80}]}`)

	b, err := a.Backlinks(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Backlinks.Total)

	d, err := a.Disavow(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, d.DomainsCount)
	assert.Equal(t, 2, d.URLsCount)
	assert.Equal(t, 1, a.MonthlyStats().DisavowFiles)

	_, err = a.Disavow([]byte("nope"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestConcurrentCacheAccess(t *testing.T) {
	a := newTestAnalyzer(t)
	raw := payloadFor(7)

	const concurrency = 100
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if _, err := a.Analyze(raw); err != nil {
					errs <- err
				}
			} else {
				a.IsCached(raw)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent access error: %v", err)
	}
	stats := a.GetCacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, concurrency/2, stats.CacheHits+stats.CacheMisses)
}

func TestMemoryEfficiency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping memory test in short mode")
	}
	a := newTestAnalyzer(t, WithMaxCacheSize(50))

	runtime.GC()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	for i := 0; i < 500; i++ {
		_, err := a.Analyze(payloadFor(i))
		require.NoError(t, err)
	}

	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	t.Logf("heap %d -> %d bytes, %d GC runs", before.HeapAlloc, after.HeapAlloc, after.NumGC-before.NumGC)

	assert.LessOrEqual(t, a.GetCacheStats().Entries, 50)
}
