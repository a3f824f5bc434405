package analyzer

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// PerformanceInput is the normalized performance section of a payload.
// Vitals that were not measured are nil.
type PerformanceInput struct {
	PageSize        int
	LoadTimeMs      int
	MobileOptimized bool
	Requests        int
	LCPMs           *float64
	CLS             *float64
	TTFBMs          *float64
	INPMs           *float64

	present bool
}

// Vital is one Core Web Vital measurement with its rating.
type Vital struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Rating string  `json:"rating"`
	Score  float64 `json:"score"`
}

// PerformanceAnalysis is the performance report.
type PerformanceAnalysis struct {
	Metadata         Metadata     `json:"metadata"`
	PageSize         int          `json:"pageSize"`
	LoadTime         int          `json:"loadTime"`
	MobileOptimized  bool         `json:"mobileOptimized"`
	Requests         int          `json:"requests"`
	PageSizeSeverity string       `json:"pageSizeSeverity"`
	LoadTimeSeverity string       `json:"loadTimeSeverity"`
	Vitals           []Vital      `json:"vitals"`
	Score            SectionScore `json:"score"`
	Issues           []string     `json:"issues"`
}

func normalizePerformance(r gjson.Result) PerformanceInput {
	var p PerformanceInput
	if !r.IsObject() {
		return p
	}
	p.present = true
	p.PageSize = count(field(r, "page_size", "page_size_bytes"))
	p.LoadTimeMs = count(field(r, "load_time", "load_time_ms"))
	p.MobileOptimized = boolean(field(r, "mobile_optimized", "mobile_friendly"), false)
	p.Requests = count(field(r, "requests", "request_count"))

	vitals := first(field(r, "core_web_vitals", "vitals"), r)
	opt := func(keys ...string) *float64 {
		v, ok := numOK(field(vitals, keys...))
		if !ok || v < 0 {
			return nil
		}
		return &v
	}
	p.LCPMs = opt("lcp", "largest_contentful_paint")
	p.CLS = opt("cls", "cumulative_layout_shift")
	p.TTFBMs = opt("ttfb", "time_to_first_byte")
	p.INPMs = opt("inp", "interaction_to_next_paint")
	return p
}

// pageSizeSeverity buckets a page size in bytes and returns the points
// deducted from the performance score.
func pageSizeSeverity(size int) (string, float64) {
	kb := float64(size) / 1024.0
	switch {
	case kb > 5120:
		return SeverityCritical, 40
	case kb > 2048:
		return SeverityMajor, 30
	case kb > 1024:
		return SeverityModerate, 20
	case kb > 500:
		return SeverityMinor, 10
	}
	return SeverityGood, 0
}

func loadTimeSeverity(ms int) (string, float64) {
	switch {
	case ms > 3000:
		return SeverityCritical, 40
	case ms > 2000:
		return SeverityMajor, 30
	case ms > 1500:
		return SeverityModerate, 20
	case ms > 1000:
		return SeverityMinor, 10
	}
	return SeverityGood, 0
}

// vitalThresholds are the "good" and "poor" boundaries of each vital.
var vitalThresholds = []struct {
	name       string
	unit       string
	good, poor float64
	value      func(PerformanceInput) *float64
}{
	{"LCP", "ms", 2500, 4000, func(p PerformanceInput) *float64 { return p.LCPMs }},
	{"CLS", "", 0.1, 0.25, func(p PerformanceInput) *float64 { return p.CLS }},
	{"TTFB", "ms", 800, 1800, func(p PerformanceInput) *float64 { return p.TTFBMs }},
	{"INP", "ms", 200, 500, func(p PerformanceInput) *float64 { return p.INPMs }},
}

// rateVital scores 100 up to good, 50 at poor, falling linearly to 0 at
// twice poor.
func rateVital(v, good, poor float64) (string, float64) {
	switch {
	case v <= good:
		return "good", 100
	case v <= poor:
		return "needs-improvement", 100 - 50*(v-good)/(poor-good)
	}
	s := 50 - 50*(v-poor)/poor
	if s < 0 {
		s = 0
	}
	return "poor", s
}

// MapBackendToPerformanceAnalysis builds the performance report with the
// default engine.
func MapBackendToPerformanceAnalysis(raw []byte) PerformanceAnalysis {
	return defaultEngine.MapBackendToPerformanceAnalysis(raw)
}

// MapBackendToPerformanceAnalysis builds the performance report from a raw
// payload.
func (en *Engine) MapBackendToPerformanceAnalysis(raw []byte) PerformanceAnalysis {
	in := Normalize(raw)
	return en.performanceAnalysis(in, en.metadata(in))
}

func (en *Engine) performanceAnalysis(in CanonicalInput, md Metadata) PerformanceAnalysis {
	p := in.Performance
	a := PerformanceAnalysis{
		Metadata:         md,
		PageSize:         p.PageSize,
		LoadTime:         p.LoadTimeMs,
		MobileOptimized:  p.MobileOptimized,
		Requests:         p.Requests,
		PageSizeSeverity: SeverityGood,
		LoadTimeSeverity: SeverityGood,
		Vitals:           []Vital{},
		Score:            newSectionScore(),
		Issues:           []string{},
	}
	if !p.present {
		return a
	}

	// Page delivery: 100 points less size, load time and mobile deductions.
	delivery := 100.0
	var sizePenalty, loadPenalty float64
	a.PageSizeSeverity, sizePenalty = pageSizeSeverity(p.PageSize)
	a.LoadTimeSeverity, loadPenalty = loadTimeSeverity(p.LoadTimeMs)
	delivery -= sizePenalty + loadPenalty
	if !p.MobileOptimized {
		delivery -= 20
	}

	components := []ScoreComponent{{Name: "delivery", Score: delivery, Weight: 0.5}}
	var vitalSum float64
	for _, vt := range vitalThresholds {
		v := vt.value(p)
		if v == nil {
			continue
		}
		rating, s := rateVital(*v, vt.good, vt.poor)
		a.Vitals = append(a.Vitals, Vital{Name: vt.name, Value: round2(*v), Unit: vt.unit, Rating: rating, Score: round2(s)})
		vitalSum += s
		if rating != "good" {
			a.Issues = append(a.Issues, fmt.Sprintf("%s is %s (%.2f%s, good is at most %g%s)", vt.name, rating, *v, vt.unit, vt.good, vt.unit))
		}
	}
	if len(a.Vitals) > 0 {
		components = append(components, ScoreComponent{Name: "vitals", Score: vitalSum / float64(len(a.Vitals)), Weight: 0.5})
	}
	a.Score = newSectionScore(components...)
	a.Issues = append(deliveryIssues(a), a.Issues...)
	return a
}

func deliveryIssues(a PerformanceAnalysis) []string {
	issues := []string{}
	switch a.PageSizeSeverity {
	case SeverityCritical:
		issues = append(issues, "Critical: Page size is extremely large (>5MB). Consider optimizing images, minifying CSS/JS, and removing unnecessary resources")
	case SeverityMajor:
		issues = append(issues, "Major: Page size is very large (>2MB). Optimize images and consider lazy loading for non-critical resources")
	case SeverityModerate:
		issues = append(issues, "Moderate: Page size is large (>1MB). Look for opportunities to optimize images and resources")
	case SeverityMinor:
		issues = append(issues, "Minor: Page size is above optimal (>500KB). Consider basic optimization techniques")
	}
	switch a.LoadTimeSeverity {
	case SeverityCritical:
		issues = append(issues, "Critical: Page load time is extremely slow (>3s). Consider using a CDN, optimizing server response time, and reducing resource size")
	case SeverityMajor:
		issues = append(issues, "Major: Page load time is slow (>2s). Optimize server response time and consider resource optimization")
	case SeverityModerate:
		issues = append(issues, "Moderate: Page load time is above optimal (>1.5s). Look for opportunities to improve performance")
	case SeverityMinor:
		issues = append(issues, "Minor: Page load time is slightly above optimal (>1s). Consider fine-tuning performance")
	}
	if !a.MobileOptimized {
		issues = append(issues, "Add a proper viewport meta tag for mobile optimization")
	}
	return issues
}
