package analyzer

import "github.com/google/uuid"

// Report bundles every section with an overview score.
type Report struct {
	ID          string              `json:"id"`
	Metadata    Metadata            `json:"metadata"`
	Overview    SectionScore        `json:"overview"`
	Backlinks   BacklinksAnalysis   `json:"backlinks"`
	Content     ContentAnalysis     `json:"content"`
	Performance PerformanceAnalysis `json:"performance"`
	Security    SecurityAnalysis    `json:"security"`
}

// Overview weights. Sections without data are left out and the remaining
// weights renormalize.
const (
	overviewWeightBacklinks   = 0.35
	overviewWeightContent     = 0.25
	overviewWeightPerformance = 0.20
	overviewWeightSecurity    = 0.20
)

// MapBackendToReport builds the full report with the default engine.
func MapBackendToReport(raw []byte) Report {
	return defaultEngine.MapBackendToReport(raw)
}

// MapBackendToReport normalizes raw once and builds every section from it.
func (en *Engine) MapBackendToReport(raw []byte) Report {
	return en.Report(Normalize(raw))
}

// Report builds every section from an already normalized input.
func (en *Engine) Report(in CanonicalInput) Report {
	md := en.metadata(in)
	r := Report{
		ID:          uuid.NewString(),
		Metadata:    md,
		Backlinks:   en.BacklinksAnalysis(in),
		Content:     en.contentAnalysis(in, md),
		Performance: en.performanceAnalysis(in, md),
		Security:    en.securityAnalysis(in, md),
	}
	r.Backlinks.Metadata = md

	var components []ScoreComponent
	if r.Backlinks.Backlinks.Total > 0 || r.Backlinks.ReferringDomains.Total > 0 || r.Backlinks.Profile.TotalBacklinks > 0 {
		components = append(components, ScoreComponent{Name: "backlinks", Score: r.Backlinks.Score.Overall, Weight: overviewWeightBacklinks})
	}
	if in.Content.present {
		components = append(components, ScoreComponent{Name: "content", Score: r.Content.Score.Overall, Weight: overviewWeightContent})
	}
	if in.Performance.present {
		components = append(components, ScoreComponent{Name: "performance", Score: r.Performance.Score.Overall, Weight: overviewWeightPerformance})
	}
	if in.Security.present {
		components = append(components, ScoreComponent{Name: "security", Score: r.Security.Score.Overall, Weight: overviewWeightSecurity})
	}
	r.Overview = newSectionScore(components...)
	return r
}
