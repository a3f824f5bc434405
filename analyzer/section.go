package analyzer

// ScoreComponent is one weighted part of a section score.
type ScoreComponent struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// SectionScore is the score of a content, performance, security or
// overview section. Grade follows Overall through GradeOf.
type SectionScore struct {
	Components []ScoreComponent `json:"components"`
	Overall    float64          `json:"overall"`
	Grade      Grade            `json:"grade"`
}

// newSectionScore averages components by weight. No components, or only
// zero weights, give an overall of 0.
func newSectionScore(components ...ScoreComponent) SectionScore {
	s := SectionScore{Components: []ScoreComponent{}}
	var sum, weights float64
	for _, c := range components {
		c.Score = round2(clampScore(c.Score))
		s.Components = append(s.Components, c)
		if c.Weight > 0 {
			sum += c.Score * c.Weight
			weights += c.Weight
		}
	}
	if weights > 0 {
		s.Overall = round2(clampScore(sum / weights))
	}
	s.Grade = GradeOf(s.Overall)
	return s
}

// Severity buckets used by the section analyzers.
const (
	SeverityGood     = "good"
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)
