package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFlags() RecommendationFlags {
	return RecommendationFlags{
		HasData:  true,
		Velocity: Velocity{IsNatural: true},
		Score:    ScoreBreakdown{Quantity: 90, Quality: 90, Diversity: 90, Authority: 90, Naturalness: 90, Toxicity: 90},
	}
}

func titles(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func TestBuildRecommendationsHealthyProfile(t *testing.T) {
	recs := BuildRecommendations(baseFlags())
	assert.Empty(t, recs.Immediate)
	assert.Empty(t, recs.Strategic)
}

func TestBuildRecommendationsImmediate(t *testing.T) {
	f := baseFlags()
	f.ToxicLinks, f.ToxicDomains = 3, 2
	f.Footprints = []Footprint{{Signature: "blogspot", Occurrences: 4}, {Signature: "blogspot", Occurrences: 2}}
	f.OverOptimized = []string{"seo tools"}
	f.Velocity = Velocity{IsNatural: false, Warning: "spike"}
	f.NetGrowth = -8
	f.HighOpportunities = []Opportunity{{Domain: "a.com"}, {Domain: "b.com"}, {Domain: "c.com"}, {Domain: "d.com"}}

	recs := BuildRecommendations(f)
	require.Equal(t, []string{
		"Disavow toxic backlinks",
		"Dismantle link network footprints",
		"Reduce over-optimized anchor text",
		"Pursue high-priority link opportunities",
		"Investigate unusual link velocity",
		"Recover lost backlinks",
	}, titles(recs.Immediate))

	assert.Contains(t, recs.Immediate[0].Description, "3 toxic links from 2 domains")
	assert.Equal(t, PriorityHigh, recs.Immediate[0].Priority)
	assert.Equal(t, CategoryCleanup, recs.Immediate[0].Category)
	assert.Contains(t, recs.Immediate[1].Description, "6 links form 2 footprint clusters (blogspot)")
	assert.Contains(t, recs.Immediate[2].Description, `"seo tools"`)
	assert.Contains(t, recs.Immediate[3].Description, "a.com, b.com, c.com.")
	assert.NotContains(t, recs.Immediate[3].Description, "d.com")
	assert.Equal(t, "spike", recs.Immediate[4].Description)
	assert.Contains(t, recs.Immediate[5].Description, "lost 8 more links")
}

func TestBuildRecommendationsStrategic(t *testing.T) {
	f := baseFlags()
	f.Score = ScoreBreakdown{}
	f.Competitors = []Competitor{{Domain: "rival.com", AuthorityGap: 11}, {Domain: "close.com", AuthorityGap: 10}}

	recs := BuildRecommendations(f)
	var goals []string
	for _, s := range recs.Strategic {
		goals = append(goals, s.Goal)
		assert.NotEmpty(t, s.Tactics)
		assert.NotEmpty(t, s.KPIs)
		assert.NotEmpty(t, s.Timeline)
	}
	assert.Equal(t, []string{
		"Build a natural anchor text profile",
		"Diversify referring domains",
		"Raise average linking authority",
		"Grow backlink volume steadily",
		"Close the authority gap with rival.com",
	}, goals)
}

func TestBuildRecommendationsWithoutData(t *testing.T) {
	f := baseFlags()
	f.HasData = false
	f.Score = ScoreBreakdown{}
	f.ToxicLinks = 1

	recs := BuildRecommendations(f)
	assert.Empty(t, recs.Strategic)
	assert.Equal(t, []string{"Disavow toxic backlinks"}, titles(recs.Immediate))
}
