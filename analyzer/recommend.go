package analyzer

import (
	"fmt"
	"strings"
)

// RecommendationFlags are the findings recommendations are derived from.
type RecommendationFlags struct {
	HasData           bool
	ToxicLinks        int
	ToxicDomains      int
	Footprints        []Footprint
	OverOptimized     []string
	Velocity          Velocity
	NetGrowth         int
	HighOpportunities []Opportunity
	Competitors       []Competitor
	Score             ScoreBreakdown
}

const (
	naturalnessTarget = 70
	diversityTarget   = 50
	authorityTarget   = 40
	quantityTarget    = 40
	competitorGapMin  = 10
)

// BuildRecommendations turns findings into immediate actions and longer
// strategic plans. The output depends only on flags.
func BuildRecommendations(flags RecommendationFlags) Recommendations {
	recs := Recommendations{
		Immediate: []Recommendation{},
		Strategic: []StrategicRecommendation{},
	}

	if flags.ToxicLinks > 0 {
		recs.Immediate = append(recs.Immediate, Recommendation{
			Category: CategoryCleanup,
			Priority: PriorityHigh,
			Effort:   PriorityMedium,
			Impact:   "high",
			Title:    "Disavow toxic backlinks",
			Description: fmt.Sprintf("Submit the generated disavow file covering %d toxic links from %d domains, and request removal where the site owner is reachable.",
				flags.ToxicLinks, flags.ToxicDomains),
		})
	}
	if len(flags.Footprints) > 0 {
		names := make([]string, 0, len(flags.Footprints))
		occurrences := 0
		for _, fp := range flags.Footprints {
			names = append(names, fp.Signature)
			occurrences += fp.Occurrences
		}
		recs.Immediate = append(recs.Immediate, Recommendation{
			Category: CategoryCleanup,
			Priority: PriorityHigh,
			Effort:   PriorityHigh,
			Impact:   "high",
			Title:    "Dismantle link network footprints",
			Description: fmt.Sprintf("%d links form %d footprint clusters (%s). Remove or disavow them before they are treated as a link scheme.",
				occurrences, len(flags.Footprints), strings.Join(uniqueStrings(names), ", ")),
		})
	}
	if len(flags.OverOptimized) > 0 {
		recs.Immediate = append(recs.Immediate, Recommendation{
			Category: CategoryOptimization,
			Priority: PriorityHigh,
			Effort:   PriorityMedium,
			Impact:   "medium",
			Title:    "Reduce over-optimized anchor text",
			Description: fmt.Sprintf("Anchors %s exceed the safe share for keyword anchors. Ask for branded or naked URL anchors on new links.",
				quoteList(flags.OverOptimized)),
		})
	}
	if len(flags.HighOpportunities) > 0 {
		domains := make([]string, 0, 3)
		for i, o := range flags.HighOpportunities {
			if i == 3 {
				break
			}
			domains = append(domains, o.Domain)
		}
		recs.Immediate = append(recs.Immediate, Recommendation{
			Category: CategoryAcquisition,
			Priority: PriorityHigh,
			Effort:   PriorityMedium,
			Impact:   "high",
			Title:    "Pursue high-priority link opportunities",
			Description: fmt.Sprintf("%d high-priority opportunities found; start with %s.",
				len(flags.HighOpportunities), strings.Join(domains, ", ")),
		})
	}
	if !flags.Velocity.IsNatural {
		recs.Immediate = append(recs.Immediate, Recommendation{
			Category:    CategoryMonitoring,
			Priority:    PriorityMedium,
			Effort:      PriorityLow,
			Impact:      "medium",
			Title:       "Investigate unusual link velocity",
			Description: flags.Velocity.Warning,
		})
	}
	if flags.NetGrowth < 0 {
		recs.Immediate = append(recs.Immediate, Recommendation{
			Category:    CategoryMonitoring,
			Priority:    PriorityMedium,
			Effort:      PriorityLow,
			Impact:      "medium",
			Title:       "Recover lost backlinks",
			Description: fmt.Sprintf("The profile lost %d more links than it gained in the last 30 days. Review lost links and reclaim the valuable ones.", -flags.NetGrowth),
		})
	}

	if !flags.HasData {
		return recs
	}

	s := flags.Score
	if s.Naturalness < naturalnessTarget {
		recs.Strategic = append(recs.Strategic, StrategicRecommendation{
			Goal:     "Build a natural anchor text profile",
			Tactics:  []string{"Favour branded and naked URL anchors in outreach", "Vary partial match phrasing", "Earn editorial links through linkable assets"},
			KPIs:     []string{fmt.Sprintf("Naturalness score above %d", naturalnessTarget), "No anchor flagged as over-optimized"},
			Timeline: "3-6 months",
		})
	}
	if s.Diversity < diversityTarget {
		recs.Strategic = append(recs.Strategic, StrategicRecommendation{
			Goal:     "Diversify referring domains",
			Tactics:  []string{"Target new industry categories", "Run outreach in additional regions", "Publish guest content on niche publications"},
			KPIs:     []string{fmt.Sprintf("Overall diversity above %d", diversityTarget), "New referring domains each month"},
			Timeline: "6 months",
		})
	}
	if s.Authority < authorityTarget {
		recs.Strategic = append(recs.Strategic, StrategicRecommendation{
			Goal:     "Raise average linking authority",
			Tactics:  []string{"Prioritize high-authority opportunities", "Pitch data-driven studies to major publications", "Reclaim unlinked brand mentions"},
			KPIs:     []string{fmt.Sprintf("Authority score above %d", authorityTarget), "Share of links from DA 50+ domains"},
			Timeline: "6-12 months",
		})
	}
	if s.Quantity < quantityTarget {
		recs.Strategic = append(recs.Strategic, StrategicRecommendation{
			Goal:     "Grow backlink volume steadily",
			Tactics:  []string{"Set a monthly link acquisition target", "Repurpose content into shareable formats", "Build partner and supplier links"},
			KPIs:     []string{"Positive net link growth every month", fmt.Sprintf("Quantity score above %d", quantityTarget)},
			Timeline: "3-6 months",
		})
	}
	for _, c := range flags.Competitors {
		if c.AuthorityGap > competitorGapMin {
			recs.Strategic = append(recs.Strategic, StrategicRecommendation{
				Goal:     fmt.Sprintf("Close the authority gap with %s", c.Domain),
				Tactics:  []string{"Analyse the competitor's top referring domains", "Target domains linking to competitors but not to us"},
				KPIs:     []string{fmt.Sprintf("Authority gap below %d points", competitorGapMin)},
				Timeline: "6-12 months",
			})
		}
	}
	return recs
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
