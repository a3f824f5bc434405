package analyzer

import "sort"

// Opportunity tier rules. The composite bands decide most tiers; a strong
// and topical domain is always high, a weak one is always low.
const (
	highCompositeMin   = 80
	mediumCompositeMin = 50

	strongAuthorityMin = 70
	strongRelevanceMin = 80
	weakAuthorityMax   = 50
)

// OpportunityScore is DA×0.4 + relevance×0.3 + (100−difficulty)×0.3.
func OpportunityScore(o Opportunity) float64 {
	return round2(clampScore(o.DomainAuthority)*0.4 +
		clampScore(o.Relevance)*0.3 +
		(100-clampScore(o.Difficulty))*0.3)
}

func opportunityPriority(o Opportunity) Priority {
	switch {
	case o.DomainAuthority < weakAuthorityMax:
		return PriorityLow
	case o.Score >= highCompositeMin,
		o.DomainAuthority >= strongAuthorityMin && o.Relevance >= strongRelevanceMin:
		return PriorityHigh
	case o.Score >= mediumCompositeMin:
		return PriorityMedium
	}
	return PriorityLow
}

// PrioritizeOpportunities scores and tiers every opportunity and returns a
// new slice sorted by descending score. Ties keep their input order.
func PrioritizeOpportunities(list []Opportunity) []Opportunity {
	out := make([]Opportunity, len(list))
	copy(out, list)
	for i := range out {
		out[i].Score = OpportunityScore(out[i])
		out[i].Priority = opportunityPriority(out[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
