package analyzer

import (
	"encoding/json"
	"strings"
)

// QualityTier grades a single linked entity. Higher values are better,
// except TierToxic which sits below everything.
type QualityTier int

const (
	TierToxic QualityTier = iota
	TierPoor
	TierAverage
	TierGood
	TierExcellent
)

var qualityTierNames = [...]string{"toxic", "poor", "average", "good", "excellent"}

func (t QualityTier) String() string {
	if t < TierToxic || t > TierExcellent {
		return qualityTierNames[TierToxic]
	}
	return qualityTierNames[t]
}

func (t QualityTier) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// Points is the tier's contribution to the profile quality sub-score.
func (t QualityTier) Points() float64 {
	switch t {
	case TierExcellent:
		return 100
	case TierGood:
		return 75
	case TierAverage:
		return 50
	case TierPoor:
		return 25
	default:
		return 0
	}
}

// AnchorType is the classification of a link's anchor text.
type AnchorType int

const (
	AnchorGeneric AnchorType = iota
	AnchorExactMatch
	AnchorPartialMatch
	AnchorBranded
	AnchorNakedURL
	AnchorImage
)

var anchorTypeNames = [...]string{"generic", "exact_match", "partial_match", "branded", "naked_url", "image"}

func (a AnchorType) String() string {
	if a < AnchorGeneric || a > AnchorImage {
		return anchorTypeNames[AnchorGeneric]
	}
	return anchorTypeNames[a]
}

func (a AnchorType) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

// keywordBearing reports whether the anchor carries the target keyword and
// is therefore subject to the over-optimization ceiling.
func (a AnchorType) keywordBearing() bool {
	return a == AnchorExactMatch || a == AnchorPartialMatch
}

// ParseAnchorType accepts the crawler's spellings ("exact", "exact-match",
// "EXACT_MATCH", "brand", "url", ...).
func ParseAnchorType(s string) (AnchorType, bool) {
	switch canonicalToken(s) {
	case "exact_match", "exact":
		return AnchorExactMatch, true
	case "partial_match", "partial":
		return AnchorPartialMatch, true
	case "branded", "brand":
		return AnchorBranded, true
	case "naked_url", "naked", "url":
		return AnchorNakedURL, true
	case "image", "img":
		return AnchorImage, true
	case "generic":
		return AnchorGeneric, true
	}
	return AnchorGeneric, false
}

// ToxicityReason is one rule that fired for a link.
type ToxicityReason uint8

const (
	ReasonSpam ToxicityReason = iota
	ReasonLowQuality
	ReasonLinkFarm
	ReasonPBN
	ReasonSuspiciousAnchor
	ReasonUnnaturalPattern
	reasonCount
)

var toxicityReasonNames = [...]string{"spam", "low_quality", "link_farm", "pbn", "suspicious_anchor", "unnatural_pattern"}

func (r ToxicityReason) String() string {
	if r >= reasonCount {
		return ""
	}
	return toxicityReasonNames[r]
}

func (r ToxicityReason) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// ParseToxicityReason maps a raw reason string onto the closed set.
func ParseToxicityReason(s string) (ToxicityReason, bool) {
	switch canonicalToken(s) {
	case "spam":
		return ReasonSpam, true
	case "low_quality":
		return ReasonLowQuality, true
	case "link_farm":
		return ReasonLinkFarm, true
	case "pbn":
		return ReasonPBN, true
	case "suspicious_anchor":
		return ReasonSuspiciousAnchor, true
	case "unnatural_pattern":
		return ReasonUnnaturalPattern, true
	}
	return 0, false
}

// ReasonSet is a set of toxicity reasons. The zero value is empty.
type ReasonSet uint8

func (s ReasonSet) Has(r ToxicityReason) bool { return r < reasonCount && s&(1<<r) != 0 }

func (s ReasonSet) With(r ToxicityReason) ReasonSet {
	if r >= reasonCount {
		return s
	}
	return s | 1<<r
}

func (s ReasonSet) Union(o ReasonSet) ReasonSet { return s | o }

func (s ReasonSet) Empty() bool { return s == 0 }

// List returns the members in declaration order.
func (s ReasonSet) List() []ToxicityReason {
	out := make([]ToxicityReason, 0, reasonCount)
	for r := ToxicityReason(0); r < reasonCount; r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s ReasonSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.List()) }

// LinkStatus is the lifecycle state of a backlink.
type LinkStatus int

const (
	StatusActive LinkStatus = iota
	StatusNew
	StatusLost
	StatusToxic
	StatusBroken
)

var linkStatusNames = [...]string{"active", "new", "lost", "toxic", "broken"}

func (s LinkStatus) String() string {
	if s < StatusActive || s > StatusBroken {
		return linkStatusNames[StatusActive]
	}
	return linkStatusNames[s]
}

func (s LinkStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func parseLinkStatus(s string) LinkStatus {
	switch canonicalToken(s) {
	case "new":
		return StatusNew
	case "lost", "removed":
		return StatusLost
	case "toxic":
		return StatusToxic
	case "broken", "404":
		return StatusBroken
	}
	return StatusActive
}

// Directive is the rel attribute of a link.
type Directive int

const (
	Dofollow Directive = iota
	Nofollow
	Sponsored
	UGC
)

var directiveNames = [...]string{"dofollow", "nofollow", "sponsored", "ugc"}

func (d Directive) String() string {
	if d < Dofollow || d > UGC {
		return directiveNames[Dofollow]
	}
	return directiveNames[d]
}

func (d Directive) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func parseDirective(s string) Directive {
	switch canonicalToken(s) {
	case "nofollow", "no_follow":
		return Nofollow
	case "sponsored":
		return Sponsored
	case "ugc":
		return UGC
	}
	return Dofollow
}

// Priority orders opportunities and recommendations.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

var priorityNames = [...]string{"low", "medium", "high"}

func (p Priority) String() string {
	if p < PriorityLow || p > PriorityHigh {
		return priorityNames[PriorityLow]
	}
	return priorityNames[p]
}

func (p Priority) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

// Effort is the expected cost of acting on a recommendation.
type Effort = Priority

// Category groups recommendations.
type Category int

const (
	CategoryAcquisition Category = iota
	CategoryCleanup
	CategoryOptimization
	CategoryMonitoring
)

var categoryNames = [...]string{"acquisition", "cleanup", "optimization", "monitoring"}

func (c Category) String() string {
	if c < CategoryAcquisition || c > CategoryMonitoring {
		return categoryNames[CategoryMonitoring]
	}
	return categoryNames[c]
}

func (c Category) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// canonicalToken lowercases and folds '-' and ' ' into '_'.
func canonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
