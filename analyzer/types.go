package analyzer

import "time"

// LinkRecord is one backlink after normalization and classification.
type LinkRecord struct {
	SourceURL       string      `json:"sourceUrl"`
	TargetURL       string      `json:"targetUrl"`
	SourceDomain    string      `json:"sourceDomain"`
	AnchorText      string      `json:"anchorText"`
	AnchorType      AnchorType  `json:"anchorType"`
	Directive       Directive   `json:"linkType"`
	FirstSeen       string      `json:"firstSeen"`
	LastSeen        string      `json:"lastSeen"`
	Status          LinkStatus  `json:"status"`
	DomainAuthority float64     `json:"domainAuthority"`
	PageAuthority   float64     `json:"pageAuthority"`
	SpamScore       float64     `json:"spamScore"`
	ToxicityScore   float64     `json:"toxicityScore"`
	ToxicityReasons ReasonSet   `json:"toxicityReasons"`
	QualityTier     QualityTier `json:"quality"`
	Relevance       float64     `json:"relevance"`
	Category        string      `json:"category"`
	SurroundingText string      `json:"-"`

	// anchorTyped is set when the payload supplied a recognised anchor type.
	anchorTyped bool
	// toxicityScored is set when the payload supplied a numeric toxicity.
	toxicityScored bool
}

// QualityFactors implements QualitySignals.
func (l LinkRecord) QualityFactors() QualityFactors {
	return QualityFactors{
		DomainAuthority: l.DomainAuthority,
		SpamScore:       l.SpamScore,
		ToxicityScore:   l.ToxicityScore,
		Relevance:       l.Relevance,
	}
}

// DomainRecord is one referring domain.
type DomainRecord struct {
	Domain          string      `json:"domain"`
	Backlinks       int         `json:"backlinks"`
	Category        string      `json:"category"`
	Country         string      `json:"country"`
	Language        string      `json:"language"`
	DomainAuthority float64     `json:"domainAuthority"`
	SpamScore       float64     `json:"spamScore"`
	Relevance       float64     `json:"relevance"`
	QualityTier     QualityTier `json:"quality"`
	ToxicityScore   float64     `json:"toxicityScore"`
	FirstSeen       string      `json:"firstSeen"`
	Active          bool        `json:"isActive"`
}

// QualityFactors implements QualitySignals.
func (d DomainRecord) QualityFactors() QualityFactors {
	return QualityFactors{
		DomainAuthority: d.DomainAuthority,
		SpamScore:       d.SpamScore,
		ToxicityScore:   d.ToxicityScore,
		Relevance:       d.Relevance,
	}
}

// AnchorEntry is one row of an anchor text distribution.
type AnchorEntry struct {
	Text               string     `json:"text"`
	Type               AnchorType `json:"type"`
	Count              int        `json:"count"`
	Percentage         float64    `json:"percentage"`
	AvgDomainAuthority float64    `json:"avgDomainAuthority"`
	Natural            bool       `json:"isNatural"`
	OverOptimized      bool       `json:"overOptimized"`
	RiskScore          float64    `json:"riskScore"`

	typed bool
}

// ScoreBreakdown holds the backlink sub-scores; Grade follows Overall.
type ScoreBreakdown struct {
	Quantity    float64 `json:"quantity"`
	Quality     float64 `json:"quality"`
	Diversity   float64 `json:"diversity"`
	Authority   float64 `json:"authority"`
	Naturalness float64 `json:"naturalness"`
	Toxicity    float64 `json:"toxicity"`
	Overall     float64 `json:"overall"`
	Grade       Grade   `json:"grade"`
}

// Opportunity is a candidate link-building target.
type Opportunity struct {
	Domain          string   `json:"domain"`
	Type            string   `json:"type"`
	Contact         string   `json:"contact,omitempty"`
	DomainAuthority float64  `json:"domainAuthority"`
	Difficulty      float64  `json:"difficulty"`
	Relevance       float64  `json:"relevanceScore"`
	Score           float64  `json:"score"`
	Priority        Priority `json:"priority"`
}

// Recommendation is a single actionable item.
type Recommendation struct {
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Effort      Effort   `json:"effort"`
	Impact      string   `json:"impact"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// StrategicRecommendation bundles a longer-horizon plan.
type StrategicRecommendation struct {
	Goal     string   `json:"goal"`
	Tactics  []string `json:"tactics"`
	KPIs     []string `json:"kpis"`
	Timeline string   `json:"timeline"`
}

// Recommendations is the output of BuildRecommendations.
type Recommendations struct {
	Immediate []Recommendation          `json:"immediate"`
	Strategic []StrategicRecommendation `json:"strategic"`
}

// DisavowFile is the generated disavow artifact.
type DisavowFile struct {
	Content      string `json:"content"`
	DomainsCount int    `json:"domainsCount"`
	URLsCount    int    `json:"urlsCount"`
	LastUpdated  string `json:"lastUpdated"`
}

// Profile is the headline backlink counters.
type Profile struct {
	Domain           string  `json:"domain"`
	TotalBacklinks   int     `json:"totalBacklinks"`
	ReferringDomains int     `json:"referringDomains"`
	DomainAuthority  float64 `json:"domainAuthority"`
	DofollowLinks    int     `json:"dofollowLinks"`
	NofollowLinks    int     `json:"nofollowLinks"`
	NewLinks30d      int     `json:"newLinks30d"`
	LostLinks30d     int     `json:"lostLinks30d"`
	NetGrowth        int     `json:"netGrowth"`
}

// Competitor is a competing domain's headline profile. AuthorityGap is the
// competitor's domain authority minus ours.
type Competitor struct {
	Domain           string  `json:"domain"`
	DomainAuthority  float64 `json:"domainAuthority"`
	TotalBacklinks   int     `json:"totalBacklinks"`
	ReferringDomains int     `json:"referringDomains"`
	CommonDomains    int     `json:"commonDomains"`
	AuthorityGap     float64 `json:"authorityGap"`
}

// HistoryPoint is one period of link acquisition history.
type HistoryPoint struct {
	Date      string `json:"date"`
	NewLinks  int    `json:"newLinks"`
	LostLinks int    `json:"lostLinks"`
	Total     int    `json:"totalBacklinks"`

	at time.Time
}

// Net is new minus lost links for the period.
func (h HistoryPoint) Net() int { return h.NewLinks - h.LostLinks }

// RawScores carries sub-scores the backend already computed. A nil field
// means the payload did not provide it.
type RawScores struct {
	Quantity    *float64
	Quality     *float64
	Diversity   *float64
	Authority   *float64
	Naturalness *float64
	Toxicity    *float64
	Overall     *float64
}

// CanonicalInput is the fully-defaulted form of a raw payload. Every slice
// is non-nil.
type CanonicalInput struct {
	Profile          Profile
	TargetKeyword    string
	BrandNames       []string
	Backlinks        []LinkRecord
	ReferringDomains []DomainRecord
	Anchors          []AnchorEntry
	Competitors      []Competitor
	ToxicLinks       []LinkRecord
	Opportunities    []Opportunity
	History          []HistoryPoint
	Scores           RawScores
	Content          ContentInput
	Performance      PerformanceInput
	Security         SecurityInput

	// domainsSynthesized is true when ReferringDomains was derived from the
	// links rather than supplied.
	domainsSynthesized bool
}
