package analyzer

import (
	"math"
	"time"
)

// Metadata identifies a report.
type Metadata struct {
	ScanDate      string `json:"scanDate"`
	Domain        string `json:"domain"`
	TargetKeyword string `json:"targetKeyword"`
}

// BacklinkList is the classified backlink set.
type BacklinkList struct {
	List  []LinkRecord `json:"list"`
	Total int          `json:"total"`
}

// DomainList is the classified referring domain set.
type DomainList struct {
	List  []DomainRecord `json:"list"`
	Total int            `json:"total"`
}

// BacklinksAnalysis is the backlinks report.
type BacklinksAnalysis struct {
	Metadata         Metadata         `json:"metadata"`
	Profile          Profile          `json:"profile"`
	Score            ScoreBreakdown   `json:"score"`
	Backlinks        BacklinkList     `json:"backlinks"`
	ReferringDomains DomainList       `json:"referringDomains"`
	Anchors          AnchorAnalysis   `json:"anchorText"`
	Toxicity         ToxicityAnalysis `json:"toxicity"`
	Diversity        Diversity        `json:"diversity"`
	Velocity         Velocity         `json:"velocity"`
	Patterns         PatternReport    `json:"patterns"`
	Competitors      []Competitor     `json:"competitors"`
	Opportunities    []Opportunity    `json:"opportunities"`
	Recommendations  Recommendations  `json:"recommendations"`
	History          []HistoryPoint   `json:"history"`
}

// Sub-score weights of the backlink overall score.
const (
	backlinkWeightQuantity    = 0.15
	backlinkWeightQuality     = 0.25
	backlinkWeightDiversity   = 0.15
	backlinkWeightAuthority   = 0.20
	backlinkWeightNaturalness = 0.15
	backlinkWeightToxicity    = 0.10
)

func (en *Engine) metadata(in CanonicalInput) Metadata {
	return Metadata{
		ScanDate:      en.now().UTC().Format(time.RFC3339),
		Domain:        in.Profile.Domain,
		TargetKeyword: in.TargetKeyword,
	}
}

// MapBackendToBacklinksAnalysis builds the backlinks report with the
// default engine.
func MapBackendToBacklinksAnalysis(raw []byte) BacklinksAnalysis {
	return defaultEngine.MapBackendToBacklinksAnalysis(raw)
}

// MapBackendToBacklinksAnalysis normalizes raw and runs the full backlink
// pipeline over it. Garbage in gives an empty, F-graded report.
func (en *Engine) MapBackendToBacklinksAnalysis(raw []byte) BacklinksAnalysis {
	in := Normalize(raw)
	return en.BacklinksAnalysis(in)
}

// BacklinksAnalysis runs the backlink pipeline over an already normalized
// input.
func (en *Engine) BacklinksAnalysis(in CanonicalInput) BacklinksAnalysis {
	links := mergeLinks(in.Backlinks, en.scoreListedToxicLinks(in.ToxicLinks))
	for i := range links {
		if !links[i].anchorTyped {
			links[i].AnchorType = en.ClassifyAnchor(links[i].AnchorText, in.TargetKeyword, in.BrandNames)
		}
	}

	anchorEntries := in.Anchors
	if len(anchorEntries) == 0 {
		anchorEntries = anchorsFromLinks(links)
	}
	anchors := en.AnalyzeAnchors(anchorEntries, in.TargetKeyword, in.BrandNames)
	overOptimized := make(map[string]bool, len(anchors.OverOptimized))
	for _, a := range anchors.OverOptimized {
		overOptimized[normalizeText(a)] = true
	}

	patterns := en.AnalyzeBacklinkPatterns(links, in.TargetKeyword)
	ctx := NewToxicityContext(patterns.FootprintDetection, overOptimized)
	for i := range links {
		links[i] = en.classifyLink(links[i], ctx)
	}

	domains := in.ReferringDomains
	if len(domains) == 0 {
		domains = synthesizeDomains(links)
	} else {
		domains = append([]DomainRecord(nil), domains...)
	}
	linkTox := indexLinkToxicity(links)
	for i := range domains {
		domains[i] = en.classifyDomain(domains[i], linkTox)
	}

	toxicity := en.toxicityAnalysis(links, domains)
	profile := fillProfile(in.Profile, links, domains)

	competitors := make([]Competitor, len(in.Competitors))
	for i, c := range in.Competitors {
		c.AuthorityGap = round2(c.DomainAuthority - profile.DomainAuthority)
		competitors[i] = c
	}
	opportunities := PrioritizeOpportunities(in.Opportunities)

	a := BacklinksAnalysis{
		Metadata:         en.metadata(in),
		Profile:          profile,
		Backlinks:        BacklinkList{List: links, Total: len(links)},
		ReferringDomains: DomainList{List: domains, Total: len(domains)},
		Anchors:          anchors,
		Toxicity:         toxicity,
		Diversity:        CalculateDomainDiversity(domains),
		Velocity:         en.CalculateLinkVelocity(in.History),
		Patterns:         patterns,
		Competitors:      competitors,
		Opportunities:    opportunities,
		History:          in.History,
	}
	if a.History == nil {
		a.History = []HistoryPoint{}
	}

	hasData := len(links) > 0 || len(domains) > 0 || len(anchors.Distribution) > 0 || profile.TotalBacklinks > 0
	a.Score = en.backlinkScore(in.Scores, hasData, a)

	var high []Opportunity
	for _, o := range opportunities {
		if o.Priority == PriorityHigh {
			high = append(high, o)
		}
	}
	a.Recommendations = BuildRecommendations(RecommendationFlags{
		HasData:           hasData,
		ToxicLinks:        len(toxicity.ToxicLinks),
		ToxicDomains:      toxicity.Disavow.DomainsCount,
		Footprints:        patterns.FootprintDetection,
		OverOptimized:     anchors.OverOptimized,
		Velocity:          a.Velocity,
		NetGrowth:         profile.NetGrowth,
		HighOpportunities: high,
		Competitors:       competitors,
		Score:             a.Score,
	})
	return a
}

// mergeLinks folds toxic_links into the backlink set. A toxic entry whose
// source URL is already listed raises that link's toxicity and adds its
// reasons instead of duplicating it.
func mergeLinks(backlinks, toxic []LinkRecord) []LinkRecord {
	out := make([]LinkRecord, 0, len(backlinks)+len(toxic))
	index := make(map[string]int, len(backlinks)+len(toxic))
	add := func(l LinkRecord) {
		if l.SourceURL != "" {
			if i, ok := index[l.SourceURL]; ok {
				m := &out[i]
				m.ToxicityScore = math.Max(m.ToxicityScore, l.ToxicityScore)
				m.ToxicityReasons = m.ToxicityReasons.Union(l.ToxicityReasons)
				m.SpamScore = math.Max(m.SpamScore, l.SpamScore)
				return
			}
			index[l.SourceURL] = len(out)
		}
		out = append(out, l)
	}
	for _, l := range backlinks {
		add(l)
	}
	for _, l := range toxic {
		add(l)
	}
	return out
}

// scoreListedToxicLinks places toxic_links entries that carry no score of
// their own just above the toxic cutoff, so the listing survives
// classification and reaches the disavow file.
func (en *Engine) scoreListedToxicLinks(toxic []LinkRecord) []LinkRecord {
	out := make([]LinkRecord, len(toxic))
	for i, l := range toxic {
		if !l.toxicityScored && l.Status == StatusToxic {
			l.ToxicityScore = math.Min(100, en.cfg.Thresholds.ToxicCutoff+1)
		}
		out[i] = l
	}
	return out
}

// synthesizeDomains groups links by registrable domain when the payload
// carries no referring domain list.
func synthesizeDomains(links []LinkRecord) []DomainRecord {
	index := make(map[string]int)
	out := []DomainRecord{}
	sums := []struct{ da, spam, relevance float64 }{}
	for _, l := range links {
		name := registrableDomain(l.SourceDomain)
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, DomainRecord{Domain: name, Category: l.Category, FirstSeen: l.FirstSeen, Active: true})
			sums = append(sums, struct{ da, spam, relevance float64 }{})
		}
		d := &out[i]
		d.Backlinks++
		sums[i].da += l.DomainAuthority
		sums[i].spam += l.SpamScore
		sums[i].relevance += l.Relevance
		if d.Category == "" {
			d.Category = l.Category
		}
		if l.FirstSeen != "" && (d.FirstSeen == "" || l.FirstSeen < d.FirstSeen) {
			d.FirstSeen = l.FirstSeen
		}
	}
	for i := range out {
		n := float64(out[i].Backlinks)
		out[i].DomainAuthority = round2(sums[i].da / n)
		out[i].SpamScore = round2(sums[i].spam / n)
		out[i].Relevance = round2(sums[i].relevance / n)
	}
	return out
}

// classifyDomain inherits toxicity from the worst link and grades the
// domain. A toxic domain is never active.
func (en *Engine) classifyDomain(d DomainRecord, linkTox linkToxicity) DomainRecord {
	d.ToxicityScore = linkTox.worst(d)
	d.QualityTier = en.AssessQuality(d)
	if en.isToxic(d.ToxicityScore) {
		d.Active = false
	}
	return d
}

func (en *Engine) toxicityAnalysis(links []LinkRecord, domains []DomainRecord) ToxicityAnalysis {
	t := ToxicityAnalysis{
		ToxicLinks:   []LinkRecord{},
		ToxicDomains: []string{},
	}
	for _, l := range links {
		if l.Status == StatusToxic {
			t.ToxicLinks = append(t.ToxicLinks, l)
		}
	}
	for _, d := range domains {
		if en.isToxic(d.ToxicityScore) {
			t.ToxicDomains = append(t.ToxicDomains, d.Domain)
		}
	}
	t.ProfileScore = ProfileToxicity(links)
	t.RiskLevel = riskLevel(t.ProfileScore)
	t.ReasonCounts = countReasons(links)
	t.Disavow = GenerateDisavowFile(t.ToxicLinks, en.now())
	return t
}

// fillProfile keeps every counter the payload supplied and derives the
// missing ones from the entity lists.
func fillProfile(p Profile, links []LinkRecord, domains []DomainRecord) Profile {
	if p.TotalBacklinks == 0 {
		p.TotalBacklinks = len(links)
	}
	if p.ReferringDomains == 0 {
		p.ReferringDomains = len(domains)
	}
	if p.DofollowLinks == 0 && p.NofollowLinks == 0 {
		for _, l := range links {
			if l.Directive == Dofollow {
				p.DofollowLinks++
			} else {
				p.NofollowLinks++
			}
		}
	}
	if p.NewLinks30d == 0 && p.LostLinks30d == 0 {
		for _, l := range links {
			switch l.Status {
			case StatusNew:
				p.NewLinks30d++
			case StatusLost:
				p.LostLinks30d++
			}
		}
	}
	p.NetGrowth = p.NewLinks30d - p.LostLinks30d
	return p
}

func (en *Engine) backlinkScore(raw RawScores, hasData bool, a BacklinksAnalysis) ScoreBreakdown {
	var s ScoreBreakdown
	if hasData {
		links := a.Backlinks.List
		domains := a.ReferringDomains.List

		if a.Profile.TotalBacklinks > 0 {
			s.Quantity = clampScore(math.Log10(float64(a.Profile.TotalBacklinks)+1) * 20)
		}

		switch {
		case len(links) > 0:
			s.Quality = meanPoints(len(links), func(i int) float64 { return links[i].QualityTier.Points() })
		case len(domains) > 0:
			s.Quality = meanPoints(len(domains), func(i int) float64 { return domains[i].QualityTier.Points() })
		}

		s.Diversity = a.Diversity.OverallDiversity

		switch {
		case a.Profile.DomainAuthority > 0:
			s.Authority = a.Profile.DomainAuthority
		case len(domains) > 0:
			s.Authority = meanPoints(len(domains), func(i int) float64 { return domains[i].DomainAuthority })
		case len(links) > 0:
			s.Authority = meanPoints(len(links), func(i int) float64 { return links[i].DomainAuthority })
		}

		if len(a.Anchors.Distribution) > 0 {
			s.Naturalness = a.Anchors.NaturalnessScore
		}
		s.Toxicity = 100 - a.Toxicity.ProfileScore
	}

	override := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	override(&s.Quantity, raw.Quantity)
	override(&s.Quality, raw.Quality)
	override(&s.Diversity, raw.Diversity)
	override(&s.Authority, raw.Authority)
	override(&s.Naturalness, raw.Naturalness)
	override(&s.Toxicity, raw.Toxicity)

	s.Quantity = round2(clampScore(s.Quantity))
	s.Quality = round2(clampScore(s.Quality))
	s.Diversity = round2(clampScore(s.Diversity))
	s.Authority = round2(clampScore(s.Authority))
	s.Naturalness = round2(clampScore(s.Naturalness))
	s.Toxicity = round2(clampScore(s.Toxicity))

	s.Overall = s.Quantity*backlinkWeightQuantity +
		s.Quality*backlinkWeightQuality +
		s.Diversity*backlinkWeightDiversity +
		s.Authority*backlinkWeightAuthority +
		s.Naturalness*backlinkWeightNaturalness +
		s.Toxicity*backlinkWeightToxicity
	override(&s.Overall, raw.Overall)
	s.Overall = round2(clampScore(s.Overall))
	s.Grade = GradeOf(s.Overall)
	return s
}

func meanPoints(n int, at func(int) float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += at(i)
	}
	return sum / float64(n)
}
