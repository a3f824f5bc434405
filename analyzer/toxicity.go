package analyzer

import (
	"math"
	"strings"
	"unicode"
)

// ToxicityContext carries the profile-level findings that per-link rules
// depend on. The zero value disables the footprint and pattern rules.
// Build it with NewToxicityContext when classifying many links.
type ToxicityContext struct {
	Footprints    []Footprint
	OverOptimized map[string]bool

	clusters map[string]FootprintKind
	keyword  string
}

// NewToxicityContext indexes footprints by cluster so each link is matched
// with a single lookup.
func NewToxicityContext(footprints []Footprint, overOptimized map[string]bool) ToxicityContext {
	ctx := ToxicityContext{Footprints: footprints, OverOptimized: overOptimized}
	ctx.index()
	return ctx
}

func (ctx *ToxicityContext) index() {
	ctx.clusters = make(map[string]FootprintKind, len(ctx.Footprints))
	for _, fp := range ctx.Footprints {
		ctx.clusters[fp.id()] = fp.Kind
		if fp.keyword != "" {
			ctx.keyword = fp.keyword
		}
	}
}

// footprintKind finds the cluster link was counted in: the first registry
// signature its domain matches, plus its anchor key.
func (en *Engine) footprintKind(link LinkRecord, ctx ToxicityContext) (FootprintKind, bool) {
	si := en.matchSignature(link.SourceDomain)
	if si < 0 {
		return "", false
	}
	key := clusterKey(link.AnchorText, ctx.keyword)
	if key == "" {
		return "", false
	}
	kind, ok := ctx.clusters[clusterID(en.cfg.Footprints[si].Name, key)]
	return kind, ok
}

// ReasonCount is how many links carry a reason.
type ReasonCount struct {
	Reason ToxicityReason `json:"reason"`
	Count  int            `json:"count"`
}

// ToxicityAnalysis is the toxicity section of a backlinks report.
type ToxicityAnalysis struct {
	ProfileScore float64       `json:"profileScore"`
	RiskLevel    string        `json:"riskLevel"`
	ToxicLinks   []LinkRecord  `json:"toxicLinks"`
	ToxicDomains []string      `json:"toxicDomains"`
	ReasonCounts []ReasonCount `json:"reasonCounts"`
	Disavow      DisavowFile   `json:"disavow"`
}

// DetectToxicityReasons runs the per-link rules with the default engine and
// no profile context.
func DetectToxicityReasons(link LinkRecord) ReasonSet {
	return defaultEngine.DetectToxicityReasons(link, ToxicityContext{})
}

// DetectToxicityReasons returns the union of every rule that fires for
// link, together with any reasons the payload already carried.
func (en *Engine) DetectToxicityReasons(link LinkRecord, ctx ToxicityContext) ReasonSet {
	t := en.cfg.Thresholds
	reasons := link.ToxicityReasons

	if link.DomainAuthority < t.LowAuthorityCutoff && link.SpamScore > t.HighSpamCutoff {
		reasons = reasons.With(ReasonSpam)
	}
	if en.isToxic(link.ToxicityScore) {
		reasons = reasons.With(ReasonLowQuality)
	}
	if en.spamPercent(link.SpamScore) >= t.ElevatedSpamPercent &&
		(en.hasTriggerTerm(link.AnchorText) || en.hasTriggerTerm(link.SurroundingText)) {
		reasons = reasons.With(ReasonSuspiciousAnchor)
	}
	if len(ctx.Footprints) > 0 {
		if ctx.clusters == nil {
			ctx.index()
		}
		if kind, ok := en.footprintKind(link, ctx); ok {
			reasons = reasons.With(kind.reason())
		}
	}
	if len(ctx.OverOptimized) > 0 && ctx.OverOptimized[normalizeText(link.AnchorText)] {
		reasons = reasons.With(ReasonUnnaturalPattern)
	}
	return reasons
}

func (en *Engine) hasTriggerTerm(text string) bool {
	if text == "" {
		return false
	}
	padded := " " + tokenize(text) + " "
	for _, term := range en.terms.triggers {
		if strings.Contains(padded, " "+tokenize(term)+" ") {
			return true
		}
	}
	return false
}

// tokenize lowercases text and turns punctuation other than '#' into
// single spaces, so terms match on word boundaries.
func tokenize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// ProfileToxicity is the mean toxicity of links, or 0 for none.
func ProfileToxicity(links []LinkRecord) float64 {
	if len(links) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range links {
		sum += clampScore(l.ToxicityScore)
	}
	return round2(sum / float64(len(links)))
}

// DomainToxicity is the worse of the domain's own score and the scores of
// links coming from it, matched by host or by registrable domain.
func DomainToxicity(d DomainRecord, links []LinkRecord) float64 {
	return indexLinkToxicity(links).worst(d)
}

// linkToxicity holds the worst link toxicity per source host and per
// registrable domain.
type linkToxicity struct {
	byHost        map[string]float64
	byRegistrable map[string]float64
}

func indexLinkToxicity(links []LinkRecord) linkToxicity {
	idx := linkToxicity{
		byHost:        make(map[string]float64),
		byRegistrable: make(map[string]float64),
	}
	raise := func(m map[string]float64, key string, v float64) {
		if key == "" {
			return
		}
		if cur, ok := m[key]; !ok || v > cur {
			m[key] = v
		}
	}
	for _, l := range links {
		v := clampScore(l.ToxicityScore)
		raise(idx.byHost, l.SourceDomain, v)
		raise(idx.byRegistrable, registrableDomain(l.SourceDomain), v)
	}
	return idx
}

func (idx linkToxicity) worst(d DomainRecord) float64 {
	worst := clampScore(d.ToxicityScore)
	if d.Domain == "" {
		return worst
	}
	return math.Max(worst, math.Max(idx.byHost[d.Domain], idx.byRegistrable[d.Domain]))
}

// classifyLink fills quality tier, reasons and status, keeping the
// invariant that TierToxic, StatusToxic and a toxic score go together.
func (en *Engine) classifyLink(l LinkRecord, ctx ToxicityContext) LinkRecord {
	l.QualityTier = en.AssessQuality(l)
	l.ToxicityReasons = en.DetectToxicityReasons(l, ctx)
	switch {
	case l.QualityTier == TierToxic:
		l.Status = StatusToxic
	case l.Status == StatusToxic:
		l.Status = StatusActive
	}
	return l
}

func riskLevel(toxicity float64) string {
	switch {
	case toxicity >= 60:
		return "critical"
	case toxicity >= 40:
		return "high"
	case toxicity >= 20:
		return "medium"
	}
	return "low"
}

func countReasons(links []LinkRecord) []ReasonCount {
	counts := make([]int, reasonCount)
	for _, l := range links {
		for _, r := range l.ToxicityReasons.List() {
			counts[r]++
		}
	}
	out := []ReasonCount{}
	for r := ToxicityReason(0); r < reasonCount; r++ {
		if counts[r] > 0 {
			out = append(out, ReasonCount{Reason: r, Count: counts[r]})
		}
	}
	return out
}
