package analyzer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AnchorTypeShare is the share of one anchor type in a distribution.
type AnchorTypeShare struct {
	Type       AnchorType `json:"type"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
}

// AnchorAnalysis is the anchor text section of a backlinks report.
type AnchorAnalysis struct {
	Distribution     []AnchorEntry     `json:"distribution"`
	TypeBreakdown    []AnchorTypeShare `json:"typeBreakdown"`
	OverOptimized    []string          `json:"overOptimized"`
	IsNatural        bool              `json:"isNatural"`
	NaturalnessScore float64           `json:"naturalnessScore"`
}

var (
	bareDomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*\.[a-z]{2,}(:\d+)?(/\S*)?$`)
	imageExts    = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".avif"}
	imageMarkers = []string{"[image]", "[img]", "img:", "image:", "alt:"}
)

// ClassifyAnchor classifies anchor text with the default engine.
func ClassifyAnchor(text, targetKeyword string, brandNames []string) AnchorType {
	return defaultEngine.ClassifyAnchor(text, targetKeyword, brandNames)
}

// ClassifyAnchor assigns an AnchorType; the first matching rule wins:
// image, naked URL, exact match, partial match, branded, generic.
func (en *Engine) ClassifyAnchor(text, targetKeyword string, brandNames []string) AnchorType {
	if isImageAnchor(text) {
		return AnchorImage
	}
	norm := normalizeText(text)
	if norm == "" {
		return AnchorGeneric
	}
	if isNakedURL(norm) {
		return AnchorNakedURL
	}
	if kw := normalizeText(targetKeyword); kw != "" {
		if norm == kw {
			return AnchorExactMatch
		}
		if strings.Contains(norm, kw) {
			return AnchorPartialMatch
		}
	}
	for _, brand := range brandNames {
		b := normalizeText(brand)
		// a brand spelled like "here" or "website" must not swallow generic anchors
		if len(b) < 2 || en.terms.generic[b] {
			continue
		}
		if strings.Contains(norm, b) {
			return AnchorBranded
		}
	}
	return AnchorGeneric
}

func isImageAnchor(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if strings.Contains(lower, "<img") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil && doc.Find("img").Length() > 0 {
			return true
		}
	}
	for _, m := range imageMarkers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	if !strings.ContainsAny(lower, " \t") {
		path := lower
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		for _, ext := range imageExts {
			if strings.HasSuffix(path, ext) {
				return true
			}
		}
	}
	return false
}

func isNakedURL(norm string) bool {
	if strings.HasPrefix(norm, "http://") || strings.HasPrefix(norm, "https://") || strings.HasPrefix(norm, "www.") {
		return !strings.Contains(norm, " ")
	}
	return bareDomainRe.MatchString(norm)
}

// DetectOverOptimization flags with the default engine.
func DetectOverOptimization(dist []AnchorEntry) map[string]bool {
	return defaultEngine.DetectOverOptimization(dist)
}

// DetectOverOptimization returns the texts of exact and partial match
// anchors whose share of the distribution exceeds the configured ceiling.
// Entries differing only in case or spacing count as one anchor, reported
// under the first spelling seen. Branded, naked URL, generic and image
// anchors are never flagged.
func (en *Engine) DetectOverOptimization(dist []AnchorEntry) map[string]bool {
	type group struct {
		text  string
		typ   AnchorType
		typed bool
		share float64
	}
	shares := entryShares(dist)
	index := make(map[string]int, len(dist))
	groups := make([]group, 0, len(dist))
	for i, a := range dist {
		key := normalizeText(a.Text)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, group{text: a.Text, typ: a.Type, typed: a.typed})
		} else if !groups[g].typed && a.typed {
			groups[g].typ, groups[g].typed = a.Type, true
		}
		groups[g].share += shares[i]
	}

	flagged := make(map[string]bool)
	for _, g := range groups {
		if g.typ.keywordBearing() && g.share > en.cfg.Thresholds.OverOptimizationCeiling {
			flagged[g.text] = true
		}
	}
	return flagged
}

// entryShares returns each entry's share in percent, from counts when any
// count is set and from the stated percentages otherwise.
func entryShares(dist []AnchorEntry) []float64 {
	shares := make([]float64, len(dist))
	total := 0
	for _, a := range dist {
		total += a.Count
	}
	for i, a := range dist {
		if total > 0 {
			shares[i] = float64(a.Count) / float64(total) * 100
		} else {
			shares[i] = a.Percentage
		}
	}
	return shares
}

// AnalyzeAnchors builds the anchor section with the default engine.
func AnalyzeAnchors(entries []AnchorEntry, targetKeyword string, brandNames []string) AnchorAnalysis {
	return defaultEngine.AnalyzeAnchors(entries, targetKeyword, brandNames)
}

// AnalyzeAnchors merges duplicate texts, classifies untyped entries,
// assigns percentages that sum to exactly 100 and scores naturalness.
func (en *Engine) AnalyzeAnchors(entries []AnchorEntry, targetKeyword string, brandNames []string) AnchorAnalysis {
	out := AnchorAnalysis{
		Distribution:  []AnchorEntry{},
		TypeBreakdown: []AnchorTypeShare{},
		OverOptimized: []string{},
	}

	dist := mergeAnchors(entries)
	if len(dist) == 0 {
		return out
	}
	for i := range dist {
		if !dist[i].typed {
			dist[i].Type = en.ClassifyAnchor(dist[i].Text, targetKeyword, brandNames)
		}
	}
	sort.SliceStable(dist, func(i, j int) bool { return dist[i].Count > dist[j].Count })

	counts := make([]int, len(dist))
	for i, a := range dist {
		counts[i] = a.Count
	}
	for i, pct := range largestRemainder(counts) {
		dist[i].Percentage = pct
	}

	ceiling := en.cfg.Thresholds.OverOptimizationCeiling
	flagged := en.DetectOverOptimization(dist)
	var excess, keywordShare float64
	for i := range dist {
		a := &dist[i]
		a.OverOptimized = flagged[a.Text]
		a.Natural = !a.OverOptimized
		a.RiskScore = anchorRisk(a.Type, a.Percentage, a.OverOptimized)
		if a.Type.keywordBearing() {
			keywordShare += a.Percentage
			excess += math.Max(0, a.Percentage-ceiling)
		}
		if a.OverOptimized {
			out.OverOptimized = append(out.OverOptimized, a.Text)
		}
	}

	out.Distribution = dist
	out.TypeBreakdown = typeBreakdown(dist)
	out.IsNatural = len(out.OverOptimized) == 0
	out.NaturalnessScore = round2(clampScore(100 - 2*excess - math.Max(0, keywordShare-2*ceiling)))
	return out
}

func anchorRisk(t AnchorType, share float64, flagged bool) float64 {
	weight := 0.5
	switch t {
	case AnchorExactMatch:
		weight = 2.5
	case AnchorPartialMatch:
		weight = 1.5
	}
	risk := share * weight
	if flagged {
		risk += 25
	}
	return round2(clampScore(risk))
}

// mergeAnchors folds entries with the same normalized text together,
// keeping first-seen order and a count-weighted average authority.
func mergeAnchors(entries []AnchorEntry) []AnchorEntry {
	index := make(map[string]int, len(entries))
	out := make([]AnchorEntry, 0, len(entries))
	for _, a := range entries {
		if a.Count <= 0 {
			continue
		}
		key := normalizeText(a.Text)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, a)
			continue
		}
		m := &out[i]
		total := m.Count + a.Count
		m.AvgDomainAuthority = (m.AvgDomainAuthority*float64(m.Count) + a.AvgDomainAuthority*float64(a.Count)) / float64(total)
		m.Count = total
		if !m.typed && a.typed {
			m.Type, m.typed = a.Type, true
		}
	}
	for i := range out {
		out[i].AvgDomainAuthority = round2(out[i].AvgDomainAuthority)
	}
	return out
}

// anchorsFromLinks derives a distribution from individual backlinks.
func anchorsFromLinks(links []LinkRecord) []AnchorEntry {
	entries := make([]AnchorEntry, 0, len(links))
	for _, l := range links {
		entries = append(entries, AnchorEntry{
			Text:               l.AnchorText,
			Type:               l.AnchorType,
			Count:              1,
			AvgDomainAuthority: l.DomainAuthority,
			typed:              l.anchorTyped,
		})
	}
	return mergeAnchors(entries)
}

func typeBreakdown(dist []AnchorEntry) []AnchorTypeShare {
	counts := make(map[AnchorType]int)
	for _, a := range dist {
		counts[a.Type] += a.Count
	}
	out := make([]AnchorTypeShare, 0, len(counts))
	raw := make([]int, 0, len(counts))
	for t := AnchorGeneric; t <= AnchorImage; t++ {
		if c, ok := counts[t]; ok {
			out = append(out, AnchorTypeShare{Type: t, Count: c})
			raw = append(raw, c)
		}
	}
	for i, pct := range largestRemainder(raw) {
		out[i].Percentage = pct
	}
	return out
}

// largestRemainder apportions 100.00 percent over counts in hundredths so
// the result always sums to exactly 100 when any count is positive.
func largestRemainder(counts []int) []float64 {
	out := make([]float64, len(counts))
	total := 0
	for _, c := range counts {
		total += c
	}
	if total <= 0 {
		return out
	}

	const units = 10000
	floors := make([]int, len(counts))
	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(counts))
	assigned := 0
	for i, c := range counts {
		exact := float64(c) * units / float64(total)
		floors[i] = int(math.Floor(exact))
		assigned += floors[i]
		rems[i] = rem{idx: i, frac: exact - float64(floors[i])}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; k < units-assigned && k < len(rems); k++ {
		floors[rems[k].idx]++
	}
	for i, f := range floors {
		out[i] = float64(f) / 100
	}
	return out
}
