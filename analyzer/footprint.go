package analyzer

import (
	"math"
	"sort"
	"strings"
)

// Footprint is a cluster of links sharing a hosting signature and an
// anchor (or the target keyword).
type Footprint struct {
	Signature   string        `json:"signature"`
	Kind        FootprintKind `json:"kind"`
	Anchor      string        `json:"anchor"`
	Occurrences int           `json:"occurrences"`
	Domains     []string      `json:"domains"`
	Risk        float64       `json:"risk"`

	key     string
	keyword string
}

func (f Footprint) id() string { return clusterID(f.Signature, f.key) }

func clusterID(signature, key string) string { return signature + "|" + key }

// SignatureCount summarises links matching one registry signature.
type SignatureCount struct {
	Signature string        `json:"signature"`
	Kind      FootprintKind `json:"kind"`
	Links     int           `json:"links"`
	Domains   int           `json:"domains"`
}

// DirectiveCount is the number of links with one rel directive.
type DirectiveCount struct {
	Directive  Directive `json:"directive"`
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
}

// PatternAnalysis describes structural patterns across the link set.
type PatternAnalysis struct {
	TotalLinks      int              `json:"totalLinks"`
	PlatformLinks   int              `json:"platformLinks"`
	PlatformShare   float64          `json:"platformShare"`
	ReusedAnchors   int              `json:"reusedAnchorLinks"`
	AnchorReuseRate float64          `json:"anchorReuseRate"`
	Signatures      []SignatureCount `json:"signatures"`
	Directives      []DirectiveCount `json:"directives"`
}

// PatternReport is the output of AnalyzeBacklinkPatterns.
type PatternReport struct {
	PatternAnalysis    PatternAnalysis `json:"patternAnalysis"`
	FootprintDetection []Footprint     `json:"footprintDetection"`
}

// AnalyzeBacklinkPatterns runs footprint detection with the default engine.
func AnalyzeBacklinkPatterns(links []LinkRecord, targetKeyword string) PatternReport {
	return defaultEngine.AnalyzeBacklinkPatterns(links, targetKeyword)
}

// AnalyzeBacklinkPatterns groups links by the first registry signature
// their source domain matches and, within a signature, by anchor. Any group
// of two or more links becomes a footprint whose risk grows with its size.
func (en *Engine) AnalyzeBacklinkPatterns(links []LinkRecord, targetKeyword string) PatternReport {
	report := PatternReport{
		PatternAnalysis: PatternAnalysis{
			TotalLinks: len(links),
			Signatures: []SignatureCount{},
			Directives: []DirectiveCount{},
		},
		FootprintDetection: []Footprint{},
	}
	if len(links) == 0 {
		return report
	}

	keyword := normalizeText(targetKeyword)
	sigLinks := make([]int, len(en.cfg.Footprints))
	sigDomains := make([]map[string]bool, len(en.cfg.Footprints))
	clusters := make(map[string]*Footprint)
	clusterDomains := make(map[string]map[string]bool)
	var order []string

	for _, l := range links {
		si := en.matchSignature(l.SourceDomain)
		if si < 0 {
			continue
		}
		sig := en.cfg.Footprints[si]
		report.PatternAnalysis.PlatformLinks++
		sigLinks[si]++
		if sigDomains[si] == nil {
			sigDomains[si] = make(map[string]bool)
		}
		sigDomains[si][l.SourceDomain] = true

		key := clusterKey(l.AnchorText, keyword)
		if key == "" {
			continue
		}
		id := clusterID(sig.Name, key)
		fp, ok := clusters[id]
		if !ok {
			fp = &Footprint{
				Signature: sig.Name,
				Kind:      sig.Kind,
				Anchor:    l.AnchorText,
				Domains:   []string{},
				key:       key,
				keyword:   keyword,
			}
			if strings.HasPrefix(key, "kw:") {
				fp.Anchor = targetKeyword
			}
			clusters[id] = fp
			clusterDomains[id] = make(map[string]bool)
			order = append(order, id)
		}
		fp.Occurrences++
		if !clusterDomains[id][l.SourceDomain] {
			clusterDomains[id][l.SourceDomain] = true
			fp.Domains = append(fp.Domains, l.SourceDomain)
		}
	}

	for si, sig := range en.cfg.Footprints {
		if sigLinks[si] == 0 {
			continue
		}
		report.PatternAnalysis.Signatures = append(report.PatternAnalysis.Signatures, SignatureCount{
			Signature: sig.Name,
			Kind:      sig.Kind,
			Links:     sigLinks[si],
			Domains:   len(sigDomains[si]),
		})
	}

	for _, id := range order {
		fp := clusters[id]
		if fp.Occurrences < 2 {
			continue
		}
		fp.Risk = math.Min(100, float64(fp.Occurrences)*en.cfg.Thresholds.FootprintRiskPerLink)
		report.FootprintDetection = append(report.FootprintDetection, *fp)
	}
	sort.SliceStable(report.FootprintDetection, func(i, j int) bool {
		return report.FootprintDetection[i].Occurrences > report.FootprintDetection[j].Occurrences
	})

	report.PatternAnalysis.PlatformShare = round2(float64(report.PatternAnalysis.PlatformLinks) / float64(len(links)) * 100)
	report.PatternAnalysis.ReusedAnchors = reusedAnchorLinks(links)
	report.PatternAnalysis.AnchorReuseRate = round2(float64(report.PatternAnalysis.ReusedAnchors) / float64(len(links)) * 100)
	report.PatternAnalysis.Directives = directiveMix(links)
	return report
}

// matchSignature returns the index of the first signature matching domain,
// or -1.
func (en *Engine) matchSignature(domain string) int {
	for i, sig := range en.cfg.Footprints {
		if matchesPattern(domain, sig.Pattern) {
			return i
		}
	}
	return -1
}

func matchesPattern(domain, pattern string) bool {
	if domain == "" || pattern == "" {
		return false
	}
	return strings.Contains("."+strings.ToLower(domain)+".", strings.ToLower(pattern))
}

// clusterKey groups anchors: anything carrying the keyword shares one key,
// otherwise the normalized anchor itself. Empty anchors never cluster.
func clusterKey(anchor, keyword string) string {
	norm := normalizeText(anchor)
	if norm == "" {
		return ""
	}
	if keyword != "" && strings.Contains(norm, keyword) {
		return "kw:" + keyword
	}
	return "a:" + norm
}

func reusedAnchorLinks(links []LinkRecord) int {
	counts := make(map[string]int)
	for _, l := range links {
		if a := normalizeText(l.AnchorText); a != "" {
			counts[a]++
		}
	}
	reused := 0
	for _, c := range counts {
		if c > 1 {
			reused += c
		}
	}
	return reused
}

func directiveMix(links []LinkRecord) []DirectiveCount {
	counts := make([]int, UGC+1)
	for _, l := range links {
		d := l.Directive
		if d < Dofollow || d > UGC {
			d = Dofollow
		}
		counts[d]++
	}
	out := []DirectiveCount{}
	raw := []int{}
	for d := Dofollow; d <= UGC; d++ {
		if counts[d] > 0 {
			out = append(out, DirectiveCount{Directive: d, Count: counts[d]})
			raw = append(raw, counts[d])
		}
	}
	for i, pct := range largestRemainder(raw) {
		out[i].Percentage = pct
	}
	return out
}
