package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeBacklinkPatternsClusters(t *testing.T) {
	var links []LinkRecord
	for i := 0; i < 6; i++ {
		links = append(links, LinkRecord{
			SourceDomain: fmt.Sprintf("site%d.blogspot.com", i),
			AnchorText:   "cheap widgets",
		})
	}
	links = append(links,
		LinkRecord{SourceDomain: "links.directory.example.net", AnchorText: "widget shop"},
		LinkRecord{SourceDomain: "web-directory.example.org", AnchorText: "Widget  Shop", Directive: Nofollow},
		LinkRecord{SourceDomain: "news.example.com", AnchorText: "cheap widgets"},
		LinkRecord{SourceDomain: "solo.wordpress.com", AnchorText: "unique"},
	)

	report := AnalyzeBacklinkPatterns(links, "")
	fps := report.FootprintDetection
	require.Len(t, fps, 2)

	assert.Equal(t, "blogspot", fps[0].Signature)
	assert.Equal(t, FootprintPBN, fps[0].Kind)
	assert.Equal(t, 6, fps[0].Occurrences)
	assert.Len(t, fps[0].Domains, 6)
	assert.Equal(t, 100.0, fps[0].Risk, "risk is capped")

	assert.Equal(t, "link-directory", fps[1].Signature)
	assert.Equal(t, FootprintLinkFarm, fps[1].Kind)
	assert.Equal(t, 2, fps[1].Occurrences)
	assert.Equal(t, 40.0, fps[1].Risk)

	pa := report.PatternAnalysis
	assert.Equal(t, 10, pa.TotalLinks)
	assert.Equal(t, 9, pa.PlatformLinks)
	assert.Equal(t, 90.0, pa.PlatformShare)
	assert.Equal(t, 9, pa.ReusedAnchors)
	assert.Equal(t, 90.0, pa.AnchorReuseRate)

	sigs := map[string]SignatureCount{}
	for _, s := range pa.Signatures {
		sigs[s.Signature] = s
	}
	assert.Equal(t, 6, sigs["blogspot"].Links)
	assert.Equal(t, 1, sigs["wordpress"].Links)
	assert.Equal(t, 2, sigs["link-directory"].Domains)

	require.Len(t, pa.Directives, 2)
	assert.Equal(t, Dofollow, pa.Directives[0].Directive)
	assert.Equal(t, 90.0, pa.Directives[0].Percentage)
	assert.Equal(t, 10.0, pa.Directives[1].Percentage)
}

func TestAnalyzeBacklinkPatternsKeywordCluster(t *testing.T) {
	links := []LinkRecord{
		{SourceDomain: "a.weebly.com", AnchorText: "seo tools"},
		{SourceDomain: "b.weebly.com", AnchorText: "Top SEO Tools reviewed"},
		{SourceDomain: "c.weebly.com", AnchorText: ""},
	}
	report := AnalyzeBacklinkPatterns(links, "SEO Tools")

	require.Len(t, report.FootprintDetection, 1)
	fp := report.FootprintDetection[0]
	assert.Equal(t, "SEO Tools", fp.Anchor)
	assert.Equal(t, 2, fp.Occurrences)
	assert.ElementsMatch(t, []string{"a.weebly.com", "b.weebly.com"}, fp.Domains)

	ctx := NewToxicityContext(report.FootprintDetection, nil)
	kind, ok := defaultEngine.footprintKind(LinkRecord{SourceDomain: "z.weebly.com", AnchorText: "seo tools guide"}, ctx)
	assert.True(t, ok)
	assert.Equal(t, fp.Kind, kind)
	_, ok = defaultEngine.footprintKind(LinkRecord{SourceDomain: "z.example.com", AnchorText: "seo tools"}, ctx)
	assert.False(t, ok)
}

func TestAnalyzeBacklinkPatternsEmpty(t *testing.T) {
	report := AnalyzeBacklinkPatterns(nil, "kw")
	assert.NotNil(t, report.FootprintDetection)
	assert.NotNil(t, report.PatternAnalysis.Signatures)
	assert.NotNil(t, report.PatternAnalysis.Directives)
	assert.Zero(t, report.PatternAnalysis.PlatformShare)
}

func TestFootprintRegistryIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Footprints = []FootprintSignature{{Name: "netlify", Pattern: ".netlify.app", Kind: FootprintPBN}}
	en := NewEngine(cfg)

	links := []LinkRecord{
		{SourceDomain: "a.netlify.app", AnchorText: "x"},
		{SourceDomain: "b.netlify.app", AnchorText: "x"},
		{SourceDomain: "c.blogspot.com", AnchorText: "x"},
		{SourceDomain: "d.blogspot.com", AnchorText: "x"},
	}
	report := en.AnalyzeBacklinkPatterns(links, "")
	require.Len(t, report.FootprintDetection, 1)
	assert.Equal(t, "netlify", report.FootprintDetection[0].Signature)
}

func TestMatchesPattern(t *testing.T) {
	assert.True(t, matchesPattern("foo.blogspot.com", ".blogspot."))
	assert.True(t, matchesPattern("FOO.Blogspot.com", ".blogspot."))
	assert.True(t, matchesPattern("directory.example.com", "directory."))
	assert.False(t, matchesPattern("blogspot-fans.com", ".blogspot."))
	assert.False(t, matchesPattern("", ".blogspot."))
	assert.False(t, matchesPattern("a.com", ""))
}

func TestDirectiveMixFoldsUnknownDirectives(t *testing.T) {
	mix := directiveMix([]LinkRecord{{Directive: Directive(9)}, {Directive: -1}, {Directive: Nofollow}})

	require.Len(t, mix, 2)
	assert.Equal(t, Dofollow, mix[0].Directive)
	assert.Equal(t, 2, mix[0].Count)
	assert.Equal(t, Nofollow, mix[1].Directive)
	assert.InDelta(t, 100.0, mix[0].Percentage+mix[1].Percentage, 1e-9)
}

func TestFootprintClassificationAtScale(t *testing.T) {
	const pairs = 5000
	links := make([]LinkRecord, 0, 2*pairs)
	for i := 0; i < pairs; i++ {
		host := fmt.Sprintf("p%d.blogspot.com", i)
		anchor := fmt.Sprintf("guide %d", i)
		links = append(links,
			LinkRecord{SourceURL: "https://" + host + "/a", SourceDomain: host, AnchorText: anchor, DomainAuthority: 30, ToxicityScore: 10},
			LinkRecord{SourceURL: "https://" + host + "/b", SourceDomain: host, AnchorText: anchor, DomainAuthority: 30, ToxicityScore: 90},
		)
	}

	start := time.Now()
	a := testEngine().BacklinksAnalysis(CanonicalInput{Backlinks: links})
	elapsed := time.Since(start)

	assert.Len(t, a.Patterns.FootprintDetection, pairs)
	missing := 0
	for _, l := range a.Backlinks.List {
		if !l.ToxicityReasons.Has(ReasonPBN) {
			missing++
		}
	}
	assert.Zero(t, missing, "every clustered link carries the footprint reason")

	require.NotEmpty(t, a.ReferringDomains.List)
	for _, d := range a.ReferringDomains.List {
		if !assert.Equal(t, 90.0, d.ToxicityScore, d.Domain) {
			break
		}
	}
	assert.Less(t, elapsed, 5*time.Second, "classification should grow linearly with the link count")
}
