package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectToxicityReasons(t *testing.T) {
	link := LinkRecord{
		SourceURL:       "https://cheap-links.biz/page",
		SourceDomain:    "cheap-links.biz",
		AnchorText:      "buy cheap SEO services now",
		DomainAuthority: 18,
		SpamScore:       13,
		ToxicityScore:   87,
	}

	reasons := DetectToxicityReasons(link)
	assert.Equal(t, []ToxicityReason{ReasonSpam, ReasonLowQuality, ReasonSuspiciousAnchor}, reasons.List())
	assert.Equal(t, TierToxic, AssessQuality(link))
}

func TestDetectToxicityReasonsRules(t *testing.T) {
	cases := []struct {
		name string
		link LinkRecord
		want []ToxicityReason
	}{
		{
			name: "clean",
			link: LinkRecord{DomainAuthority: 60, SpamScore: 1, ToxicityScore: 10, AnchorText: "acme"},
			want: []ToxicityReason{},
		},
		{
			name: "high spam but enough authority",
			link: LinkRecord{DomainAuthority: 20, SpamScore: 13},
			want: []ToxicityReason{},
		},
		{
			name: "low authority with modest spam",
			link: LinkRecord{DomainAuthority: 5, SpamScore: 10},
			want: []ToxicityReason{},
		},
		{
			name: "toxicity exactly at cutoff",
			link: LinkRecord{DomainAuthority: 50, ToxicityScore: 70},
			want: []ToxicityReason{},
		},
		{
			name: "trigger term without elevated spam",
			link: LinkRecord{DomainAuthority: 50, SpamScore: 2, AnchorText: "buy now"},
			want: []ToxicityReason{},
		},
		{
			name: "trigger term in surrounding text",
			link: LinkRecord{DomainAuthority: 50, SpamScore: 6, AnchorText: "acme", SurroundingText: "Guaranteed rank #1 on Google!"},
			want: []ToxicityReason{ReasonSuspiciousAnchor},
		},
		{
			name: "trigger terms match whole words only",
			link: LinkRecord{DomainAuthority: 50, SpamScore: 6, AnchorText: "buyer's guide to loans"},
			want: []ToxicityReason{},
		},
		{
			name: "payload reasons are kept",
			link: LinkRecord{DomainAuthority: 80, ToxicityReasons: ReasonSet(0).With(ReasonLinkFarm)},
			want: []ToxicityReason{ReasonLinkFarm},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DetectToxicityReasons(c.link).List())
		})
	}
}

func TestDetectToxicityReasonsWithContext(t *testing.T) {
	links := []LinkRecord{
		{SourceDomain: "one.blogspot.com", AnchorText: "seo tools"},
		{SourceDomain: "two.blogspot.com", AnchorText: "best seo tools"},
		{SourceDomain: "acme-fans.org", AnchorText: "seo tools"},
	}
	patterns := AnalyzeBacklinkPatterns(links, "seo tools")
	require.Len(t, patterns.FootprintDetection, 1)

	ctx := ToxicityContext{
		Footprints:    patterns.FootprintDetection,
		OverOptimized: map[string]bool{"seo tools": true},
	}

	pbn := defaultEngine.DetectToxicityReasons(links[0], ctx)
	assert.True(t, pbn.Has(ReasonPBN))
	assert.True(t, pbn.Has(ReasonUnnaturalPattern))

	partial := defaultEngine.DetectToxicityReasons(links[1], ctx)
	assert.True(t, partial.Has(ReasonPBN))
	assert.False(t, partial.Has(ReasonUnnaturalPattern), "only the flagged text itself is unnatural")

	offPlatform := defaultEngine.DetectToxicityReasons(links[2], ctx)
	assert.False(t, offPlatform.Has(ReasonPBN))
	assert.True(t, offPlatform.Has(ReasonUnnaturalPattern))
}

func TestClassifyLinkKeepsToxicInvariant(t *testing.T) {
	en := defaultEngine

	toxic := en.classifyLink(LinkRecord{DomainAuthority: 90, ToxicityScore: 85}, ToxicityContext{})
	assert.Equal(t, TierToxic, toxic.QualityTier)
	assert.Equal(t, StatusToxic, toxic.Status)
	assert.True(t, toxic.ToxicityReasons.Has(ReasonLowQuality))

	demoted := en.classifyLink(LinkRecord{DomainAuthority: 60, ToxicityScore: 10, Status: StatusToxic}, ToxicityContext{})
	assert.NotEqual(t, TierToxic, demoted.QualityTier)
	assert.Equal(t, StatusActive, demoted.Status)

	lost := en.classifyLink(LinkRecord{DomainAuthority: 60, Status: StatusLost}, ToxicityContext{})
	assert.Equal(t, StatusLost, lost.Status)
}

func TestProfileAndDomainToxicity(t *testing.T) {
	assert.Equal(t, 0.0, ProfileToxicity(nil))
	assert.Equal(t, 50.0, ProfileToxicity([]LinkRecord{{ToxicityScore: 20}, {ToxicityScore: 80}}))

	links := []LinkRecord{
		{SourceDomain: "blog.bad.com", ToxicityScore: 80},
		{SourceDomain: "other.org", ToxicityScore: 95},
	}
	assert.Equal(t, 80.0, DomainToxicity(DomainRecord{Domain: "bad.com", ToxicityScore: 10}, links))
	assert.Equal(t, 80.0, DomainToxicity(DomainRecord{Domain: "blog.bad.com"}, links))
	assert.Equal(t, 30.0, DomainToxicity(DomainRecord{Domain: "fine.net", ToxicityScore: 30}, links))
	assert.Equal(t, 5.0, DomainToxicity(DomainRecord{ToxicityScore: 5}, links), "unnamed domains keep their own score")
}

func TestToxicityContextIndexMatchesLiteral(t *testing.T) {
	links := []LinkRecord{
		{SourceDomain: "one.blogspot.com", AnchorText: "widgets"},
		{SourceDomain: "two.blogspot.com", AnchorText: "Widgets"},
		{SourceDomain: "three.blogspot.com", AnchorText: "gadgets"},
	}
	patterns := AnalyzeBacklinkPatterns(links, "")
	require.Len(t, patterns.FootprintDetection, 1)

	indexed := NewToxicityContext(patterns.FootprintDetection, nil)
	literal := ToxicityContext{Footprints: patterns.FootprintDetection}
	for _, l := range links {
		assert.Equal(t, defaultEngine.DetectToxicityReasons(l, literal), defaultEngine.DetectToxicityReasons(l, indexed), l.SourceDomain)
	}
	assert.True(t, defaultEngine.DetectToxicityReasons(links[1], indexed).Has(ReasonPBN))
	assert.False(t, defaultEngine.DetectToxicityReasons(links[2], indexed).Has(ReasonPBN))
}

func TestRiskLevelAndReasonCounts(t *testing.T) {
	assert.Equal(t, "low", riskLevel(0))
	assert.Equal(t, "medium", riskLevel(20))
	assert.Equal(t, "high", riskLevel(45))
	assert.Equal(t, "critical", riskLevel(60))

	links := []LinkRecord{
		{ToxicityReasons: ReasonSet(0).With(ReasonSpam).With(ReasonPBN)},
		{ToxicityReasons: ReasonSet(0).With(ReasonPBN)},
		{},
	}
	assert.Equal(t, []ReasonCount{
		{Reason: ReasonSpam, Count: 1},
		{Reason: ReasonPBN, Count: 2},
	}, countReasons(links))
	assert.Empty(t, countReasons(nil))
}

func TestReasonSet(t *testing.T) {
	var s ReasonSet
	assert.True(t, s.Empty())
	assert.Empty(t, s.List())

	s = s.With(ReasonUnnaturalPattern).With(ReasonSpam).With(ReasonSpam).With(reasonCount)
	assert.Equal(t, []ToxicityReason{ReasonSpam, ReasonUnnaturalPattern}, s.List())
	assert.True(t, s.Union(ReasonSet(0).With(ReasonPBN)).Has(ReasonPBN))
	assert.False(t, s.Has(reasonCount))
}
