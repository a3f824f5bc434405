package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNonNilSlices(t *testing.T, in CanonicalInput) {
	t.Helper()
	assert.NotNil(t, in.BrandNames)
	assert.NotNil(t, in.Backlinks)
	assert.NotNil(t, in.ReferringDomains)
	assert.NotNil(t, in.Anchors)
	assert.NotNil(t, in.Competitors)
	assert.NotNil(t, in.ToxicLinks)
	assert.NotNil(t, in.Opportunities)
	assert.NotNil(t, in.History)
	assert.NotNil(t, in.Security.Vulnerabilities)
	assert.NotNil(t, in.Content.KeywordDensity)
}

func TestNormalizeGarbage(t *testing.T) {
	for _, raw := range []string{"", "{bad", `{"a":`, "[1,2]", "null", "42", `"str"`, "{}"} {
		t.Run(raw, func(t *testing.T) {
			in := Normalize([]byte(raw))
			assertNonNilSlices(t, in)
			assert.Zero(t, in.Profile)
			assert.Empty(t, in.Backlinks)
		})
	}

	in := Normalize(nil)
	assertNonNilSlices(t, in)
}

func TestNormalizeWrongFieldTypes(t *testing.T) {
	in := Normalize([]byte(`{
		"profile": "not an object",
		"backlinks": {"oops": true},
		"referring_domains": [1, "x", null, {"domain": ""}, {"domain": "ok.com"}],
		"anchor_texts": [{"text": "zero", "count": 0}, {"text": "neg", "count": -4}, {"text": "fine", "count": 2}],
		"competitors": "none",
		"historical_data": [{"date": "2024-02-01", "new_links": "7", "lost_links": 2}]
	}`))

	assertNonNilSlices(t, in)
	assert.Empty(t, in.Backlinks)
	require.Len(t, in.ReferringDomains, 1)
	assert.Equal(t, "ok.com", in.ReferringDomains[0].Domain)
	assert.True(t, in.ReferringDomains[0].Active, "activity defaults to true")
	require.Len(t, in.Anchors, 1)
	assert.Equal(t, "fine", in.Anchors[0].Text)
	assert.Empty(t, in.Competitors)
	require.Len(t, in.History, 1)
	assert.Equal(t, 5, in.History[0].Net())
	assert.False(t, in.History[0].at.IsZero())
}

func TestNormalizeProfileKeys(t *testing.T) {
	t.Run("snake case", func(t *testing.T) {
		in := Normalize([]byte(`{"profile":{"domain":"example.com","total_backlinks":1250,
			"referring_domains_count":310,"domain_authority":54,"new_links_30d":47,"lost_links_30d":12}}`))
		assert.Equal(t, Profile{
			Domain:           "example.com",
			TotalBacklinks:   1250,
			ReferringDomains: 310,
			DomainAuthority:  54,
			NewLinks30d:      47,
			LostLinks30d:     12,
			NetGrowth:        35,
		}, in.Profile)
	})

	t.Run("camel case and strings", func(t *testing.T) {
		in := Normalize([]byte(`{"summary":{"domain":"https://WWW.Example.com:443/path?q=1",
			"totalBacklinks":"1250","domainAuthority":"54%","newLinks30d":47.4,"lostLinks30d":"12"}}`))
		assert.Equal(t, "example.com", in.Profile.Domain)
		assert.Equal(t, 1250, in.Profile.TotalBacklinks)
		assert.Equal(t, 54.0, in.Profile.DomainAuthority)
		assert.Equal(t, 35, in.Profile.NetGrowth)
	})

	t.Run("root level fallback", func(t *testing.T) {
		in := Normalize([]byte(`{"domain":"example.com","total_backlinks":9}`))
		assert.Equal(t, "example.com", in.Profile.Domain)
		assert.Equal(t, 9, in.Profile.TotalBacklinks)
	})

	t.Run("out of range", func(t *testing.T) {
		in := Normalize([]byte(`{"profile":{"total_backlinks":-3,"domain_authority":180,"lost_links_30d":"abc"}}`))
		assert.Equal(t, 0, in.Profile.TotalBacklinks)
		assert.Equal(t, 100.0, in.Profile.DomainAuthority)
		assert.Equal(t, 0, in.Profile.LostLinks30d)
	})
}

func TestNormalizeLinks(t *testing.T) {
	in := Normalize([]byte(`{
		"backlinks": [{
			"sourceUrl": "https://blog.Ref.org/post",
			"anchorText": "  seo tools ",
			"anchor_type": "EXACT-MATCH",
			"linkType": "nofollow",
			"domain_authority": 42,
			"spam_score": -2,
			"toxicity_reasons": ["spam", "made_up", "PBN"]
		}],
		"toxic_links": [
			{"source_url": "https://bad.net/a", "toxicity_score": 90},
			{"source_url": "https://bad.net/b", "status": "active"}
		]
	}`))

	require.Len(t, in.Backlinks, 1)
	l := in.Backlinks[0]
	assert.Equal(t, "blog.ref.org", l.SourceDomain)
	assert.Equal(t, "seo tools", l.AnchorText)
	assert.Equal(t, AnchorExactMatch, l.AnchorType)
	assert.True(t, l.anchorTyped)
	assert.Equal(t, Nofollow, l.Directive)
	assert.Equal(t, 0.0, l.SpamScore)
	assert.Equal(t, []ToxicityReason{ReasonSpam, ReasonPBN}, l.ToxicityReasons.List())

	require.Len(t, in.ToxicLinks, 2)
	assert.Equal(t, StatusToxic, in.ToxicLinks[0].Status)
	assert.Equal(t, StatusActive, in.ToxicLinks[1].Status)
}

func TestNormalizeBrandsAndScores(t *testing.T) {
	in := Normalize([]byte(`{"profile":{"domain":"shop.acme.co.uk"},"brand_names":["Acme Corp",""],
		"scores":{"overall":"88","quality":150,"toxicity":null}}`))

	assert.Equal(t, []string{"Acme Corp", "acme", "acme.co.uk"}, in.BrandNames)

	require.NotNil(t, in.Scores.Overall)
	assert.Equal(t, 88.0, *in.Scores.Overall)
	require.NotNil(t, in.Scores.Quality)
	assert.Equal(t, 100.0, *in.Scores.Quality)
	assert.Nil(t, in.Scores.Toxicity)
	assert.Nil(t, in.Scores.Quantity)
}

func TestNormalizeValue(t *testing.T) {
	in := NormalizeValue(map[string]any{
		"profile": map[string]any{"domain": "example.com", "total_backlinks": 5},
	})
	assert.Equal(t, 5, in.Profile.TotalBacklinks)

	assertNonNilSlices(t, NormalizeValue(nil))
	assertNonNilSlices(t, NormalizeValue(func() {}))
	assert.Equal(t, "example.com", NormalizeValue([]byte(`{"domain":"example.com"}`)).Profile.Domain)
}

func TestCleanDomain(t *testing.T) {
	cases := map[string]string{
		"":                                "",
		"Example.COM":                     "example.com",
		"www.example.com":                 "example.com",
		"https://www.example.com/a?b=c":   "example.com",
		"http://user:pw@host.example.org": "host.example.org",
		"example.com:8080/path":           "example.com",
		"example.com.":                    "example.com",
		"  sub.example.com#frag ":         "sub.example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanDomain(in), in)
	}
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "example.com", registrableDomain("https://blog.example.com/x"))
	assert.Equal(t, "acme.co.uk", registrableDomain("shop.acme.co.uk"))
	assert.Equal(t, "localhost", registrableDomain("localhost"))
	assert.Equal(t, "", registrableDomain(""))

	assert.Equal(t, "acme", brandLabel("shop.acme.co.uk"))
	assert.Equal(t, "example", brandLabel("www.example.com"))
}
