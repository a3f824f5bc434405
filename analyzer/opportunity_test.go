package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrioritizeOpportunities(t *testing.T) {
	in := []Opportunity{
		{Domain: "small.blog", DomainAuthority: 45, Difficulty: 40, Relevance: 70},
		{Domain: "big.news", DomainAuthority: 85, Difficulty: 90, Relevance: 85},
	}
	out := PrioritizeOpportunities(in)

	require.Len(t, out, 2)
	assert.Equal(t, "big.news", out[0].Domain)
	assert.Equal(t, PriorityHigh, out[0].Priority)
	assert.Equal(t, 62.5, out[0].Score)
	assert.Equal(t, "small.blog", out[1].Domain)
	assert.Equal(t, PriorityLow, out[1].Priority)
	assert.Equal(t, 57.0, out[1].Score)

	assert.Zero(t, in[0].Score, "input is not modified")
}

func TestOpportunityPriorityBands(t *testing.T) {
	cases := []struct {
		name string
		o    Opportunity
		want Priority
	}{
		{"high composite", Opportunity{DomainAuthority: 90, Relevance: 90, Difficulty: 10}, PriorityHigh},
		{"medium composite", Opportunity{DomainAuthority: 60, Relevance: 50, Difficulty: 50}, PriorityMedium},
		{"low composite", Opportunity{DomainAuthority: 55, Relevance: 10, Difficulty: 95}, PriorityLow},
		{"weak authority caps at low", Opportunity{DomainAuthority: 49, Relevance: 100, Difficulty: 0}, PriorityLow},
		{"strong and topical is high", Opportunity{DomainAuthority: 70, Relevance: 80, Difficulty: 100}, PriorityHigh},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := PrioritizeOpportunities([]Opportunity{c.o})
			assert.Equal(t, c.want, out[0].Priority, "score %v", out[0].Score)
		})
	}
}

func TestPrioritizeOpportunitiesStableAndEmpty(t *testing.T) {
	same := Opportunity{DomainAuthority: 60, Relevance: 60, Difficulty: 60}
	a, b := same, same
	a.Domain, b.Domain = "first.com", "second.com"

	out := PrioritizeOpportunities([]Opportunity{a, b})
	assert.Equal(t, []string{"first.com", "second.com"}, []string{out[0].Domain, out[1].Domain})

	assert.NotNil(t, PrioritizeOpportunities(nil))
	assert.Empty(t, PrioritizeOpportunities(nil))
}

func TestGenerateDisavowFile(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	links := []LinkRecord{
		{SourceURL: "https://www.spam-b.net/1", SourceDomain: "www.spam-b.net"},
		{SourceURL: "https://spam-a.com/x"},
		{SourceURL: "https://spam-b.net/2", SourceDomain: "spam-b.net"},
		{SourceURL: "https://SPAM-A.com/y", SourceDomain: "Spam-A.com"},
		{},
	}

	f := GenerateDisavowFile(links, now)
	assert.Equal(t, 2, f.DomainsCount)
	assert.Equal(t, 5, f.URLsCount)
	assert.Equal(t, "2024-05-01T10:00:00Z", f.LastUpdated)

	lines := strings.Split(strings.TrimSuffix(f.Content, "\n"), "\n")
	var domainLines []string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "domain:"):
			domainLines = append(domainLines, l)
		default:
			assert.True(t, strings.HasPrefix(l, "#"), "unexpected line %q", l)
		}
	}
	assert.Equal(t, []string{"domain:spam-a.com", "domain:spam-b.net"}, domainLines)
	assert.Contains(t, f.Content, "# Generated: 2024-05-01T10:00:00Z\n")
}

func TestGenerateDisavowFileCounts(t *testing.T) {
	for _, n := range []int{0, 1, 7, 40} {
		links := make([]LinkRecord, n)
		for i := range links {
			links[i] = LinkRecord{SourceDomain: "d" + string(rune('a'+i%5)) + ".com"}
		}
		f := GenerateDisavowFile(links, time.Unix(0, 0))

		wantDomains := n
		if n > 5 {
			wantDomains = 5
		}
		assert.Equal(t, n, f.URLsCount)
		assert.Equal(t, wantDomains, f.DomainsCount)
		assert.Equal(t, wantDomains, strings.Count(f.Content, "\ndomain:"))
	}
}
