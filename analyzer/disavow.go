package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// GenerateDisavowFile writes one "domain:" line per unique source domain
// of links, sorted, under a "#" comment header. URLsCount is the number of
// links given, DomainsCount the number of unique domains.
func GenerateDisavowFile(toxicLinks []LinkRecord, now time.Time) DisavowFile {
	seen := make(map[string]bool, len(toxicLinks))
	domains := make([]string, 0, len(toxicLinks))
	for _, l := range toxicLinks {
		d := cleanDomain(l.SourceDomain)
		if d == "" {
			d = cleanDomain(l.SourceURL)
		}
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	sort.Strings(domains)

	stamp := now.UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("# Disavow file\n")
	fmt.Fprintf(&b, "# Generated: %s\n", stamp)
	fmt.Fprintf(&b, "# Toxic links: %d\n", len(toxicLinks))
	fmt.Fprintf(&b, "# Unique domains: %d\n", len(domains))
	for _, d := range domains {
		b.WriteString("domain:")
		b.WriteString(d)
		b.WriteByte('\n')
	}

	return DisavowFile{
		Content:      b.String(),
		DomainsCount: len(domains),
		URLsCount:    len(toxicLinks),
		LastUpdated:  stamp,
	}
}
