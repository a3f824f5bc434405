package analyzer

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// cleanDomain reduces a domain or URL to a lowercase host without scheme,
// port, path or leading "www.".
func cleanDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		} else {
			s = s[strings.Index(s, "://")+3:]
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if h, _, ok := strings.Cut(s, ":"); ok {
		s = h
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimPrefix(s, "www.")
}

// registrableDomain returns the eTLD+1 of host, or host itself when the
// public suffix list cannot place it (IPs, single labels).
func registrableDomain(host string) string {
	host = cleanDomain(host)
	if host == "" {
		return ""
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return root
}

// brandLabel is the registrable domain without its public suffix, e.g.
// "acme" for "shop.acme.co.uk".
func brandLabel(domain string) string {
	root := registrableDomain(domain)
	if root == "" {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(root)
	label := strings.TrimSuffix(root, "."+suffix)
	if label == root && strings.Contains(label, ".") {
		label = label[:strings.Index(label, ".")]
	}
	return label
}
