package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Vulnerability is one known issue reported by the scanner.
type Vulnerability struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

// SecurityInput is the normalized security section of a payload.
type SecurityInput struct {
	HTTPS           bool
	ValidCert       bool
	CertDaysLeft    int
	HSTS            bool
	Headers         map[string]bool
	MixedContent    int
	Vulnerabilities []Vulnerability

	present bool
}

// securityHeaders are the response headers checked, lowercased.
var securityHeaders = []string{
	"content-security-policy",
	"strict-transport-security",
	"x-content-type-options",
	"x-frame-options",
	"referrer-policy",
	"permissions-policy",
}

var vulnerabilityPenalty = map[string]float64{
	"critical": 40,
	"high":     25,
	"medium":   10,
	"low":      5,
}

// SecurityAnalysis is the security report.
type SecurityAnalysis struct {
	Metadata        Metadata        `json:"metadata"`
	HTTPS           bool            `json:"https"`
	ValidCert       bool            `json:"validCertificate"`
	CertDaysLeft    int             `json:"certificateDaysLeft"`
	PresentHeaders  []string        `json:"presentHeaders"`
	MissingHeaders  []string        `json:"missingHeaders"`
	MixedContent    int             `json:"mixedContent"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Score           SectionScore    `json:"score"`
	Issues          []string        `json:"issues"`
}

func normalizeSecurity(r gjson.Result) SecurityInput {
	s := SecurityInput{Headers: map[string]bool{}, Vulnerabilities: []Vulnerability{}}
	if !r.IsObject() {
		return s
	}
	s.present = true
	s.HTTPS = boolean(field(r, "https", "uses_https"), false)
	s.ValidCert = boolean(field(r, "valid_certificate", "ssl_valid", "certificate_valid"), s.HTTPS)
	s.CertDaysLeft = count(field(r, "certificate_days_left", "cert_days_left"))
	s.MixedContent = count(field(r, "mixed_content", "mixed_content_count"))

	headers := field(r, "headers", "security_headers")
	switch {
	case headers.IsObject():
		headers.ForEach(func(k, v gjson.Result) bool {
			name := strings.ToLower(strings.TrimSpace(k.Str))
			if name == "" {
				return true
			}
			// either {"x-frame-options": true} or {"x-frame-options": "DENY"}
			if v.Type == gjson.String {
				s.Headers[name] = strings.TrimSpace(v.Str) != ""
			} else {
				s.Headers[name] = boolean(v, false)
			}
			return true
		})
	case headers.IsArray():
		for _, h := range headers.Array() {
			if name := strings.ToLower(strings.TrimSpace(str(h))); name != "" {
				s.Headers[name] = true
			}
		}
	}
	s.HSTS = s.Headers["strict-transport-security"] || boolean(field(r, "hsts"), false)
	if s.HSTS {
		s.Headers["strict-transport-security"] = true
	}

	for _, v := range arr(field(r, "vulnerabilities", "vulns")) {
		vuln := Vulnerability{
			ID:       strings.TrimSpace(str(field(v, "id", "cve"))),
			Severity: strings.ToLower(strings.TrimSpace(str(field(v, "severity")))),
			Title:    strings.TrimSpace(str(field(v, "title", "name", "description"))),
		}
		if v.Type == gjson.String {
			vuln.Title = strings.TrimSpace(v.Str)
		}
		if _, ok := vulnerabilityPenalty[vuln.Severity]; !ok {
			vuln.Severity = "medium"
		}
		if vuln.ID != "" || vuln.Title != "" {
			s.Vulnerabilities = append(s.Vulnerabilities, vuln)
		}
	}
	return s
}

// MapBackendToSecurityAnalysis builds the security report with the default
// engine.
func MapBackendToSecurityAnalysis(raw []byte) SecurityAnalysis {
	return defaultEngine.MapBackendToSecurityAnalysis(raw)
}

// MapBackendToSecurityAnalysis builds the security report from a raw
// payload.
func (en *Engine) MapBackendToSecurityAnalysis(raw []byte) SecurityAnalysis {
	in := Normalize(raw)
	return en.securityAnalysis(in, en.metadata(in))
}

func (en *Engine) securityAnalysis(in CanonicalInput, md Metadata) SecurityAnalysis {
	s := in.Security
	a := SecurityAnalysis{
		Metadata:        md,
		HTTPS:           s.HTTPS,
		ValidCert:       s.ValidCert,
		CertDaysLeft:    s.CertDaysLeft,
		PresentHeaders:  []string{},
		MissingHeaders:  []string{},
		MixedContent:    s.MixedContent,
		Vulnerabilities: s.Vulnerabilities,
		Score:           newSectionScore(),
		Issues:          []string{},
	}
	if a.Vulnerabilities == nil {
		a.Vulnerabilities = []Vulnerability{}
	}
	if !s.present {
		return a
	}

	var transport float64
	if s.HTTPS {
		transport += 60
		if s.ValidCert {
			transport += 30
			if s.CertDaysLeft == 0 || s.CertDaysLeft > 14 {
				transport += 10
			} else {
				a.Issues = append(a.Issues, fmt.Sprintf("TLS certificate expires in %d days", s.CertDaysLeft))
			}
		} else {
			a.Issues = append(a.Issues, "TLS certificate is invalid or untrusted")
		}
	} else {
		a.Issues = append(a.Issues, "Site is not served over HTTPS")
	}

	for _, h := range securityHeaders {
		if s.Headers[h] {
			a.PresentHeaders = append(a.PresentHeaders, h)
		} else {
			a.MissingHeaders = append(a.MissingHeaders, h)
		}
	}
	headers := 100 * float64(len(a.PresentHeaders)) / float64(len(securityHeaders))
	if len(a.MissingHeaders) > 0 {
		a.Issues = append(a.Issues, "Missing security headers: "+strings.Join(a.MissingHeaders, ", "))
	}

	mixed := 100.0
	if s.MixedContent > 0 {
		mixed = clampScore(100 - float64(s.MixedContent)*20)
		a.Issues = append(a.Issues, fmt.Sprintf("%d resources are loaded over plain HTTP", s.MixedContent))
	}

	vulns := 100.0
	for _, v := range a.Vulnerabilities {
		vulns -= vulnerabilityPenalty[v.Severity]
	}
	if len(a.Vulnerabilities) > 0 {
		sorted := append([]Vulnerability(nil), a.Vulnerabilities...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return vulnerabilityPenalty[sorted[i].Severity] > vulnerabilityPenalty[sorted[j].Severity]
		})
		a.Vulnerabilities = sorted
		a.Issues = append(a.Issues, fmt.Sprintf("%d known vulnerabilities, worst severity %s", len(sorted), sorted[0].Severity))
	}

	a.Score = newSectionScore(
		ScoreComponent{Name: "transport", Score: transport, Weight: 0.4},
		ScoreComponent{Name: "headers", Score: headers, Weight: 0.35},
		ScoreComponent{Name: "mixedContent", Score: mixed, Weight: 0.1},
		ScoreComponent{Name: "vulnerabilities", Score: vulns, Weight: 0.15},
	)
	return a
}
