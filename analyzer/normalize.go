package analyzer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Normalize converts a raw JSON payload into a CanonicalInput. It never
// fails: invalid JSON, a non-object root or any malformed field degrades to
// the zero value for that field only.
func Normalize(raw []byte) CanonicalInput {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return emptyInput()
	}
	return normalizeRoot(gjson.ParseBytes(raw))
}

// NormalizeValue is Normalize for an already-decoded value such as a
// map[string]any.
func NormalizeValue(v any) CanonicalInput {
	if v == nil {
		return emptyInput()
	}
	if b, ok := v.([]byte); ok {
		return Normalize(b)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return emptyInput()
	}
	return Normalize(data)
}

func emptyInput() CanonicalInput {
	return CanonicalInput{
		BrandNames:       []string{},
		Backlinks:        []LinkRecord{},
		ReferringDomains: []DomainRecord{},
		Anchors:          []AnchorEntry{},
		Competitors:      []Competitor{},
		ToxicLinks:       []LinkRecord{},
		Opportunities:    []Opportunity{},
		History:          []HistoryPoint{},
		Content:          ContentInput{KeywordDensity: map[string]float64{}},
		Security:         SecurityInput{Vulnerabilities: []Vulnerability{}},
	}
}

func normalizeRoot(root gjson.Result) CanonicalInput {
	in := emptyInput()
	if !root.IsObject() {
		return in
	}

	profile := field(root, "profile", "summary")
	in.Profile = normalizeProfile(root, profile)
	in.TargetKeyword = strings.TrimSpace(str(first(field(root, "target_keyword", "keyword"), field(profile, "target_keyword", "keyword"))))

	for _, b := range arr(first(field(root, "brand_names", "brands"), field(profile, "brand_names", "brands"))) {
		if name := strings.TrimSpace(str(b)); name != "" {
			in.BrandNames = append(in.BrandNames, name)
		}
	}
	if label := brandLabel(in.Profile.Domain); label != "" {
		in.BrandNames = append(in.BrandNames, label, registrableDomain(in.Profile.Domain))
	}

	for _, r := range arr(field(root, "backlinks", "links")) {
		in.Backlinks = append(in.Backlinks, normalizeLink(r))
	}
	for _, r := range arr(field(root, "toxic_links")) {
		l := normalizeLink(r)
		if !field(r, "status").Exists() {
			l.Status = StatusToxic
		}
		in.ToxicLinks = append(in.ToxicLinks, l)
	}
	for _, r := range arr(field(root, "referring_domains", "domains")) {
		if d, ok := normalizeDomain(r); ok {
			in.ReferringDomains = append(in.ReferringDomains, d)
		}
	}
	for _, r := range arr(field(root, "anchor_texts", "anchors")) {
		if a, ok := normalizeAnchor(r); ok {
			in.Anchors = append(in.Anchors, a)
		}
	}
	for _, r := range arr(field(root, "competitors")) {
		if c, ok := normalizeCompetitor(r); ok {
			in.Competitors = append(in.Competitors, c)
		}
	}
	for _, r := range arr(field(root, "opportunities", "link_opportunities")) {
		if o, ok := normalizeOpportunity(r); ok {
			in.Opportunities = append(in.Opportunities, o)
		}
	}
	for _, r := range arr(field(root, "historical_data", "history")) {
		in.History = append(in.History, normalizeHistoryPoint(r))
	}

	in.Scores = normalizeScores(field(root, "scores"))
	in.Content = normalizeContent(field(root, "content"))
	in.Performance = normalizePerformance(field(root, "performance"))
	in.Security = normalizeSecurity(field(root, "security"))
	return in
}

func normalizeProfile(root, profile gjson.Result) Profile {
	get := func(keys ...string) gjson.Result {
		return first(field(profile, keys...), field(root, keys...))
	}
	p := Profile{
		Domain:           cleanDomain(str(get("domain", "target", "url"))),
		TotalBacklinks:   count(get("total_backlinks", "backlinks_count")),
		ReferringDomains: count(get("referring_domains_count", "total_referring_domains", "referring_domains")),
		DomainAuthority:  score(get("domain_authority", "da")),
		DofollowLinks:    count(get("dofollow_links", "dofollow")),
		NofollowLinks:    count(get("nofollow_links", "nofollow")),
		NewLinks30d:      count(get("new_links_30d", "new_links")),
		LostLinks30d:     count(get("lost_links_30d", "lost_links")),
	}
	p.NetGrowth = p.NewLinks30d - p.LostLinks30d
	return p
}

func normalizeLink(r gjson.Result) LinkRecord {
	l := LinkRecord{
		SourceURL:       strings.TrimSpace(str(field(r, "source_url", "url", "source"))),
		TargetURL:       strings.TrimSpace(str(field(r, "target_url", "target"))),
		SourceDomain:    cleanDomain(str(field(r, "source_domain", "domain"))),
		AnchorText:      strings.TrimSpace(str(field(r, "anchor_text", "anchor"))),
		Directive:       parseDirective(str(field(r, "link_type", "rel", "directive"))),
		FirstSeen:       str(field(r, "first_seen", "discovered")),
		LastSeen:        str(field(r, "last_seen")),
		Status:          parseLinkStatus(str(field(r, "status"))),
		DomainAuthority: score(field(r, "domain_authority", "da")),
		PageAuthority:   score(field(r, "page_authority", "pa")),
		SpamScore:       nonNegative(num(field(r, "spam_score", "spam"))),
		ToxicityScore:   score(field(r, "toxicity_score", "toxicity")),
		Relevance:       score(field(r, "relevance_score", "relevance")),
		Category:        strings.TrimSpace(str(field(r, "category"))),
		SurroundingText: str(field(r, "surrounding_text", "context")),
	}
	if l.SourceDomain == "" {
		l.SourceDomain = cleanDomain(l.SourceURL)
	}
	_, l.toxicityScored = numOK(field(r, "toxicity_score", "toxicity"))
	if t, ok := ParseAnchorType(str(field(r, "anchor_type"))); ok {
		l.AnchorType, l.anchorTyped = t, true
	}
	for _, reason := range arr(field(r, "toxicity_reasons", "reasons")) {
		if tr, ok := ParseToxicityReason(str(reason)); ok {
			l.ToxicityReasons = l.ToxicityReasons.With(tr)
		}
	}
	return l
}

func normalizeDomain(r gjson.Result) (DomainRecord, bool) {
	d := DomainRecord{
		Domain:          cleanDomain(str(field(r, "domain", "name"))),
		Backlinks:       count(field(r, "backlinks", "backlink_count", "links")),
		Category:        strings.TrimSpace(str(field(r, "category"))),
		Country:         strings.ToUpper(strings.TrimSpace(str(field(r, "country")))),
		Language:        strings.ToLower(strings.TrimSpace(str(field(r, "language")))),
		DomainAuthority: score(field(r, "domain_authority", "da")),
		SpamScore:       nonNegative(num(field(r, "spam_score", "spam"))),
		Relevance:       score(field(r, "relevance_score", "relevance")),
		ToxicityScore:   score(field(r, "toxicity_score", "toxicity")),
		FirstSeen:       str(field(r, "first_seen")),
		Active:          boolean(field(r, "is_active", "active"), true),
	}
	return d, d.Domain != ""
}

func normalizeAnchor(r gjson.Result) (AnchorEntry, bool) {
	a := AnchorEntry{
		Text:               strings.TrimSpace(str(field(r, "text", "anchor", "anchor_text"))),
		Count:              count(field(r, "count", "occurrences", "backlinks")),
		AvgDomainAuthority: score(field(r, "avg_domain_authority", "average_da", "domain_authority")),
	}
	if t, ok := ParseAnchorType(str(field(r, "type", "anchor_type"))); ok {
		a.Type, a.typed = t, true
	}
	return a, a.Count > 0
}

func normalizeCompetitor(r gjson.Result) (Competitor, bool) {
	c := Competitor{
		Domain:           cleanDomain(str(field(r, "domain", "name"))),
		DomainAuthority:  score(field(r, "domain_authority", "da")),
		TotalBacklinks:   count(field(r, "total_backlinks", "backlinks")),
		ReferringDomains: count(field(r, "referring_domains")),
		CommonDomains:    count(field(r, "common_domains", "shared_domains")),
	}
	return c, c.Domain != ""
}

func normalizeOpportunity(r gjson.Result) (Opportunity, bool) {
	o := Opportunity{
		Domain:          cleanDomain(str(field(r, "domain", "target", "url"))),
		Type:            strings.TrimSpace(str(field(r, "type"))),
		Contact:         strings.TrimSpace(str(field(r, "contact", "contact_email"))),
		DomainAuthority: score(field(r, "domain_authority", "da")),
		Difficulty:      score(field(r, "difficulty")),
		Relevance:       score(field(r, "relevance_score", "relevance")),
	}
	return o, o.Domain != ""
}

var historyLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "2006/01/02"}

func normalizeHistoryPoint(r gjson.Result) HistoryPoint {
	h := HistoryPoint{
		Date:      strings.TrimSpace(str(field(r, "date", "period"))),
		NewLinks:  count(field(r, "new_links", "new", "gained")),
		LostLinks: count(field(r, "lost_links", "lost")),
		Total:     count(field(r, "total_backlinks", "total")),
	}
	for _, layout := range historyLayouts {
		if t, err := time.Parse(layout, h.Date); err == nil {
			h.at = t
			break
		}
	}
	return h
}

func normalizeScores(r gjson.Result) RawScores {
	opt := func(keys ...string) *float64 {
		v, ok := numOK(field(r, keys...))
		if !ok {
			return nil
		}
		v = clampScore(v)
		return &v
	}
	return RawScores{
		Quantity:    opt("quantity"),
		Quality:     opt("quality"),
		Diversity:   opt("diversity"),
		Authority:   opt("authority"),
		Naturalness: opt("naturalness"),
		Toxicity:    opt("toxicity"),
		Overall:     opt("overall"),
	}
}

// field returns the first of keys present on obj, trying each key as given
// and in camelCase. Non-objects yield an empty result.
func field(obj gjson.Result, keys ...string) gjson.Result {
	if !obj.IsObject() {
		return gjson.Result{}
	}
	for _, k := range keys {
		if v := obj.Get(gjson.Escape(k)); v.Exists() {
			return v
		}
		if camel := camelCase(k); camel != k {
			if v := obj.Get(gjson.Escape(camel)); v.Exists() {
				return v
			}
		}
	}
	return gjson.Result{}
}

// first returns the first result that exists and is not null.
func first(rs ...gjson.Result) gjson.Result {
	for _, r := range rs {
		if r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func camelCase(k string) string {
	parts := strings.Split(k, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func arr(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

func str(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	}
	return ""
}

// numOK accepts JSON numbers and numeric strings ("42", " 3.5 ", "12%").
func numOK(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		s := strings.TrimSuffix(strings.TrimSpace(r.Str), "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func num(r gjson.Result) float64 {
	v, _ := numOK(r)
	return v
}

func score(r gjson.Result) float64 { return clampScore(num(r)) }

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func count(r gjson.Result) int {
	v := num(r)
	if v <= 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}

func boolean(r gjson.Result, def bool) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.String:
		if b, err := strconv.ParseBool(strings.TrimSpace(r.Str)); err == nil {
			return b
		}
	case gjson.Number:
		return r.Num != 0
	}
	return def
}
