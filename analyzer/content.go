package analyzer

import (
	"math"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// ContentInput is the normalized content section of a payload.
type ContentInput struct {
	URL              string
	Title            string
	MetaDescription  string
	MetaKeywords     string
	Robots           string
	Viewport         string
	H1Text           []string
	H1Count          int
	H2Count          int
	H3Count          int
	WordCount        int
	ImagesTotal      int
	ImagesWithAlt    int
	KeywordDensity   map[string]float64
	ReadabilityScore float64
	HTML             string

	present bool
}

// TitleAnalysis scores the <title> tag.
type TitleAnalysis struct {
	Title    string  `json:"title"`
	Length   int     `json:"length"`
	HasTitle bool    `json:"hasTitle"`
	Score    float64 `json:"score"`
}

// MetaAnalysis scores the meta tags.
type MetaAnalysis struct {
	Description    string  `json:"description"`
	DescriptionLen int     `json:"descriptionLength"`
	HasDescription bool    `json:"hasDescription"`
	Keywords       string  `json:"keywords"`
	HasKeywords    bool    `json:"hasKeywords"`
	Robots         string  `json:"robots"`
	Viewport       string  `json:"viewport"`
	Score          float64 `json:"score"`
}

// HeaderAnalysis scores the heading structure.
type HeaderAnalysis struct {
	H1Count int      `json:"h1Count"`
	H2Count int      `json:"h2Count"`
	H3Count int      `json:"h3Count"`
	H1Text  []string `json:"h1Text"`
	Score   float64  `json:"score"`
}

// BodyAnalysis scores body copy and images.
type BodyAnalysis struct {
	WordCount        int     `json:"wordCount"`
	HasImages        bool    `json:"hasImages"`
	ImagesWithAlt    int     `json:"imagesWithAlt"`
	TotalImages      int     `json:"totalImages"`
	ReadabilityScore float64 `json:"readabilityScore"`
	Score            float64 `json:"score"`
}

// KeywordAnalysis scores target keyword usage.
type KeywordAnalysis struct {
	Keyword     string             `json:"keyword"`
	Density     float64            `json:"density"`
	InTitle     bool               `json:"inTitle"`
	InH1        bool               `json:"inH1"`
	TopKeywords []KeywordFrequency `json:"topKeywords"`
	Score       float64            `json:"score"`
}

// KeywordFrequency is one keyword with its density in percent.
type KeywordFrequency struct {
	Keyword string  `json:"keyword"`
	Density float64 `json:"density"`
}

// ContentAnalysis is the content report.
type ContentAnalysis struct {
	Metadata        Metadata         `json:"metadata"`
	Title           TitleAnalysis    `json:"title"`
	Meta            MetaAnalysis     `json:"meta"`
	Headers         HeaderAnalysis   `json:"headers"`
	Body            BodyAnalysis     `json:"body"`
	Keywords        KeywordAnalysis  `json:"keywords"`
	Score           SectionScore     `json:"score"`
	Issues          []string         `json:"issues"`
	Recommendations []Recommendation `json:"recommendations"`
}

func normalizeContent(r gjson.Result) ContentInput {
	c := ContentInput{
		KeywordDensity: map[string]float64{},
		H1Text:         []string{},
	}
	if !r.IsObject() {
		return c
	}
	c.present = true
	c.URL = strings.TrimSpace(str(field(r, "url")))
	c.Title = strings.TrimSpace(str(field(r, "title")))
	c.MetaDescription = strings.TrimSpace(str(field(r, "meta_description", "description")))
	c.MetaKeywords = strings.TrimSpace(str(field(r, "meta_keywords", "keywords")))
	c.Robots = strings.TrimSpace(str(field(r, "robots")))
	c.Viewport = strings.TrimSpace(str(field(r, "viewport")))
	c.H1Count = count(field(r, "h1_count"))
	c.H2Count = count(field(r, "h2_count"))
	c.H3Count = count(field(r, "h3_count"))
	c.WordCount = count(field(r, "word_count"))
	c.ImagesTotal = count(field(r, "images_total", "total_images"))
	c.ImagesWithAlt = count(field(r, "images_with_alt"))
	c.ReadabilityScore = score(field(r, "readability_score", "readability"))
	c.HTML = str(field(r, "html"))
	for _, h := range arr(field(r, "h1_text", "h1")) {
		if t := strings.TrimSpace(str(h)); t != "" {
			c.H1Text = append(c.H1Text, t)
		}
	}
	if kd := field(r, "keyword_density"); kd.IsObject() {
		kd.ForEach(func(k, v gjson.Result) bool {
			if d, ok := numOK(v); ok && d >= 0 && k.Str != "" {
				c.KeywordDensity[strings.ToLower(k.Str)] = d
			}
			return true
		})
	}
	if c.ImagesWithAlt > c.ImagesTotal {
		c.ImagesWithAlt = c.ImagesTotal
	}
	if c.H1Count < len(c.H1Text) {
		c.H1Count = len(c.H1Text)
	}
	return c
}

// fillFromHTML extracts whatever signals the payload left empty from the
// page markup.
func fillFromHTML(c ContentInput) ContentInput {
	if strings.TrimSpace(c.HTML) == "" {
		return c
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.HTML))
	if err != nil {
		return c
	}
	if c.Title == "" {
		c.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	meta := func(name string) string {
		v, _ := doc.Find("meta[name='" + name + "']").Attr("content")
		return strings.TrimSpace(v)
	}
	if c.MetaDescription == "" {
		c.MetaDescription = meta("description")
	}
	if c.MetaKeywords == "" {
		c.MetaKeywords = meta("keywords")
	}
	if c.Robots == "" {
		c.Robots = meta("robots")
	}
	if c.Viewport == "" {
		c.Viewport = meta("viewport")
	}
	if c.H1Count == 0 {
		doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
			c.H1Text = append(c.H1Text, strings.TrimSpace(s.Text()))
		})
		c.H1Count = len(c.H1Text)
	}
	if c.H2Count == 0 {
		c.H2Count = doc.Find("h2").Length()
	}
	if c.H3Count == 0 {
		c.H3Count = doc.Find("h3").Length()
	}
	body := doc.Find("body").Text()
	if c.WordCount == 0 {
		c.WordCount = len(strings.Fields(body))
	}
	if c.ImagesTotal == 0 {
		images := doc.Find("img")
		c.ImagesTotal = images.Length()
		images.Each(func(_ int, s *goquery.Selection) {
			if _, exists := s.Attr("alt"); exists {
				c.ImagesWithAlt++
			}
		})
	}
	if len(c.KeywordDensity) == 0 {
		c.KeywordDensity = keywordDensity(body)
	}
	return c
}

// keywordDensity counts words of four or more letters as a share of all
// words, in percent.
func keywordDensity(text string) map[string]float64 {
	words := strings.Fields(tokenize(text))
	density := map[string]float64{}
	if len(words) == 0 {
		return density
	}
	counts := map[string]int{}
	for _, w := range words {
		if len([]rune(w)) >= 4 {
			counts[w]++
		}
	}
	for w, n := range counts {
		density[w] = round2(float64(n) / float64(len(words)) * 100)
	}
	return density
}

func analyzeTitle(c ContentInput) TitleAnalysis {
	length := len([]rune(c.Title))
	var s float64
	if length > 0 {
		if length >= 30 && length <= 60 {
			s = 100
		} else if length < 30 {
			s = 50
		} else {
			s = 70
		}
	}
	return TitleAnalysis{Title: c.Title, Length: length, HasTitle: length > 0, Score: s}
}

func analyzeMeta(c ContentInput) MetaAnalysis {
	meta := MetaAnalysis{
		Description:    c.MetaDescription,
		DescriptionLen: len([]rune(c.MetaDescription)),
		Keywords:       c.MetaKeywords,
		Robots:         c.Robots,
		Viewport:       c.Viewport,
	}
	meta.HasDescription = meta.DescriptionLen > 0
	meta.HasKeywords = meta.Keywords != ""

	if meta.HasDescription {
		if meta.DescriptionLen >= 120 && meta.DescriptionLen <= 160 {
			meta.Score += 40
		} else {
			meta.Score += 20
		}
	}
	if meta.HasKeywords {
		meta.Score += 20
	}
	if meta.Viewport != "" {
		meta.Score += 20
	}
	if meta.Robots != "" {
		meta.Score += 20
	}
	return meta
}

func analyzeHeaders(c ContentInput) HeaderAnalysis {
	h := HeaderAnalysis{H1Count: c.H1Count, H2Count: c.H2Count, H3Count: c.H3Count, H1Text: c.H1Text}
	if h.H1Count == 1 {
		h.Score += 40
	} else if h.H1Count > 1 {
		h.Score += 20
	}
	if h.H2Count > 0 {
		h.Score += 30
	}
	if h.H3Count > 0 {
		h.Score += 30
	}
	return h
}

func analyzeBody(c ContentInput) BodyAnalysis {
	b := BodyAnalysis{
		WordCount:        c.WordCount,
		TotalImages:      c.ImagesTotal,
		ImagesWithAlt:    c.ImagesWithAlt,
		HasImages:        c.ImagesTotal > 0,
		ReadabilityScore: c.ReadabilityScore,
	}
	switch {
	case b.WordCount >= 300:
		b.Score += 40
	case b.WordCount >= 150:
		b.Score += 20
	}
	if b.HasImages {
		b.Score += 20
		if b.ImagesWithAlt == b.TotalImages {
			b.Score += 20
		} else if b.ImagesWithAlt > 0 {
			b.Score += 10
		}
	}
	if b.ReadabilityScore > 0 {
		b.Score += b.ReadabilityScore * 0.2
	} else if b.WordCount > 0 {
		b.Score += 10
	}
	b.Score = clampScore(b.Score)
	return b
}

// Ideal target keyword density, in percent.
const (
	minKeywordDensity = 0.5
	maxKeywordDensity = 2.5
)

func analyzeKeywords(c ContentInput, keyword string) KeywordAnalysis {
	k := KeywordAnalysis{Keyword: keyword, TopKeywords: topKeywords(c.KeywordDensity, 10)}
	kw := normalizeText(keyword)
	if kw == "" {
		return k
	}
	k.Density = c.KeywordDensity[kw]
	k.InTitle = strings.Contains(normalizeText(c.Title), kw)
	for _, h := range c.H1Text {
		if strings.Contains(normalizeText(h), kw) {
			k.InH1 = true
			break
		}
	}

	switch {
	case k.Density >= minKeywordDensity && k.Density <= maxKeywordDensity:
		k.Score += 50
	case k.Density > maxKeywordDensity:
		// stuffing: lose credit as density climbs past the ceiling
		k.Score += math.Max(0, 50-(k.Density-maxKeywordDensity)*20)
	case k.Density > 0:
		k.Score += 25
	}
	if k.InTitle {
		k.Score += 25
	}
	if k.InH1 {
		k.Score += 25
	}
	return k
}

func topKeywords(density map[string]float64, n int) []KeywordFrequency {
	out := make([]KeywordFrequency, 0, len(density))
	for w, d := range density {
		out = append(out, KeywordFrequency{Keyword: w, Density: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Density != out[j].Density {
			return out[i].Density > out[j].Density
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// MapBackendToContentAnalysis builds the content report with the default
// engine.
func MapBackendToContentAnalysis(raw []byte) ContentAnalysis {
	return defaultEngine.MapBackendToContentAnalysis(raw)
}

// MapBackendToContentAnalysis builds the content report from a raw payload.
func (en *Engine) MapBackendToContentAnalysis(raw []byte) ContentAnalysis {
	in := Normalize(raw)
	return en.contentAnalysis(in, en.metadata(in))
}

func (en *Engine) contentAnalysis(in CanonicalInput, md Metadata) ContentAnalysis {
	a := ContentAnalysis{
		Metadata:        md,
		Headers:         HeaderAnalysis{H1Text: []string{}},
		Keywords:        KeywordAnalysis{TopKeywords: []KeywordFrequency{}},
		Score:           newSectionScore(),
		Issues:          []string{},
		Recommendations: []Recommendation{},
	}
	if !in.Content.present {
		return a
	}

	c := fillFromHTML(in.Content)
	a.Title = analyzeTitle(c)
	a.Meta = analyzeMeta(c)
	a.Headers = analyzeHeaders(c)
	a.Body = analyzeBody(c)
	a.Keywords = analyzeKeywords(c, in.TargetKeyword)

	components := []ScoreComponent{
		{Name: "title", Score: a.Title.Score, Weight: 0.2},
		{Name: "meta", Score: a.Meta.Score, Weight: 0.2},
		{Name: "headers", Score: a.Headers.Score, Weight: 0.15},
		{Name: "body", Score: a.Body.Score, Weight: 0.25},
	}
	if in.TargetKeyword != "" {
		components = append(components, ScoreComponent{Name: "keywords", Score: a.Keywords.Score, Weight: 0.2})
	}
	a.Score = newSectionScore(components...)
	a.Issues, a.Recommendations = contentFindings(a)
	return a
}

func contentFindings(a ContentAnalysis) ([]string, []Recommendation) {
	issues := []string{}
	recs := []Recommendation{}
	add := func(p Priority, title, issue string) {
		issues = append(issues, issue)
		recs = append(recs, Recommendation{
			Category:    CategoryOptimization,
			Priority:    p,
			Effort:      PriorityLow,
			Impact:      p.String(),
			Title:       title,
			Description: issue,
		})
	}

	if !a.Title.HasTitle {
		add(PriorityHigh, "Add a title tag", "Add a title tag to your page")
	} else if a.Title.Length < 30 {
		add(PriorityMedium, "Lengthen the title", "Title tag is too short (should be 30-60 characters)")
	} else if a.Title.Length > 60 {
		add(PriorityMedium, "Shorten the title", "Title tag is too long (should be 30-60 characters)")
	}

	if !a.Meta.HasDescription {
		add(PriorityHigh, "Add a meta description", "Add a meta description")
	} else if a.Meta.DescriptionLen < 120 {
		add(PriorityLow, "Lengthen the meta description", "Meta description is too short (should be 120-160 characters)")
	} else if a.Meta.DescriptionLen > 160 {
		add(PriorityLow, "Shorten the meta description", "Meta description is too long (should be 120-160 characters)")
	}

	if a.Headers.H1Count == 0 {
		add(PriorityHigh, "Add an H1 heading", "Add an H1 heading")
	} else if a.Headers.H1Count > 1 {
		add(PriorityMedium, "Use a single H1", "Multiple H1 headings found - consider using only one")
	}

	if a.Body.WordCount < 300 {
		add(PriorityMedium, "Expand the content", "Add more content (aim for at least 300 words)")
	}
	if a.Body.TotalImages > 0 && a.Body.ImagesWithAlt < a.Body.TotalImages {
		add(PriorityMedium, "Add image alt text", "Add alt text to all images")
	}

	if a.Keywords.Keyword != "" {
		if a.Keywords.Density > maxKeywordDensity {
			add(PriorityHigh, "Reduce keyword stuffing", "Target keyword density is above 2.5%; rewrite repetitive passages")
		} else if a.Keywords.Density < minKeywordDensity {
			add(PriorityMedium, "Use the target keyword", "Target keyword appears too rarely in the body copy")
		}
		if !a.Keywords.InTitle {
			add(PriorityMedium, "Put the keyword in the title", "Target keyword is missing from the title tag")
		}
	}
	return issues, recs
}
