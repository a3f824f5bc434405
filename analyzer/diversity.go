package analyzer

import (
	"fmt"
	"math"
	"sort"
)

// Diversity scores how evenly referring domains spread over categories and
// countries.
type Diversity struct {
	CategoryDiversity   float64        `json:"categoryDiversity"`
	GeographicDiversity float64        `json:"geographicDiversity"`
	OverallDiversity    float64        `json:"overallDiversity"`
	Categories          map[string]int `json:"categories"`
	Countries           map[string]int `json:"countries"`
}

// CalculateDomainDiversity computes normalized Shannon entropy of the
// category and country distributions. Entropy is divided by ln(n), n being
// the number of domains with a known value, so one domain per distinct
// value scores 100 and a single shared value scores 0.
func CalculateDomainDiversity(domains []DomainRecord) Diversity {
	d := Diversity{
		Categories: map[string]int{},
		Countries:  map[string]int{},
	}
	for _, dom := range domains {
		if dom.Category != "" {
			d.Categories[dom.Category]++
		}
		if dom.Country != "" {
			d.Countries[dom.Country]++
		}
	}
	d.CategoryDiversity = round2(evenness(d.Categories))
	d.GeographicDiversity = round2(evenness(d.Countries))
	d.OverallDiversity = round2((d.CategoryDiversity + d.GeographicDiversity) / 2)
	return d
}

func evenness(counts map[string]int) float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	if n < 2 || len(counts) < 2 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		h -= p * math.Log(p)
	}
	return clampScore(h / math.Log(float64(n)) * 100)
}

// Velocity describes the link acquisition rate.
type Velocity struct {
	Current   float64 `json:"current"`
	Natural   float64 `json:"natural"`
	IsNatural bool    `json:"isNatural"`
	Deviation float64 `json:"deviation"`
	Trend     string  `json:"trend"`
	Warning   string  `json:"warning,omitempty"`
}

// CalculateLinkVelocity uses the default tolerance.
func CalculateLinkVelocity(history []HistoryPoint) Velocity {
	return defaultEngine.CalculateLinkVelocity(history)
}

// CalculateLinkVelocity compares the newest period's net links with the
// mean of the periods before it. Periods with parseable dates are ordered
// chronologically; otherwise payload order is taken as chronological.
func (en *Engine) CalculateLinkVelocity(history []HistoryPoint) Velocity {
	v := Velocity{IsNatural: true, Trend: "stable"}
	if len(history) == 0 {
		return v
	}

	points := make([]HistoryPoint, len(history))
	copy(points, history)
	if allDated(points) {
		sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })
	}

	last := points[len(points)-1]
	v.Current = float64(last.Net())
	if len(points) == 1 {
		v.Natural = v.Current
		return v
	}

	sum := 0.0
	for _, p := range points[:len(points)-1] {
		sum += float64(p.Net())
	}
	v.Natural = round2(sum / float64(len(points)-1))

	switch {
	case v.Current > v.Natural:
		v.Trend = "accelerating"
	case v.Current < v.Natural:
		v.Trend = "slowing"
	}

	tolerance := en.cfg.Thresholds.VelocityTolerance
	if v.Natural == 0 {
		v.IsNatural = v.Current == 0
		if !v.IsNatural {
			v.Deviation = 100
		}
	} else {
		v.Deviation = round2(math.Abs(v.Current-v.Natural) / math.Abs(v.Natural) * 100)
		v.IsNatural = v.Deviation < tolerance
	}

	if !v.IsNatural {
		if v.Current > v.Natural {
			v.Warning = fmt.Sprintf("Link acquisition spiked to %.0f net links against a baseline of %.1f; sudden growth can look manipulative", v.Current, v.Natural)
		} else {
			v.Warning = fmt.Sprintf("Link acquisition dropped to %.0f net links against a baseline of %.1f; check for lost or removed links", v.Current, v.Natural)
		}
	}
	return v
}

func allDated(points []HistoryPoint) bool {
	for _, p := range points {
		if p.at.IsZero() {
			return false
		}
	}
	return true
}
