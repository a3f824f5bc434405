package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessQualityTiers(t *testing.T) {
	cases := []struct {
		name string
		link LinkRecord
		want QualityTier
	}{
		{"authoritative and clean", LinkRecord{DomainAuthority: 90, SpamScore: 0, ToxicityScore: 0, Relevance: 90}, TierExcellent},
		{"solid", LinkRecord{DomainAuthority: 50, SpamScore: 0, ToxicityScore: 20, Relevance: 50}, TierGood},
		{"middling", LinkRecord{DomainAuthority: 30, SpamScore: 0, ToxicityScore: 30, Relevance: 30}, TierAverage},
		{"weak", LinkRecord{DomainAuthority: 30, SpamScore: 8.5, ToxicityScore: 40, Relevance: 40}, TierPoor},
		{"toxic", LinkRecord{DomainAuthority: 99, ToxicityScore: 71, Relevance: 100}, TierToxic},
		{"at the cutoff", LinkRecord{DomainAuthority: 99, ToxicityScore: 70, Relevance: 100}, TierExcellent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, AssessQuality(c.link))
		})
	}
}

func TestAssessQualityToxicityOverride(t *testing.T) {
	for _, tox := range []float64{70.01, 75, 87, 100} {
		for _, da := range []float64{0, 50, 100} {
			for _, spam := range []float64{0, 17} {
				for _, rel := range []float64{0, 100} {
					l := LinkRecord{DomainAuthority: da, SpamScore: spam, ToxicityScore: tox, Relevance: rel}
					assert.Equal(t, TierToxic, AssessQuality(l), "%+v", l.QualityFactors())
					d := DomainRecord{DomainAuthority: da, SpamScore: spam, ToxicityScore: tox, Relevance: rel}
					assert.Equal(t, TierToxic, AssessQuality(d))
				}
			}
		}
	}
}

func TestAssessQualityMonotoneInAuthority(t *testing.T) {
	for _, spam := range []float64{0, 5, 10, 17, 40} {
		for _, tox := range []float64{0, 35, 69, 70, 80} {
			for _, rel := range []float64{0, 45, 100} {
				prev := AssessQuality(LinkRecord{DomainAuthority: 0, SpamScore: spam, ToxicityScore: tox, Relevance: rel})
				for da := 1.0; da <= 100; da++ {
					got := AssessQuality(LinkRecord{DomainAuthority: da, SpamScore: spam, ToxicityScore: tox, Relevance: rel})
					if !assert.GreaterOrEqual(t, got, prev, "da=%v spam=%v tox=%v rel=%v", da, spam, tox, rel) {
						return
					}
					prev = got
				}
			}
		}
	}
}

func TestQualityComposite(t *testing.T) {
	en := NewEngine(DefaultConfig())

	assert.InDelta(t, 94.5, en.QualityComposite(QualityFactors{DomainAuthority: 90, Relevance: 90}), 1e-9)
	assert.InDelta(t, 0, en.QualityComposite(QualityFactors{SpamScore: 17, ToxicityScore: 100}), 1e-9)
	// out-of-range inputs clamp
	assert.InDelta(t, 100, en.QualityComposite(QualityFactors{DomainAuthority: 500, SpamScore: -3, ToxicityScore: -1, Relevance: 200}), 1e-9)
}

func TestSpamScaleIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.SpamScale = 100
	en := NewEngine(cfg)

	assert.InDelta(t, 17, en.spamPercent(17), 1e-9)
	assert.InDelta(t, 100, defaultEngine.spamPercent(17), 1e-9)
}

func TestTierPoints(t *testing.T) {
	assert.Equal(t, 100.0, TierExcellent.Points())
	assert.Equal(t, 75.0, TierGood.Points())
	assert.Equal(t, 50.0, TierAverage.Points())
	assert.Equal(t, 25.0, TierPoor.Points())
	assert.Equal(t, 0.0, TierToxic.Points())
}
