package analyzer

// QualityFactors are the raw inputs of the quality composite.
type QualityFactors struct {
	DomainAuthority float64
	SpamScore       float64
	ToxicityScore   float64
	Relevance       float64
}

// QualitySignals is anything that can be graded into a QualityTier.
type QualitySignals interface {
	QualityFactors() QualityFactors
}

const (
	weightAuthority = 0.40
	weightSpam      = 0.20
	weightToxicity  = 0.25
	weightRelevance = 0.15
)

// Tier cutoffs on the quality composite. TierToxic is only reachable
// through the toxicity override.
var qualityCutoffs = []struct {
	min  float64
	tier QualityTier
}{
	{80, TierExcellent},
	{65, TierGood},
	{45, TierAverage},
}

// AssessQuality grades e with the default engine.
func AssessQuality(e QualitySignals) QualityTier { return defaultEngine.AssessQuality(e) }

// AssessQuality grades an entity. A toxicity score above the toxic cutoff
// forces TierToxic whatever the other factors are.
func (en *Engine) AssessQuality(e QualitySignals) QualityTier {
	f := e.QualityFactors()
	if en.isToxic(f.ToxicityScore) {
		return TierToxic
	}
	composite := en.QualityComposite(f)
	for _, c := range qualityCutoffs {
		if composite >= c.min {
			return c.tier
		}
	}
	return TierPoor
}

// QualityComposite is the weighted [0,100] blend of the four factors.
func (en *Engine) QualityComposite(f QualityFactors) float64 {
	return clampScore(
		clampScore(f.DomainAuthority)*weightAuthority +
			(100-en.spamPercent(f.SpamScore))*weightSpam +
			(100-clampScore(f.ToxicityScore))*weightToxicity +
			clampScore(f.Relevance)*weightRelevance,
	)
}

// spamPercent maps a raw spam score onto 0-100 using the configured scale.
func (en *Engine) spamPercent(spam float64) float64 {
	scale := en.cfg.Thresholds.SpamScale
	if scale <= 0 {
		return clampScore(spam)
	}
	return clampScore(spam / scale * 100)
}

func (en *Engine) isToxic(toxicity float64) bool {
	return toxicity > en.cfg.Thresholds.ToxicCutoff
}
