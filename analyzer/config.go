package analyzer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Thresholds are the cutoffs the classifiers compare against.
type Thresholds struct {
	// ToxicCutoff: a toxicity score strictly above this is toxic.
	ToxicCutoff float64 `yaml:"toxic_cutoff"`
	// LowAuthorityCutoff: domain authority strictly below this is low.
	LowAuthorityCutoff float64 `yaml:"low_authority_cutoff"`
	// SpamScale is the maximum raw spam score (17 for the Moz scale).
	SpamScale float64 `yaml:"spam_scale"`
	// HighSpamCutoff is on the raw spam scale.
	HighSpamCutoff float64 `yaml:"high_spam_cutoff"`
	// ElevatedSpamPercent is on the normalized 0-100 scale.
	ElevatedSpamPercent float64 `yaml:"elevated_spam_percent"`
	// OverOptimizationCeiling is the maximum share, in percent, an exact or
	// partial match anchor may hold before it is flagged.
	OverOptimizationCeiling float64 `yaml:"over_optimization_ceiling"`
	// VelocityTolerance is the allowed relative deviation, in percent,
	// between the current and the trailing link rate.
	VelocityTolerance float64 `yaml:"velocity_tolerance"`
	// FootprintRiskPerLink scales footprint risk with cluster size.
	FootprintRiskPerLink float64 `yaml:"footprint_risk_per_link"`
}

// FootprintKind tells which toxicity reason a footprint implies.
type FootprintKind string

const (
	FootprintPBN      FootprintKind = "pbn"
	FootprintLinkFarm FootprintKind = "link_farm"
)

func (k FootprintKind) reason() ToxicityReason {
	if k == FootprintLinkFarm {
		return ReasonLinkFarm
	}
	return ReasonPBN
}

// FootprintSignature is a hosting or platform marker matched as a substring
// of the source domain (or URL).
type FootprintSignature struct {
	Name    string        `yaml:"name" json:"name"`
	Pattern string        `yaml:"pattern" json:"pattern"`
	Kind    FootprintKind `yaml:"kind" json:"kind"`
}

// Config holds every tunable the engine reads.
type Config struct {
	Thresholds     Thresholds           `yaml:"thresholds"`
	Footprints     []FootprintSignature `yaml:"footprints"`
	GenericPhrases []string             `yaml:"generic_phrases"`
	TriggerTerms   []string             `yaml:"trigger_terms"`
}

// DefaultConfig returns the built-in thresholds and registries.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			ToxicCutoff:             70,
			LowAuthorityCutoff:      20,
			SpamScale:               17,
			HighSpamCutoff:          10,
			ElevatedSpamPercent:     30,
			OverOptimizationCeiling: 20,
			VelocityTolerance:       50,
			FootprintRiskPerLink:    20,
		},
		Footprints: []FootprintSignature{
			{Name: "blogspot", Pattern: ".blogspot.", Kind: FootprintPBN},
			{Name: "wordpress", Pattern: ".wordpress.", Kind: FootprintPBN},
			{Name: "weebly", Pattern: ".weebly.", Kind: FootprintPBN},
			{Name: "tumblr", Pattern: ".tumblr.", Kind: FootprintPBN},
			{Name: "wixsite", Pattern: ".wixsite.", Kind: FootprintPBN},
			{Name: "link-directory", Pattern: "directory.", Kind: FootprintLinkFarm},
			{Name: "link-exchange", Pattern: "linkexchange", Kind: FootprintLinkFarm},
			{Name: "seo-links", Pattern: "seo-links", Kind: FootprintLinkFarm},
			{Name: "free-links", Pattern: "freelinks", Kind: FootprintLinkFarm},
		},
		GenericPhrases: []string{
			"click here", "read more", "learn more", "here", "this", "website",
			"this site", "visit", "visit site", "go to", "more", "more info",
			"check it out", "source", "link", "see more", "find out more",
		},
		TriggerTerms: []string{
			"buy", "cheap", "rank #1", "click here", "guaranteed", "discount",
			"casino", "viagra", "loan", "free money", "best price",
		},
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. Lists in
// the file replace the default lists; zero thresholds keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read engine config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}

	cfg.Thresholds = mergeThresholds(cfg.Thresholds, file.Thresholds)
	if len(file.Footprints) > 0 {
		cfg.Footprints = file.Footprints
	}
	if len(file.GenericPhrases) > 0 {
		cfg.GenericPhrases = file.GenericPhrases
	}
	if len(file.TriggerTerms) > 0 {
		cfg.TriggerTerms = file.TriggerTerms
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid engine config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the classifiers cannot work with.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.SpamScale <= 0 {
		return fmt.Errorf("spam_scale must be positive, got %v", t.SpamScale)
	}
	if t.OverOptimizationCeiling <= 0 || t.OverOptimizationCeiling > 100 {
		return fmt.Errorf("over_optimization_ceiling must be in (0,100], got %v", t.OverOptimizationCeiling)
	}
	if t.ToxicCutoff < 0 || t.ToxicCutoff > 100 {
		return fmt.Errorf("toxic_cutoff must be in [0,100], got %v", t.ToxicCutoff)
	}
	for i, fp := range c.Footprints {
		if strings.TrimSpace(fp.Pattern) == "" {
			return fmt.Errorf("footprint %d (%s) has an empty pattern", i, fp.Name)
		}
		if fp.Kind != FootprintPBN && fp.Kind != FootprintLinkFarm {
			return fmt.Errorf("footprint %s has unknown kind %q", fp.Name, fp.Kind)
		}
	}
	return nil
}

func mergeThresholds(base, over Thresholds) Thresholds {
	pick := func(b, o float64) float64 {
		if o != 0 {
			return o
		}
		return b
	}
	return Thresholds{
		ToxicCutoff:             pick(base.ToxicCutoff, over.ToxicCutoff),
		LowAuthorityCutoff:      pick(base.LowAuthorityCutoff, over.LowAuthorityCutoff),
		SpamScale:               pick(base.SpamScale, over.SpamScale),
		HighSpamCutoff:          pick(base.HighSpamCutoff, over.HighSpamCutoff),
		ElevatedSpamPercent:     pick(base.ElevatedSpamPercent, over.ElevatedSpamPercent),
		OverOptimizationCeiling: pick(base.OverOptimizationCeiling, over.OverOptimizationCeiling),
		VelocityTolerance:       pick(base.VelocityTolerance, over.VelocityTolerance),
		FootprintRiskPerLink:    pick(base.FootprintRiskPerLink, over.FootprintRiskPerLink),
	}
}
