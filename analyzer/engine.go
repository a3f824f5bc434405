package analyzer

import (
	"slices"
	"strings"
	"time"
)

// Engine runs the scoring pipeline with a fixed configuration. An Engine
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg   Config
	now   func() time.Time
	terms termIndex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the clock used for scan dates and disavow timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an Engine. An invalid config falls back to the defaults
// for the offending thresholds rather than failing.
func NewEngine(cfg Config, opts ...Option) *Engine {
	cfg = cfg.clone()
	cfg.Thresholds = mergeThresholds(DefaultConfig().Thresholds, cfg.Thresholds)
	if cfg.Thresholds.OverOptimizationCeiling > 100 {
		cfg.Thresholds.OverOptimizationCeiling = DefaultConfig().Thresholds.OverOptimizationCeiling
	}
	if cfg.Thresholds.SpamScale < 0 {
		cfg.Thresholds.SpamScale = DefaultConfig().Thresholds.SpamScale
	}
	e := &Engine{
		cfg: cfg,
		now: time.Now,
	}
	e.terms = newTermIndex(cfg)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the engine's configuration. The registries are
// cloned, so changing the result never reaches the engine.
func (e *Engine) Config() Config { return e.cfg.clone() }

func (c Config) clone() Config {
	c.Footprints = slices.Clone(c.Footprints)
	c.GenericPhrases = slices.Clone(c.GenericPhrases)
	c.TriggerTerms = slices.Clone(c.TriggerTerms)
	return c
}

var defaultEngine = NewEngine(DefaultConfig())

// termIndex holds lowercased phrase lists so classification does not
// re-lowercase them per call.
type termIndex struct {
	generic  map[string]bool
	triggers []string
}

func newTermIndex(cfg Config) termIndex {
	idx := termIndex{generic: make(map[string]bool, len(cfg.GenericPhrases))}
	for _, p := range cfg.GenericPhrases {
		if p = normalizeText(p); p != "" {
			idx.generic[p] = true
		}
	}
	for _, t := range cfg.TriggerTerms {
		if t = normalizeText(t); t != "" {
			idx.triggers = append(idx.triggers, t)
		}
	}
	return idx
}

// normalizeText lowercases and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
