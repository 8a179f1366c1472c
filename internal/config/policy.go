// Package config owns the Observer's Policy record: the acknowledgment
// confidences, anti-false-green thresholds, per-kind profile timer
// overrides and scan budget are fields here with their calibrated
// values from DefaultPolicy, constructed once at scan start and passed
// explicitly through the pipeline — never read from a package-level
// global.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProfileOverride lets a deployment tune one promise kind's
// observation profile without touching Go source.
type ProfileOverride struct {
	MinStabilityMs int `yaml:"min_stability_ms,omitempty"`
	GraceTimeoutMs int `yaml:"grace_timeout_ms,omitempty"`
}

// ScoreCutoffs holds the acknowledgment engine's confidence constants
// (0.95/0.6/0.3/0) as named fields; the anti-false-green downgrade also
// reads WeakConfidence. internal/outcome does not read these fields:
// the outcome matrix's confidences are literals in outcome.Evaluate.
// PartialStableConfidence is not read by any package.
type ScoreCutoffs struct {
	StrongConfidence        float64 `yaml:"strong_confidence"`
	PartialStableConfidence float64 `yaml:"partial_stable_confidence"`
	PartialUnstableConfidence float64 `yaml:"partial_unstable_confidence"`
	WeakConfidence          float64 `yaml:"weak_confidence"`
	NoneConfidence          float64 `yaml:"none_confidence"`
}

// AntiFalseGreenThresholds holds the substantive-DOM-delta thresholds
// the anti-false-green filter checks deltas against.
type AntiFalseGreenThresholds struct {
	MinAddedBytes        int `yaml:"min_added_bytes"`
	MinAddedVisibleNodes int `yaml:"min_added_visible_nodes"`
}

// Browser holds the sensor.RodSource's launch configuration.
type Browser struct {
	DebuggerURL    string   `yaml:"debugger_url"`
	Launch         []string `yaml:"launch"`
	Headless       bool     `yaml:"headless"`
	ViewportWidth  int      `yaml:"viewport_width"`
	ViewportHeight int      `yaml:"viewport_height"`
}

// Logging controls internal/logging's zap construction.
type Logging struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // "json" or "console"
	Development bool   `yaml:"development"`
}

// Policy is the complete set of tunable constants and settings for one
// scan run.
type Policy struct {
	ScanDurationBudgetMs int                         `yaml:"scan_duration_budget_ms"`
	ProfileOverrides     map[string]ProfileOverride  `yaml:"profile_overrides"`
	Scores               ScoreCutoffs                `yaml:"scores"`
	AntiFalseGreen        AntiFalseGreenThresholds    `yaml:"anti_false_green"`
	Browser              Browser                     `yaml:"browser"`
	Logging              Logging                     `yaml:"logging"`
}

// DefaultPolicy returns the calibrated defaults, with no profile
// overrides.
func DefaultPolicy() *Policy {
	return &Policy{
		ScanDurationBudgetMs: 10 * 60 * 1000,
		ProfileOverrides:     map[string]ProfileOverride{},
		Scores: ScoreCutoffs{
			StrongConfidence:          0.95,
			PartialStableConfidence:   0.60, // meaningful partial, stability met
			PartialUnstableConfidence: 0.60, // signals present but transient
			WeakConfidence:            0.30,
			NoneConfidence:            0.0,
		},
		AntiFalseGreen: AntiFalseGreenThresholds{
			MinAddedBytes:        100,
			MinAddedVisibleNodes: 1,
		},
		Browser: Browser{
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// ScanDurationBudget returns the budget as a time.Duration.
func (p *Policy) ScanDurationBudget() time.Duration {
	if p.ScanDurationBudgetMs <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(p.ScanDurationBudgetMs) * time.Millisecond
}

// Load reads a YAML policy file, falling back to DefaultPolicy() (with
// overrides layered on top) if the file doesn't exist, following the
// teacher's DefaultConfig-then-Load idiom.
func Load(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	return p, nil
}

// Save writes the policy to path as YAML.
func (p *Policy) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write policy file: %w", err)
	}
	return nil
}

// Validate enforces the observation profile invariants (`required ∩
// forbidden = ∅`, `min_stability_ms ≤ grace_timeout_ms`) against any
// profile overrides a deployment supplied — these are structural
// invariants on the built-in profiles, but user-supplied overrides
// need the same check applied explicitly.
func (p *Policy) Validate() error {
	for kind, ov := range p.ProfileOverrides {
		if ov.MinStabilityMs > 0 && ov.GraceTimeoutMs > 0 && ov.MinStabilityMs > ov.GraceTimeoutMs {
			return fmt.Errorf("profile override %q: min_stability_ms (%d) must be <= grace_timeout_ms (%d)",
				kind, ov.MinStabilityMs, ov.GraceTimeoutMs)
		}
	}
	if p.AntiFalseGreen.MinAddedBytes < 0 || p.AntiFalseGreen.MinAddedVisibleNodes < 0 {
		return fmt.Errorf("anti_false_green thresholds must be non-negative")
	}
	return nil
}
