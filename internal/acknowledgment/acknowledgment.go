// Package acknowledgment implements the acknowledgment engine: a
// pure, total function from a signal set and profile to an
// acknowledgment Level and confidence score. Never fails.
package acknowledgment

import (
	"observer/internal/config"
	"observer/internal/profile"
	"observer/internal/signal"
)

// Level is the four-way acknowledgment strength the engine assigns.
type Level string

const (
	LevelNone    Level = "None"
	LevelWeak    Level = "Weak"
	LevelPartial Level = "Partial"
	LevelStrong  Level = "Strong"
)

// Result is the engine's output: level, confidence, and the matched
// required/optional signals for downstream evidence reporting.
type Result struct {
	Level           Level
	Confidence      float64
	DetectedRequired []signal.Kind
	DetectedOptional []signal.Kind
}

// Engine evaluates acknowledgment against a config.Policy's calibrated
// confidence values — scores live in the Policy record, not package
// constants (see DESIGN.md's Open Question resolutions).
type Engine struct {
	scores config.ScoreCutoffs
}

// NewEngine builds an Engine bound to policy's score cutoffs.
func NewEngine(policy *config.Policy) *Engine {
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	return &Engine{scores: policy.Scores}
}

// Evaluate runs the five-step acknowledgment algorithm over signals
// observed within one interaction window, against p, given whether the
// observed state held stable for at least p.MinStabilityMs.
func (e *Engine) Evaluate(signals signal.Set, p profile.ObservationProfile, stabilityMet bool) Result {
	detectedRequired := signals.Intersect(p.Required)
	detectedOptional := signals.Intersect(p.Optional)

	reqTotal := len(p.Required)
	reqKinds := detectedRequired.Kinds()
	optKinds := detectedOptional.Kinds()

	switch {
	case len(reqKinds) == 0 && len(optKinds) == 0:
		return Result{Level: LevelNone, Confidence: e.scores.NoneConfidence}

	case len(reqKinds) == 0:
		return Result{
			Level:            LevelWeak,
			Confidence:       e.scores.WeakConfidence,
			DetectedOptional: optKinds,
		}

	case reqTotal > 0 && len(reqKinds) < reqTotal:
		return Result{
			Level:            LevelPartial,
			Confidence:       float64(len(reqKinds)) / float64(reqTotal),
			DetectedRequired: reqKinds,
			DetectedOptional: optKinds,
		}

	case stabilityMet:
		return Result{
			Level:            LevelStrong,
			Confidence:       e.scores.StrongConfidence,
			DetectedRequired: reqKinds,
			DetectedOptional: optKinds,
		}

	default:
		return Result{
			Level:            LevelPartial,
			Confidence:       e.scores.PartialUnstableConfidence,
			DetectedRequired: reqKinds,
			DetectedOptional: optKinds,
		}
	}
}
