// Package outcome implements the outcome truth matrix: a pure, total
// function from acknowledgment + silence classification + raw
// evidence flags to a final Status and confidence.
package outcome

import (
	"observer/internal/acknowledgment"
	"observer/internal/silence"
)

// Status is the outcome vocabulary the matrix resolves to.
type Status string

const (
	StatusSuccess        Status = "Success"
	StatusPartialSuccess  Status = "PartialSuccess"
	StatusMisleading      Status = "Misleading"
	StatusSilentFailure  Status = "SilentFailure"
	StatusAmbiguous      Status = "Ambiguous"
)

// Input bundles every fact the matrix's nine-step precedence chain
// consumes.
type Input struct {
	Acknowledgment acknowledgment.Result
	StabilityMet   bool

	HardErrorDetected bool // network failure string, server 5xx, JS exception, timeout
	MisleadingPattern bool // success-feedback present while status>=400 or console errors or api-error flag

	RequiredSatisfiedRatio float64 // |detected_required| / required_total, for meaningful-partial check
	OnlyLoadingDetected    bool    // Weak level backed solely by loading-class signals

	Silence            silence.Class
	LastResponseStatus int
	RequiresUI         bool // promise.Kind.RequiresUI(), for the None-level fallback
}

// Result is the matrix's output: a Status and its confidence.
type Result struct {
	Status     Status
	Confidence float64
}

// Evaluate runs the nine-step precedence chain; first match returns.
// Pure function; never fails.
func Evaluate(in Input) Result {
	if in.HardErrorDetected {
		return Result{StatusSilentFailure, 0.95}
	}

	level := in.Acknowledgment.Level

	if level == acknowledgment.LevelStrong && in.StabilityMet && in.MisleadingPattern {
		return Result{StatusMisleading, 0.80}
	}
	if level == acknowledgment.LevelStrong && in.StabilityMet {
		return Result{StatusSuccess, 0.95}
	}
	if level == acknowledgment.LevelStrong && !in.StabilityMet {
		return Result{StatusAmbiguous, 0.50}
	}

	if level == acknowledgment.LevelPartial && in.StabilityMet && in.RequiredSatisfiedRatio >= 0.5 {
		return Result{StatusPartialSuccess, 0.60}
	}
	if level == acknowledgment.LevelPartial {
		return Result{StatusAmbiguous, 0.30}
	}

	if level == acknowledgment.LevelWeak {
		return Result{StatusAmbiguous, 0.20}
	}

	if level == acknowledgment.LevelNone {
		switch {
		case in.Silence == silence.ClassServerSideOnly && in.LastResponseStatus >= 200 && in.LastResponseStatus < 300:
			return Result{StatusPartialSuccess, 0.70}
		case in.Silence == silence.ClassBlockedByAuth:
			return Result{StatusSilentFailure, 0.85}
		case in.Silence == silence.ClassNetworkTimeout:
			return Result{StatusSilentFailure, 0.85}
		case in.Silence == silence.ClassUiRenderFailure:
			return Result{StatusSilentFailure, 0.80}
		default:
			confidence := 0.5
			if in.Silence == silence.ClassTrueSilence {
				confidence = 0.8
			}
			if in.RequiresUI {
				return Result{StatusSilentFailure, confidence}
			}
			return Result{StatusAmbiguous, confidence}
		}
	}

	return Result{StatusAmbiguous, 0}
}
