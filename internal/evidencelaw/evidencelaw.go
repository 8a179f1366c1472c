// Package evidencelaw implements the evidence law enforcer: the closed
// rule set that gates when a failure or success judgment may be
// reported at all.
package evidencelaw

import (
	"fmt"

	"observer/internal/acknowledgment"
	"observer/internal/outcome"
	"observer/internal/silence"
)

// Violation is the typed error R1-R4 produce, mapping to exit code 50.
// Callers map this to internal/errs' CategoryEvidenceLaw.
type Violation struct {
	Rule    string
	Outcome outcome.Status
	Detail  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("evidence law %s violated for outcome %s: %s", v.Rule, v.Outcome, v.Detail)
}

// EvidenceFlags bundles the raw evidence facts R1/R2/R4 check for.
type EvidenceFlags struct {
	Has5xxOr401Or403   bool
	ConsoleErrorPresent bool
	NetworkFailurePresent bool
	StrongAcknowledgment bool
	ObservableErrorMessage bool

	SuccessShapedSignalPresent bool // success-feedback signal, for R2
	ErrorShapedIndicatorPresent bool // error-shaped indicator, for R2

	EvidenceReferenceCount int // before/after snapshot, network record id, trace id — for R4
}

// Anchors bundles R5's context-anchor and effect-evidence facts.
type Anchors struct {
	BeforeStatePresent bool // URL, snapshot, or structured before-record
	EffectEvidencePresent bool // after-state, change-flag, or quantitative indicator
}

// ConfirmationStatus is the three-tier confidence R5's downgrade path
// assigns.
type ConfirmationStatus string

const (
	StatusConfirmed ConfirmationStatus = "Confirmed"
	StatusSuspected  ConfirmationStatus = "Suspected"
	StatusUnproven   ConfirmationStatus = "Unproven"
)

// Enforce runs R1-R4 against a computed outcome, returning a
// *Violation (never a plain error) on failure. silenceClass is the
// entry's silence.Class when status is SilentFailure and came from a
// None-level acknowledgment; pass "" when not applicable.
func Enforce(status outcome.Status, ack acknowledgment.Result, sc silence.Class, ev EvidenceFlags) error {
	if status == outcome.StatusSilentFailure || status == outcome.StatusMisleading {
		if !hasStrongEvidence(ev) {
			return &Violation{Rule: "R1", Outcome: status, Detail: "no strong evidence of failure present"}
		}
	}

	if status == outcome.StatusMisleading {
		if !(ev.SuccessShapedSignalPresent && ev.ErrorShapedIndicatorPresent) {
			return &Violation{Rule: "R2", Outcome: status, Detail: "misleading outcome requires both a success-shaped signal and an error-shaped indicator"}
		}
	}

	if status == outcome.StatusSilentFailure && sc != "" && sc.Recoverable() {
		return &Violation{Rule: "R3", Outcome: status, Detail: fmt.Sprintf("silence class %s is recoverable, cannot justify SilentFailure", sc)}
	}

	if status == outcome.StatusSilentFailure || status == outcome.StatusMisleading {
		if ev.EvidenceReferenceCount == 0 {
			return &Violation{Rule: "R4", Outcome: status, Detail: "failure judgment carries no evidence reference"}
		}
	}

	return nil
}

func hasStrongEvidence(ev EvidenceFlags) bool {
	return ev.Has5xxOr401Or403 ||
		ev.ConsoleErrorPresent ||
		ev.NetworkFailurePresent ||
		ev.StrongAcknowledgment ||
		ev.ObservableErrorMessage
}

// Confirm implements R5: a Confirmed status requires both a before
// anchor and effect evidence. Missing one downgrades to Suspected;
// missing both downgrades to Unproven, and the caller must drop the
// finding rather than report it.
func Confirm(a Anchors) ConfirmationStatus {
	switch {
	case a.BeforeStatePresent && a.EffectEvidencePresent:
		return StatusConfirmed
	case a.BeforeStatePresent || a.EffectEvidencePresent:
		return StatusSuspected
	default:
		return StatusUnproven
	}
}
