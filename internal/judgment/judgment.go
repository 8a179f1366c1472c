// Package judgment implements the judgment builder: combining a
// promise, its outcome, and selected evidence into a Judgment, with
// the two structural hashes that anchor identity and determinism.
package judgment

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"observer/internal/evidencelaw"
	"observer/internal/outcome"
	"observer/internal/promise"
	"observer/internal/signal"
)

// Severity is the four-way fixed severity table.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// severityRank orders severities for the emission sort: severity DESC
// means Critical first.
var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityHigh:     2,
	SeverityMedium:   1,
	SeverityLow:       0,
}

// Priority is the judgment-priority ladder:
// FailureMisleading > FailureSilent > NeedsReview > WeakPass > Pass.
type Priority string

const (
	PriorityFailureMisleading Priority = "FailureMisleading"
	PriorityFailureSilent     Priority = "FailureSilent"
	PriorityNeedsReview       Priority = "NeedsReview"
	PriorityWeakPass          Priority = "WeakPass"
	PriorityPass              Priority = "Pass"
)

var priorityRank = map[Priority]int{
	PriorityFailureMisleading: 4,
	PriorityFailureSilent:     3,
	PriorityNeedsReview:       2,
	PriorityWeakPass:          1,
	PriorityPass:              0,
}

// PriorityOf maps an outcome status to its judgment priority.
// PartialSuccess is WeakPass, and so is Ambiguous when the caller flags
// it as a meaningful partial (isPartialSuccess); any other Ambiguous is
// NeedsReview.
func PriorityOf(status outcome.Status, isPartialSuccess bool) Priority {
	switch status {
	case outcome.StatusMisleading:
		return PriorityFailureMisleading
	case outcome.StatusSilentFailure:
		return PriorityFailureSilent
	case outcome.StatusPartialSuccess:
		return PriorityWeakPass
	case outcome.StatusSuccess:
		return PriorityPass
	case outcome.StatusAmbiguous:
		if isPartialSuccess {
			return PriorityWeakPass
		}
		return PriorityNeedsReview
	default:
		return PriorityNeedsReview
	}
}

// SeverityOf applies the fixed severity table: Submission/Navigation
// failures are Critical, Feedback failures are High, State failures
// are Medium, everything else (including weak reads/informational
// kinds) is Low. isFailure should be true for Misleading/SilentFailure
// outcomes.
func SeverityOf(kind promise.Kind, isFailure bool) Severity {
	if !isFailure {
		return SeverityLow
	}
	switch kind {
	case promise.KindSubmission, promise.KindNavigation:
		return SeverityCritical
	case promise.KindFeedbackToast, promise.KindFeedbackModal:
		return SeverityHigh
	case promise.KindStateChange:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Interaction carries the structural coordinates identity_hash is
// built from — the fields that must stay stable across re-runs of the
// same interaction.
type Interaction struct {
	Type     string // e.g. "click", "submit"
	Selector string
	URLPath  string
}

// Judgment is the finding produced by combining a promise with its
// computed outcome.
type Judgment struct {
	PromiseID       string
	Kind            promise.Kind
	Interaction     Interaction
	TargetPath      string
	Outcome         outcome.Status
	Confidence      float64
	Severity        Severity
	Priority        Priority
	Status          evidencelaw.ConfirmationStatus
	SignalsPresent  []signal.Kind
	EvidenceRefs    []string
	IdentityHash    string
	DeterminismHash string
}

// Build constructs a Judgment and computes both hashes. signalsPresent
// is taken as-is and sorted internally for the determinism hash;
// callers pass the post-filter set from the acknowledgment/antifalse-
// green stage. status is R5's confirmation tier for this finding,
// already computed by the caller (evidencelaw.Confirm).
func Build(p promise.Promise, interaction Interaction, res outcome.Result, isFailure bool, isPartialSuccess bool, signalsPresent []signal.Kind, evidenceRefs []string, status evidencelaw.ConfirmationStatus) Judgment {
	j := Judgment{
		PromiseID:      p.ID,
		Kind:           p.Kind,
		Interaction:    interaction,
		TargetPath:     p.Context.TargetPath,
		Outcome:        res.Status,
		Confidence:     res.Confidence,
		Severity:       SeverityOf(p.Kind, isFailure),
		Priority:       PriorityOf(res.Status, isPartialSuccess),
		Status:         status,
		SignalsPresent: append([]signal.Kind(nil), signalsPresent...),
		EvidenceRefs:   append([]string(nil), evidenceRefs...),
	}

	sortedSignals := append([]signal.Kind(nil), j.SignalsPresent...)
	sort.Slice(sortedSignals, func(i, k int) bool { return sortedSignals[i] < sortedSignals[k] })

	j.IdentityHash = identityHash(string(res.Status), interaction.Type, interaction.Selector, j.TargetPath, interaction.URLPath)
	j.DeterminismHash = determinismHash(j.IdentityHash, string(res.Status), string(j.Severity), sortedSignals)

	return j
}

// identityHash computes identity_hash: a structural hash over finding
// type, interaction type/selector, promise target path, and
// interaction URL path. No timestamps, no random ids.
func identityHash(findingType, interactionType, selector, targetPath, urlPath string) string {
	return truncatedSHA256(findingType, interactionType, selector, targetPath, urlPath)
}

// determinismHash computes determinism_hash: identity plus outcome,
// severity, and the sorted signal set.
func determinismHash(identity, outcomeStatus, severity string, sortedSignals []signal.Kind) string {
	kinds := make([]string, len(sortedSignals))
	for i, k := range sortedSignals {
		kinds[i] = string(k)
	}
	return truncatedSHA256(identity, outcomeStatus, severity, strings.Join(kinds, ","))
}

// truncatedSHA256 hashes the fields joined by the unit separator
// (\x1f) and truncates to 16
// hex chars.
func truncatedSHA256(fields ...string) string {
	h := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(h[:])[:16]
}

// Less implements the emission sort: stable order by (promise_id ASC,
// judgment_priority DESC, severity DESC, determinism_hash ASC).
func Less(a, b Judgment) bool {
	if a.PromiseID != b.PromiseID {
		return a.PromiseID < b.PromiseID
	}
	if priorityRank[a.Priority] != priorityRank[b.Priority] {
		return priorityRank[a.Priority] > priorityRank[b.Priority]
	}
	if severityRank[a.Severity] != severityRank[b.Severity] {
		return severityRank[a.Severity] > severityRank[b.Severity]
	}
	return a.DeterminismHash < b.DeterminismHash
}

// Sort orders judgments in place per the emission order.
func Sort(judgments []Judgment) {
	sort.SliceStable(judgments, func(i, k int) bool { return Less(judgments[i], judgments[k]) })
}
