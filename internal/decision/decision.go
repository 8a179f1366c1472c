// Package decision implements the decision recorder and determinism
// lock: the record of every adaptive or non-adaptive decision the
// pipeline made, and the hard rule that one adaptive-category entry
// disqualifies a run from being deterministic.
package decision

import "sort"

// Category tags a recorded decision. The three adaptive categories
// (AdaptiveStabilization(extended), Retry, Truncation) are the ones the
// determinism lock watches for.
type Category string

const (
	CategoryAdaptiveStabilizationExtended Category = "AdaptiveStabilization(extended)"
	CategoryRetry                         Category = "Retry"
	CategoryTruncation                    Category = "Truncation"
	CategoryRoutine                       Category = "Routine"
)

var adaptiveCategories = map[Category]bool{
	CategoryAdaptiveStabilizationExtended: true,
	CategoryRetry:                         true,
	CategoryTruncation:                    true,
}

// IsAdaptive reports whether c is one of the adaptive categories that
// trips the determinism lock.
func (c Category) IsAdaptive() bool { return adaptiveCategories[c] }

// Decision is one recorded event, adaptive or not, kept so the run's
// determinism can be audited after the fact. The orchestrator records
// one when the scan duration budget truncates a scan (Truncation) and
// one on an evidence law abort (Routine).
type Decision struct {
	Category Category
	PromiseID string
	Reason   string
}

// Verdict is the Decision Recorder's determinism conclusion.
type Verdict string

const (
	VerdictDeterministic    Verdict = "Deterministic"
	VerdictNonDeterministic Verdict = "NonDeterministic"
)

// Recorder is the append-only decision recorder.
type Recorder struct {
	decisions []Decision
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends d to the recorder.
func (r *Recorder) Record(d Decision) {
	r.decisions = append(r.decisions, d)
}

// ByCategory returns all decisions in category c, in record order.
func (r *Recorder) ByCategory(c Category) []Decision {
	var out []Decision
	for _, d := range r.decisions {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// Export returns a copy of every recorded decision, sorted by promise
// ID then category for deterministic artifact output.
func (r *Recorder) Export() []Decision {
	out := make([]Decision, len(r.decisions))
	copy(out, r.decisions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PromiseID != out[j].PromiseID {
			return out[i].PromiseID < out[j].PromiseID
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summary is the recorder's rollup, including the determinism verdict.
type Summary struct {
	TotalDecisions int
	ByCategory     map[Category]int
	Verdict        Verdict
	Reasons        []string // non-empty only when Verdict is NonDeterministic
}

// Summary applies the determinism rule: any entry in an adaptive
// category forces NonDeterministic, listing every adaptive decision's
// reason.
func (r *Recorder) Summary() Summary {
	s := Summary{ByCategory: map[Category]int{}, Verdict: VerdictDeterministic}
	for _, d := range r.decisions {
		s.TotalDecisions++
		s.ByCategory[d.Category]++
		if d.Category.IsAdaptive() {
			s.Verdict = VerdictNonDeterministic
			s.Reasons = append(s.Reasons, d.Reason)
		}
	}
	return s
}

// ComparisonResult is the outcome of comparing two runs' decision
// summaries and normalized artifact hashes.
type ComparisonResult struct {
	Verdict         Verdict
	ArtifactHashesEqual bool
	SummariesEqual  bool
	Reasons         []string
}

// Compare runs the determinism comparison across two runs: equal
// artifact hashes after normalization, plus identical
// decision summaries. Any artifact diff or adaptive event in either
// run classifies the pair as NonDeterministic.
func Compare(runA, runB *Recorder, artifactHashA, artifactHashB string) ComparisonResult {
	sumA := runA.Summary()
	sumB := runB.Summary()

	result := ComparisonResult{Verdict: VerdictDeterministic}

	result.ArtifactHashesEqual = artifactHashA == artifactHashB
	if !result.ArtifactHashesEqual {
		result.Verdict = VerdictNonDeterministic
		result.Reasons = append(result.Reasons, "normalized artifact hashes differ")
	}

	result.SummariesEqual = summariesEqual(sumA, sumB)
	if !result.SummariesEqual {
		result.Verdict = VerdictNonDeterministic
		result.Reasons = append(result.Reasons, "decision summaries differ")
	}

	if sumA.Verdict == VerdictNonDeterministic || sumB.Verdict == VerdictNonDeterministic {
		result.Verdict = VerdictNonDeterministic
		result.Reasons = append(result.Reasons, sumA.Reasons...)
		result.Reasons = append(result.Reasons, sumB.Reasons...)
	}

	return result
}

func summariesEqual(a, b Summary) bool {
	if a.TotalDecisions != b.TotalDecisions || a.Verdict != b.Verdict {
		return false
	}
	if len(a.ByCategory) != len(b.ByCategory) {
		return false
	}
	for k, v := range a.ByCategory {
		if b.ByCategory[k] != v {
			return false
		}
	}
	return true
}
