// Package antifalsegreen implements the anti-false-green filter: the
// rules that run before and after acknowledgment to keep a lone
// spinner, or a trivial DOM mutation, from counting as proof that an
// interaction succeeded.
package antifalsegreen

import (
	"observer/internal/acknowledgment"
	"observer/internal/config"
	"observer/internal/signal"
)

// substantiveKinds are the signals that, alone, justify keeping a
// loading-class signal in the set: feedback, route, DOM delta above
// threshold, network response.
var substantiveKinds = []signal.Kind{
	signal.FeedbackAppeared,
	signal.ToastAppeared,
	signal.ModalAppeared,
	signal.RouteChanged,
	signal.NavigationChanged,
	signal.UrlChanged,
	signal.DomChanged,
	signal.MeaningfulUiChange,
	signal.NetworkResponseReceived,
}

// Filter applies the pre- and post-acknowledgment substantive-change
// rules. Constructed from a config.Policy so the DOM-delta thresholds
// are tunable (see DESIGN.md's Open Question resolutions).
type Filter struct {
	minAddedBytes        int
	minAddedVisibleNodes int
	weakConfidence       float64
}

// NewFilter builds a Filter from policy's anti_false_green thresholds.
func NewFilter(policy *config.Policy) *Filter {
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	return &Filter{
		minAddedBytes:        policy.AntiFalseGreen.MinAddedBytes,
		minAddedVisibleNodes: policy.AntiFalseGreen.MinAddedVisibleNodes,
		weakConfidence:       policy.Scores.WeakConfidence,
	}
}

// Outcome is Apply's result: the filtered set plus a diagnostic code
// when no substantive signal survives filtering.
type Outcome struct {
	Signals    signal.Set
	Diagnostic string // "no-substantive-signals" or ""
}

// Apply runs the pre-acknowledgment half of the filter: it demotes
// non-substantive DomChanged signals, then strips loading-class
// signals unless a substantive signal remains alongside them.
func (f *Filter) Apply(signals signal.Set) Outcome {
	working := signals.Clone()

	if sig, ok := working[signal.DomChanged]; ok && !f.isSubstantiveDelta(sig) {
		delete(working, signal.DomChanged)
	}

	hasSubstantive := false
	for _, k := range substantiveKinds {
		if working.Has(k) {
			hasSubstantive = true
			break
		}
	}

	if !hasSubstantive {
		working = working.Without([]signal.Kind{signal.LoadingStarted, signal.LoadingResolved})
		if len(working) == 0 {
			return Outcome{Signals: working, Diagnostic: "no-substantive-signals"}
		}
	}

	return Outcome{Signals: working}
}

// isSubstantiveDelta reports whether a DomChanged signal's payload
// clears the filter's byte/node thresholds.
func (f *Filter) isSubstantiveDelta(sig signal.Signal) bool {
	return sig.Payload.AddedBytes > f.minAddedBytes && sig.Payload.AddedVisibleNodes >= f.minAddedVisibleNodes
}

// Downgrade implements the post-acknowledgment half of the filter: if
// every signal that survived filtering is loading-class, any computed
// Strong or Partial level is downgraded to Weak.
func (f *Filter) Downgrade(filtered signal.Set, result acknowledgment.Result) acknowledgment.Result {
	if len(filtered) == 0 {
		return result
	}
	for k := range filtered {
		if !signal.IsLoadingClass(k) {
			return result
		}
	}
	if result.Level == acknowledgment.LevelStrong || result.Level == acknowledgment.LevelPartial {
		result.Level = acknowledgment.LevelWeak
		result.Confidence = f.weakConfidence
	}
	return result
}
