// Package profile implements the observation profile registry:
// per-promise-kind contracts over the signal vocabulary, plus the
// Validate function the acknowledgment engine consumes.
package profile

import (
	"sort"

	"observer/internal/config"
	"observer/internal/promise"
	"observer/internal/signal"
)

// ObservationProfile is the per-kind contract: required
// signals that must all appear, optional signals that strengthen but
// don't gate acknowledgment, forbidden signals whose presence vetoes
// it, and the two stability timers.
type ObservationProfile struct {
	Required       []signal.Kind
	Optional       []signal.Kind
	Forbidden      []signal.Kind
	MinStabilityMs int
	GraceTimeoutMs int
}

// defaultProfile is the conservative fallback for any kind the
// registry doesn't calibrate explicitly.
var defaultProfile = ObservationProfile{
	Required:       []signal.Kind{signal.DomChanged, signal.FeedbackAppeared},
	Optional:       []signal.Kind{signal.LoadingResolved},
	Forbidden:      nil,
	MinStabilityMs: 300,
	GraceTimeoutMs: 5000,
}

// calibrated holds the per-kind defaults.
var calibrated = map[promise.Kind]ObservationProfile{
	promise.KindNavigation: {
		Required:       []signal.Kind{signal.RouteChanged, signal.NavigationChanged, signal.UrlChanged},
		MinStabilityMs: 500,
		GraceTimeoutMs: 5000,
	},
	promise.KindNetworkRequest: {
		Required:       []signal.Kind{signal.NetworkRequestSent, signal.NetworkResponseReceived},
		MinStabilityMs: 300,
		GraceTimeoutMs: 10000,
	},
	promise.KindNetworkGraphQL: {
		Required:       []signal.Kind{signal.NetworkRequestSent, signal.NetworkResponseReceived},
		MinStabilityMs: 300,
		GraceTimeoutMs: 15000,
	},
	promise.KindNetworkWS: {
		Required:       []signal.Kind{signal.NetworkRequestSent},
		MinStabilityMs: 300,
		GraceTimeoutMs: 5000,
	},
	promise.KindFeedbackToast: {
		Required:       []signal.Kind{signal.ToastAppeared, signal.FeedbackAppeared},
		Forbidden:      []signal.Kind{signal.LoadingStarted},
		MinStabilityMs: 400,
		GraceTimeoutMs: 3000,
	},
	promise.KindFeedbackModal: {
		Required:       []signal.Kind{signal.ModalAppeared, signal.DomChanged},
		Forbidden:      []signal.Kind{signal.LoadingStarted},
		MinStabilityMs: 500,
		GraceTimeoutMs: 5000,
	},
	promise.KindStateChange: {
		Required:       []signal.Kind{signal.DomChanged, signal.MeaningfulUiChange},
		MinStabilityMs: 400,
		GraceTimeoutMs: 5000,
	},
}

// Registry resolves a promise.Kind to its ObservationProfile, layering
// a config.Policy's overrides (timer fields only — required/optional/
// forbidden sets stay fixed) on top of the calibrated defaults.
// Constructed per scan from the active Policy rather than read off
// package globals (see DESIGN.md's Open Question resolutions).
type Registry struct {
	policy *config.Policy
}

// NewRegistry builds a Registry bound to policy.
func NewRegistry(policy *config.Policy) *Registry {
	return &Registry{policy: policy}
}

// ProfileFor is a total function over promise.Kind: unknown kinds
// resolve to the conservative default, never an error.
func (r *Registry) ProfileFor(kind promise.Kind) ObservationProfile {
	p, ok := calibrated[kind]
	if !ok {
		p = defaultProfile
	} else {
		p = clone(p)
	}

	if r.policy != nil {
		if ov, ok := r.policy.ProfileOverrides[string(kind)]; ok {
			if ov.MinStabilityMs > 0 {
				p.MinStabilityMs = ov.MinStabilityMs
			}
			if ov.GraceTimeoutMs > 0 {
				p.GraceTimeoutMs = ov.GraceTimeoutMs
			}
		}
	}
	return p
}

func clone(p ObservationProfile) ObservationProfile {
	out := p
	out.Required = append([]signal.Kind(nil), p.Required...)
	out.Optional = append([]signal.Kind(nil), p.Optional...)
	out.Forbidden = append([]signal.Kind(nil), p.Forbidden...)
	return out
}

// Result is Validate's return value: whether the profile is
// satisfied, which required/optional signals matched, and — on
// failure — a human-readable reason. Forbidden is set only when the
// failure is specifically a forbidden-signal veto, distinct from a
// merely-missing-required-signal failure: callers that must force the
// acknowledgment/outcome result down on a veto (rather than just skip
// silence classification) branch on this field instead of matching
// Reason as a string.
type Result struct {
	Satisfied bool
	Forbidden bool
	Matched   []signal.Kind
	Reason    string
}

// Validate checks a signal set against a profile: forbidden signals
// veto first, then every required signal must be present, then
// optional matches are reported for the acknowledgment engine's
// strength computation.
func Validate(signals signal.Set, p ObservationProfile) Result {
	for _, f := range p.Forbidden {
		if signals.Has(f) {
			return Result{Satisfied: false, Forbidden: true, Reason: "forbidden signal present: " + string(f)}
		}
	}

	var matched []signal.Kind
	var missing []signal.Kind
	for _, req := range p.Required {
		if signals.Has(req) {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return Result{
			Satisfied: false,
			Matched:   matched,
			Reason:    "missing required signals: " + joinKinds(missing),
		}
	}

	for _, opt := range p.Optional {
		if signals.Has(opt) {
			matched = append(matched, opt)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })

	return Result{Satisfied: true, Matched: matched}
}

func joinKinds(kinds []signal.Kind) string {
	out := ""
	for i, k := range kinds {
		if i > 0 {
			out += ", "
		}
		out += string(k)
	}
	return out
}
