// Package promise implements the promise model: a tagged sum of what
// an interaction claims will happen, with a per-variant context struct
// rather than a duck-typed union.
package promise

// Kind tags the variant of a Promise.
type Kind string

const (
	KindNavigation    Kind = "Navigation"
	KindSubmission    Kind = "Submission"
	KindStateChange   Kind = "StateChange"
	KindFeedbackToast Kind = "Feedback.toast"
	KindFeedbackModal Kind = "Feedback.modal"
	KindNetworkRequest Kind = "Network.request"
	KindNetworkGraphQL Kind = "Network.graphql"
	KindNetworkWS      Kind = "Network.ws"
)

// RequiresUI reports whether this kind's successful acknowledgment is
// expected to surface in the UI rather than purely server-side. Used
// by the outcome matrix's None-acknowledgment fallback branch.
func (k Kind) RequiresUI() bool {
	switch k {
	case KindFeedbackToast, KindFeedbackModal, KindStateChange:
		return true
	default:
		return false
	}
}

// Proof grades how the promise was inferred from source evidence: a
// Proven promise came from explicit source evidence; an Observed or
// Weak promise was inferred generically; Unknown is the least certain.
// No pipeline stage reads Proof: acknowledgment confidence is computed
// from signals, profile and stability alone, and judgment.Judgment
// does not carry it.
type Proof string

const (
	ProofProven   Proof = "Proven"
	ProofObserved Proof = "Observed"
	ProofWeak     Proof = "Weak"
	ProofUnknown  Proof = "Unknown"
)

// Context is the union-by-kind structured context a Promise carries.
// Only the fields relevant to Kind are populated.
type Context struct {
	TargetPath         string   // Navigation: target path
	EndpointFingerprint string  // Submission / Network.*: endpoint fingerprint
	FeedbackTypes      []string // Feedback.*: feedback-type set (e.g. "toast", "banner")
	StateKey           string   // StateChange: state-key label
}

// Promise is a structured claim that some observable signal will
// follow an interaction: `{ kind, source, expected_signal, context,
// reason? }`.
type Promise struct {
	ID              string
	Kind            Kind
	Source          string // e.g. a file:line or static-analysis rule id
	ExpectedSignal  string // human-readable description of the expected signal
	Context         Context
	Proof           Proof
	Reason          string // optional: why this promise was inferred, esp. for non-Proven proofs
	FromPath        string // originating route, for navigation promises
	Selector        string // interaction selector hint, used by identity_hash
	InteractionType string // e.g. "click", "submit"; not read by identity_hash, which takes the type from the orchestrator Target's Interaction
	URLPath         string // URL path at interaction time; not read by identity_hash, which takes the path from the orchestrator Target's Interaction
}

// IsWeaklyProven reports whether the promise's Proof is anything other
// than Proven. No pipeline stage calls it; acknowledgment confidence
// does not depend on Proof.
func (p Promise) IsWeaklyProven() bool {
	return p.Proof != ProofProven
}
