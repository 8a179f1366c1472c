// Package manifest decodes and validates the PromiseManifest JSON
// input: the set of expectations a scan is asked to verify against a
// running application.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"observer/internal/promise"
)

// Route is one entry in the manifest's routes list: a reachable path
// the orchestrator should be prepared to navigate to.
type Route struct {
	Path string `json:"path"`
}

// Expectation is one manifest expectation: `{ id, kind, from_path,
// target_path?, endpoint?, selector_hint?, proof }`.
type Expectation struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	FromPath     string `json:"from_path"`
	TargetPath   string `json:"target_path,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	SelectorHint string `json:"selector_hint,omitempty"`
	Proof        string `json:"proof"`
}

// Manifest is the top-level PromiseManifest document.
type Manifest struct {
	Version      int           `json:"version"`
	Routes       []Route       `json:"routes"`
	Expectations []Expectation `json:"expectations"`
}

// knownKinds mirrors promise.Kind's closed vocabulary, keyed by the
// manifest's JSON string form.
var knownKinds = map[string]promise.Kind{
	string(promise.KindNavigation):    promise.KindNavigation,
	string(promise.KindSubmission):    promise.KindSubmission,
	string(promise.KindStateChange):   promise.KindStateChange,
	string(promise.KindFeedbackToast): promise.KindFeedbackToast,
	string(promise.KindFeedbackModal): promise.KindFeedbackModal,
	string(promise.KindNetworkRequest): promise.KindNetworkRequest,
	string(promise.KindNetworkGraphQL): promise.KindNetworkGraphQL,
	string(promise.KindNetworkWS):      promise.KindNetworkWS,
}

// proofAliases translates the manifest's proof vocabulary
// (Proven/Observed/Inferred) onto promise.Proof's internal vocabulary
// (Proven/Observed/Weak/Unknown) — the manifest and the promise model
// name the generic tier differently, so "Inferred" is accepted as a
// synonym for Observed.
var proofAliases = map[string]promise.Proof{
	"Proven":   promise.ProofProven,
	"Observed": promise.ProofObserved,
	"Inferred": promise.ProofObserved,
	"Weak":     promise.ProofWeak,
	"Unknown":  promise.ProofUnknown,
}

// Load reads and validates a manifest file at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates a manifest from r.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate enforces the manifest's structural invariants: every
// expectation must have a non-empty id, a recognized kind, and a
// recognized proof. An unknown kind or proof is a UsageError, since it
// means the manifest was generated against a different vocabulary
// version than this Observer build understands.
func (m *Manifest) Validate() error {
	if m.Version == 0 {
		return fmt.Errorf("manifest: missing or zero version")
	}
	seen := make(map[string]bool, len(m.Expectations))
	for i, e := range m.Expectations {
		if e.ID == "" {
			return fmt.Errorf("manifest: expectation[%d] missing id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("manifest: duplicate expectation id %q", e.ID)
		}
		seen[e.ID] = true

		if _, ok := knownKinds[e.Kind]; !ok {
			return fmt.Errorf("manifest: expectation %q has unknown kind %q", e.ID, e.Kind)
		}
		if _, ok := proofAliases[e.Proof]; !ok {
			return fmt.Errorf("manifest: expectation %q has unknown proof %q", e.ID, e.Proof)
		}
	}
	return nil
}

// Promises converts every expectation into a promise.Promise, ready
// for the orchestrator.
func (m *Manifest) Promises() []promise.Promise {
	out := make([]promise.Promise, 0, len(m.Expectations))
	for _, e := range m.Expectations {
		out = append(out, promise.Promise{
			ID:       e.ID,
			Kind:     knownKinds[e.Kind],
			FromPath: e.FromPath,
			Proof:    proofAliases[e.Proof],
			Context: promise.Context{
				TargetPath:          e.TargetPath,
				EndpointFingerprint: e.Endpoint,
			},
			Selector: e.SelectorHint,
		})
	}
	return out
}
