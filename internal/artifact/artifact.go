// Package artifact produces the four JSON run artifacts (findings,
// silence ledger, decisions, determinism report) and the normalization
// pass required before two runs can be compared for determinism.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"observer/internal/decision"
	"observer/internal/judgment"
	"observer/internal/silence"
)

// FindingRecord is one entry in the findings artifact.
type FindingRecord struct {
	PromiseID       string   `json:"promise_id"`
	Kind            string   `json:"kind"`
	Outcome         string   `json:"outcome"`
	Confidence      float64  `json:"confidence"`
	Severity        string   `json:"severity"`
	Priority        string   `json:"priority"`
	Status          string   `json:"status"`
	SignalsPresent  []string `json:"signals_present"`
	EvidenceRefs    []string `json:"evidence_refs"`
	IdentityHash    string   `json:"identity_hash"`
	DeterminismHash string   `json:"determinism_hash"`
}

// Enforcement is the findings artifact's downgrade/drop log.
type Enforcement struct {
	Downgrades []string `json:"downgrades"`
	Drops      []string `json:"drops"`
}

// FindingsArtifact is the top-level findings document.
type FindingsArtifact struct {
	Version     int             `json:"version"`
	Findings    []FindingRecord `json:"findings"`
	Enforcement Enforcement     `json:"enforcement"`
}

// FindingRecordFrom converts a judgment.Judgment into its artifact
// representation. Timestamps are deliberately never included.
func FindingRecordFrom(j judgment.Judgment) FindingRecord {
	signals := make([]string, len(j.SignalsPresent))
	for i, s := range j.SignalsPresent {
		signals[i] = string(s)
	}
	return FindingRecord{
		PromiseID:       j.PromiseID,
		Kind:            string(j.Kind),
		Outcome:         string(j.Outcome),
		Confidence:      j.Confidence,
		Severity:        string(j.Severity),
		Priority:        string(j.Priority),
		Status:          string(j.Status),
		SignalsPresent:  signals,
		EvidenceRefs:    j.EvidenceRefs,
		IdentityHash:    j.IdentityHash,
		DeterminismHash: j.DeterminismHash,
	}
}

// BuildFindingsArtifact assembles the findings artifact from
// already-sorted judgments (see judgment.Sort).
func BuildFindingsArtifact(judgments []judgment.Judgment, downgrades, drops []string) FindingsArtifact {
	records := make([]FindingRecord, len(judgments))
	for i, j := range judgments {
		records[i] = FindingRecordFrom(j)
	}
	if downgrades == nil {
		downgrades = []string{}
	}
	if drops == nil {
		drops = []string{}
	}
	return FindingsArtifact{Version: 1, Findings: records, Enforcement: Enforcement{Downgrades: downgrades, Drops: drops}}
}

// SilenceEntryRecord is one ledger entry in the silence ledger
// artifact.
type SilenceEntryRecord struct {
	PromiseID string  `json:"promise_id"`
	Category  string  `json:"category"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason"`
	Impact    float64 `json:"overall_impact"`
}

// SilenceLedgerArtifact is the top-level silence ledger document:
// `{ total, entries[], summary }`.
type SilenceLedgerArtifact struct {
	Total   int                  `json:"total"`
	Entries []SilenceEntryRecord `json:"entries"`
	Summary silence.Summary      `json:"summary"`
}

// BuildSilenceLedgerArtifact assembles the ledger artifact, sorting
// entries by (category, reason, promise_id), following a (scope,
// reason, description) ordering — scope maps to category here since
// the ledger has no separate scope field.
func BuildSilenceLedgerArtifact(l *silence.Ledger) SilenceLedgerArtifact {
	entries := l.Entries()
	records := make([]SilenceEntryRecord, len(entries))
	for i, e := range entries {
		records[i] = SilenceEntryRecord{
			PromiseID: e.PromiseID,
			Category:  string(e.Category),
			Type:      string(e.Type),
			Status:    e.Status,
			Reason:    e.Reason,
			Impact:    e.Impact.Overall,
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Category != records[j].Category {
			return records[i].Category < records[j].Category
		}
		if records[i].Reason != records[j].Reason {
			return records[i].Reason < records[j].Reason
		}
		return records[i].PromiseID < records[j].PromiseID
	})
	return SilenceLedgerArtifact{Total: len(records), Entries: records, Summary: l.Summary()}
}

// DecisionRecord is one decision artifact entry, with an ISO-8601
// millisecond-precision timestamp.
type DecisionRecord struct {
	PromiseID    string `json:"promise_id"`
	Category     string `json:"category"`
	Reason       string `json:"reason"`
	RecordedAtISO string `json:"recorded_at_iso"`
}

// DecisionsSummary is the decisions artifact's summary block.
type DecisionsSummary struct {
	ByCategory    map[string]int `json:"by_category"`
	Deterministic bool           `json:"deterministic"`
}

// DecisionsArtifact is the top-level decisions document.
type DecisionsArtifact struct {
	RunID        string           `json:"run_id,omitempty"`
	RecordedAtISO string          `json:"recorded_at_iso"`
	Total        int              `json:"total"`
	Decisions    []DecisionRecord `json:"decisions"`
	Summary      DecisionsSummary `json:"summary"`
}

// BuildDecisionsArtifact assembles the decisions artifact. recordedAt
// and perEntryTimestamps are supplied by the caller (this package
// never calls time.Now() so its output stays reproducible given fixed
// inputs).
func BuildDecisionsArtifact(runID, recordedAtISO string, r *decision.Recorder, perEntryTimestamps []string) DecisionsArtifact {
	exported := r.Export()
	records := make([]DecisionRecord, len(exported))
	for i, d := range exported {
		ts := recordedAtISO
		if i < len(perEntryTimestamps) {
			ts = perEntryTimestamps[i]
		}
		records[i] = DecisionRecord{PromiseID: d.PromiseID, Category: string(d.Category), Reason: d.Reason, RecordedAtISO: ts}
	}

	summary := r.Summary()
	byCategory := make(map[string]int, len(summary.ByCategory))
	for c, n := range summary.ByCategory {
		byCategory[string(c)] = n
	}

	return DecisionsArtifact{
		RunID:        runID,
		RecordedAtISO: recordedAtISO,
		Total:        len(records),
		Decisions:    records,
		Summary:      DecisionsSummary{ByCategory: byCategory, Deterministic: summary.Verdict == decision.VerdictDeterministic},
	}
}

// DeterminismContract describes the report's fixed vocabulary:
// `contract: { deterministic, non_deterministic, tracking }`.
type DeterminismContract struct {
	Deterministic    string `json:"deterministic"`
	NonDeterministic string `json:"non_deterministic"`
	Tracking         string `json:"tracking"`
}

var defaultContract = DeterminismContract{
	Deterministic:    "Deterministic",
	NonDeterministic: "NonDeterministic",
	Tracking:         "adaptive_events",
}

// DeterminismReportArtifact is the top-level determinism report.
type DeterminismReportArtifact struct {
	Version         int                `json:"version"`
	Verdict         string             `json:"verdict"`
	Reasons         []string           `json:"reasons"`
	AdaptiveEvents  []string           `json:"adaptive_events"`
	DecisionSummary DecisionsSummary   `json:"decision_summary"`
	Contract        DeterminismContract `json:"contract"`
}

// BuildDeterminismReport assembles the determinism report from a
// Recorder's summary.
func BuildDeterminismReport(r *decision.Recorder) DeterminismReportArtifact {
	summary := r.Summary()
	byCategory := make(map[string]int, len(summary.ByCategory))
	for c, n := range summary.ByCategory {
		byCategory[string(c)] = n
	}

	reasons := summary.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	return DeterminismReportArtifact{
		Version:         1,
		Verdict:         string(summary.Verdict),
		Reasons:         reasons,
		AdaptiveEvents:  reasons,
		DecisionSummary: DecisionsSummary{ByCategory: byCategory, Deterministic: summary.Verdict == decision.VerdictDeterministic},
		Contract:        defaultContract,
	}
}

// WriteJSON marshals v as indented JSON and writes it to path.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}

var absolutePathPattern = regexp.MustCompile(`(?:[A-Za-z]:\\|/)[^\s"']*`)

// Normalize implements the normalization pass over a generic
// JSON-shaped value: path scrubbing, timestamp stripping, key
// sorting (via consistent map iteration during re-marshal), rounding
// floats to 3 decimals, and sorting arrays of strings for stable
// identity. It operates on the already-decoded interface{} tree
// (map[string]interface{}/[]interface{}/scalars), the shape
// encoding/json produces, so it composes with any artifact in this
// package without a bespoke per-type normalizer.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if isTimestampKey(k) {
				continue
			}
			out[k] = Normalize(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = Normalize(child)
		}
		sortHomogeneousStringArray(out)
		return out
	case string:
		return scrubPaths(val)
	case float64:
		return roundTo3(val)
	default:
		return val
	}
}

// isTimestampKey marks the fields normalization must drop entirely
// rather than merely round: wall-clock timestamps and the decisions
// artifact's randomly generated run_id, both of which legitimately
// differ between two runs whose actual findings are identical.
func isTimestampKey(key string) bool {
	switch key {
	case "recorded_at_iso", "timestamp", "created_at", "last_active", "run_id":
		return true
	default:
		return false
	}
}

func scrubPaths(s string) string {
	return absolutePathPattern.ReplaceAllString(s, "<path>")
}

func roundTo3(f float64) float64 {
	scaled := f * 1000
	rounded := float64(int64(scaled + signOf(scaled)*0.5))
	return rounded / 1000
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// sortHomogeneousStringArray sorts an []interface{} in place when every
// element is a string, giving arrays a stable identity regardless of
// emission order, giving arrays a stable identity independent of
// emission ordering. Arrays of objects are left in their emitted
// order since the judgment sort already imposes the finding order.
func sortHomogeneousStringArray(arr []interface{}) {
	allStrings := true
	for _, el := range arr {
		if _, ok := el.(string); !ok {
			allStrings = false
			break
		}
	}
	if !allStrings {
		return
	}
	strs := make([]string, len(arr))
	for i, el := range arr {
		strs[i] = el.(string)
	}
	sort.Strings(strs)
	for i, s := range strs {
		arr[i] = s
	}
}

// NormalizeJSON round-trips raw JSON bytes through Normalize, so two
// artifacts produced with different timestamps/paths/ids but identical
// semantic content hash equal after this pass.
func NormalizeJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal for normalization: %w", err)
	}
	normalized := Normalize(v)
	return json.Marshal(normalized)
}
