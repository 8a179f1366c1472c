// Package errs implements the Observer's error taxonomy: infrastructure,
// usage, and evidence-law failures each carry a distinct exit code.
package errs

import (
	"fmt"
	"strings"
)

// Category classifies an error into one of the taxonomy's buckets.
// Each category has a fixed exit-code relationship via the precedence
// table, enforced by cmd/observer rather than by this package.
type Category int

const (
	// CategoryEvidenceLaw marks an R1-R4 evidence law violation (exit 50).
	CategoryEvidenceLaw Category = iota

	// CategorySignalSource marks a failure to observe signals; always
	// recorded as a SensorFailure silence, never propagated as success.
	CategorySignalSource

	// CategoryBudget marks budget/scan-duration exhaustion; recorded as
	// Truncation plus COVERAGE_GAP silence entries.
	CategoryBudget

	// CategoryAdaptive marks a recorded adaptive decision; forces the
	// determinism verdict to NonDeterministic.
	CategoryAdaptive

	// CategoryUsage marks an invalid manifest or configuration (exit 64).
	CategoryUsage

	// CategoryInfrastructure marks a browser crash or unreachable target (exit 40).
	CategoryInfrastructure

	// CategoryUnknown is the fallback for unclassified errors.
	CategoryUnknown
)

func (c Category) String() string {
	names := []string{
		"evidence_law",
		"signal_source",
		"budget",
		"adaptive",
		"usage",
		"infrastructure",
		"unknown",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Prefix returns the bracketed display prefix for this category.
func (c Category) Prefix() string {
	prefixes := []string{
		"[EVIDENCE-LAW]",
		"[SIGNAL-SOURCE]",
		"[BUDGET]",
		"[ADAPTIVE]",
		"[USAGE]",
		"[INFRASTRUCTURE]",
		"[ERROR]",
	}
	if int(c) < len(prefixes) {
		return prefixes[c]
	}
	return "[ERROR]"
}

// ExitCode returns the exit code this category maps to when it is
// the highest-precedence event of a run. CategoryAdaptive and
// CategorySignalSource have no dedicated exit code of their own — they
// surface through the determinism report and the ledger instead.
func (c Category) ExitCode() int {
	switch c {
	case CategoryEvidenceLaw:
		return 50
	case CategoryInfrastructure:
		return 40
	case CategoryUsage:
		return 64
	default:
		return 0
	}
}

// Classified wraps an error with its taxonomy category and remediation.
type Classified struct {
	Original    error
	Category    Category
	Summary     string
	Remediation []string
}

// Error implements the error interface.
func (c *Classified) Error() string { return c.Format() }

// Unwrap supports errors.Is/errors.As against the original error.
func (c *Classified) Unwrap() error { return c.Original }

// Format returns an operator-facing message with remediation steps.
func (c *Classified) Format() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", c.Category.Prefix(), c.Summary))
	sb.WriteString(fmt.Sprintf("Details: %s\n", c.Original.Error()))
	if len(c.Remediation) > 0 {
		sb.WriteString("Suggested next steps:\n")
		for _, r := range c.Remediation {
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}
	return sb.String()
}

// Classify analyzes an error's text and returns a categorized wrapper.
// Callers that already know the category (e.g. an EvidenceLawViolation
// constructed directly by internal/evidencelaw) should build a
// *Classified by hand instead of round-tripping through Classify.
func Classify(err error) *Classified {
	if err == nil {
		return nil
	}

	c := &Classified{
		Original: err,
		Category: CategoryUnknown,
		Summary:  "An unclassified error occurred",
	}

	s := strings.ToLower(err.Error())

	switch {
	case containsAny(s, "evidence law", "r1", "r2", "r3", "r4", "contradiction required", "strong evidence required"):
		c.Category = CategoryEvidenceLaw
		c.Summary = "An evidence law rule blocked this judgment"
		c.Remediation = []string{
			"Check whether the failure has a concrete evidence reference",
			"Re-run with a longer grace timeout if the silence may be slow, not silent",
		}

	case containsAny(s, "signal source", "observe failed", "sensor", "cdp", "devtools"):
		c.Category = CategorySignalSource
		c.Summary = "The signal source failed to observe this interaction"
		c.Remediation = []string{
			"Check that the browser target is still reachable",
			"Re-run the scan; a single sensor failure does not fail the run",
		}

	case containsAny(s, "budget", "truncat", "scan duration"):
		c.Category = CategoryBudget
		c.Summary = "The scan budget was exhausted before covering every interaction"
		c.Remediation = []string{
			"Increase the scan-duration budget in the policy configuration",
			"Reduce the number of expectations in the promise manifest",
		}

	case containsAny(s, "adaptive", "retry", "stabilization extended"):
		c.Category = CategoryAdaptive
		c.Summary = "An adaptive decision was recorded during this run"
		c.Remediation = []string{
			"This run's determinism verdict will be NonDeterministic",
			"Check the decisions artifact for the adaptive event's reason",
		}

	case containsAny(s, "manifest", "usage", "invalid configuration", "unknown kind", "unknown proof"):
		c.Category = CategoryUsage
		c.Summary = "The promise manifest or configuration is invalid"
		c.Remediation = []string{
			"Validate the manifest JSON against the documented schema",
			"Check for unknown promise kind or proof values",
		}

	case containsAny(s, "connection", "network", "dial", "unreachable", "browser crash", "target closed"):
		c.Category = CategoryInfrastructure
		c.Summary = "An infrastructure failure interrupted the scan"
		c.Remediation = []string{
			"Verify the target application and browser are both reachable",
			"Check for a browser crash in the sensor logs",
		}
	}

	return c
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
