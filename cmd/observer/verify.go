package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"observer/internal/artifact"
	"observer/internal/errs"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <run-a-dir> <run-b-dir>",
	Short: "Compare two scan runs' artifacts for determinism after normalization",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	runA, runB := args[0], args[1]

	reasons, err := compareRunDirs(runA, runB)
	if err != nil {
		return classifyAs(err, errs.CategoryUsage, "failed to compare run directories")
	}

	if len(reasons) == 0 {
		fmt.Println("Deterministic: both runs produced identical normalized artifacts")
		return nil
	}

	fmt.Println("NonDeterministic:")
	for _, r := range reasons {
		fmt.Printf("  - %s\n", r)
	}
	os.Exit(exitFailureSilent) // a determinism mismatch is reported, not crashed
	return nil
}

// compareRunDirs normalizes and compares every artifact file the scan
// command emits. Normalization is idempotent (normalize(normalize(x))
// == normalize(x)), so comparing two normalized trees is sufficient.
func compareRunDirs(dirA, dirB string) ([]string, error) {
	var reasons []string
	for _, name := range []string{"findings.json", "silence_ledger.json", "decisions.json", "determinism.json"} {
		normA, err := normalizedFile(filepath.Join(dirA, name))
		if err != nil {
			return nil, fmt.Errorf("read %s from %s: %w", name, dirA, err)
		}
		normB, err := normalizedFile(filepath.Join(dirB, name))
		if err != nil {
			return nil, fmt.Errorf("read %s from %s: %w", name, dirB, err)
		}
		if !bytes.Equal(normA, normB) {
			reasons = append(reasons, fmt.Sprintf("%s differs after normalization", name))
		}
	}
	return reasons, nil
}

func normalizedFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	normalized, err := artifact.NormalizeJSON(data)
	if err != nil {
		return nil, err
	}
	// re-marshal through json.Marshal with sorted keys for a stable
	// byte comparison; NormalizeJSON already produces map[string]any,
	// and Go's encoding/json sorts map keys alphabetically on encode.
	var v interface{}
	if err := json.Unmarshal(normalized, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
