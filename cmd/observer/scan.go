package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"observer/internal/artifact"
	"observer/internal/config"
	"observer/internal/errs"
	"observer/internal/logging"
	"observer/internal/manifest"
	"observer/internal/orchestrator"
	"observer/internal/promise"
	"observer/internal/sensor"
)

var (
	scanOutDir string
	scanWatch  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <manifest> <base-url>",
	Short: "Drive a browser through a PromiseManifest and report the outcome of each expectation",
	Args:  cobra.ExactArgs(2),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutDir, "out", "o", "observer-run", "Directory to write the run's artifacts to")
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "Re-run the scan whenever the manifest file changes")
}

func runScan(cmd *cobra.Command, args []string) error {
	manifestPath, baseURL := args[0], args[1]

	policy, err := config.Load(policyPath)
	if err != nil {
		return classifyAs(err, errs.CategoryUsage, "failed to load policy")
	}
	if verbose {
		policy.Logging.Level = "debug"
	}

	logger, err = logging.New(policy.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if scanWatch {
		return runScanWatch(manifestPath, baseURL, policy)
	}

	code, err := scanOnce(manifestPath, baseURL, policy)
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}

// runScanWatch re-runs scanOnce each time manifestPath changes on disk,
// until the process is interrupted. Exit codes from individual runs are
// logged rather than propagated, since there is no single terminal run
// to report against in watch mode.
func runScanWatch(manifestPath, baseURL string, policy *config.Policy) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return classifyAs(err, errs.CategoryInfrastructure, "failed to start manifest watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(manifestPath)); err != nil {
		return classifyAs(err, errs.CategoryInfrastructure, "failed to watch manifest directory")
	}

	logger.Info("watching manifest for changes", zap.String("path", manifestPath))
	if _, err := scanOnce(manifestPath, baseURL, policy); err != nil {
		logger.Error("scan failed", zap.Error(err))
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(manifestPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Info("manifest changed, re-scanning", zap.String("path", manifestPath))
			if _, err := scanOnce(manifestPath, baseURL, policy); err != nil {
				logger.Error("scan failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))
		}
	}
}

// scanOnce loads the manifest, drives one scan, writes every artifact,
// and returns the run's exit code.
func scanOnce(manifestPath, baseURL string, policy *config.Policy) (int, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return exitUsageError, classifyAs(err, errs.CategoryUsage, "invalid promise manifest")
	}

	source, err := sensor.NewRodSource(policy.Browser, logger)
	if err != nil {
		return exitInfrastructureFailure, classifyAs(err, errs.CategoryInfrastructure, "failed to start browser session")
	}
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), policy.ScanDurationBudget()+30*time.Second)
	defer cancel()

	if err := source.Navigate(ctx, baseURL); err != nil {
		return exitInfrastructureFailure, classifyAs(err, errs.CategoryInfrastructure, "failed to reach base URL")
	}

	targets := buildTargets(m, baseURL)

	o := orchestrator.New(source, policy, logger)
	run := o.Scan(ctx, targets)

	if err := writeRunArtifacts(scanOutDir, run); err != nil {
		return exitInfrastructureFailure, classifyAs(err, errs.CategoryInfrastructure, "failed to write run artifacts")
	}

	code := exitCodeForRun(run)
	if run.Violation != nil {
		logger.Error("evidence law violation, aborting run", zap.Error(run.Violation))
	}
	return code, nil
}

// buildTargets maps every manifest expectation onto a concrete
// orchestrator.Target. Navigation promises get a "navigate"
// interaction with their target path; everything else gets a "click"
// with its selector hint, since the manifest's selector_hint is the
// only structural interaction coordinate the manifest format defines.
// The interaction feeds the judgment's identity hash; the Source does
// not perform it.
func buildTargets(m *manifest.Manifest, baseURL string) []orchestrator.Target {
	promises := m.Promises()
	targets := make([]orchestrator.Target, 0, len(promises))
	for _, p := range promises {
		interactionType := "click"
		if p.Kind == promise.KindNavigation {
			interactionType = "navigate"
		}
		targets = append(targets, orchestrator.Target{
			Promise: p,
			Interaction: sensor.Interaction{
				Type:     interactionType,
				Selector: p.Selector,
				URLPath:  p.Context.TargetPath,
			},
		})
	}
	return targets
}

// writeRunArtifacts emits the four run artifacts into dir.
func writeRunArtifacts(dir string, run *orchestrator.Run) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	findings := artifact.BuildFindingsArtifact(run.Judgments, run.Downgrades, run.Drops)
	if err := artifact.WriteJSON(filepath.Join(dir, "findings.json"), findings); err != nil {
		return err
	}

	ledgerArtifact := artifact.BuildSilenceLedgerArtifact(run.Ledger)
	if err := artifact.WriteJSON(filepath.Join(dir, "silence_ledger.json"), ledgerArtifact); err != nil {
		return err
	}

	runID := uuid.New().String()
	recordedAtISO := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	decisionsArtifact := artifact.BuildDecisionsArtifact(runID, recordedAtISO, run.Decisions, nil)
	if err := artifact.WriteJSON(filepath.Join(dir, "decisions.json"), decisionsArtifact); err != nil {
		return err
	}

	determinismArtifact := artifact.BuildDeterminismReport(run.Decisions)
	if err := artifact.WriteJSON(filepath.Join(dir, "determinism.json"), determinismArtifact); err != nil {
		return err
	}

	return nil
}

func classifyAs(err error, category errs.Category, summary string) *errs.Classified {
	classified := errs.Classify(err)
	classified.Category = category
	classified.Summary = summary
	return classified
}
