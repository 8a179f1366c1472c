// Package orchestrator implements the pipeline orchestrator: the
// per-(promise, interaction) loop that drives a sensor.Source, runs
// every evaluation stage in order, and owns the run's three
// append-only records (findings, silence ledger, decision recorder).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"observer/internal/acknowledgment"
	"observer/internal/antifalsegreen"
	"observer/internal/config"
	"observer/internal/decision"
	"observer/internal/evidencelaw"
	"observer/internal/judgment"
	"observer/internal/outcome"
	"observer/internal/profile"
	"observer/internal/promise"
	"observer/internal/sensor"
	"observer/internal/signal"
	"observer/internal/silence"
)

// Target pairs a Promise with the concrete interaction the orchestrator
// must drive to observe it.
type Target struct {
	Promise     promise.Promise
	Interaction sensor.Interaction
}

// Run is one scan's complete output: the sorted judgment list, the
// silence ledger, and the decision recorder, plus the first R1-R4
// evidence law violation encountered (an abort condition, reported
// with exit code 50).
type Run struct {
	Judgments  []judgment.Judgment
	Ledger     *silence.Ledger
	Decisions  *decision.Recorder
	Downgrades []string // R5 Suspected findings reported at reduced confidence
	Drops      []string // R5 Unproven findings dropped rather than reported
	Violation  error    // non-nil only on an R1-R4 abort
}

// Orchestrator wires every evaluation stage into the per-target loop.
// All fields are read-only after construction; the three output
// records are owned exclusively by the goroutine running Scan — each
// scan is single-threaded and cooperative.
type Orchestrator struct {
	source    sensor.Source
	profiles  *profile.Registry
	ack       *acknowledgment.Engine
	filter    *antifalsegreen.Filter
	policy    *config.Policy
	log       *zap.Logger

	maxSensorFailures int // consecutive sensor failures before NeedsReview
}

// New builds an Orchestrator bound to source and policy.
func New(source sensor.Source, policy *config.Policy, logger *zap.Logger) *Orchestrator {
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:            source,
		profiles:          profile.NewRegistry(policy),
		ack:               acknowledgment.NewEngine(policy),
		filter:            antifalsegreen.NewFilter(policy),
		policy:            policy,
		log:               logger.With(zap.String("component", "orchestrator")),
		maxSensorFailures: 3,
	}
}

// Scan runs every target in targets through the evaluation pipeline,
// stopping at the scan duration budget and at the first evidence law
// abort. Targets are processed strictly in order within one scan —
// concurrency in this package exists only across separate Scan calls,
// never within one.
func (o *Orchestrator) Scan(ctx context.Context, targets []Target) *Run {
	run := &Run{Ledger: silence.NewLedger(), Decisions: decision.NewRecorder()}

	deadline := time.Now().Add(o.policy.ScanDurationBudget())
	consecutiveFailures := 0

	for i, t := range targets {
		if ctx.Err() != nil {
			o.recordCoverageGap(run, targets[i:], "context cancelled")
			break
		}

		if time.Now().After(deadline) {
			run.Decisions.Record(decision.Decision{
				Category:  decision.CategoryTruncation,
				PromiseID: t.Promise.ID,
				Reason:    "scan duration budget exhausted",
			})
			o.recordCoverageGap(run, targets[i:], "scan duration budget exhausted")
			break
		}

		j, violation, sensorFailed := o.evaluateTarget(ctx, t, run)
		if violation != nil {
			run.Violation = violation
			return run
		}

		if sensorFailed {
			consecutiveFailures++
			if consecutiveFailures >= o.maxSensorFailures {
				run.Ledger.Record(silence.Entry{
					PromiseID: t.Promise.ID,
					Category:  silence.CategorySkip,
					Status:    string(outcome.StatusAmbiguous),
					Reason:    "repeated sensor failures, marking NeedsReview",
					Impact:    silence.Impact{Coverage: -20, Overall: -20},
				})
			}
			continue
		}
		consecutiveFailures = 0

		if j != nil {
			run.Judgments = append(run.Judgments, *j)
		}
	}

	judgment.Sort(run.Judgments)
	return run
}

// evaluateTarget runs one (promise, interaction) pair through the
// eight-step evaluation chain. Returns (nil, nil, true) on a recoverable sensor
// failure, after recording a SensorFailure ledger entry — the caller
// tallies that toward the repeated-failure threshold rather than
// treating it as a judgment.
func (o *Orchestrator) evaluateTarget(ctx context.Context, t Target, run *Run) (*judgment.Judgment, error, bool) {
	p := t.Promise
	prof := o.profiles.ProfileFor(p.Kind)
	interaction := judgment.Interaction{Type: t.Interaction.Type, Selector: t.Interaction.Selector, URLPath: t.Interaction.URLPath}

	// Step 1: request signals with the profile's grace timeout.
	obsCtx, cancel := context.WithTimeout(ctx, time.Duration(prof.GraceTimeoutMs)*time.Millisecond)
	defer cancel()

	start := time.Now()
	obs, err := o.source.Observe(obsCtx, t.Interaction, time.Duration(prof.GraceTimeoutMs)*time.Millisecond)
	elapsedMs := int(time.Since(start).Milliseconds())
	if err != nil {
		o.log.Warn("sensor observe failed", zap.String("promise_id", p.ID), zap.Error(err))
		run.Ledger.Record(silence.Entry{
			PromiseID: p.ID,
			Category:  silence.CategorySkip,
			Status:    string(outcome.StatusAmbiguous),
			Reason:    "SensorFailure: " + err.Error(),
		})
		return nil, nil, true
	}

	rawSignals := signal.NewSet(obs.Signals)

	// Step 2: apply the Anti-False-Green filter.
	filtered := o.filter.Apply(rawSignals)

	// Step 3: compute acknowledgment.
	stabilityMet := elapsedMs >= prof.MinStabilityMs
	ackResult := o.ack.Evaluate(filtered.Signals, prof, stabilityMet)
	ackResult = o.filter.Downgrade(filtered.Signals, ackResult)

	profileResult := profile.Validate(filtered.Signals, prof)

	// A forbidden signal vetoes acknowledgment outright, regardless of
	// grace timing: required ∩ forbidden = ∅ must hold for every
	// reported outcome, not only for outcomes past the grace window.
	if profileResult.Forbidden {
		ackResult = acknowledgment.Result{Level: acknowledgment.LevelNone, Confidence: o.policy.Scores.NoneConfidence}
	}

	// Step 4: classify silence if acknowledgment is below Strong, or
	// required signals are still absent past the grace window.
	var silenceClass silence.Class
	pastGrace := elapsedMs > prof.GraceTimeoutMs
	if ackResult.Level != acknowledgment.LevelStrong || (!profileResult.Satisfied && pastGrace) {
		silenceClass = silence.Classify(silence.Input{
			UserNavigated:      obs.UserNavigated,
			AuthChallenge:      obs.AuthChallenge,
			LastResponseStatus: obs.NetworkStatus,
			RequestsSent:       obs.RequestsSent,
			ResponsesReceived:  obs.ResponsesReceived,
			ElapsedMs:          elapsedMs,
			GraceTimeoutMs:     prof.GraceTimeoutMs,
			DomDeltaPresent:    obs.DomDelta.AddedBytes > 0 || obs.DomDelta.AddedVisibleNodes > 0,
			AckSignalsPresent:  len(filtered.Signals) > 0,
			UiRenderError:      obs.UiRenderError,
		})
	}

	// Step 5: compute outcome.
	reqTotal := len(prof.Required)
	satisfiedRatio := 1.0
	if reqTotal > 0 {
		satisfiedRatio = float64(len(ackResult.DetectedRequired)) / float64(reqTotal)
	}
	onlyLoadingDetected := filtered.Diagnostic == "no-substantive-signals"

	outcomeResult := outcome.Evaluate(outcome.Input{
		Acknowledgment:         ackResult,
		StabilityMet:           stabilityMet,
		HardErrorDetected:      isHardError(obs),
		MisleadingPattern:      isMisleadingPattern(ackResult, obs),
		RequiredSatisfiedRatio: satisfiedRatio,
		OnlyLoadingDetected:    onlyLoadingDetected,
		Silence:                silenceClass,
		LastResponseStatus:     obs.NetworkStatus,
		RequiresUI:             p.Kind.RequiresUI(),
	})

	isFailure := outcomeResult.Status == outcome.StatusSilentFailure || outcomeResult.Status == outcome.StatusMisleading
	isPartialSuccess := outcomeResult.Status == outcome.StatusPartialSuccess

	// Step 6: enforce Evidence Law.
	evidenceRefs := buildEvidenceRefs(obs, p)
	ev := evidencelaw.EvidenceFlags{
		Has5xxOr401Or403:           obs.NetworkStatus >= 500 || obs.NetworkStatus == 401 || obs.NetworkStatus == 403,
		ConsoleErrorPresent:        len(obs.ConsoleErrors) > 0,
		NetworkFailurePresent:      obs.RequestsSent > 0 && obs.ResponsesReceived == 0,
		StrongAcknowledgment:       ackResult.Level == acknowledgment.LevelStrong,
		ObservableErrorMessage:     len(obs.ConsoleErrors) > 0,
		SuccessShapedSignalPresent: filtered.Signals.Has(signal.FeedbackAppeared) || filtered.Signals.Has(signal.ToastAppeared),
		ErrorShapedIndicatorPresent: len(obs.ConsoleErrors) > 0 || obs.NetworkStatus >= 400,
		EvidenceReferenceCount:     len(evidenceRefs),
	}

	if err := evidencelaw.Enforce(outcomeResult.Status, ackResult, silenceClass, ev); err != nil {
		o.log.Error("evidence law violation", zap.String("promise_id", p.ID), zap.Error(err))
		run.Decisions.Record(decision.Decision{
			Category:  decision.CategoryRoutine,
			PromiseID: p.ID,
			Reason:    "evidence law abort: " + err.Error(),
		})
		return nil, fmt.Errorf("promise %s: %w", p.ID, err), false
	}

	// R5: confirm every judgment against its context anchor and effect
	// evidence, whether it's a failure or not, so Status is always
	// meaningful. A failure missing one anchor is downgraded rather than
	// reported at full confidence; a failure missing both is dropped
	// rather than reported at all (evidencelaw.Confirm's doc comment).
	confirmation := evidencelaw.Confirm(evidencelaw.Anchors{
		BeforeStatePresent:    p.Context.TargetPath != "" || t.Interaction.URLPath != "",
		EffectEvidencePresent: obs.DomDelta.AddedBytes > 0 || len(obs.ConsoleErrors) > 0 || obs.NetworkStatus != 0,
	})
	if isFailure {
		switch confirmation {
		case evidencelaw.StatusSuspected:
			outcomeResult.Confidence *= 0.7
			run.Downgrades = append(run.Downgrades, fmt.Sprintf("promise %s: R5 downgrade, suspected (single anchor present)", p.ID))
		case evidencelaw.StatusUnproven:
			reason := "R5: failure unproven (neither anchor present), dropped rather than reported"
			run.Ledger.Record(silence.Entry{
				PromiseID: p.ID,
				Category:  silence.CategoryCap,
				Type:      silenceClass,
				Status:    string(outcome.StatusAmbiguous),
				Reason:    reason,
				Impact:    silence.Impact{PromiseVerification: -10, Overall: -10},
			})
			run.Drops = append(run.Drops, fmt.Sprintf("promise %s: %s", p.ID, reason))
			return nil, nil, false
		}
	}

	// Step 7: build the judgment with identity and determinism hashes.
	j := judgment.Build(p, interaction, outcomeResult, isFailure, isPartialSuccess, filtered.Signals.Kinds(), evidenceRefs, confirmation)

	// Step 8: append a SilenceEntry if applicable.
	if silenceClass != "" {
		run.Ledger.Record(silence.Entry{
			PromiseID: p.ID,
			Category:  silence.CategoryTimeout,
			Type:      silenceClass,
			Status:    string(outcomeResult.Status),
			Reason:    fmt.Sprintf("classified as %s", silenceClass),
			Impact:    silenceImpact(silenceClass),
		})
	}

	return &j, nil, false
}

// recordCoverageGap appends a COVERAGE_GAP silence entry for every
// target the budget or cancellation left unevaluated. It records no
// decision: Scan records the Truncation decision itself, and only for
// an exhausted budget, not for a cancellation.
func (o *Orchestrator) recordCoverageGap(run *Run, remaining []Target, reason string) {
	for _, t := range remaining {
		run.Ledger.Record(silence.Entry{
			PromiseID: t.Promise.ID,
			Category:  silence.CategoryCap,
			Status:    string(outcome.StatusAmbiguous),
			Reason:    "COVERAGE_GAP: " + reason,
			Impact:    silence.Impact{Coverage: -15, Overall: -15},
		})
	}
}

func isHardError(obs sensor.Observation) bool {
	return obs.NetworkStatus >= 500 || obs.UiRenderError || (obs.RequestsSent > 0 && obs.ResponsesReceived == 0 && obs.NetworkStatus == 0)
}

func isMisleadingPattern(ack acknowledgment.Result, obs sensor.Observation) bool {
	successShaped := ack.Level == acknowledgment.LevelStrong
	errorShaped := obs.NetworkStatus >= 400 || len(obs.ConsoleErrors) > 0
	return successShaped && errorShaped
}

func silenceImpact(c silence.Class) silence.Impact {
	if c.Recoverable() {
		return silence.Impact{PromiseVerification: -5, Overall: -5}
	}
	return silence.Impact{PromiseVerification: -20, Overall: -20}
}

func buildEvidenceRefs(obs sensor.Observation, p promise.Promise) []string {
	var refs []string
	if obs.NetworkStatus != 0 {
		refs = append(refs, fmt.Sprintf("network_status:%d", obs.NetworkStatus))
	}
	for _, e := range obs.ConsoleErrors {
		refs = append(refs, "console_error:"+e)
	}
	if obs.DomDelta.AddedBytes > 0 {
		refs = append(refs, fmt.Sprintf("dom_delta_bytes:%d", obs.DomDelta.AddedBytes))
	}
	if p.Context.EndpointFingerprint != "" {
		refs = append(refs, "endpoint:"+p.Context.EndpointFingerprint)
	}
	return refs
}

// ScanMany runs multiple independent target batches concurrently —
// concurrency is permitted only across separate scans, never within
// one. Each batch gets its own Orchestrator state and its own Run;
// batches never share a Ledger or Recorder.
func ScanMany(ctx context.Context, batches [][]Target, newOrchestrator func() *Orchestrator) ([]*Run, error) {
	runs := make([]*Run, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			o := newOrchestrator()
			runs[i] = o.Scan(gctx, batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
