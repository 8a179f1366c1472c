package main

import (
	"errors"

	"observer/internal/errs"
	"observer/internal/judgment"
	"observer/internal/orchestrator"
)

// Exit codes per the scan's severity precedence: 50 > 40 > 30 > 20 > 10 > 0.
const (
	exitSuccess              = 0
	exitNeedsReview          = 10
	exitFailureSilent        = 20
	exitFailureMisleading    = 30
	exitInfrastructureFailure = 40
	exitEvidenceLawViolation = 50
	exitUsageError           = 64
)

// exitCodeForRun derives the run's exit code from the highest-severity
// event it produced: an evidence law abort outranks every judgment.
func exitCodeForRun(run *orchestrator.Run) int {
	if run.Violation != nil {
		return exitEvidenceLawViolation
	}

	worst := exitSuccess
	for _, j := range run.Judgments {
		switch j.Priority {
		case judgment.PriorityFailureMisleading:
			if exitFailureMisleading > worst {
				worst = exitFailureMisleading
			}
		case judgment.PriorityFailureSilent:
			if exitFailureSilent > worst {
				worst = exitFailureSilent
			}
		case judgment.PriorityNeedsReview:
			if exitNeedsReview > worst {
				worst = exitNeedsReview
			}
		}
	}
	return worst
}

// exitCodeFor maps a top-level command error (manifest parse failure,
// browser launch failure, ...) to its exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	var classified *errs.Classified
	if errors.As(err, &classified) {
		if code := classified.Category.ExitCode(); code != 0 {
			return code
		}
	}
	return exitUsageError
}
