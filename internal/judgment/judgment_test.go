package judgment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observer/internal/evidencelaw"
	"observer/internal/outcome"
	"observer/internal/promise"
	"observer/internal/signal"
)

func TestSeverityOf_Table(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityOf(promise.KindSubmission, true))
	assert.Equal(t, SeverityCritical, SeverityOf(promise.KindNavigation, true))
	assert.Equal(t, SeverityHigh, SeverityOf(promise.KindFeedbackToast, true))
	assert.Equal(t, SeverityMedium, SeverityOf(promise.KindStateChange, true))
	assert.Equal(t, SeverityLow, SeverityOf(promise.KindNetworkRequest, true))
	assert.Equal(t, SeverityLow, SeverityOf(promise.KindNavigation, false))
}

func TestPriorityOf_Table(t *testing.T) {
	assert.Equal(t, PriorityFailureMisleading, PriorityOf(outcome.StatusMisleading, false))
	assert.Equal(t, PriorityFailureSilent, PriorityOf(outcome.StatusSilentFailure, false))
	assert.Equal(t, PriorityWeakPass, PriorityOf(outcome.StatusPartialSuccess, false))
	assert.Equal(t, PriorityPass, PriorityOf(outcome.StatusSuccess, false))
	assert.Equal(t, PriorityNeedsReview, PriorityOf(outcome.StatusAmbiguous, false))
	assert.Equal(t, PriorityWeakPass, PriorityOf(outcome.StatusAmbiguous, true))
}

func TestBuild_IdentityHashExcludesVolatileFields(t *testing.T) {
	p := promise.Promise{ID: "p1", Kind: promise.KindNavigation, Context: promise.Context{TargetPath: "/a"}}
	interaction := Interaction{Type: "click", Selector: "#go", URLPath: "/home"}
	res := outcome.Result{Status: outcome.StatusSuccess, Confidence: 0.95}

	j1 := Build(p, interaction, res, false, false, []signal.Kind{signal.RouteChanged}, []string{"snap-1"}, evidencelaw.StatusConfirmed)
	j2 := Build(p, interaction, res, false, false, []signal.Kind{signal.RouteChanged}, []string{"snap-2"}, evidencelaw.StatusConfirmed)

	assert.Equal(t, j1.IdentityHash, j2.IdentityHash)
	assert.Len(t, j1.IdentityHash, 16)
}

func TestBuild_DeterminismHashStableForEquivalentSignalOrder(t *testing.T) {
	p := promise.Promise{ID: "p1", Kind: promise.KindNavigation, Context: promise.Context{TargetPath: "/a"}}
	interaction := Interaction{Type: "click", Selector: "#go", URLPath: "/home"}
	res := outcome.Result{Status: outcome.StatusSuccess, Confidence: 0.95}

	j1 := Build(p, interaction, res, false, false, []signal.Kind{signal.RouteChanged, signal.DomChanged}, nil, evidencelaw.StatusConfirmed)
	j2 := Build(p, interaction, res, false, false, []signal.Kind{signal.DomChanged, signal.RouteChanged}, nil, evidencelaw.StatusConfirmed)

	assert.Equal(t, j1.DeterminismHash, j2.DeterminismHash)
	assert.Len(t, j1.DeterminismHash, 16)
}

func TestBuild_DeterminismHashChangesWithOutcome(t *testing.T) {
	p := promise.Promise{ID: "p1", Kind: promise.KindNavigation}
	interaction := Interaction{Type: "click", Selector: "#go", URLPath: "/home"}

	j1 := Build(p, interaction, outcome.Result{Status: outcome.StatusSuccess}, false, false, nil, nil, evidencelaw.StatusConfirmed)
	j2 := Build(p, interaction, outcome.Result{Status: outcome.StatusAmbiguous}, false, false, nil, nil, evidencelaw.StatusConfirmed)

	assert.NotEqual(t, j1.DeterminismHash, j2.DeterminismHash)
}

func TestSort_OrdersByPromiseThenPriorityThenSeverityThenHash(t *testing.T) {
	mk := func(promiseID string, priority Priority, severity Severity, hash string) Judgment {
		return Judgment{PromiseID: promiseID, Priority: priority, Severity: severity, DeterminismHash: hash}
	}
	judgments := []Judgment{
		mk("b", PriorityPass, SeverityLow, "zzzz"),
		mk("a", PriorityWeakPass, SeverityLow, "bbbb"),
		mk("a", PriorityFailureSilent, SeverityCritical, "aaaa"),
		mk("a", PriorityFailureSilent, SeverityCritical, "aaab"),
	}
	Sort(judgments)

	require.Len(t, judgments, 4)
	assert.Equal(t, "a", judgments[0].PromiseID)
	assert.Equal(t, PriorityFailureSilent, judgments[0].Priority)
	assert.Equal(t, "aaaa", judgments[0].DeterminismHash)
	assert.Equal(t, "aaab", judgments[1].DeterminismHash)
	assert.Equal(t, PriorityWeakPass, judgments[2].Priority)
	assert.Equal(t, "b", judgments[3].PromiseID)
}
