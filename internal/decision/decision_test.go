package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_IsAdaptive(t *testing.T) {
	assert.True(t, CategoryAdaptiveStabilizationExtended.IsAdaptive())
	assert.True(t, CategoryRetry.IsAdaptive())
	assert.True(t, CategoryTruncation.IsAdaptive())
	assert.False(t, CategoryRoutine.IsAdaptive())
}

func TestSummary_DeterministicWithNoAdaptiveEntries(t *testing.T) {
	r := NewRecorder()
	r.Record(Decision{Category: CategoryRoutine, PromiseID: "p1"})
	s := r.Summary()
	assert.Equal(t, VerdictDeterministic, s.Verdict)
	assert.Empty(t, s.Reasons)
}

func TestSummary_NonDeterministicWithAdaptiveEntry(t *testing.T) {
	r := NewRecorder()
	r.Record(Decision{Category: CategoryRoutine, PromiseID: "p1"})
	r.Record(Decision{Category: CategoryRetry, PromiseID: "p2", Reason: "retried after transient timeout"})
	s := r.Summary()
	assert.Equal(t, VerdictNonDeterministic, s.Verdict)
	assert.Contains(t, s.Reasons, "retried after transient timeout")
}

func TestByCategory_Filters(t *testing.T) {
	r := NewRecorder()
	r.Record(Decision{Category: CategoryTruncation, PromiseID: "p1"})
	r.Record(Decision{Category: CategoryRoutine, PromiseID: "p2"})
	assert.Len(t, r.ByCategory(CategoryTruncation), 1)
}

func TestExport_SortedByPromiseThenCategory(t *testing.T) {
	r := NewRecorder()
	r.Record(Decision{Category: CategoryRoutine, PromiseID: "b"})
	r.Record(Decision{Category: CategoryTruncation, PromiseID: "a"})
	r.Record(Decision{Category: CategoryRetry, PromiseID: "a"})

	exported := r.Export()
	assert.Equal(t, "a", exported[0].PromiseID)
	assert.Equal(t, "a", exported[1].PromiseID)
	assert.Equal(t, "b", exported[2].PromiseID)
}

func TestCompare_IdenticalRunsDeterministic(t *testing.T) {
	a := NewRecorder()
	a.Record(Decision{Category: CategoryRoutine, PromiseID: "p1"})
	b := NewRecorder()
	b.Record(Decision{Category: CategoryRoutine, PromiseID: "p1"})

	res := Compare(a, b, "hash1", "hash1")
	assert.Equal(t, VerdictDeterministic, res.Verdict)
	assert.True(t, res.ArtifactHashesEqual)
	assert.True(t, res.SummariesEqual)
}

func TestCompare_DifferentArtifactHashNonDeterministic(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	res := Compare(a, b, "hash1", "hash2")
	assert.Equal(t, VerdictNonDeterministic, res.Verdict)
	assert.False(t, res.ArtifactHashesEqual)
}

func TestCompare_AdaptiveEventInEitherRunForcesNonDeterministic(t *testing.T) {
	a := NewRecorder()
	a.Record(Decision{Category: CategoryRetry, PromiseID: "p1", Reason: "retry"})
	b := NewRecorder()

	res := Compare(a, b, "hash1", "hash1")
	assert.Equal(t, VerdictNonDeterministic, res.Verdict)
	assert.Contains(t, res.Reasons, "retry")
}
