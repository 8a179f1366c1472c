package evidencelaw

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observer/internal/acknowledgment"
	"observer/internal/outcome"
	"observer/internal/silence"
)

func TestEnforce_R1RejectsFailureWithoutStrongEvidence(t *testing.T) {
	err := Enforce(outcome.StatusSilentFailure, acknowledgment.Result{}, "", EvidenceFlags{})
	require.Error(t, err)
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "R1", v.Rule)
}

func TestEnforce_R1AcceptsWithStrongEvidence(t *testing.T) {
	err := Enforce(outcome.StatusSilentFailure, acknowledgment.Result{}, silence.ClassTrueSilence, EvidenceFlags{
		Has5xxOr401Or403:       true,
		EvidenceReferenceCount: 1,
	})
	assert.NoError(t, err)
}

func TestEnforce_R2RequiresBothSignalsForMisleading(t *testing.T) {
	err := Enforce(outcome.StatusMisleading, acknowledgment.Result{}, "", EvidenceFlags{
		Has5xxOr401Or403:           true,
		SuccessShapedSignalPresent: true,
		EvidenceReferenceCount:     1,
	})
	require.Error(t, err)
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "R2", v.Rule)
}

func TestEnforce_R2AcceptsWithBothSignals(t *testing.T) {
	err := Enforce(outcome.StatusMisleading, acknowledgment.Result{}, "", EvidenceFlags{
		Has5xxOr401Or403:            true,
		SuccessShapedSignalPresent:  true,
		ErrorShapedIndicatorPresent: true,
		EvidenceReferenceCount:      1,
	})
	assert.NoError(t, err)
}

func TestEnforce_R3RejectsRecoverableSilenceAsFailure(t *testing.T) {
	err := Enforce(outcome.StatusSilentFailure, acknowledgment.Result{}, silence.ClassBlockedByAuth, EvidenceFlags{
		Has5xxOr401Or403:       true,
		EvidenceReferenceCount: 1,
	})
	require.Error(t, err)
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "R3", v.Rule)
}

func TestEnforce_R4RequiresEvidenceReference(t *testing.T) {
	err := Enforce(outcome.StatusSilentFailure, acknowledgment.Result{}, silence.ClassTrueSilence, EvidenceFlags{
		Has5xxOr401Or403:       true,
		EvidenceReferenceCount: 0,
	})
	require.Error(t, err)
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "R4", v.Rule)
}

func TestEnforce_SuccessNotSubjectToFailureRules(t *testing.T) {
	err := Enforce(outcome.StatusSuccess, acknowledgment.Result{}, "", EvidenceFlags{})
	assert.NoError(t, err)
}

func TestConfirm_BothAnchorsConfirmed(t *testing.T) {
	assert.Equal(t, StatusConfirmed, Confirm(Anchors{BeforeStatePresent: true, EffectEvidencePresent: true}))
}

func TestConfirm_OneAnchorSuspected(t *testing.T) {
	assert.Equal(t, StatusSuspected, Confirm(Anchors{BeforeStatePresent: true}))
	assert.Equal(t, StatusSuspected, Confirm(Anchors{EffectEvidencePresent: true}))
}

func TestConfirm_NoAnchorsUnproven(t *testing.T) {
	assert.Equal(t, StatusUnproven, Confirm(Anchors{}))
}
