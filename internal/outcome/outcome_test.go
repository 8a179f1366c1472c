package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"observer/internal/acknowledgment"
	"observer/internal/silence"
)

func TestEvaluate_HardErrorWinsFirst(t *testing.T) {
	res := Evaluate(Input{
		HardErrorDetected: true,
		Acknowledgment:    acknowledgment.Result{Level: acknowledgment.LevelStrong},
		StabilityMet:      true,
	})
	assert.Equal(t, StatusSilentFailure, res.Status)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestEvaluate_StrongStableMisleading(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment:    acknowledgment.Result{Level: acknowledgment.LevelStrong},
		StabilityMet:      true,
		MisleadingPattern: true,
	})
	assert.Equal(t, StatusMisleading, res.Status)
	assert.Equal(t, 0.80, res.Confidence)
}

func TestEvaluate_StrongStableSuccess(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelStrong},
		StabilityMet:   true,
	})
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestEvaluate_StrongUnstableAmbiguous(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelStrong},
		StabilityMet:   false,
	})
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Equal(t, 0.50, res.Confidence)
}

func TestEvaluate_MeaningfulPartialSuccess(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment:         acknowledgment.Result{Level: acknowledgment.LevelPartial},
		StabilityMet:           true,
		RequiredSatisfiedRatio: 0.5,
	})
	assert.Equal(t, StatusPartialSuccess, res.Status)
	assert.Equal(t, 0.60, res.Confidence)
}

func TestEvaluate_PartialOtherwiseAmbiguous(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment:         acknowledgment.Result{Level: acknowledgment.LevelPartial},
		StabilityMet:           true,
		RequiredSatisfiedRatio: 0.25,
	})
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Equal(t, 0.30, res.Confidence)
}

func TestEvaluate_WeakAlwaysAmbiguous(t *testing.T) {
	res := Evaluate(Input{Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelWeak}})
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Equal(t, 0.20, res.Confidence)

	res = Evaluate(Input{Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelWeak}, OnlyLoadingDetected: true})
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Equal(t, 0.20, res.Confidence)
}

func TestEvaluate_NoneServerSideOnlySuccessStatus(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment:     acknowledgment.Result{Level: acknowledgment.LevelNone},
		Silence:            silence.ClassServerSideOnly,
		LastResponseStatus: 204,
	})
	assert.Equal(t, StatusPartialSuccess, res.Status)
	assert.Equal(t, 0.70, res.Confidence)
}

func TestEvaluate_NoneBlockedByAuth(t *testing.T) {
	res := Evaluate(Input{Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelNone}, Silence: silence.ClassBlockedByAuth})
	assert.Equal(t, StatusSilentFailure, res.Status)
	assert.Equal(t, 0.85, res.Confidence)
}

func TestEvaluate_NoneNetworkTimeout(t *testing.T) {
	res := Evaluate(Input{Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelNone}, Silence: silence.ClassNetworkTimeout})
	assert.Equal(t, StatusSilentFailure, res.Status)
	assert.Equal(t, 0.85, res.Confidence)
}

func TestEvaluate_NoneUiRenderFailure(t *testing.T) {
	res := Evaluate(Input{Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelNone}, Silence: silence.ClassUiRenderFailure})
	assert.Equal(t, StatusSilentFailure, res.Status)
	assert.Equal(t, 0.80, res.Confidence)
}

func TestEvaluate_NoneTrueSilenceRequiresUI(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelNone},
		Silence:        silence.ClassTrueSilence,
		RequiresUI:     true,
	})
	assert.Equal(t, StatusSilentFailure, res.Status)
	assert.Equal(t, 0.80, res.Confidence)
}

func TestEvaluate_NoneTrueSilenceNoUIRequired(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelNone},
		Silence:        silence.ClassTrueSilence,
		RequiresUI:     false,
	})
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Equal(t, 0.80, res.Confidence)
}

func TestEvaluate_NoneOtherSilenceLowerConfidence(t *testing.T) {
	res := Evaluate(Input{
		Acknowledgment: acknowledgment.Result{Level: acknowledgment.LevelNone},
		Silence:        silence.ClassUserNavigation,
		RequiresUI:     true,
	})
	assert.Equal(t, StatusSilentFailure, res.Status)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestEvaluate_FallbackAmbiguousZero(t *testing.T) {
	res := Evaluate(Input{})
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Equal(t, 0.0, res.Confidence)
}
