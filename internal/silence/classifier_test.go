package silence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_UserNavigationTakesPrecedence(t *testing.T) {
	c := Classify(Input{UserNavigated: true, AuthChallenge: true})
	assert.Equal(t, ClassUserNavigation, c)
}

func TestClassify_BlockedByAuth(t *testing.T) {
	assert.Equal(t, ClassBlockedByAuth, Classify(Input{LastResponseStatus: 401}))
	assert.Equal(t, ClassBlockedByAuth, Classify(Input{LastResponseStatus: 403}))
	assert.Equal(t, ClassBlockedByAuth, Classify(Input{AuthChallenge: true}))
}

func TestClassify_NetworkTimeout(t *testing.T) {
	c := Classify(Input{RequestsSent: 1, ResponsesReceived: 0, ElapsedMs: 6000, GraceTimeoutMs: 5000})
	assert.Equal(t, ClassNetworkTimeout, c)
}

func TestClassify_ServerSideOnly(t *testing.T) {
	c := Classify(Input{LastResponseStatus: 204, DomDeltaPresent: false})
	assert.Equal(t, ClassServerSideOnly, c)
}

func TestClassify_SlowAcknowledgment(t *testing.T) {
	c := Classify(Input{AckSignalsPresent: true, ElapsedMs: 6000, GraceTimeoutMs: 5000})
	assert.Equal(t, ClassSlowAcknowledgment, c)
}

func TestClassify_UiRenderFailure(t *testing.T) {
	c := Classify(Input{UiRenderError: true})
	assert.Equal(t, ClassUiRenderFailure, c)
}

func TestClassify_TrueSilenceFallback(t *testing.T) {
	c := Classify(Input{})
	assert.Equal(t, ClassTrueSilence, c)
}

func TestClass_Recoverable(t *testing.T) {
	assert.True(t, ClassSlowAcknowledgment.Recoverable())
	assert.True(t, ClassBlockedByAuth.Recoverable())
	assert.True(t, ClassUserNavigation.Recoverable())
	assert.False(t, ClassTrueSilence.Recoverable())
	assert.False(t, ClassNetworkTimeout.Recoverable())
	assert.False(t, ClassUiRenderFailure.Recoverable())
}
