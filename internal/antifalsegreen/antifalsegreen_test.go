package antifalsegreen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observer/internal/acknowledgment"
	"observer/internal/config"
	"observer/internal/signal"
)

func newFilter() *Filter {
	return NewFilter(config.DefaultPolicy())
}

func TestApply_TrivialDomDeltaDemoted(t *testing.T) {
	f := newFilter()
	now := time.Now()
	set := signal.NewSet([]signal.Signal{
		signal.New(signal.DomChanged, now, signal.Payload{AddedBytes: 10, AddedVisibleNodes: 1}),
		signal.New(signal.LoadingStarted, now, signal.Payload{}),
	})
	out := f.Apply(set)
	assert.False(t, out.Signals.Has(signal.DomChanged))
	assert.Equal(t, "no-substantive-signals", out.Diagnostic)
}

func TestApply_SubstantiveDomDeltaSurvives(t *testing.T) {
	f := newFilter()
	now := time.Now()
	set := signal.NewSet([]signal.Signal{
		signal.New(signal.DomChanged, now, signal.Payload{AddedBytes: 500, AddedVisibleNodes: 3}),
		signal.New(signal.LoadingStarted, now, signal.Payload{}),
	})
	out := f.Apply(set)
	require.Empty(t, out.Diagnostic)
	assert.True(t, out.Signals.Has(signal.DomChanged))
	assert.True(t, out.Signals.Has(signal.LoadingStarted))
}

func TestApply_LoadingStrippedWhenNoSubstantiveSignal(t *testing.T) {
	f := newFilter()
	now := time.Now()
	set := signal.NewSet([]signal.Signal{
		signal.New(signal.LoadingStarted, now, signal.Payload{}),
		signal.New(signal.LoadingResolved, now, signal.Payload{}),
	})
	out := f.Apply(set)
	assert.Equal(t, "no-substantive-signals", out.Diagnostic)
	assert.Empty(t, out.Signals)
}

func TestApply_LoadingKeptWhenSubstantiveSignalPresent(t *testing.T) {
	f := newFilter()
	now := time.Now()
	set := signal.NewSet([]signal.Signal{
		signal.New(signal.LoadingStarted, now, signal.Payload{}),
		signal.New(signal.ToastAppeared, now, signal.Payload{}),
	})
	out := f.Apply(set)
	assert.Empty(t, out.Diagnostic)
	assert.True(t, out.Signals.Has(signal.LoadingStarted))
	assert.True(t, out.Signals.Has(signal.ToastAppeared))
}

func TestDowngrade_StrongToWeakWhenOnlyLoadingSurvives(t *testing.T) {
	f := newFilter()
	now := time.Now()
	filtered := signal.NewSet([]signal.Signal{signal.New(signal.LoadingStarted, now, signal.Payload{})})
	res := f.Downgrade(filtered, acknowledgment.Result{Level: acknowledgment.LevelStrong, Confidence: 0.95})
	assert.Equal(t, acknowledgment.LevelWeak, res.Level)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestDowngrade_UntouchedWhenSubstantiveSignalPresent(t *testing.T) {
	f := newFilter()
	now := time.Now()
	filtered := signal.NewSet([]signal.Signal{
		signal.New(signal.LoadingStarted, now, signal.Payload{}),
		signal.New(signal.RouteChanged, now, signal.Payload{}),
	})
	res := f.Downgrade(filtered, acknowledgment.Result{Level: acknowledgment.LevelStrong, Confidence: 0.95})
	assert.Equal(t, acknowledgment.LevelStrong, res.Level)
}

func TestDowngrade_NoneWhenSetEmpty(t *testing.T) {
	f := newFilter()
	res := f.Downgrade(signal.Set{}, acknowledgment.Result{Level: acknowledgment.LevelNone, Confidence: 0})
	assert.Equal(t, acknowledgment.LevelNone, res.Level)
}
