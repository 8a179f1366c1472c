package acknowledgment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"observer/internal/config"
	"observer/internal/profile"
	"observer/internal/signal"
)

func newEngine() *Engine {
	return NewEngine(config.DefaultPolicy())
}

func TestEvaluate_NoneWhenNothingDetected(t *testing.T) {
	e := newEngine()
	p := profile.ObservationProfile{Required: []signal.Kind{signal.RouteChanged}}
	res := e.Evaluate(signal.Set{}, p, false)
	assert.Equal(t, LevelNone, res.Level)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestEvaluate_WeakWhenOnlyOptionalDetected(t *testing.T) {
	e := newEngine()
	p := profile.ObservationProfile{
		Required: []signal.Kind{signal.RouteChanged},
		Optional: []signal.Kind{signal.LoadingResolved},
	}
	now := time.Now()
	set := signal.NewSet([]signal.Signal{signal.New(signal.LoadingResolved, now, signal.Payload{})})
	res := e.Evaluate(set, p, false)
	assert.Equal(t, LevelWeak, res.Level)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestEvaluate_PartialWhenSomeRequiredMissing(t *testing.T) {
	e := newEngine()
	p := profile.ObservationProfile{Required: []signal.Kind{signal.RouteChanged, signal.UrlChanged}}
	now := time.Now()
	set := signal.NewSet([]signal.Signal{signal.New(signal.RouteChanged, now, signal.Payload{})})
	res := e.Evaluate(set, p, true)
	assert.Equal(t, LevelPartial, res.Level)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestEvaluate_StrongWhenAllRequiredAndStable(t *testing.T) {
	e := newEngine()
	p := profile.ObservationProfile{Required: []signal.Kind{signal.RouteChanged}}
	now := time.Now()
	set := signal.NewSet([]signal.Signal{signal.New(signal.RouteChanged, now, signal.Payload{})})
	res := e.Evaluate(set, p, true)
	assert.Equal(t, LevelStrong, res.Level)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestEvaluate_PartialWhenAllRequiredButUnstable(t *testing.T) {
	e := newEngine()
	p := profile.ObservationProfile{Required: []signal.Kind{signal.RouteChanged}}
	now := time.Now()
	set := signal.NewSet([]signal.Signal{signal.New(signal.RouteChanged, now, signal.Payload{})})
	res := e.Evaluate(set, p, false)
	assert.Equal(t, LevelPartial, res.Level)
	assert.Equal(t, 0.6, res.Confidence)
}

func TestEvaluate_DeterministicAcrossRepeatedCalls(t *testing.T) {
	e := newEngine()
	p := profile.ObservationProfile{Required: []signal.Kind{signal.RouteChanged, signal.UrlChanged}}
	now := time.Now()
	set := signal.NewSet([]signal.Signal{signal.New(signal.RouteChanged, now, signal.Payload{})})
	first := e.Evaluate(set, p, true)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Evaluate(set, p, true))
	}
}
