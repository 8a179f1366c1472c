package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observer/internal/config"
	"observer/internal/promise"
	"observer/internal/signal"
)

func TestProfileFor_UnknownKindFallsBackToDefault(t *testing.T) {
	r := NewRegistry(config.DefaultPolicy())
	p := r.ProfileFor(promise.Kind("Unknown.kind"))
	assert.ElementsMatch(t, []signal.Kind{signal.DomChanged, signal.FeedbackAppeared}, p.Required)
	assert.Equal(t, 300, p.MinStabilityMs)
	assert.Equal(t, 5000, p.GraceTimeoutMs)
}

func TestProfileFor_Navigation(t *testing.T) {
	r := NewRegistry(config.DefaultPolicy())
	p := r.ProfileFor(promise.KindNavigation)
	assert.ElementsMatch(t, []signal.Kind{signal.RouteChanged, signal.NavigationChanged, signal.UrlChanged}, p.Required)
	assert.Equal(t, 500, p.MinStabilityMs)
	assert.Equal(t, 5000, p.GraceTimeoutMs)
}

func TestProfileFor_NetworkGraphQLHasLongerGrace(t *testing.T) {
	r := NewRegistry(config.DefaultPolicy())
	req := r.ProfileFor(promise.KindNetworkRequest)
	gql := r.ProfileFor(promise.KindNetworkGraphQL)
	assert.Equal(t, 10000, req.GraceTimeoutMs)
	assert.Equal(t, 15000, gql.GraceTimeoutMs)
}

func TestProfileFor_OverrideAppliesOnlyToTimers(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.ProfileOverrides[string(promise.KindNavigation)] = config.ProfileOverride{
		MinStabilityMs: 999,
		GraceTimeoutMs: 9999,
	}
	r := NewRegistry(policy)
	p := r.ProfileFor(promise.KindNavigation)
	assert.Equal(t, 999, p.MinStabilityMs)
	assert.Equal(t, 9999, p.GraceTimeoutMs)
	assert.ElementsMatch(t, []signal.Kind{signal.RouteChanged, signal.NavigationChanged, signal.UrlChanged}, p.Required)
}

func TestProfileFor_ClonesDoNotAliasCalibratedDefaults(t *testing.T) {
	r := NewRegistry(config.DefaultPolicy())
	p1 := r.ProfileFor(promise.KindNavigation)
	p1.Required[0] = signal.ConsoleError
	p2 := r.ProfileFor(promise.KindNavigation)
	assert.Equal(t, signal.RouteChanged, p2.Required[0])
}

func TestValidate_ForbiddenVetoesFirst(t *testing.T) {
	now := time.Now()
	p := ObservationProfile{
		Required:  []signal.Kind{signal.ToastAppeared},
		Forbidden: []signal.Kind{signal.LoadingStarted},
	}
	set := signal.NewSet([]signal.Signal{
		signal.New(signal.ToastAppeared, now, signal.Payload{}),
		signal.New(signal.LoadingStarted, now, signal.Payload{}),
	})
	res := Validate(set, p)
	require.False(t, res.Satisfied)
	assert.True(t, res.Forbidden)
	assert.Contains(t, res.Reason, "forbidden")
}

func TestValidate_MissingRequired(t *testing.T) {
	now := time.Now()
	p := ObservationProfile{Required: []signal.Kind{signal.RouteChanged, signal.UrlChanged}}
	set := signal.NewSet([]signal.Signal{signal.New(signal.RouteChanged, now, signal.Payload{})})
	res := Validate(set, p)
	require.False(t, res.Satisfied)
	assert.Contains(t, res.Reason, "UrlChanged")
}

func TestValidate_SatisfiedIncludesOptionalMatches(t *testing.T) {
	now := time.Now()
	p := ObservationProfile{
		Required: []signal.Kind{signal.RouteChanged},
		Optional: []signal.Kind{signal.LoadingResolved},
	}
	set := signal.NewSet([]signal.Signal{
		signal.New(signal.RouteChanged, now, signal.Payload{}),
		signal.New(signal.LoadingResolved, now, signal.Payload{}),
	})
	res := Validate(set, p)
	require.True(t, res.Satisfied)
	assert.Contains(t, res.Matched, signal.RouteChanged)
	assert.Contains(t, res.Matched, signal.LoadingResolved)
}
