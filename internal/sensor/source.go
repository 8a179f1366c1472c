// Package sensor implements the Observer's signal source boundary: the
// interface the orchestrator drives to observe an interaction, a
// deterministic in-memory Mock for tests, and a go-rod-backed
// implementation for real browser sessions.
package sensor

import (
	"context"
	"time"

	"observer/internal/signal"
)

// Interaction describes the action the orchestrator is about to take
// and observe.
type Interaction struct {
	Type     string // "click", "submit", "navigate", ...
	Selector string
	URLPath  string
}

// Observation is Source.Observe's result: the signals seen during the
// interaction window plus the raw network/console/DOM/auth state they
// were derived from.
type Observation struct {
	Signals            []signal.Signal
	NetworkStatus      int
	ConsoleErrors      []string
	DomDelta           DomDelta
	AuthChallenge      bool
	UserNavigated      bool
	RequestsSent       int
	ResponsesReceived  int
	UiRenderError      bool
}

// DomDelta is the substantive-change measurement the anti-false-green
// filter consumes.
type DomDelta struct {
	AddedBytes        int
	AddedVisibleNodes int
}

// Source is the signal source boundary: observe, navigate, close. Not
// responsible for interpretation — classifying signals into
// acknowledgment/outcome is the pipeline's job, not the sensor's.
type Source interface {
	// Observe watches for up to timeout, per the profile's grace
	// timeout, and reports the signals seen for interaction. Neither
	// implementation here performs the interaction itself: RodSource
	// watches the current page for the window, and Mock replays the
	// observations scripted for interaction's selector.
	Observe(ctx context.Context, interaction Interaction, timeout time.Duration) (Observation, error)
	Navigate(ctx context.Context, url string) error
	Close() error
}
