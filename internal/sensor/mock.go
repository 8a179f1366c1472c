package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock is a deterministic in-memory SignalSource double: each call to
// Observe pops the next scripted Observation for the interaction's
// selector, so tests can drive the orchestrator without a browser.
type Mock struct {
	mu        sync.Mutex
	scripted  map[string][]Observation
	navigated []string
	closed    bool
}

// NewMock builds a Mock with no scripted observations.
func NewMock() *Mock {
	return &Mock{scripted: map[string][]Observation{}}
}

// Script queues obs to be returned, in order, the next times Observe
// is called for the given selector.
func (m *Mock) Script(selector string, obs ...Observation) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted[selector] = append(m.scripted[selector], obs...)
	return m
}

// Observe returns the next scripted Observation for interaction's
// selector, or an empty Observation if nothing was scripted.
func (m *Mock) Observe(ctx context.Context, interaction Interaction, timeout time.Duration) (Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Observation{}, fmt.Errorf("sensor: mock is closed")
	}

	queue := m.scripted[interaction.Selector]
	if len(queue) == 0 {
		return Observation{}, nil
	}
	next := queue[0]
	m.scripted[interaction.Selector] = queue[1:]
	return next, nil
}

// Navigate records the navigation for test assertions.
func (m *Mock) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("sensor: mock is closed")
	}
	m.navigated = append(m.navigated, url)
	return nil
}

// Navigated returns every URL passed to Navigate, in order.
func (m *Mock) Navigated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.navigated))
	copy(out, m.navigated)
	return out
}

// Close marks the mock closed; further calls return an error.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
