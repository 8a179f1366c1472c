package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observer/internal/signal"
)

func TestMock_ObserveReturnsScriptedResultsInOrder(t *testing.T) {
	m := NewMock()
	m.Script("#submit",
		Observation{Signals: []signal.Signal{signal.New(signal.NetworkRequestSent, time.Now(), signal.Payload{})}},
		Observation{Signals: []signal.Signal{signal.New(signal.NetworkResponseReceived, time.Now(), signal.Payload{})}},
	)

	ctx := context.Background()
	first, err := m.Observe(ctx, Interaction{Selector: "#submit"}, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, first.Signals, 1)
	assert.Equal(t, signal.NetworkRequestSent, first.Signals[0].Kind)

	second, err := m.Observe(ctx, Interaction{Selector: "#submit"}, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, signal.NetworkResponseReceived, second.Signals[0].Kind)
}

func TestMock_ObserveEmptyWhenNothingScripted(t *testing.T) {
	m := NewMock()
	obs, err := m.Observe(context.Background(), Interaction{Selector: "#unscripted"}, time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, obs.Signals)
}

func TestMock_NavigateRecordsHistory(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Navigate(context.Background(), "https://example.test/a"))
	require.NoError(t, m.Navigate(context.Background(), "https://example.test/b"))
	assert.Equal(t, []string{"https://example.test/a", "https://example.test/b"}, m.Navigated())
}

func TestMock_ClosedRejectsFurtherCalls(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Close())
	_, err := m.Observe(context.Background(), Interaction{Selector: "#x"}, time.Millisecond)
	assert.Error(t, err)
	assert.Error(t, m.Navigate(context.Background(), "https://example.test"))
}
