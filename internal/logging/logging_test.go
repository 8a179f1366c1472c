package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"observer/internal/config"
)

func TestNew_ConsoleFormat(t *testing.T) {
	logger, err := New(config.Logging{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync()
}

func TestNew_JSONFormat(t *testing.T) {
	logger, err := New(config.Logging{Level: "info", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync()
}

func TestNew_InvalidLevelErrors(t *testing.T) {
	_, err := New(config.Logging{Level: "bogus"})
	assert.Error(t, err)
}

func TestNewFromPolicy_NilFallsBackToDefault(t *testing.T) {
	logger, err := NewFromPolicy(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync()
}

func TestWithComponent_AddsField(t *testing.T) {
	logger, err := New(config.Logging{Level: "info", Format: "json"})
	require.NoError(t, err)
	scoped := WithComponent(logger, "orchestrator")
	assert.NotNil(t, scoped)
}
