// Package logging constructs the Observer's structured logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"observer/internal/config"
)

// New builds a *zap.Logger from the given Logging policy. Format
// "json" uses zap's production JSON encoder; anything else (including
// the empty string) falls back to the console encoder, matching the
// console-first default the rest of the corpus uses for local runs.
func New(cfg config.Logging) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zapCfg zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		zapCfg = zap.NewProductionConfig()
	default:
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Development = cfg.Development

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return logger, nil
}

// NewFromPolicy is a convenience wrapper reading the Logging section
// off a full config.Policy, falling back to config.DefaultPolicy when
// policy is nil.
func NewFromPolicy(policy *config.Policy) (*zap.Logger, error) {
	if policy == nil {
		policy = config.DefaultPolicy()
	}
	return New(policy.Logging)
}

// WithComponent scopes logger with a "component" field, one tag per
// subsystem.
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	return logger.With(zap.String("component", component))
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "dpanic":
		return zapcore.DPanicLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return 0, fmt.Errorf("logging: unsupported level %q", level)
	}
}
