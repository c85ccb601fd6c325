// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// DebugEnabled reports whether pipeline diagnostics should be logged for the page.
// Local hosts always qualify; elsewhere the query string must carry debug=1 or debug=true.
func DebugEnabled(page *url.URL) bool {
	if page == nil {
		return false
	}
	switch page.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	return strings.Contains(page.RawQuery, "debug=1") || strings.Contains(page.RawQuery, "debug=true")
}

// Debug gates diagnostic output behind a flag. The zero value discards everything.
type Debug struct {
	logger  *zap.Logger
	enabled bool
}

// NewDebug wraps logger so that entries are only written when enabled is true.
func NewDebug(logger *zap.Logger, enabled bool) Debug {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Debug{logger: logger, enabled: enabled}
}

// Enabled reports whether diagnostics are written.
func (d Debug) Enabled() bool { return d.enabled && d.logger != nil }

// Named returns a Debug whose logger carries the given sub-name.
func (d Debug) Named(name string) Debug {
	if d.logger == nil {
		return d
	}
	return Debug{logger: d.logger.Named(name), enabled: d.enabled}
}

// Info logs a diagnostic at info level.
func (d Debug) Info(msg string, fields ...zap.Field) {
	if d.Enabled() {
		d.logger.Info(msg, fields...)
	}
}

// Warn logs a diagnostic at warn level.
func (d Debug) Warn(msg string, fields ...zap.Field) {
	if d.Enabled() {
		d.logger.Warn(msg, fields...)
	}
}

// Error logs a diagnostic at error level.
func (d Debug) Error(msg string, fields ...zap.Field) {
	if d.Enabled() {
		d.logger.Error(msg, fields...)
	}
}
