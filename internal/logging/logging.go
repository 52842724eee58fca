// Package logging builds the zap logger used by the command-line tools.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to stderr at level ("debug", "info", "warn",
// "error") in the given format.
func New(level, format string) (*zap.Logger, error) {
	return NewWithSink(zapcore.Lock(os.Stderr), level, format)
}

// NewWithSink is New with an explicit destination.
func NewWithSink(ws zapcore.WriteSyncer, level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encoderConfig)
	case FormatConsole, "":
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}

	return zap.New(zapcore.NewCore(enc, ws, lvl)), nil
}

// Sync flushes l, ignoring the error syncing a terminal returns.
func Sync(l *zap.Logger) {
	if err := l.Sync(); err != nil && !strings.Contains(err.Error(), "inappropriate ioctl for device") &&
		!strings.Contains(err.Error(), "invalid argument") {
		fmt.Fprintf(os.Stderr, "logging: sync failed: %v\n", err)
	}
}
