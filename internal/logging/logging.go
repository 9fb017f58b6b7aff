package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger shared by the CLI and the shift pipeline.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger writes human readable logs to stderr, at debug level when
// verbose is set and at info level otherwise.
func NewLogger(verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return New(zapcore.Lock(os.Stderr), level)
}

// NewWithLevel is NewLogger with a level name ("debug", "info", "warn",
// "error") taken from configuration. verbose always wins.
func NewWithLevel(level string, verbose bool) (*Logger, error) {
	if verbose {
		return NewLogger(true), nil
	}
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return New(zapcore.Lock(os.Stderr), parsed), nil
}

// New builds a console logger on an arbitrary sink.
func New(sink zapcore.WriteSyncer, level zapcore.Level) *Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.CallerKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		sink,
		level,
	)
	return &Logger{zap.New(core).Sugar()}
}

// FromCore wraps an existing core, mainly for tests.
func FromCore(core zapcore.Core) *Logger {
	return &Logger{zap.New(core).Sugar()}
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// ParseLevel maps a configuration level name onto a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("log level: unsupported value %q", level)
	}
}
