// Package logging builds the zap logger used by the command line tool.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by Config.Level.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// ErrInvalidLevel indicates an unknown log level name.
var ErrInvalidLevel = errors.New("invalid log level")

// Config selects console verbosity and an optional log file.
type Config struct {
	Level       string `yaml:"level"`                 // none, normal, debug (default: normal)
	Destination string `yaml:"destination,omitempty"` // log file path; empty = console only
}

// Validate checks the level name.
func (c Config) Validate() error {
	switch c.Level {
	case "", LevelNone, LevelNormal, LevelDebug:
		return nil
	}
	return fmt.Errorf("%w: %q (must be none, normal or debug)", ErrInvalidLevel, c.Level)
}

// New returns a logger writing info and warnings to stdout and errors to
// stderr. The returned close function flushes and closes the log file.
func New(cfg Config, stdout, stderr io.Writer) (*zap.Logger, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	minLevel, enabled := consoleLevel(cfg.Level)
	cores := []zapcore.Core{}
	if enabled {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		ec.TimeKey = zapcore.OmitKey
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		enc := zapcore.NewConsoleEncoder(ec)

		low := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return minLevel <= lvl && lvl < zapcore.ErrorLevel
		})
		high := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		})
		cores = append(cores,
			zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(stdout)), low),
			zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(stderr)), high),
		)
	}

	closeFn := func() error { return nil }
	if cfg.Destination != "" {
		f, err := os.OpenFile(cfg.Destination, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- user-provided log path
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		fileLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if cfg.Level == LevelDebug {
			fileLevel.SetLevel(zapcore.DebugLevel)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(f), fileLevel))
		closeFn = func() error {
			return multierr.Append(f.Sync(), f.Close())
		}
	}

	if len(cores) == 0 {
		return zap.NewNop(), closeFn, nil
	}
	return zap.New(zapcore.NewTee(cores...)), closeFn, nil
}

func consoleLevel(level string) (zapcore.Level, bool) {
	switch level {
	case LevelNone:
		return zapcore.InvalidLevel, false
	case LevelDebug:
		return zapcore.DebugLevel, true
	default:
		return zapcore.InfoLevel, true
	}
}
