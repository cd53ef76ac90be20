// Package logging builds the process-wide structured logger. Records are
// written through zap and exposed to the rest of the code base as *slog.Logger.
package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Options controls the logger profile.
type Options struct {
	Level      string // debug, info, warn or error; empty picks a default for the profile
	Production bool
}

// New returns a slog logger backed by a zap core, the zap logger itself and a
// sync function to flush buffered records on shutdown.
func New(opts Options) (*slog.Logger, *zap.Logger, error) {
	level, err := resolveLevel(opts)
	if err != nil {
		return nil, nil, err
	}

	cfg := buildConfig(opts.Production)
	cfg.Level = level
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	handler := zapslog.NewHandler(zl.Core(),
		zapslog.WithName("club_ledger"),
		zapslog.WithCaller(!opts.Production),
		zapslog.AddStacktraceAt(slog.LevelError),
	)
	return slog.New(handler), zl, nil
}

func resolveLevel(opts Options) (zap.AtomicLevel, error) {
	if strings.TrimSpace(opts.Level) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(strings.ToLower(opts.Level)); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		return zap.NewAtomicLevelAt(parsed), nil
	}
	if opts.Production {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
}

func buildConfig(production bool) zap.Config {
	if !production {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
