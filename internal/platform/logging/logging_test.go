package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_LevelResolution(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		enabled slog.Level
		muted   *slog.Level
	}{
		{name: "development defaults to debug", opts: Options{}, enabled: slog.LevelDebug},
		{name: "production defaults to info", opts: Options{Production: true}, enabled: slog.LevelInfo, muted: levelPtr(slog.LevelDebug)},
		{name: "explicit level wins", opts: Options{Level: "WARN", Production: true}, enabled: slog.LevelWarn, muted: levelPtr(slog.LevelInfo)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, zl, err := New(tt.opts)
			require.NoError(t, err)
			require.NotNil(t, zl)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			if tt.muted != nil {
				assert.False(t, logger.Enabled(context.Background(), *tt.muted))
			}
		})
	}
}

func levelPtr(l slog.Level) *slog.Level { return &l }

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestBuildConfig_ProductionIsJSON(t *testing.T) {
	cfg := buildConfig(true)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
}
