package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PGSQL_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("IS_PRODUCTION", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 30*time.Second, cfg.LockExpiry)
	assert.Equal(t, 3, cfg.Reconciliation.DateToleranceDays)
	assert.True(t, decimal.RequireFromString("0.5").Equal(cfg.Reconciliation.MinPartialConfidence))
	assert.True(t, cfg.BudgetOverThresholdPercent.IsZero())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(file, []byte("PORT: \"9090\"\nRECON_DATE_TOLERANCE_DAYS: 5\nCORS_ALLOWED_ORIGINS: \"https://a.example, https://b.example\"\n"), 0o600))

	t.Setenv("LEDGER_CONFIG_FILE", file)
	t.Setenv("RECON_DATE_TOLERANCE_DAYS", "6")
	t.Setenv("LOCK_EXPIRY", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 6, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.LockExpiry)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Run("missing secret in production", func(t *testing.T) {
		t.Setenv("IS_PRODUCTION", "true")
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("bad decimal", func(t *testing.T) {
		t.Setenv("BUDGET_OVER_THRESHOLD_PERCENT", "ten")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("exact window wider than tolerance", func(t *testing.T) {
		t.Setenv("RECON_EXACT_WINDOW_DAYS", "9")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
