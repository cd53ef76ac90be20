package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string // Empty means the in-memory store
	DBMaxConns    int32
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	LogLevel      string

	JWTSecret string
	JWTIssuer string

	RedisAddr  string // Empty means in-process locks
	LockExpiry time.Duration

	RateLimit          string // ulule/limiter rate, e.g. "300-M"
	CORSAllowedOrigins []string

	Reconciliation             ReconciliationConfig
	BudgetOverThresholdPercent decimal.Decimal
}

// ReconciliationConfig tunes bank statement matching.
type ReconciliationConfig struct {
	DateToleranceDays     int
	ExactWindowDays       int
	ConfidenceDecayPerDay decimal.Decimal
	MinPartialConfidence  decimal.Decimal
	BalanceTolerance      decimal.Decimal
}

// LoadConfig loads configuration from environment variables, a .env file if present
// and the YAML file named by LEDGER_CONFIG_FILE. Environment values win over the file.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("LEDGER_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LEDGER_CONFIG_FILE", "")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "club-ledger")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LOCK_EXPIRY", "30s")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("RECON_DATE_TOLERANCE_DAYS", 3)
	v.SetDefault("RECON_EXACT_WINDOW_DAYS", 0)
	v.SetDefault("RECON_CONFIDENCE_DECAY_PER_DAY", "0.1")
	v.SetDefault("RECON_MIN_PARTIAL_CONFIDENCE", "0.5")
	v.SetDefault("RECON_BALANCE_TOLERANCE", "0")
	v.SetDefault("BUDGET_OVER_THRESHOLD_PERCENT", "0")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:   v.GetString("PGSQL_URL"),
		DBMaxConns:    v.GetInt32("DB_MAX_CONNS"),
		Port:          v.GetString("PORT"),
		IsProduction:  v.GetBool("IS_PRODUCTION"),
		EnableDBCheck: v.GetBool("ENABLE_DB_CHECK"),
		LogLevel:      strings.ToLower(v.GetString("LOG_LEVEL")),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTIssuer:     v.GetString("JWT_ISSUER"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RateLimit:     v.GetString("RATE_LIMIT"),
	}

	if cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL not set. Using the in-memory store; data is lost on exit.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "insecure-development-secret-change-me"
		slog.Warn("JWT_SECRET not set. Using default insecure key.")
	}

	lockExpiryStr := v.GetString("LOCK_EXPIRY")
	lockExpiry, err := time.ParseDuration(lockExpiryStr)
	if err != nil || lockExpiry <= 0 {
		lockExpiry = 30 * time.Second
		slog.Warn("Invalid value for LOCK_EXPIRY. Using default.",
			slog.String("value", lockExpiryStr), slog.Duration("default", lockExpiry))
	}
	cfg.LockExpiry = lockExpiry

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	cfg.Reconciliation = ReconciliationConfig{
		DateToleranceDays: v.GetInt("RECON_DATE_TOLERANCE_DAYS"),
		ExactWindowDays:   v.GetInt("RECON_EXACT_WINDOW_DAYS"),
	}
	decimals := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"RECON_CONFIDENCE_DECAY_PER_DAY", &cfg.Reconciliation.ConfidenceDecayPerDay},
		{"RECON_MIN_PARTIAL_CONFIDENCE", &cfg.Reconciliation.MinPartialConfidence},
		{"RECON_BALANCE_TOLERANCE", &cfg.Reconciliation.BalanceTolerance},
		{"BUDGET_OVER_THRESHOLD_PERCENT", &cfg.BudgetOverThresholdPercent},
	}
	for _, d := range decimals {
		parsed, err := decimal.NewFromString(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	if cfg.Reconciliation.ExactWindowDays > cfg.Reconciliation.DateToleranceDays {
		return nil, fmt.Errorf("RECON_EXACT_WINDOW_DAYS cannot exceed RECON_DATE_TOLERANCE_DAYS")
	}

	return cfg, nil
}
