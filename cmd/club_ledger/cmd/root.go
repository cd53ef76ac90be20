// Package cmd provides the club_ledger commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/club_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/club_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/club_ledger/internal/adapters/lock"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/core/services"
	"github.com/SscSPs/club_ledger/internal/platform/config"
	"github.com/SscSPs/club_ledger/internal/platform/logging"
	"github.com/SscSPs/club_ledger/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg       *config.Config
	logger    *slog.Logger
	zapLogger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "club_ledger",
	Short: "Multi-tenant general ledger for clubs",
	Long: `club_ledger runs the ledger API and the operator tasks around it.

Configuration comes from the environment, a .env file and the YAML file named
by LEDGER_CONFIG_FILE. Without PGSQL_URL the in-memory store is used.

Example:
  club_ledger migrate
  club_ledger seed-accounts --club riverside --file chart.yaml --actor treasurer
  club_ledger serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, zapLogger, err = logging.New(logging.Options{Level: cfg.LogLevel, Production: cfg.IsProduction})
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zapLogger != nil {
			_ = zapLogger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

// runtime bundles what a command needs to reach the ledger.
type runtime struct {
	services *portssvc.ServiceContainer
	redis    *redis.Client
	closers  []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// openRuntime connects the configured store and locker and builds the services.
func openRuntime(ctx context.Context) (*runtime, error) {
	rt := &runtime{}

	var db portsrepo.Database
	if cfg.DatabaseURL == "" {
		db = memory.New()
	} else {
		if err := pgsql.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { database.ClosePgxPool(pool, logger) })
		db = pgsql.NewDB(pool)
	}

	opts := []services.ContainerOption{
		services.WithReconciliationConfig(services.ReconciliationConfig{
			DateToleranceDays:     cfg.Reconciliation.DateToleranceDays,
			ExactWindowDays:       cfg.Reconciliation.ExactWindowDays,
			ConfidenceDecayPerDay: cfg.Reconciliation.ConfidenceDecayPerDay,
			MinPartialConfidence:  cfg.Reconciliation.MinPartialConfidence,
			BalanceTolerance:      cfg.Reconciliation.BalanceTolerance,
		}),
		services.WithBudgetOverThreshold(cfg.BudgetOverThresholdPercent),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		rt.redis = client
		rt.closers = append(rt.closers, func() { _ = client.Close() })

		lockOpts := portsrepo.DefaultLockOptions()
		lockOpts.Expiry = cfg.LockExpiry
		opts = append(opts, services.WithLocker(lock.NewRedisLocker(client, lockOpts)))
		logger.Info("Using redis locks", slog.String("addr", cfg.RedisAddr))
	}

	rt.services = services.NewServiceContainer(db, opts...)
	return rt, nil
}
