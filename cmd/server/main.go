package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/invoice-dashboard/internal/adapter/storage"
	"github.com/rl1809/invoice-dashboard/internal/config"
	ierr "github.com/rl1809/invoice-dashboard/internal/errors"
	"github.com/rl1809/invoice-dashboard/internal/logger"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ierr.DisplayMessage(err, err.Error()))
		if ierr.IsSystem(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "invoices",
		Short:         "Invoice dashboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

// migrateStore creates the schema. Failures are system errors.
func migrateStore(ctx context.Context, repo *storage.SQLAdapter) error {
	if err := repo.Migrate(ctx); err != nil {
		return ierr.WithError(err).
			WithMessage("migrate").
			WithHint("Could not create the invoices schema.").
			Mark(ierr.ErrSystem)
	}
	return nil
}

// bootstrap loads .env and configuration and builds the logger.
func bootstrap() (*config.Configuration, *logger.Logger, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*storage.SQLAdapter, func(), error) {
	db, err := storage.Open(ctx, cfg.Driver, cfg.DSN, storage.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithMessage("open store").
			WithHintf("Could not connect to the %s database.", cfg.Driver).
			Mark(ierr.ErrSystem)
	}

	repo, err := storage.NewSQLAdapter(db)
	if err != nil {
		db.Close()
		return nil, nil, ierr.WithError(err).WithMessage("open store").Mark(ierr.ErrSystem)
	}
	return repo, func() { db.Close() }, nil
}

func openPageCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (port.PageCache, func(), error) {
	if cfg.Backend == "memory" {
		return storage.NewMemoryPageCache(cfg.TTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, ierr.WithError(err).
			WithMessage("connect redis").
			WithHintf("Could not connect to Redis at %s.", cfg.RedisAddr).
			Mark(ierr.ErrSystem)
	}
	return storage.NewRedisPageCache(rdb, cfg.TTL, log), func() { rdb.Close() }, nil
}
