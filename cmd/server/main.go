package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"auth_backend/internal/app/di"
	"auth_backend/internal/config"
	authadapters "auth_backend/internal/feature/auth/adapters"
	"auth_backend/internal/platform/db"
	"auth_backend/internal/platform/logging"
	infraredis "auth_backend/internal/platform/redis"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Minute
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:          "auth-server",
		Short:        "Identity and session service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := setup(envFile)
			if err != nil {
				return err
			}
			gdb, err := db.OpenDB(cfg.DB())
			if err != nil {
				return err
			}
			defer closeDB(gdb, logger)
			if err := db.Migrate(gdb, authadapters.Models()...); err != nil {
				return err
			}
			logger.Info("migration complete", "driver", cfg.DBDriver)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "purge-otp",
		Short: "Delete expired OTP challenges from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(envFile)
			if err != nil {
				return err
			}
			gdb, err := db.OpenDB(cfg.DB())
			if err != nil {
				return err
			}
			defer closeDB(gdb, logger)
			n, err := authadapters.NewOTPGorm(gdb).PurgeExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			logger.Info("expired otp challenges purged", "count", n)
			return nil
		},
	})
	return root
}

func setup(envFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(os.Stdout, cfg.LogLevelValue(), cfg.IsProduction())
	return cfg, logger, nil
}

func serve(parent context.Context, envFile string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup(envFile)
	if err != nil {
		return err
	}

	// db
	gdb, err := db.OpenDB(cfg.DB())
	if err != nil {
		return err
	}
	defer closeDB(gdb, logger)
	if cfg.RunMigrations {
		if err := db.Migrate(gdb, authadapters.Models()...); err != nil {
			return err
		}
	}

	// Redis
	var rdb *goredis.Client
	if rc := cfg.Redis(); rc.Enabled() {
		if rdb, err = infraredis.NewRedisClient(ctx, rc); err != nil {
			logger.Warn("redis unavailable, running without cache", "addr", rc.Addr(), "error", err)
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					logger.Error("failed to close redis client", "error", err)
				}
			}()
		}
	}
	if rdb == nil {
		go purgeLoop(ctx, authadapters.NewOTPGorm(gdb), logger)
	}

	app, err := di.Build(cfg, gdb, rdb, nil, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type expiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// purgeLoop removes expired challenges when they live in the database.
func purgeLoop(ctx context.Context, p expiredPurger, logger *slog.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := p.PurgeExpired(ctx, now)
			if err != nil {
				logger.Warn("purge expired otp challenges", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired otp challenges purged", "count", n)
			}
		}
	}
}

func closeDB(gdb *gorm.DB, logger *slog.Logger) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}
