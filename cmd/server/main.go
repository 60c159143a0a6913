package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard-auth/internal/app"
	"dashboard-auth/internal/config"
	"dashboard-auth/internal/db"
	"dashboard-auth/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logger.Fatal("dashboard-auth exited", map[string]any{
			"error": err.Error(),
		})
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dashboard-auth",
		Short:         "Identity verification and session issuance service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the accounts schema (postgres and sqlite stores)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
	)

	return cmd
}

// loadConfig refuses to continue without a usable configuration; a
// missing SESSION_SECRET stops the process here.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	logger.Info("dashboard-auth started", map[string]any{
		"port":  cfg.AppPort,
		"store": cfg.StoreDriver,
	})

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received", nil)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("dashboard-auth stopped cleanly", nil)
	return nil
}

func migrate(ctx context.Context) error {
	cfg, err := config.LoadMigrate()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := app.OpenSQL(ctx, cfg.StoreConfig)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	logger.Info("migration applied", map[string]any{
		"dialect": sqlDB.Dialect,
	})
	return nil
}
