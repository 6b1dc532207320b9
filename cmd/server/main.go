package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/fawater/internal/config"
	"github.com/diewo77/fawater/internal/db"
	"github.com/diewo77/fawater/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var version = "0.1.0"

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	var logLevel string

	root := &cobra.Command{
		Use:           "fawater",
		Short:         "fawater - customer billing and account statements",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return logger.Setup(logger.LogConfig{
				Level:      cfg.LogLevel,
				Format:     cfg.LogFormat,
				TimeFormat: time.RFC3339,
			})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (trace, debug, info, warn, error)")

	var port string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVarP(&port, "port", "p", "", "override PORT")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Migrations = true
			if _, err := db.ConnectAndMigrate(cfg); err != nil {
				return err
			}
			l := logger.WithComponent("cmd")
			l.Info().Msg("migrations completed")
			return nil
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample customers and invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			res, err := app.Seeder().SeedDefault(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d customers, %d invoices\n", res.Customers, res.Invoices)
			return nil
		},
	}

	markOverdue := &cobra.Command{
		Use:   "mark-overdue",
		Short: "Flag pending invoices past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cfg)
			if err != nil {
				return err
			}
			n, err := app.Services.Invoices.MarkOverdue(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoices marked overdue\n", n)
			return nil
		},
	}

	root.AddCommand(serve, migrate, seed, markOverdue)
	return root
}

func openApp(cfg config.Config) (*App, error) {
	dbConn, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return NewApp(dbConn, cfg), nil
}

func connect(cfg config.Config) (*gorm.DB, error) {
	dbConn, err := db.ConnectAndMigrate(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return dbConn, nil
}

func runServe(parent context.Context, cfg config.Config) error {
	log := logger.WithComponent("server")
	app, err := openApp(cfg)
	if err != nil {
		return err
	}
	if cfg.Seed {
		if _, err := app.Seeder().SeedDefault(parent); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info().Msg("server stopped gracefully")
		return nil
	})
	if cfg.OverdueSweepInterval > 0 {
		g.Go(func() error {
			log.Info().Dur("interval", cfg.OverdueSweepInterval).Msg("overdue sweep enabled")
			return app.Services.Invoices.SweepOverdue(gctx, cfg.OverdueSweepInterval)
		})
	}
	return g.Wait()
}
