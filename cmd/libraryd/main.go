// Command libraryd runs the library backend: an HTTP JSON API over the
// Postgres-backed circulation core.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/haslett/library-circulation-go/config"
	"github.com/haslett/library-circulation-go/httpapi"
	"github.com/haslett/library-circulation-go/library/auth"
	"github.com/haslett/library-circulation-go/library/catalog"
	"github.com/haslett/library-circulation-go/library/circulation"
	"github.com/haslett/library-circulation-go/library/postgresengine"
	"github.com/haslett/library-circulation-go/library/reporting"
)

const shutdownGrace = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "libraryd",
		Short:         "Library circulation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, cfgErr := config.FromEnv()
	if cfgErr != nil {
		return cfgErr
	}

	pool, poolErr := openPool(ctx, cfg)
	if poolErr != nil {
		return poolErr
	}
	defer pool.Close()

	store, storeErr := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithLogger(logger))
	if storeErr != nil {
		return storeErr
	}

	engine := circulation.NewEngine(store)
	catalogService := catalog.NewService(store)
	reportingService := reporting.NewService(store)
	verifier := auth.NewVerifier(store, cfg.JWTSecret)

	server := httpapi.NewServer(engine, catalogService, reportingService, verifier, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErrs := make(chan error, 1)

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		serveErrs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, cfgErr := config.FromEnv()
	if cfgErr != nil {
		// The schema does not need the JWT secret.
		if !errors.Is(cfgErr, config.ErrMissingJWTSecret) {
			return cfgErr
		}
		cfg.PostgresDSN = config.DefaultPostgresDSN
		if dsn := os.Getenv("LIBRARY_POSTGRES_DSN"); dsn != "" {
			cfg.PostgresDSN = dsn
		}
	}

	pool, poolErr := openPool(ctx, cfg)
	if poolErr != nil {
		return poolErr
	}
	defer pool.Close()

	store, storeErr := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithLogger(logger))
	if storeErr != nil {
		return storeErr
	}

	if migrateErr := store.Migrate(ctx); migrateErr != nil {
		return migrateErr
	}

	logger.Info("schema is up to date")

	return nil
}

func openPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolConfig, configErr := cfg.PGXPoolConfig()
	if configErr != nil {
		return nil, configErr
	}

	pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", poolErr)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", pingErr)
	}

	return pool, nil
}
