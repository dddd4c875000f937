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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/plannr/plannr-backend/pkg/bootstrap"
	"github.com/plannr/plannr-backend/pkg/config"
	"github.com/plannr/plannr-backend/pkg/iam"
	"github.com/plannr/plannr-backend/pkg/login"
	"github.com/plannr/plannr-backend/pkg/router"
)

// loadEnvFile loads .env from the working directory when present
func loadEnvFile() {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		slog.Error("Failed to load .env file", "error", err)
		return
	}
	slog.Info("Configuration loaded from .env file")
}

func main() {
	// Create a logger with source enabled
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repoConfig := iam.RepositoryConfig{DataDir: cfg.Persistence.DataDir}
	var healthCheck func(context.Context) error
	if cfg.Persistence.Type == config.PersistencePostgres {
		pool, err := pgxpool.New(ctx, cfg.Database.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", cfg.Database.Database, "host", cfg.Database.Host, "port", cfg.Database.Port, "user", cfg.Database.User)
			return err
		}
		defer pool.Close()
		repoConfig.Pool = pool
		healthCheck = pool.Ping
	}

	repo, err := iam.NewIamRepository(ctx, cfg.Persistence.Type, repoConfig)
	if err != nil {
		return err
	}
	slog.Info("Identity store ready", "persistence", cfg.Persistence.Type)

	if cfg.Bootstrap.Enabled() {
		result, err := bootstrap.BootstrapAdmin(ctx, bootstrap.AdminBootstrapConfig{
			AdminRoleName: cfg.Bootstrap.AdminRoleName,
			AdminName:     cfg.Bootstrap.AdminName,
			AdminEmail:    cfg.Bootstrap.AdminEmail,
			AdminPassword: cfg.Bootstrap.AdminPassword,
			Repo:          repo,
			Hasher:        login.NewBcryptHasher(cfg.Password.BcryptCost),
		})
		if err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
		bootstrap.PrintBootstrapResult(os.Stdout, result)
	}

	if cfg.JWT.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET is not set, tokens are signed with the built-in development secret")
	}
	if cfg.Google.ClientID == "" {
		slog.Warn("GOOGLE_CLIENT_ID is not set, Google token audience is not checked")
	}

	routerConfig, err := router.NewConfig(repo, cfg)
	if err != nil {
		return err
	}
	routerConfig.HealthCheck = healthCheck

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router.NewRouter(routerConfig),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
