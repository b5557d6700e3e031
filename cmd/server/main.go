package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/realmledger/internal/api"
	"github.com/mcoot/realmledger/internal/config"
	"github.com/mcoot/realmledger/internal/factory"
	"github.com/mcoot/realmledger/internal/services/auth"
	"github.com/mcoot/realmledger/internal/services/credential"
	redisstorage "github.com/mcoot/realmledger/internal/storage/redis"
)

// Interval between sweeps of expired signer sessions and idle event hubs
const janitorInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		SQLitePath:  cfg.SQLitePath,
		AuthConfig:  auth.Config{SessionDuration: cfg.SessionTTL},
	}

	if cfg.StorageType == factory.StorageTypePersistent {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	credCfg := credential.DefaultConfig()
	credCfg.TTL = cfg.CredentialTTL
	if cfg.CredentialKey != "" {
		key, err := credential.ParseKey(cfg.CredentialKey)
		if err != nil {
			logger.Error("invalid REALM_CREDENTIAL_KEY", slog.String("error", err.Error()))
			os.Exit(1)
		}
		credCfg.Key = key
	}
	factoryCfg.CredentialConfig = credCfg

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		CredentialService: app.CredentialService,
		Guard:             app.Guard,
		ProfileService:    app.ProfileService,
		SettlementService: app.SettlementService,
		SessionController: app.SessionController,
		HubManager:        app.HubManager,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(mux, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go runJanitor(ctx, app)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func runJanitor(ctx context.Context, app *factory.App) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.AuthService.CleanExpiredSessions()
			app.HubManager.CleanupEmptyHubs()
		}
	}
}
