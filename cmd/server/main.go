package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata" // Business time zone must resolve on minimal images

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/feedsync/internal/commerce"
	"github.com/JonMunkholm/feedsync/internal/config"
	"github.com/JonMunkholm/feedsync/internal/core"
	"github.com/JonMunkholm/feedsync/internal/gauth"
	"github.com/JonMunkholm/feedsync/internal/logging"
	"github.com/JonMunkholm/feedsync/internal/publish"
	"github.com/JonMunkholm/feedsync/internal/secrets"
	"github.com/JonMunkholm/feedsync/internal/sheet"
	"github.com/JonMunkholm/feedsync/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	ctx := context.Background()

	// Load and validate configuration; gcpsm:// values come from Secret Manager
	resolver := secrets.NewGCPResolver()
	cfg, err := config.LoadWithSecrets(ctx, resolver)
	if cerr := resolver.Close(); cerr != nil {
		slog.Warn("close secret manager client", "error", cerr)
	}
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"time_zone", cfg.Feed.TimeZone,
		"drive_enabled", cfg.Drive.Enabled,
		"history_enabled", cfg.HistoryEnabled(),
	)

	googleClient, err := gauth.NewClient(ctx, cfg.Sheets.ServiceAccountKey)
	if err != nil {
		slog.Error("failed to create google client", "error", err)
		os.Exit(1)
	}

	reader, err := sheet.NewGoogleReader(ctx, googleClient, cfg.Sheets.SpreadsheetID, cfg.Sheets.ValueRenderOption)
	if err != nil {
		slog.Error("failed to create sheets reader", "error", err)
		os.Exit(1)
	}

	store := commerce.New(cfg.Commerce)

	var publisher core.Publisher
	if cfg.Drive.Enabled {
		drive, err := publish.NewDrivePublisher(ctx, googleClient, cfg.Drive.FolderID)
		if err != nil {
			slog.Error("failed to create drive publisher", "error", err)
			os.Exit(1)
		}
		publisher = drive
	}

	opts := []core.Option{}
	var pool *pgxpool.Pool
	if cfg.HistoryEnabled() {
		pool, err = connectDatabase(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		history := core.NewPgHistoryStore(pool)
		if err := history.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare feed history table", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithHistory(history))
	}

	service, err := core.NewService(cfg, reader, store, opts...)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, service, store, publisher)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if pool != nil {
		go service.StartHistoryScheduler(jobCtx, cfg.History)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running feed builds finish
		if err := service.WaitForBuilds(shutdownCtx); err != nil {
			slog.Warn("feed builds did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// connectDatabase opens and verifies the history pool.
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
