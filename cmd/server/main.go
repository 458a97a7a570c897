package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
	"github.com/JonMunkholm/ScanList/internal/config"
	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/decoder"
	"github.com/JonMunkholm/ScanList/internal/logging"
	"github.com/JonMunkholm/ScanList/internal/metrics"
	"github.com/JonMunkholm/ScanList/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"store_backend", cfg.Store.Backend,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)
	logger.Debug("configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, err := blobstore.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer blobs.Close()
	logger.Info("blob store opened", "backend", cfg.Store.Backend)

	hub := core.NewHub()
	remote := decoder.NewRemote(cfg.Session.EventBuffer)
	service := core.NewService(blobs, remote, cfg,
		core.WithHub(hub),
		core.WithLogger(logger),
	)
	defer service.Close()

	opts := []web.Option{web.WithRemote(remote), web.WithLogger(logger)}
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		m := metrics.New(hub)
		opts = append(opts, web.WithMetrics(m))
		g.Go(func() error {
			m.Watch(gctx, hub)
			return nil
		})
	}

	if service.Restore(ctx) {
		logger.Info("catalog restored", "item_count", service.CatalogStatus().ItemCount)
	} else {
		logger.Info("no stored catalog, waiting for upload")
	}

	server := web.NewServer(gctx, service, cfg, opts...)

	g.Go(server.ListenAndServe)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := service.WaitForLoads(shutdownCtx); err != nil {
			logger.Warn("catalog load did not complete in time", "error", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
