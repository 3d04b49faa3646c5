package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/dssat-eval-service/internal/adapter/dssatfs"
	httpadapter "github.com/couchcryptid/dssat-eval-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/dssat-eval-service/internal/adapter/kafka"
	"github.com/couchcryptid/dssat-eval-service/internal/config"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
	"github.com/couchcryptid/dssat-eval-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog := dssatfs.NewCatalog(cfg.DSSATBase, logger)
	if err := catalog.CheckInstallation(cfg.Executable); err != nil {
		logger.Warn("DSSAT installation incomplete", "base", cfg.DSSATBase, "error", err)
	}
	store := dssatfs.NewStore(cfg.ParseOptions(), cfg.ParseCacheSize, logger, metrics)
	codes := dssatfs.NewCodeDictionary(cfg.DataCDE, logger, metrics)
	evaluator := pipeline.NewEvaluator(catalog, store, codes, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, evaluator, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, catalog, evaluator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Reload DATA.CDE when it changes on disk (feature-flagged via DSSAT_CODE_WATCH).
	if cfg.WatchCodes {
		go func() {
			if err := dssatfs.WatchFile(ctx, cfg.DataCDE, codes, logger); err != nil {
				logger.Error("code dictionary watcher error", "error", err)
			}
		}()
	}

	// Start evaluation pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
