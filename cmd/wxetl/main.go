package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/wx-observation-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/wx-observation-etl/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/wx-observation-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wx-observation-etl/internal/config"
	"github.com/couchcryptid/wx-observation-etl/internal/observability"
	"github.com/couchcryptid/wx-observation-etl/internal/pipeline"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
	"github.com/couchcryptid/wx-observation-etl/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	registry := store.NewRegistry(store.Options{
		Dir:         cfg.DataDir,
		Preferences: cfg.Units,
		Retention:   cfg.Retention,
		Cache:       projection.NewCache(cfg.ProjectionCacheSize),
		Metrics:     metrics,
	}, metrics)
	maintainer := store.NewMaintainer(registry, cfg.ExportInterval, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger, metrics)
	transformer := pipeline.NewTransformer(cfg.Units, logger)

	loaders := []pipeline.NamedLoader{
		{Name: "store", Loader: registry},
		{Name: "kafka", Loader: writer},
	}

	// Optional time-series sink (enabled via INFLUX_URL / INFLUX_TOKEN).
	var sink *influx.Sink
	if cfg.InfluxEnabled() {
		sink = influx.NewSink(cfg, logger, metrics)
		loaders = append(loaders, pipeline.NamedLoader{Name: "influx", Loader: sink})
		logger.Info("influx sink enabled", "url", cfg.InfluxURL, "org", cfg.InfluxOrg, "bucket", cfg.InfluxBucket)
	} else {
		logger.Info("influx sink disabled")
	}

	p := pipeline.New(reader, transformer, pipeline.NewFanout(loaders...), logger, metrics, cfg.BatchSize)

	checks := []sharedobs.ReadinessChecker{p}
	if sink != nil {
		checks = append(checks, sink)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(checks...), registry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := maintainer.Start(); err != nil {
		logger.Error("failed to start store maintenance", "error", err)
		os.Exit(1)
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
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
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	maintainer.Stop()
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if sink != nil {
		sink.Close()
	}

	logger.Info("shutdown complete")
}
