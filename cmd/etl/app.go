package main

import (
	"context"
	"fmt"
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	kafkaadapter "github.com/couchcryptid/traffic-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/traffic-weather-etl/internal/adapter/retriever"
	"github.com/couchcryptid/traffic-weather-etl/internal/config"
	"github.com/couchcryptid/traffic-weather-etl/internal/export"
	"github.com/couchcryptid/traffic-weather-etl/internal/observability"
	"github.com/couchcryptid/traffic-weather-etl/internal/pipeline"
	"github.com/couchcryptid/traffic-weather-etl/internal/store"
)

// app holds the wired pipeline and the resources that need closing.
type app struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
	closers  []func() error
	logger   *slog.Logger
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	mode, err := store.ParseWriteMode(cfg.WriteMode)
	if err != nil {
		return nil, err
	}
	st := store.New(cfg.StorePath, mode, logger)

	client := retriever.NewClient(cfg.HTTPTimeout, logger)
	var r pipeline.Retriever = client
	if cfg.CacheDir != "" {
		r = retriever.NewCachedRetriever(client, cfg.CacheDir, logger)
		logger.Info("download cache enabled", "dir", cfg.CacheDir)
	}

	datasets := []pipeline.DatasetSpec{
		pipeline.TrafficDataset(cfg.TrafficURL, cfg.TargetYear),
		pipeline.WeatherDataset(cfg.WeatherURL, cfg.TargetYear),
	}
	p := pipeline.New(r, st, datasets, cfg.SeasonMapping, logger, metrics)
	a := &app{pipeline: p, store: st, logger: logger}

	var publisher *export.S3Publisher
	if cfg.S3Bucket != "" {
		uploader, err := export.NewUploader(cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		publisher = export.NewS3Publisher(uploader, cfg.S3Bucket, cfg.S3Prefix, logger)
		logger.Info("s3 upload enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}
	if cfg.ExportCSV != "" {
		p.AddSink(export.NewCSVSink(cfg.ExportCSV, publisher, logger))
	}
	if cfg.ExportParquet != "" {
		p.AddSink(export.NewParquetSink(cfg.ExportParquet, publisher, logger))
	}
	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		p.AddSink(w)
		a.closers = append(a.closers, w.Close)
		logger.Info("kafka delivery enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	logger.Info("pipeline configured",
		"store", cfg.StorePath,
		"write_mode", mode,
		"year", cfg.TargetYear,
		"seasons", cfg.SeasonSpec,
		"sinks", cfg.SinksEnabled(),
	)
	if !cfg.SinksEnabled() {
		logger.Info("no sinks configured, enriched table is only kept in the store")
	}
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}

// readiness is ready when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("not ready: %w", err)
		}
	}
	return nil
}
