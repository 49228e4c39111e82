package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/observability"
)

// Retriever downloads a dataset, optionally gunzipping it.
type Retriever interface {
	Retrieve(ctx context.Context, url string, compressed bool) (domain.RawDataset, error)
}

// Store persists monthly tables and reads them back for the join.
type Store interface {
	Persist(ctx context.Context, table string, records []domain.MonthlyRecord) error
	LoadTraffic(ctx context.Context) ([]domain.TrafficRecord, error)
	LoadWeather(ctx context.Context) ([]domain.WeatherRecord, error)
}

// Sink receives the enriched table after both datasets are persisted.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, rows []domain.EnrichedRecord) error
}

// Pipeline runs each dataset through retrieve, shape and persist in order,
// then hands the joined table to the configured sinks.
type Pipeline struct {
	retriever Retriever
	store     Store
	datasets  []DatasetSpec
	seasons   domain.SeasonMapping
	sinks     []Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(r Retriever, s Store, datasets []DatasetSpec, seasons domain.SeasonMapping, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		retriever: r,
		store:     s,
		datasets:  datasets,
		seasons:   seasons,
		logger:    logger,
		metrics:   metrics,
	}
}

// AddSink registers a consumer of the enriched table.
func (p *Pipeline) AddSink(s Sink) {
	p.sinks = append(p.sinks, s)
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run processes every dataset in order and stops at the first failure.
// Datasets persisted before the failure stay committed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline run started", "datasets", len(p.datasets), "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := time.Now()

	for _, ds := range p.datasets {
		if err := ds.validate(); err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}
		if err := p.runDataset(ctx, ds); err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}
	}

	if len(p.sinks) > 0 {
		if err := p.deliver(ctx); err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	p.ready.Store(true)
	p.logger.Info("pipeline run complete", "duration", time.Since(start))
	return nil
}

func (p *Pipeline) runDataset(ctx context.Context, ds DatasetSpec) error {
	log := p.logger.With("dataset", ds.Name)

	stageStart := time.Now()
	raw, err := p.retriever.Retrieve(ctx, ds.URL, ds.Compressed)
	if err != nil {
		return p.fail(ds, "retrieve", err)
	}
	p.observe(ds, "retrieve", stageStart)
	p.metrics.BytesRetrieved.WithLabelValues(ds.Name).Add(float64(len(raw.Data)))

	stageStart = time.Now()
	records, err := ds.Shape(raw)
	if err != nil {
		return p.fail(ds, "shape", err)
	}
	p.observe(ds, "shape", stageStart)
	p.metrics.RecordsShaped.WithLabelValues(ds.Name).Set(float64(len(records)))
	log.Info("dataset shaped", "rows", len(records))

	stageStart = time.Now()
	if err := p.store.Persist(ctx, ds.Table, records); err != nil {
		return p.fail(ds, "persist", err)
	}
	p.observe(ds, "persist", stageStart)
	p.metrics.RecordsStored.WithLabelValues(ds.Name).Add(float64(len(records)))
	log.Info("dataset stored", "table", ds.Table, "rows", len(records))
	return nil
}

func (p *Pipeline) fail(ds DatasetSpec, stage string, err error) error {
	p.metrics.RunFailures.WithLabelValues(stage).Inc()
	p.logger.Error("dataset failed", "dataset", ds.Name, "stage", stage, "error", err)
	return fmt.Errorf("%s: %s: %w", ds.Name, stage, err)
}

func (p *Pipeline) observe(ds DatasetSpec, stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(ds.Name, stage).Observe(time.Since(start).Seconds())
}

// Enrich reloads both stored tables and joins them by month.
func (p *Pipeline) Enrich(ctx context.Context) ([]domain.EnrichedRecord, error) {
	traffic, err := p.store.LoadTraffic(ctx)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	weather, err := p.store.LoadWeather(ctx)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	return domain.Enrich(traffic, weather, p.seasons)
}

// deliver hands the enriched table to every sink. A failing sink does not stop
// the others; their errors are joined.
func (p *Pipeline) deliver(ctx context.Context) error {
	rows, err := p.Enrich(ctx)
	if err != nil {
		p.metrics.RunFailures.WithLabelValues("enrich").Inc()
		return err
	}

	var errs []error
	for _, s := range p.sinks {
		if err := s.Deliver(ctx, rows); err != nil {
			p.metrics.SinkDeliveries.WithLabelValues(s.Name(), "error").Inc()
			p.logger.Error("sink delivery failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			continue
		}
		p.metrics.SinkDeliveries.WithLabelValues(s.Name(), "success").Inc()
		p.logger.Info("enriched table delivered", "sink", s.Name(), "rows", len(rows))
	}
	if len(errs) > 0 {
		p.metrics.RunFailures.WithLabelValues("sink").Inc()
		return errors.Join(errs...)
	}
	return nil
}
