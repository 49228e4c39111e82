package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

// parquetRow is the on-disk layout of an enriched month.
type parquetRow struct {
	Month    string  `parquet:"name=month, type=BYTE_ARRAY, convertedtype=UTF8"`
	Traffics int64   `parquet:"name=traffics, type=INT64"`
	Tavg     float64 `parquet:"name=tavg, type=DOUBLE"`
	Snow     float64 `parquet:"name=snow, type=DOUBLE"`
	Prcp     float64 `parquet:"name=prcp, type=DOUBLE"`
	Wspd     float64 `parquet:"name=wspd, type=DOUBLE"`
	Season   string  `parquet:"name=season, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toParquetRow(r domain.EnrichedRecord) parquetRow {
	return parquetRow{
		Month:    string(r.Month),
		Traffics: r.Traffics,
		Tavg:     r.Tavg,
		Snow:     r.Snow,
		Prcp:     r.Prcp,
		Wspd:     r.Wspd,
		Season:   string(r.Season),
	}
}

// ParquetSink writes the enriched table to a local Parquet file and optionally
// publishes it to S3.
type ParquetSink struct {
	path      string
	publisher *S3Publisher
	logger    *slog.Logger
}

// NewParquetSink creates a sink writing to path. publisher may be nil.
func NewParquetSink(path string, publisher *S3Publisher, logger *slog.Logger) *ParquetSink {
	return &ParquetSink{path: path, publisher: publisher, logger: logger}
}

func (s *ParquetSink) Name() string { return "parquet" }

func (s *ParquetSink) Deliver(ctx context.Context, rows []domain.EnrichedRecord) error {
	if err := writeFileAtomic(s.path, func(tmp string) error {
		return writeParquet(tmp, rows)
	}); err != nil {
		return fmt.Errorf("write parquet export: %w", err)
	}
	s.logger.Info("parquet export written", "path", s.path, "rows", len(rows))

	if s.publisher != nil {
		return s.publisher.Publish(ctx, s.path, "application/vnd.apache.parquet", len(rows))
	}
	return nil
}

func writeParquet(path string, rows []domain.EnrichedRecord) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create local file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		fw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(toParquetRow(rows[i])); err != nil {
			fw.Close() //nolint:errcheck // already failing
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return fw.Close()
}
