package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

// WriteCSV encodes rows with a header line. An empty table still gets the header.
func WriteCSV(w io.Writer, rows []domain.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(domain.EnrichedRecord{}); err != nil {
			return fmt.Errorf("encode csv header: %w", err)
		}
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return fmt.Errorf("encode csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CSVSink writes the enriched table to a local CSV file and optionally
// publishes it to S3.
type CSVSink struct {
	path      string
	publisher *S3Publisher
	logger    *slog.Logger
}

// NewCSVSink creates a sink writing to path. publisher may be nil.
func NewCSVSink(path string, publisher *S3Publisher, logger *slog.Logger) *CSVSink {
	return &CSVSink{path: path, publisher: publisher, logger: logger}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Deliver(ctx context.Context, rows []domain.EnrichedRecord) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, func(tmp string) error {
		return writeBytes(tmp, buf.Bytes())
	}); err != nil {
		return fmt.Errorf("write csv export: %w", err)
	}
	s.logger.Info("csv export written", "path", s.path, "rows", len(rows))

	if s.publisher != nil {
		return s.publisher.Publish(ctx, s.path, "text/csv", len(rows))
	}
	return nil
}
