package pipeline_test

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-weather-etl/internal/adapter/retriever"
	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/fixture"
	"github.com/couchcryptid/traffic-weather-etl/internal/pipeline"
	"github.com/couchcryptid/traffic-weather-etl/internal/store"
)

// newFixtureServer serves a synthetic 2012 traffic CSV and a gzipped weather
// CSV with one observation per day.
func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	traffic := fixture.TrafficCSV(fixture.TrafficOptions{Year: 2012, Segments: 2, DayStep: 2, Seed: 11})
	weather, err := fixture.Gzip(fixture.WeatherCSV(fixture.WeatherOptions{Year: 2012, HoursPerDay: 1, Seed: 11}))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /traffic.csv", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(traffic)) //nolint:errcheck // test server
	})
	mux.HandleFunc("GET /weather.csv.gz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/gzip")
		w.Write(weather) //nolint:errcheck // test server
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newEndToEnd(t *testing.T, srv *httptest.Server, s *store.Store) *pipeline.Pipeline {
	t.Helper()
	datasets := []pipeline.DatasetSpec{
		pipeline.TrafficDataset(srv.URL+"/traffic.csv", 2012),
		pipeline.WeatherDataset(srv.URL+"/weather.csv.gz", 2012),
	}
	client := retriever.NewClient(10*time.Second, slog.Default())
	return pipeline.New(client, s, datasets, domain.MeteorologicalSeasons(), slog.Default(), newTestMetrics())
}

func TestEndToEnd_SyntheticYear(t *testing.T) {
	srv := newFixtureServer(t)
	s := store.New(filepath.Join(t.TempDir(), "MADE.sqlite"), store.Replace, slog.Default())
	p := newEndToEnd(t, srv, s)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx))

	traffic, err := s.LoadTraffic(ctx)
	require.NoError(t, err)
	require.Len(t, traffic, 12)
	for i, r := range traffic {
		assert.Equal(t, domain.CanonicalMonths[i], r.Month)
		assert.Positive(t, r.Traffics)
	}

	weather, err := s.LoadWeather(ctx)
	require.NoError(t, err)
	require.Len(t, weather, 12)
	for i, r := range weather {
		assert.Equal(t, domain.CanonicalMonths[i], r.Month)
		for _, v := range []float64{r.Tavg, r.Snow, r.Prcp, r.Wspd} {
			assert.InDelta(t, math.Round(v*100)/100, v, 1e-9)
		}
	}

	enriched, err := p.Enrich(ctx)
	require.NoError(t, err)
	require.Len(t, enriched, 12)
	assert.Equal(t, domain.Winter, enriched[0].Season)
	assert.Equal(t, domain.Fall, enriched[9].Season)
}

func TestEndToEnd_ReplaceModeRerun(t *testing.T) {
	srv := newFixtureServer(t)
	s := store.New(filepath.Join(t.TempDir(), "MADE.sqlite"), store.Replace, slog.Default())
	p := newEndToEnd(t, srv, s)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx))
	first, err := s.LoadTraffic(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Run(ctx))
	second, err := s.LoadTraffic(ctx)
	require.NoError(t, err)

	assert.Len(t, second, 12)
	assert.Equal(t, first, second)

	weather, err := s.LoadWeather(ctx)
	require.NoError(t, err)
	assert.Len(t, weather, 12)
}

func TestEndToEnd_AppendModeRerun(t *testing.T) {
	srv := newFixtureServer(t)
	s := store.New(filepath.Join(t.TempDir(), "MADE.sqlite"), store.Append, slog.Default())
	p := newEndToEnd(t, srv, s)
	ctx := context.Background()

	require.NoError(t, p.Run(ctx))
	require.NoError(t, p.Run(ctx))

	traffic, err := s.LoadTraffic(ctx)
	require.NoError(t, err)
	assert.Len(t, traffic, 24)

	weather, err := s.LoadWeather(ctx)
	require.NoError(t, err)
	assert.Len(t, weather, 24)

	enriched, err := p.Enrich(ctx)
	require.NoError(t, err)
	assert.Len(t, enriched, 48, "each duplicated month joins pairwise")
}
