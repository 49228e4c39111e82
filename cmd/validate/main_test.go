package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/store"
)

func populate(t *testing.T, mode store.WriteMode, loads int, weather []domain.WeatherRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "made.sqlite")
	st := store.New(path, mode, slog.Default())
	ctx := context.Background()

	traffic := make([]domain.TrafficRecord, 0, len(domain.CanonicalMonths))
	for i, m := range domain.CanonicalMonths {
		traffic = append(traffic, domain.TrafficRecord{Month: m, Traffics: int64(1000 * (i + 1))})
	}
	for range loads {
		require.NoError(t, st.Persist(ctx, store.TrafficTable, domain.Records(traffic)))
		require.NoError(t, st.Persist(ctx, store.WeatherTable, domain.Records(weather)))
	}
	return path
}

func fullWeather() []domain.WeatherRecord {
	rows := make([]domain.WeatherRecord, 0, len(domain.CanonicalMonths))
	for i, m := range domain.CanonicalMonths {
		rows = append(rows, domain.WeatherRecord{Month: m, Tavg: float64(i) - 2.25, Snow: 0.5, Prcp: 0.12, Wspd: 9.75})
	}
	return rows
}

func TestRun_ReplaceStorePasses(t *testing.T) {
	path := populate(t, store.Replace, 2, fullWeather())

	var out bytes.Buffer
	code := run(context.Background(), &out, path, false, "meteorological")

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "Rows: 12 traffic, 12 weather, 4 load runs")
}

func TestRun_AppendStoreNeedsAppendFlag(t *testing.T) {
	path := populate(t, store.Append, 2, fullWeather())

	var out bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), &out, path, false, "meteorological"))
	assert.Contains(t, out.String(), "Phase 3: Month codes and order")
	assert.Contains(t, out.String(), "Jan follows Dec")

	out.Reset()
	assert.Equal(t, 0, run(context.Background(), &out, path, true, "meteorological"), out.String())
}

func TestRun_UnroundedWeatherFails(t *testing.T) {
	weather := fullWeather()
	weather[3].Prcp = 0.123
	path := populate(t, store.Replace, 1, weather)

	var out bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), &out, path, false, "meteorological"))
	assert.Contains(t, out.String(), "weather row 4 (Apr): prcp=0.123 has more than 2 decimals")
}

func TestRun_MissingWeatherMonthReported(t *testing.T) {
	path := populate(t, store.Replace, 1, fullWeather()[:11])

	var out bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), &out, path, false, "meteorological"))
	assert.Contains(t, out.String(), "Dec has traffic but no weather")
}

func TestRun_MissingStoreFile(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), &out, filepath.Join(t.TempDir(), "absent.sqlite"), false, "meteorological")
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL: store file")
}

func TestCheckMonths(t *testing.T) {
	p := &phase{}
	checkMonths(p, "traffic", []domain.Month{domain.Jan, domain.Mar, domain.Feb, "Foo"}, false)
	assert.Equal(t, []string{
		"traffic row 3: Feb follows Mar",
		`traffic row 4: "Foo" is not a month code`,
	}, p.errors)
}

func TestRoundedTo2(t *testing.T) {
	assert.True(t, roundedTo2(1.67))
	assert.True(t, roundedTo2(-3))
	assert.True(t, roundedTo2(10.1))
	assert.False(t, roundedTo2(0.125))
}
