package main

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

func TestGenerate_WritesShapeableFixtures(t *testing.T) {
	dir := t.TempDir()
	o := options{
		year:        2012,
		segments:    2,
		dayStep:     7,
		hoursPerDay: 2,
		seed:        42,
		trafficOut:  filepath.Join(dir, "mock", "traffic.csv"),
		weatherOut:  filepath.Join(dir, "mock", "weather.csv.gz"),
	}
	require.NoError(t, generate(o))

	traffic, err := os.ReadFile(o.trafficOut)
	require.NoError(t, err)
	trafficRows, err := domain.ShapeTraffic(string(traffic), 2012)
	require.NoError(t, err)
	assert.Len(t, trafficRows, 12)

	f, err := os.Open(o.weatherOut)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	weather, err := io.ReadAll(zr)
	require.NoError(t, err)

	weatherRows, err := domain.ShapeWeather(weather, 2012)
	require.NoError(t, err)
	assert.Len(t, weatherRows, 12)
}
