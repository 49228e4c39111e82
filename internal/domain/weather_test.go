package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weatherLine lays out one hourly observation with the read fields at
// positions 0, 3, 4, 5 and 8.
func weatherLine(date, tavg, snow, prcp, wspd string) string {
	return strings.Join([]string{date, "0", "1.0", tavg, snow, prcp, "180", "7", wspd, "1015.2", "2"}, ",")
}

func weatherCSV(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestShapeWeather(t *testing.T) {
	t.Run("averages per month and rounds", func(t *testing.T) {
		raw := weatherCSV(
			weatherLine("2012-01-01", "1", "0", "0.3", "10"),
			weatherLine("2012-01-02", "2", "0", "0", "11"),
			weatherLine("2012-01-03", "2", "1", "0", "11"),
			weatherLine("2012-02-01", "-1", "0", "0.125", "3.333"),
		)

		got, err := ShapeWeather(raw, 2012)
		require.NoError(t, err)

		assert.Equal(t, []WeatherRecord{
			{Month: Jan, Tavg: 1.67, Snow: 0.33, Prcp: 0.1, Wspd: 10.67},
			{Month: Feb, Tavg: -1, Snow: 0, Prcp: 0.12, Wspd: 3.33},
		}, got)
	})

	t.Run("drops rows with a missing field", func(t *testing.T) {
		raw := weatherCSV(
			weatherLine("2012-03-01", "10", "0", "0", "5"),
			weatherLine("2012-03-02", "", "0", "0", "5"),
			weatherLine("2012-03-03", "20", "0", "", "5"),
			weatherLine("2012-04-01", "12", "", "0", "5"),
		)

		got, err := ShapeWeather(raw, 2012)
		require.NoError(t, err)
		assert.Equal(t, []WeatherRecord{{Month: Mar, Tavg: 10, Wspd: 5}}, got)
	})

	t.Run("filters to target year", func(t *testing.T) {
		raw := weatherCSV(
			weatherLine("2011-12-31", "50", "0", "0", "5"),
			weatherLine("2012-12-31", "1", "0", "0", "5"),
			weatherLine("2013-01-01", "50", "0", "0", "5"),
		)

		got, err := ShapeWeather(raw, 2012)
		require.NoError(t, err)
		assert.Equal(t, []WeatherRecord{{Month: Dec, Tavg: 1, Wspd: 5}}, got)
	})

	t.Run("one row per day of the year", func(t *testing.T) {
		var lines []string
		for m := 1; m <= 12; m++ {
			for d := 1; d <= 28; d++ {
				lines = append(lines, weatherLine(fmt.Sprintf("2012-%02d-%02d", m, d), fmt.Sprint(d), "0", "0.1", "7"))
			}
		}

		got, err := ShapeWeather(weatherCSV(lines...), 2012)
		require.NoError(t, err)
		require.Len(t, got, 12)
		for i, r := range got {
			assert.Equal(t, CanonicalMonths[i], r.Month)
			assert.Equal(t, 14.5, r.Tavg)
			assert.Equal(t, 0.1, r.Prcp)
			assert.Equal(t, r.Tavg, round2(r.Tavg))
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		raw := weatherCSV(weatherLine("2012-05-05", "17.2", "0", "1.1", "9.9"))
		first, err := ShapeWeather(raw, 2012)
		require.NoError(t, err)
		second, err := ShapeWeather(raw, 2012)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestShapeWeatherErrors(t *testing.T) {
	t.Run("too few columns", func(t *testing.T) {
		_, err := ShapeWeather([]byte("2012-01-01,1,2\n"), 2012)
		require.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("non-numeric field", func(t *testing.T) {
		_, err := ShapeWeather(weatherCSV(weatherLine("2012-01-01", "warm", "0", "0", "5")), 2012)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse number")
	})

	t.Run("unparseable date", func(t *testing.T) {
		_, err := ShapeWeather(weatherCSV(weatherLine("yesterday", "1", "0", "0", "5")), 2012)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse date")
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.234))
	assert.Equal(t, 1.24, round2(1.235000001))
	assert.Equal(t, -0.33, round2(-1.0/3))
	assert.Equal(t, 2.0, round2(1.999))
}

func TestRound2TiesToEven(t *testing.T) {
	assert.Equal(t, 0.12, round2(0.125))
	assert.Equal(t, 0.38, round2(0.375))
	assert.Equal(t, -0.12, round2(-0.125))
	assert.Equal(t, 2.5, round2(2.5))
}

func TestShapeWeatherHalfwayMeanRoundsToEven(t *testing.T) {
	raw := weatherCSV(
		weatherLine("2012-05-01", "0.25", "0", "0", "5"),
		weatherLine("2012-05-02", "0", "0", "0", "5"),
	)

	got, err := ShapeWeather(raw, 2012)
	require.NoError(t, err)
	assert.Equal(t, []WeatherRecord{{Month: May, Tavg: 0.12, Wspd: 5}}, got)
}
