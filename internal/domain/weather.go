package domain

import (
	"fmt"
)

// Positions of the fields read from the headerless hourly weather export.
const (
	weatherDateColumn = 0
	weatherTavgColumn = 3
	weatherSnowColumn = 4
	weatherPrcpColumn = 5
	weatherWspdColumn = 8
)

type weatherSums struct {
	tavg, snow, prcp, wspd float64
	n                      int
}

// ShapeWeather averages the hourly observations of year into one row per
// month, rounded to two decimals. Observations missing any of the five fields
// are dropped before averaging.
func ShapeWeather(raw []byte, year int) ([]WeatherRecord, error) {
	df, err := loadFrame(string(raw), false)
	if err != nil {
		return nil, fmt.Errorf("shape weather: %w", err)
	}
	if df.Ncol() <= weatherWspdColumn {
		return nil, fmt.Errorf("shape weather: %w: need %d columns, got %d",
			ErrMissingColumn, weatherWspdColumn+1, df.Ncol())
	}

	fields := df.Select([]int{
		weatherDateColumn, weatherTavgColumn, weatherSnowColumn, weatherPrcpColumn, weatherWspdColumn,
	})
	if fields.Err != nil {
		return nil, fmt.Errorf("shape weather: select columns: %w", fields.Err)
	}

	dates := newDateParser()
	sums := make(map[Month]*weatherSums)
	// Records() leads with the generated column names.
	for i, row := range fields.Records()[1:] {
		t, ok, err := dates.parse(row[0])
		if err != nil {
			return nil, fmt.Errorf("shape weather: row %d: %w", i+1, err)
		}
		if !ok || t.Year() != year {
			continue
		}
		if hasMissing(row[1:]) {
			continue
		}

		var vals [4]float64
		for j, cell := range row[1:] {
			v, err := parseNumber(cell)
			if err != nil {
				return nil, fmt.Errorf("shape weather: row %d: %w", i+1, err)
			}
			vals[j] = v
		}

		m := MonthOf(t)
		s, ok := sums[m]
		if !ok {
			s = &weatherSums{}
			sums[m] = s
		}
		s.tavg += vals[0]
		s.snow += vals[1]
		s.prcp += vals[2]
		s.wspd += vals[3]
		s.n++
	}

	out := make([]WeatherRecord, 0, len(sums))
	for _, m := range CanonicalMonths {
		s, ok := sums[m]
		if !ok {
			continue
		}
		n := float64(s.n)
		out = append(out, WeatherRecord{
			Month: m,
			Tavg:  round2(s.tavg / n),
			Snow:  round2(s.snow / n),
			Prcp:  round2(s.prcp / n),
			Wspd:  round2(s.wspd / n),
		})
	}
	return out, nil
}

func hasMissing(cells []string) bool {
	for _, c := range cells {
		if isMissing(c) {
			return true
		}
	}
	return false
}
