package domain

import "fmt"

// Enrich inner-joins traffic and weather on month and labels each joined row
// with its season. Months present on only one side are dropped. When a month
// repeats on either side every matching pair is emitted, in input order.
func Enrich(traffic []TrafficRecord, weather []WeatherRecord, seasons SeasonMapping) ([]EnrichedRecord, error) {
	if err := seasons.Validate(); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}

	byMonth := make(map[Month][]WeatherRecord, len(weather))
	for _, w := range weather {
		byMonth[w.Month] = append(byMonth[w.Month], w)
	}

	var out []EnrichedRecord
	for _, t := range traffic {
		for _, w := range byMonth[t.Month] {
			season, ok := seasons.Of(t.Month)
			if !ok {
				return nil, fmt.Errorf("enrich: no season for month %q", t.Month)
			}
			out = append(out, EnrichedRecord{
				Month:    t.Month,
				Traffics: t.Traffics,
				Tavg:     w.Tavg,
				Snow:     w.Snow,
				Prcp:     w.Prcp,
				Wspd:     w.Wspd,
				Season:   season,
			})
		}
	}
	sortByMonth(out)
	return out, nil
}

// FilterSeason returns the rows labelled with season. An empty season keeps
// every row.
func FilterSeason(rows []EnrichedRecord, season Season) []EnrichedRecord {
	if season == "" {
		return rows
	}
	out := make([]EnrichedRecord, 0, len(rows))
	for _, r := range rows {
		if r.Season == season {
			out = append(out, r)
		}
	}
	return out
}
