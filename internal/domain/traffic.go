package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

const (
	// TrafficDateColumn names the column holding each count's calendar date.
	TrafficDateColumn = "Date"

	// trafficFirstHour and trafficLastHour bound the 24 hourly count columns
	// (12:00-1:00 AM through 11:00-12:00 AM), inclusive. Narrower exports
	// contribute whatever positions they have in that range.
	trafficFirstHour = 7
	trafficLastHour  = 30
)

// ErrMissingColumn is returned when a dataset lacks a column the shaper needs.
var ErrMissingColumn = errors.New("missing column")

// trafficHourColumns returns the hourly positions present in a frame of ncol
// columns, skipping the date column if it falls in range.
func trafficHourColumns(ncol, dateCol int) []int {
	last := min(trafficLastHour, ncol-1)
	var cols []int
	for i := trafficFirstHour; i <= last; i++ {
		if i != dateCol {
			cols = append(cols, i)
		}
	}
	return cols
}

// ShapeTraffic sums the hourly segment counts of year into one total per
// month. Rows whose hourly columns are all empty are ignored, and months with
// no qualifying rows are absent from the result.
func ShapeTraffic(raw string, year int) ([]TrafficRecord, error) {
	if header, ok := headerOnly(raw); ok {
		if !slices.Contains(header, TrafficDateColumn) {
			return nil, fmt.Errorf("shape traffic: %w: %q", ErrMissingColumn, TrafficDateColumn)
		}
		return []TrafficRecord{}, nil
	}
	df, err := loadFrame(raw, true)
	if err != nil {
		return nil, fmt.Errorf("shape traffic: %w", err)
	}
	dateCol := slices.Index(df.Names(), TrafficDateColumn)
	if dateCol < 0 {
		return nil, fmt.Errorf("shape traffic: %w: %q", ErrMissingColumn, TrafficDateColumn)
	}
	hourCols := trafficHourColumns(df.Ncol(), dateCol)

	dates := newDateParser()
	var (
		keep   []int
		months []Month
	)
	for i, cell := range df.Col(TrafficDateColumn).Records() {
		t, ok, err := dates.parse(cell)
		if err != nil {
			return nil, fmt.Errorf("shape traffic: row %d: %w", i+1, err)
		}
		if !ok || t.Year() != year {
			continue
		}
		keep = append(keep, i)
		months = append(months, MonthOf(t))
	}
	if len(keep) == 0 || len(hourCols) == 0 {
		return []TrafficRecord{}, nil
	}

	hours := df.Subset(keep).Select(hourCols)
	if hours.Err != nil {
		return nil, fmt.Errorf("shape traffic: select hourly columns: %w", hours.Err)
	}

	totals := make(map[Month]float64)
	// Records() leads with the header row.
	for i, row := range hours.Records()[1:] {
		var (
			sum     float64
			present bool
		)
		for _, cell := range row {
			if isMissing(cell) {
				continue
			}
			v, err := parseNumber(cell)
			if err != nil {
				return nil, fmt.Errorf("shape traffic: row %d: %w", keep[i]+1, err)
			}
			sum += v
			present = true
		}
		if !present {
			continue
		}
		totals[months[i]] += sum
	}

	out := make([]TrafficRecord, 0, len(totals))
	for _, m := range CanonicalMonths {
		if total, ok := totals[m]; ok {
			out = append(out, TrafficRecord{Month: m, Traffics: int64(math.Round(total))})
		}
	}
	return out, nil
}
