package pipeline

import (
	"fmt"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/store"
)

// ShapeFunc reduces a downloaded dataset to its monthly summary rows.
type ShapeFunc func(raw domain.RawDataset) ([]domain.MonthlyRecord, error)

// DatasetSpec describes one retrieve-shape-persist pass.
type DatasetSpec struct {
	Name       string
	Table      string
	URL        string
	Compressed bool
	Shape      ShapeFunc
}

// TrafficDataset sums the NYC hourly segment counts of year per month.
func TrafficDataset(url string, year int) DatasetSpec {
	return DatasetSpec{
		Name:  "traffic",
		Table: store.TrafficTable,
		URL:   url,
		Shape: func(raw domain.RawDataset) ([]domain.MonthlyRecord, error) {
			rows, err := domain.ShapeTraffic(raw.Text(), year)
			if err != nil {
				return nil, err
			}
			return domain.Records(rows), nil
		},
	}
}

// WeatherDataset averages the gzip-framed hourly weather export of year per month.
func WeatherDataset(url string, year int) DatasetSpec {
	return DatasetSpec{
		Name:       "weather",
		Table:      store.WeatherTable,
		URL:        url,
		Compressed: true,
		Shape: func(raw domain.RawDataset) ([]domain.MonthlyRecord, error) {
			rows, err := domain.ShapeWeather(raw.Data, year)
			if err != nil {
				return nil, err
			}
			return domain.Records(rows), nil
		},
	}
}

func (d DatasetSpec) validate() error {
	if d.Name == "" || d.Table == "" || d.URL == "" || d.Shape == nil {
		return fmt.Errorf("dataset %q is incomplete", d.Name)
	}
	if _, err := store.Lookup(d.Table); err != nil {
		return fmt.Errorf("dataset %q: %w", d.Name, err)
	}
	return nil
}
