// Command genmock writes a synthetic traffic export and a gzipped hourly
// weather export for one year. It shapes both through the domain package and
// prints the monthly summaries so the fixtures can be checked by eye.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -year 2012 \
//	  -traffic-out data/mock/traffic_2012.csv \
//	  -weather-out data/mock/72502_2012.csv.gz
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/fixture"
)

type options struct {
	year         int
	segments     int
	dayStep      int
	hoursPerDay  int
	missingEvery int
	seed         uint64
	trafficOut   string
	weatherOut   string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var o options
	flag.IntVar(&o.year, "year", 2012, "calendar year to generate")
	flag.IntVar(&o.segments, "segments", 6, "traffic segments counted per sampled day")
	flag.IntVar(&o.dayStep, "day-step", 1, "sample every n-th day for traffic counts")
	flag.IntVar(&o.hoursPerDay, "hours-per-day", 24, "weather observations per day")
	flag.IntVar(&o.missingEvery, "missing-every", 50, "blank one field on every n-th weather observation (0 disables)")
	flag.Uint64Var(&o.seed, "seed", 1, "random seed")
	flag.StringVar(&o.trafficOut, "traffic-out", "", "output path for the traffic CSV")
	flag.StringVar(&o.weatherOut, "weather-out", "", "output path for the gzipped weather CSV")
	flag.Parse()

	if o.trafficOut == "" || o.weatherOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -traffic-out, -weather-out")
	}
	return generate(o)
}

func generate(o options) error {
	traffic := fixture.TrafficCSV(fixture.TrafficOptions{
		Year: o.year, Segments: o.segments, DayStep: o.dayStep, Seed: o.seed,
	})
	weather := fixture.WeatherCSV(fixture.WeatherOptions{
		Year: o.year, HoursPerDay: o.hoursPerDay, MissingEvery: o.missingEvery, Seed: o.seed,
	})

	trafficRows, err := domain.ShapeTraffic(traffic, o.year)
	if err != nil {
		return fmt.Errorf("shape generated traffic: %w", err)
	}
	weatherRows, err := domain.ShapeWeather(weather, o.year)
	if err != nil {
		return fmt.Errorf("shape generated weather: %w", err)
	}

	gz, err := fixture.Gzip(weather)
	if err != nil {
		return fmt.Errorf("compress weather: %w", err)
	}

	if err := writeFile(o.trafficOut, []byte(traffic)); err != nil {
		return fmt.Errorf("writing traffic fixture: %w", err)
	}
	log.Printf("wrote traffic fixture: %s (%d bytes)", o.trafficOut, len(traffic))

	if err := writeFile(o.weatherOut, gz); err != nil {
		return fmt.Errorf("writing weather fixture: %w", err)
	}
	log.Printf("wrote weather fixture: %s (%d bytes)", o.weatherOut, len(gz))

	printStats(trafficRows, weatherRows)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printStats(traffic []domain.TrafficRecord, weather []domain.WeatherRecord) {
	byMonth := make(map[domain.Month]domain.WeatherRecord, len(weather))
	for _, w := range weather {
		byMonth[w.Month] = w
	}

	fmt.Println("\n=== Generated monthly summaries ===")
	fmt.Printf("  %-5s %12s %8s %8s %8s %8s\n", "month", "traffics", "tavg", "snow", "prcp", "wspd")
	for _, t := range traffic {
		w := byMonth[t.Month]
		fmt.Printf("  %-5s %12d %8.2f %8.2f %8.2f %8.2f\n", t.Month, t.Traffics, w.Tavg, w.Snow, w.Prcp, w.Wspd)
	}
	fmt.Printf("\n  traffic months: %d, weather months: %d\n", len(traffic), len(weather))
}
