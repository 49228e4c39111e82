// Package fixture generates synthetic traffic and weather exports shaped like
// the real downloads, for tests, local runs and cmd/genmock.
package fixture

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// TrafficColumns is the header of the NYC traffic volume export. Columns 7
// through 30 hold the hourly counts.
var TrafficColumns = []string{
	"ID", "Segment ID", "Roadway Name", "From", "To", "Direction", "Date",
	"12:00-1:00 AM", "1:00-2:00AM", "2:00-3:00AM", "3:00-4:00AM", "4:00-5:00AM", "5:00-6:00AM",
	"6:00-7:00AM", "7:00-8:00AM", "8:00-9:00AM", "9:00-10:00AM", "10:00-11:00AM", "11:00-12:00PM",
	"12:00-1:00PM", "1:00-2:00PM", "2:00-3:00PM", "3:00-4:00PM", "4:00-5:00PM", "5:00-6:00PM",
	"6:00-7:00PM", "7:00-8:00PM", "8:00-9:00PM", "9:00-10:00PM", "10:00-11:00PM", "11:00-12:00AM",
}

var roadways = []struct{ name, from, to string }{
	{"BROADWAY", "W 42 ST", "W 43 ST"},
	{"ATLANTIC AVENUE", "BEDFORD AVENUE", "NOSTRAND AVENUE"},
	{"QUEENS BOULEVARD", "71 AVENUE", "CONTINENTAL AVENUE"},
	{"GRAND CONCOURSE", "E 161 ST", "E 164 ST"},
	{"HYLAN BOULEVARD", "BAY TERRACE", "GUYON AVENUE"},
}

// TrafficOptions controls TrafficCSV.
type TrafficOptions struct {
	Year     int
	Segments int
	// DayStep samples every DayStep-th day of the year. Zero means every day.
	DayStep int
	Seed    uint64
}

// TrafficCSV renders a traffic export for opts.Year. Besides the counted
// segment-days it adds, per month, one uncounted row with all hours empty,
// and a handful of rows dated the following year.
func TrafficCSV(opts TrafficOptions) string {
	if opts.Segments <= 0 {
		opts.Segments = 1
	}
	if opts.DayStep <= 0 {
		opts.DayStep = 1
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var b strings.Builder
	b.WriteString(strings.Join(TrafficColumns, ","))
	b.WriteByte('\n')

	id := 0
	row := func(seg int, day time.Time, counted bool) {
		id++
		r := roadways[seg%len(roadways)]
		dir := "NB"
		if seg%2 == 1 {
			dir = "SB"
		}
		cells := []string{
			fmt.Sprint(id), fmt.Sprint(10000 + seg), r.name, r.from, r.to, dir, day.Format("01/02/2006"),
		}
		for h := 0; h < 24; h++ {
			if !counted {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprint(hourlyVolume(rng, h)))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}

	start := time.Date(opts.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day := start; day.Year() == opts.Year; day = day.AddDate(0, 0, opts.DayStep) {
		for seg := 0; seg < opts.Segments; seg++ {
			row(seg, day, true)
		}
		if day.Day() <= opts.DayStep {
			row(0, day, false)
		}
	}
	for m := 1; m <= 3; m++ {
		row(0, time.Date(opts.Year+1, time.Month(m), 15, 0, 0, 0, 0, time.UTC), true)
	}
	return b.String()
}

// hourlyVolume follows a rough commuter curve with a morning and evening peak.
func hourlyVolume(rng *rand.Rand, hour int) int {
	base := 60.0
	base += 320 * math.Exp(-math.Pow(float64(hour)-8, 2)/6)
	base += 360 * math.Exp(-math.Pow(float64(hour)-17.5, 2)/8)
	return int(base * (0.8 + 0.4*rng.Float64()))
}

// WeatherOptions controls WeatherCSV.
type WeatherOptions struct {
	Year int
	// HoursPerDay observations are written per day, from hour 0. Zero means 24.
	HoursPerDay int
	// MissingEvery blanks a random field on every n-th observation. Zero disables.
	MissingEvery int
	Seed         uint64
}

// WeatherCSV renders a headerless hourly weather export for opts.Year with
// eleven columns per observation. Positions 0, 3, 4, 5 and 8 carry the date
// and the four averaged fields (tavg, snow, prcp, wspd); the rest are filler
// in the Meteostat style. The last day of the previous year is included so
// year filtering has something to drop.
func WeatherCSV(opts WeatherOptions) []byte {
	if opts.HoursPerDay <= 0 || opts.HoursPerDay > 24 {
		opts.HoursPerDay = 24
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xbf58476d1ce4e5b9))

	var b bytes.Buffer
	n := 0
	start := time.Date(opts.Year-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	for day := start; day.Year() <= opts.Year; day = day.AddDate(0, 0, 1) {
		season := math.Cos(2 * math.Pi * float64(day.YearDay()-15) / 365)
		for h := 0; h < opts.HoursPerDay; h++ {
			n++
			tavg := 12 - 13*season + 4*rng.NormFloat64()
			snow := 0.0
			if tavg < 1 {
				snow = math.Round(rng.Float64() * 40)
			}
			prcp := 0.0
			if rng.Float64() < 0.15 {
				prcp = rng.Float64() * 3
			}
			fields := []string{
				day.Format("2006-01-02"),
				fmt.Sprint(h),
				fmt.Sprintf("%.1f", tavg+2*rng.Float64()),
				fmt.Sprintf("%.1f", tavg),
				fmt.Sprintf("%.0f", snow),
				fmt.Sprintf("%.1f", prcp),
				fmt.Sprintf("%.0f", rng.Float64()*360),
				"",
				fmt.Sprintf("%.1f", 6+rng.Float64()*22),
				fmt.Sprintf("%.1f", 1000+rng.Float64()*30),
				fmt.Sprint(1 + rng.IntN(8)),
			}
			if opts.MissingEvery > 0 && n%opts.MissingEvery == 0 {
				fields[[]int{3, 4, 5, 8}[rng.IntN(4)]] = ""
			}
			b.WriteString(strings.Join(fields, ","))
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

// Gzip compresses data the way the weather download is framed.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip fixture: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip fixture: %w", err)
	}
	return buf.Bytes(), nil
}
