// Command validate performs integrity checks on a populated store file: table
// presence, schema alignment with the registry, month coverage and order,
// weather rounding, the month join, and the load history.
//
// Usage:
//
//	go run ./cmd/validate -store data/MADE.sqlite
//	go run ./cmd/validate -store data/MADE.sqlite -append -seasons extended-summer
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// snapshot is everything read from the store once, up front.
type snapshot struct {
	tables  []string
	schemas map[string][]store.ColumnInfo
	traffic []domain.TrafficRecord
	weather []domain.WeatherRecord
	runs    []store.Run
}

func main() {
	storePath := flag.String("store", "data/MADE.sqlite", "path to the SQLite store file")
	appendMode := flag.Bool("append", false, "the store was written in append mode; allow repeated months")
	seasons := flag.String("seasons", "meteorological", "season mapping preset or explicit list")
	flag.Parse()

	os.Exit(run(context.Background(), os.Stdout, *storePath, *appendMode, *seasons))
}

func run(ctx context.Context, out io.Writer, storePath string, appendMode bool, seasonSpec string) int {
	fmt.Fprintln(out, "=== Traffic/Weather Store Validation ===")
	fmt.Fprintln(out)

	if _, err := os.Stat(storePath); err != nil {
		fmt.Fprintf(out, "FATAL: store file: %v\n", err)
		return 1
	}
	seasons, err := domain.ParseSeasonMapping(seasonSpec)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	mode := store.Replace
	if appendMode {
		mode = store.Append
	}
	st := store.New(storePath, mode, slog.New(slog.NewTextHandler(io.Discard, nil)))

	snap, err := load(ctx, st)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTables(snap),
		validateSchemas(snap),
		validateMonths(snap, appendMode),
		validateValues(snap),
		validateJoin(snap, seasons),
		validateRuns(snap, appendMode),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d traffic, %d weather, %d load runs\n", len(snap.traffic), len(snap.weather), len(snap.runs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func load(ctx context.Context, st *store.Store) (*snapshot, error) {
	snap := &snapshot{schemas: make(map[string][]store.ColumnInfo)}
	var err error
	if snap.tables, err = st.Tables(ctx); err != nil {
		return nil, err
	}
	for _, name := range []string{store.TrafficTable, store.WeatherTable} {
		if snap.schemas[name], err = st.Schema(ctx, name); err != nil {
			return nil, err
		}
	}
	if has(snap.tables, store.TrafficTable) {
		if snap.traffic, err = st.LoadTraffic(ctx); err != nil {
			return nil, err
		}
	}
	if has(snap.tables, store.WeatherTable) {
		if snap.weather, err = st.LoadWeather(ctx); err != nil {
			return nil, err
		}
	}
	if has(snap.tables, "load_runs") {
		if snap.runs, err = st.LoadRuns(ctx); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func has(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// ── Phase 1: tables ──

func validateTables(s *snapshot) *phase {
	p := &phase{name: "Phase 1: Tables present"}
	for _, name := range []string{store.TrafficTable, store.WeatherTable} {
		if !has(s.tables, name) {
			p.errorf("table %s is missing", name)
		}
	}
	return p
}

// ── Phase 2: schema ──

func validateSchemas(s *snapshot) *phase {
	p := &phase{name: "Phase 2: Schema matches registry"}
	for _, name := range []string{store.TrafficTable, store.WeatherTable} {
		cols := s.schemas[name]
		if len(cols) == 0 {
			continue // reported in phase 1
		}
		t, err := store.Lookup(name)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if len(cols) != len(t.Columns)+1 {
			p.errorf("%s: %d columns, want %d", name, len(cols), len(t.Columns)+1)
			continue
		}
		if cols[0].Name != "id" || cols[0].Type != "INTEGER" || cols[0].PK != 1 {
			p.errorf("%s: first column is %s %s pk=%d, want id INTEGER pk=1", name, cols[0].Name, cols[0].Type, cols[0].PK)
		}
		for i, want := range t.Columns {
			got := cols[i+1]
			if got.Name != want.Name || got.Type != want.Type || got.PK != 0 {
				p.errorf("%s: column %d is %s %s pk=%d, want %s %s pk=0", name, i+1, got.Name, got.Type, got.PK, want.Name, want.Type)
			}
		}
	}
	return p
}

// ── Phase 3: months ──

func validateMonths(s *snapshot, appendMode bool) *phase {
	p := &phase{name: "Phase 3: Month codes and order"}
	checkMonths(p, "traffic", months(s.traffic), appendMode)
	checkMonths(p, "weather", months(s.weather), appendMode)
	return p
}

func months[T domain.MonthlyRecord](rows []T) []domain.Month {
	out := make([]domain.Month, len(rows))
	for i, r := range rows {
		out[i] = r.Key()
	}
	return out
}

// checkMonths requires valid codes in calendar order. In append mode each run
// restarts the order, so a step backwards starts a new sequence instead of
// failing.
func checkMonths(p *phase, table string, ms []domain.Month, appendMode bool) {
	seen := make(map[domain.Month]bool, len(ms))
	prev := 0
	for i, m := range ms {
		if !m.Valid() {
			p.errorf("%s row %d: %q is not a month code", table, i+1, m)
			continue
		}
		idx := m.Index()
		switch {
		case idx <= prev && appendMode:
			clear(seen)
		case idx <= prev:
			p.errorf("%s row %d: %s follows %s", table, i+1, m, domain.CanonicalMonths[prev-1])
		}
		if seen[m] {
			p.errorf("%s row %d: %s repeated within one load", table, i+1, m)
		}
		seen[m] = true
		prev = idx
	}
}

// ── Phase 4: values ──

func validateValues(s *snapshot) *phase {
	p := &phase{name: "Phase 4: Value ranges and rounding"}
	for i, t := range s.traffic {
		if t.Traffics < 0 {
			p.errorf("traffic row %d (%s): negative total %d", i+1, t.Month, t.Traffics)
		}
	}
	for i, w := range s.weather {
		for _, f := range []struct {
			name string
			v    float64
		}{{"tavg", w.Tavg}, {"snow", w.Snow}, {"prcp", w.Prcp}, {"wspd", w.Wspd}} {
			if !roundedTo2(f.v) {
				p.errorf("weather row %d (%s): %s=%v has more than 2 decimals", i+1, w.Month, f.name, f.v)
			}
		}
		if w.Snow < 0 || w.Prcp < 0 || w.Wspd < 0 {
			p.errorf("weather row %d (%s): negative snow, prcp or wspd", i+1, w.Month)
		}
	}
	return p
}

func roundedTo2(v float64) bool {
	scaled := v * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// ── Phase 5: join ──

func validateJoin(s *snapshot, seasons domain.SeasonMapping) *phase {
	p := &phase{name: "Phase 5: Month join and seasons"}
	rows, err := domain.Enrich(s.traffic, s.weather, seasons)
	if err != nil {
		p.errorf("enrich: %v", err)
		return p
	}

	trafficCount := make(map[domain.Month]int)
	for _, t := range s.traffic {
		trafficCount[t.Month]++
	}
	weatherCount := make(map[domain.Month]int)
	for _, w := range s.weather {
		weatherCount[w.Month]++
	}
	want := 0
	for m, n := range trafficCount {
		want += n * weatherCount[m]
	}
	if len(rows) != want {
		p.errorf("joined %d rows, want %d", len(rows), want)
	}
	for i, r := range rows {
		if season, _ := seasons.Of(r.Month); r.Season != season {
			p.errorf("joined row %d (%s): season %s, want %s", i+1, r.Month, r.Season, season)
		}
	}
	for m := range trafficCount {
		if weatherCount[m] == 0 {
			p.errorf("%s has traffic but no weather; it is dropped from the join", m)
		}
	}
	return p
}

// ── Phase 6: load history ──

func validateRuns(s *snapshot, appendMode bool) *phase {
	p := &phase{name: "Phase 6: Load history"}
	last := make(map[string]store.Run)
	total := make(map[string]int)
	for _, r := range s.runs {
		last[r.Dataset] = r
		total[r.Dataset] += r.Rows
	}
	for _, c := range []struct {
		table string
		rows  int
	}{{store.TrafficTable, len(s.traffic)}, {store.WeatherTable, len(s.weather)}} {
		r, ok := last[c.table]
		if !ok {
			p.errorf("%s: no load recorded", c.table)
			continue
		}
		want := r.Rows
		if appendMode {
			want = total[c.table]
		}
		if c.rows != want {
			p.errorf("%s: table holds %d rows, load history accounts for %d", c.table, c.rows, want)
		}
	}
	return p
}
