package domain

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// missingTokens are the cell values treated as absent when a dataset is loaded.
var missingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "<nil>"}

// loadFrame parses delimited text into a string-typed dataframe. Type detection
// is disabled so that numeric parsing errors surface from the shapers instead
// of being silently coerced to NaN.
func loadFrame(raw string, header bool) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(strings.NewReader(raw),
		dataframe.HasHeader(header),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingTokens),
	)
	if df.Err != nil {
		return df, fmt.Errorf("parse csv: %w", df.Err)
	}
	return df, nil
}

// headerOnly reports whether raw holds a header line and no data rows, and
// returns that header. gota refuses to build a frame from such input.
func headerOnly(raw string) ([]string, bool) {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) != 1 {
		return nil, false
	}
	return records[0], true
}

// isMissing reports whether a dataframe cell holds no value.
func isMissing(cell string) bool {
	cell = strings.TrimSpace(cell)
	for _, tok := range missingTokens {
		if cell == tok {
			return true
		}
	}
	return false
}

// parseNumber parses a numeric cell. Thousands separators are accepted since
// the traffic export writes counts like "1,204".
func parseNumber(cell string) (float64, error) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", cell, err)
	}
	return v, nil
}

// round2 rounds to two decimal places, ties to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// dateParser memoizes date parsing. Hourly and per-segment rows repeat the
// same date string many times.
type dateParser struct {
	seen map[string]time.Time
}

func newDateParser() *dateParser {
	return &dateParser{seen: make(map[string]time.Time)}
}

// parse interprets s in UTC. ok is false when the cell is missing.
func (p *dateParser) parse(s string) (t time.Time, ok bool, err error) {
	if isMissing(s) {
		return time.Time{}, false, nil
	}
	s = strings.TrimSpace(s)
	if t, hit := p.seen[s]; hit {
		return t, true, nil
	}
	t, err = dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse date %q: %w", s, err)
	}
	p.seen[s] = t
	return t, true, nil
}
