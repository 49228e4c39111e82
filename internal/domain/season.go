package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Season is one of the four season labels.
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

// Valid reports whether s is one of the four season labels.
func (s Season) Valid() bool {
	switch s {
	case Winter, Spring, Summer, Fall:
		return true
	}
	return false
}

// ErrIncompleteSeasons is returned when a mapping leaves a month unassigned.
var ErrIncompleteSeasons = errors.New("season mapping is not exhaustive")

// SeasonMapping assigns every month to a season.
type SeasonMapping map[Month]Season

// MeteorologicalSeasons groups months into three-month meteorological seasons.
// It is the default mapping.
func MeteorologicalSeasons() SeasonMapping {
	return SeasonMapping{
		Dec: Winter, Jan: Winter, Feb: Winter,
		Mar: Spring, Apr: Spring, May: Spring,
		Jun: Summer, Jul: Summer, Aug: Summer,
		Sep: Fall, Oct: Fall, Nov: Fall,
	}
}

// ExtendedSummerSeasons stretches summer through October and starts winter in
// November. It has no Fall.
func ExtendedSummerSeasons() SeasonMapping {
	return SeasonMapping{
		Nov: Winter, Dec: Winter, Jan: Winter, Feb: Winter,
		Mar: Spring, Apr: Spring, May: Spring,
		Jun: Summer, Jul: Summer, Aug: Summer, Sep: Summer, Oct: Summer,
	}
}

// SeasonPresets lists the named mappings accepted by ParseSeasonMapping.
var SeasonPresets = map[string]func() SeasonMapping{
	"meteorological":  MeteorologicalSeasons,
	"extended-summer": ExtendedSummerSeasons,
}

// Validate checks that every canonical month maps to a known season.
func (m SeasonMapping) Validate() error {
	var missing []string
	for _, month := range CanonicalMonths {
		s, ok := m[month]
		if !ok {
			missing = append(missing, string(month))
			continue
		}
		if !s.Valid() {
			return fmt.Errorf("season mapping: %s maps to unknown season %q", month, s)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteSeasons, strings.Join(missing, ", "))
	}
	for month := range m {
		if !month.Valid() {
			return fmt.Errorf("season mapping: %q is not a month code", month)
		}
	}
	return nil
}

// Of returns the season of month.
func (m SeasonMapping) Of(month Month) (Season, bool) {
	s, ok := m[month]
	return s, ok
}

// ParseSeasonMapping accepts either a preset name or an explicit list such as
// "Jan=Winter,Feb=Winter,...". The result is always validated.
func ParseSeasonMapping(s string) (SeasonMapping, error) {
	s = strings.TrimSpace(s)
	if preset, ok := SeasonPresets[s]; ok {
		return preset(), nil
	}
	if !strings.Contains(s, "=") {
		return nil, fmt.Errorf("parse season mapping: unknown preset %q", s)
	}

	m := make(SeasonMapping, len(CanonicalMonths))
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("parse season mapping: malformed entry %q", pair)
		}
		month, err := ParseMonth(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("parse season mapping: %w", err)
		}
		if _, dup := m[month]; dup {
			return nil, fmt.Errorf("parse season mapping: %s assigned twice", month)
		}
		m[month] = Season(strings.TrimSpace(v))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
