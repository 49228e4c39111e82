package domain

// RawDataset is a downloaded payload. Compressed records whether it arrived
// gzip-framed; Data always holds the decompressed bytes.
type RawDataset struct {
	Data       []byte
	Compressed bool
}

// Text returns the payload as a string.
func (r RawDataset) Text() string { return string(r.Data) }

// MonthlyRecord is a single row of a per-month summary table.
type MonthlyRecord interface {
	Key() Month
}

// TrafficRecord is the total vehicle count observed in one month.
type TrafficRecord struct {
	Month    Month `db:"month" json:"month"`
	Traffics int64 `db:"traffics" json:"traffics"`
}

func (r TrafficRecord) Key() Month { return r.Month }

// WeatherRecord holds monthly means of the hourly weather observations,
// rounded to two decimal places.
type WeatherRecord struct {
	Month Month   `db:"month" json:"month"`
	Tavg  float64 `db:"tavg" json:"tavg"`
	Snow  float64 `db:"snow" json:"snow"`
	Prcp  float64 `db:"prcp" json:"prcp"`
	Wspd  float64 `db:"wspd" json:"wspd"`
}

func (r WeatherRecord) Key() Month { return r.Month }

// EnrichedRecord is a traffic row joined with the weather row of the same
// month, plus the season that month falls in.
type EnrichedRecord struct {
	Month    Month   `json:"month" csv:"month"`
	Traffics int64   `json:"traffics" csv:"traffics"`
	Tavg     float64 `json:"tavg" csv:"tavg"`
	Snow     float64 `json:"snow" csv:"snow"`
	Prcp     float64 `json:"prcp" csv:"prcp"`
	Wspd     float64 `json:"wspd" csv:"wspd"`
	Season   Season  `json:"season" csv:"season"`
}

func (r EnrichedRecord) Key() Month { return r.Month }

// Records converts a typed slice into the MonthlyRecord form accepted by the store.
func Records[T MonthlyRecord](rows []T) []MonthlyRecord {
	out := make([]MonthlyRecord, len(rows))
	for i := range rows {
		out[i] = rows[i]
	}
	return out
}
