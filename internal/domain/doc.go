// Package domain shapes the two public datasets behind the monthly traffic
// and weather comparison and joins them.
//
// # Traffic
//
// NYC Open Data "Traffic Volume Counts (2012-2013)", downloaded as CSV from
// https://data.cityofnewyork.us/api/views/btm5-ppia/rows.csv. Each row is one
// roadway segment and direction on one day:
//
//	ID, Segment ID, Roadway Name, From, To, Direction, Date,
//	12:00-1:00 AM, 1:00-2:00AM, ..., 11:00-12:00AM
//
// Columns 7 through 30 are the 24 hourly vehicle counts. A segment that was
// not counted on a day has all 24 cells empty and is ignored. See [ShapeTraffic].
//
// # Weather
//
// Meteostat hourly bulk export for station 72502 (Newark), downloaded gzip
// framed from https://bulk.meteostat.net/v2/hourly/72502.csv.gz. The file has
// no header row; the shaper reads positions 0, 3, 4, 5 and 8 and stores them
// as date, tavg, snow, prcp and wspd. Hours with any of those cells empty are
// dropped. See [ShapeWeather].
//
// # Months and seasons
//
// Every summary table is keyed by a three-letter [Month] and ordered by
// [CanonicalMonths], never lexically. Seasons come from a [SeasonMapping] that
// must cover all twelve months.
package domain
