package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTable is returned for a table name that is not in the Registry.
var ErrUnknownTable = errors.New("unknown table")

// Column is one typed, non-identity column of a stored table.
type Column struct {
	Name string
	Type string
}

// Table describes a stored table. Every table carries an implicit
// "id INTEGER PRIMARY KEY" identity column ahead of Columns.
type Table struct {
	Name    string
	Columns []Column
}

const (
	TrafficTable = "traffic"
	WeatherTable = "weather"
	runsTable    = "load_runs"
)

// Registry holds the schema of every table Persist accepts. Statements are
// generated only from these definitions.
var Registry = map[string]Table{
	TrafficTable: {
		Name: TrafficTable,
		Columns: []Column{
			{Name: "month", Type: "TEXT"},
			{Name: "traffics", Type: "INTEGER"},
		},
	},
	WeatherTable: {
		Name: WeatherTable,
		Columns: []Column{
			{Name: "month", Type: "TEXT"},
			{Name: "tavg", Type: "REAL"},
			{Name: "snow", Type: "REAL"},
			{Name: "prcp", Type: "REAL"},
			{Name: "wspd", Type: "REAL"},
		},
	},
}

// loadRuns records one row per Persist call.
var loadRuns = Table{
	Name: runsTable,
	Columns: []Column{
		{Name: "dataset", Type: "TEXT"},
		{Name: "row_count", Type: "INTEGER"},
		{Name: "mode", Type: "TEXT"},
		{Name: "loaded_at", Type: "TEXT"},
	},
}

// Lookup returns the registered definition of name.
func Lookup(name string) (Table, error) {
	t, ok := Registry[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

func (t Table) columnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t Table) createSQL() string {
	defs := make([]string, 0, len(t.Columns)+1)
	defs = append(defs, "id INTEGER PRIMARY KEY")
	for _, c := range t.Columns {
		defs = append(defs, c.Name+" "+c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
}

// insertSQL uses sqlx named parameters matching the records' db tags.
func (t Table) insertSQL() string {
	names := t.columnNames()
	params := make([]string, len(names))
	for i, n := range names {
		params[i] = ":" + n
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(names, ", "), strings.Join(params, ", "))
}

func (t Table) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(t.columnNames(), ", "), t.Name)
}

func (t Table) deleteSQL() string {
	return "DELETE FROM " + t.Name
}
