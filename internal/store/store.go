package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

// WriteMode controls what Persist does with rows already in the table.
type WriteMode string

const (
	// Replace deletes the table's rows in the same transaction before inserting.
	Replace WriteMode = "replace"
	// Append keeps existing rows, so repeated runs accumulate duplicates.
	Append WriteMode = "append"
)

// ParseWriteMode validates a WRITE_MODE value.
func ParseWriteMode(s string) (WriteMode, error) {
	switch m := WriteMode(s); m {
	case Replace, Append:
		return m, nil
	default:
		return "", fmt.Errorf("parse write mode: %q is not replace or append", s)
	}
}

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

// Run is one recorded Persist call.
type Run struct {
	ID       int64     `db:"id"`
	Dataset  string    `db:"dataset"`
	Rows     int       `db:"row_count"`
	Mode     WriteMode `db:"mode"`
	LoadedAt string    `db:"loaded_at"`
}

// Store persists monthly tables into a single SQLite file. The file is opened
// and closed within each call; there is no long-lived connection.
type Store struct {
	path   string
	mode   WriteMode
	logger *slog.Logger
}

// New creates a Store for the SQLite file at path.
func New(path string, mode WriteMode, logger *slog.Logger) *Store {
	return &Store{path: path, mode: mode, logger: logger}
}

// Mode returns the configured write policy.
func (s *Store) Mode() WriteMode { return s.mode }

func (s *Store) open(ctx context.Context) (*sqlx.DB, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// Persist writes records into table, creating it if absent. All statements
// run in one transaction with a single commit.
func (s *Store) Persist(ctx context.Context, table string, records []domain.MonthlyRecord) (err error) {
	t, err := Lookup(table)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("persist %s: %w", table, err)
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist %s: begin: %w", table, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck // original error wins
		}
	}()

	for _, ddl := range []string{t.createSQL(), loadRuns.createSQL()} {
		if _, err = tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("persist %s: create table: %w", table, err)
		}
	}

	if s.mode == Replace {
		if _, err = tx.ExecContext(ctx, t.deleteSQL()); err != nil {
			return fmt.Errorf("persist %s: clear table: %w", table, err)
		}
	}

	insert := t.insertSQL()
	for i, rec := range records {
		if _, err = tx.NamedExecContext(ctx, insert, rec); err != nil {
			return fmt.Errorf("persist %s: insert row %d: %w", table, i, err)
		}
	}

	run := Run{Dataset: table, Rows: len(records), Mode: s.mode, LoadedAt: domain.Now().Format(time.RFC3339)}
	if _, err = tx.NamedExecContext(ctx, loadRuns.insertSQL(), run); err != nil {
		return fmt.Errorf("persist %s: record run: %w", table, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("persist %s: commit: %w", table, err)
	}

	s.logger.Info("table persisted", "table", table, "rows", len(records), "mode", s.mode)
	return nil
}

// LoadTraffic reads the traffic table in insertion order.
func (s *Store) LoadTraffic(ctx context.Context) ([]domain.TrafficRecord, error) {
	var rows []domain.TrafficRecord
	if err := s.selectAll(ctx, Registry[TrafficTable], &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadWeather reads the weather table in insertion order.
func (s *Store) LoadWeather(ctx context.Context) ([]domain.WeatherRecord, error) {
	var rows []domain.WeatherRecord
	if err := s.selectAll(ctx, Registry[WeatherTable], &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadRuns returns the load history, oldest first.
func (s *Store) LoadRuns(ctx context.Context) ([]Run, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	defer db.Close()

	var runs []Run
	q := fmt.Sprintf("SELECT id, %s FROM %s ORDER BY id", strings.Join(loadRuns.columnNames(), ", "), loadRuns.Name)
	if err := db.SelectContext(ctx, &runs, q); err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	return runs, nil
}

func (s *Store) selectAll(ctx context.Context, t Table, dest any) error {
	db, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", t.Name, err)
	}
	defer db.Close()

	if err := db.SelectContext(ctx, dest, t.selectSQL()); err != nil {
		return fmt.Errorf("load %s: %w", t.Name, err)
	}
	return nil
}

// Schema returns PRAGMA table_info for a registered table, or for the load
// history table. An existing but empty result means the table was never created.
func (s *Store) Schema(ctx context.Context, table string) ([]ColumnInfo, error) {
	t := loadRuns
	if table != runsTable {
		var err error
		if t, err = Lookup(table); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", table, err)
	}
	defer db.Close()

	var cols []ColumnInfo
	if err := db.SelectContext(ctx, &cols, fmt.Sprintf("PRAGMA table_info(%s)", t.Name)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", table, err)
	}
	return cols, nil
}

// Tables lists the tables present in the file.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer db.Close()

	var names []string
	if err := db.SelectContext(ctx, &names,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// CheckReadiness reports whether the store file can be opened.
func (s *Store) CheckReadiness(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	return db.Close()
}
