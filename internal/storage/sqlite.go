package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/soltixdb/depotcast/internal/analytics"
	"github.com/soltixdb/depotcast/internal/analytics/forecast"
)

const schema = `
CREATE TABLE IF NOT EXISTS shipments (
	warehouse_id TEXT NOT NULL,
	day          TEXT NOT NULL,
	volume       REAL NOT NULL,
	updated_at   INTEGER NOT NULL,
	PRIMARY KEY (warehouse_id, day)
);
CREATE TABLE IF NOT EXISTS forecast_runs (
	id           TEXT PRIMARY KEY,
	warehouse_id TEXT NOT NULL,
	method       TEXT NOT NULL,
	label        TEXT NOT NULL,
	ar_order     INTEGER NOT NULL,
	horizon      INTEGER NOT NULL,
	data_points  INTEGER NOT NULL,
	predictions  TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecast_runs_warehouse
	ON forecast_runs (warehouse_id, created_at DESC);
`

// Config configures the sqlite store
type Config struct {
	Path     string
	Location *time.Location // days are returned in this location, UTC when nil
}

// SQLiteStore implements Repository on a single sqlite file
type SQLiteStore struct {
	db  *sql.DB
	loc *time.Location
}

// New opens (creating if needed) the database at cfg.Path and bootstraps the schema
func New(ctx context.Context, cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: database path is empty")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer at a time; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: bootstrap schema: %w", err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &SQLiteStore{db: db, loc: loc}, nil
}

// Ping checks that the database file is still usable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertShipments writes all days in one transaction
func (s *SQLiteStore) UpsertShipments(ctx context.Context, warehouseID string, days []ShipmentDay) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shipments (warehouse_id, day, volume, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (warehouse_id, day) DO UPDATE SET volume = excluded.volume, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UnixMicro()
	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, warehouseID, formatDay(d.Date), d.Volume, now); err != nil {
			return 0, fmt.Errorf("sqlite: upsert %s: %w", formatDay(d.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return len(days), nil
}

// DailySeries returns the stored volumes of a warehouse within [from, to]
func (s *SQLiteStore) DailySeries(ctx context.Context, warehouseID string, from, to time.Time) (analytics.TimeSeriesData, error) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !from.IsZero() {
		lo = formatDay(from)
	}
	if !to.IsZero() {
		hi = formatDay(to)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, volume FROM shipments
		WHERE warehouse_id = ? AND day >= ? AND day <= ?
		ORDER BY day`, warehouseID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("sqlite: series query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	series := analytics.TimeSeriesData{}
	for rows.Next() {
		var day string
		var volume float64
		if err := rows.Scan(&day, &volume); err != nil {
			return nil, fmt.Errorf("sqlite: series scan: %w", err)
		}
		t, err := time.ParseInLocation(dayLayout, day, s.loc)
		if err != nil {
			return nil, fmt.Errorf("sqlite: bad day %q: %w", day, err)
		}
		series = append(series, analytics.TimeSeriesPoint{Time: t, Value: volume})
	}
	return series, rows.Err()
}

// SaveForecastRun stores a run; predictions are kept as JSON
func (s *SQLiteStore) SaveForecastRun(ctx context.Context, run Run) error {
	predictions, err := json.Marshal(run.Predictions)
	if err != nil {
		return fmt.Errorf("sqlite: encode predictions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forecast_runs
			(id, warehouse_id, method, label, ar_order, horizon, data_points, predictions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.WarehouseID, string(run.Method), run.Label, run.Order, run.Horizon,
		run.DataPoints, string(predictions), run.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("sqlite: save run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, warehouse_id, method, label, ar_order, horizon, data_points, predictions, created_at`

// LatestForecastRun returns the most recent run of a warehouse
func (s *SQLiteStore) LatestForecastRun(ctx context.Context, warehouseID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM forecast_runs
		WHERE warehouse_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, warehouseID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListForecastRuns returns up to limit runs, newest first
func (s *SQLiteStore) ListForecastRuns(ctx context.Context, warehouseID string, limit int) ([]Run, error) {
	if limit <= 0 {
		return []Run{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM forecast_runs
		WHERE warehouse_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, warehouseID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteWarehouse removes everything stored for a warehouse
func (s *SQLiteStore) DeleteWarehouse(ctx context.Context, warehouseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM shipments WHERE warehouse_id = ?`,
		`DELETE FROM forecast_runs WHERE warehouse_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, warehouseID); err != nil {
			return fmt.Errorf("sqlite: delete warehouse %s: %w", warehouseID, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		method      string
		predictions string
		createdAt   int64
	)
	err := row.Scan(&run.ID, &run.WarehouseID, &method, &run.Label, &run.Order,
		&run.Horizon, &run.DataPoints, &predictions, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan run: %w", err)
	}

	run.Method = forecast.Method(method)
	run.CreatedAt = time.UnixMicro(createdAt).UTC()
	if err := json.Unmarshal([]byte(predictions), &run.Predictions); err != nil {
		return nil, fmt.Errorf("sqlite: decode predictions of run %s: %w", run.ID, err)
	}
	return &run, nil
}
