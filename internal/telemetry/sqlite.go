package telemetry

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// OpenDB opens a SQLite database, sets recommended pragmas, validates
// connectivity and applies pending migrations.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := migrateUp(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// migrateUp runs all pending embedded migrations.
func migrateUp(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// SQLiteSink appends snapshots to the snapshots table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (and migrates) the database at path.
func NewSQLiteSink(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Record(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (request_id, operation, configuration, grid_code,
			orientation, accessories, modules, total_packs, total_cost,
			duration_ms, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RequestID, snap.Operation, snap.Configuration, snap.GridCode,
		snap.Orientation, snap.Accessories, snap.Modules, snap.TotalPacks, snap.TotalCost,
		snap.DurationMs, snap.Outcome, snap.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, operation, configuration, grid_code, orientation,
			accessories, modules, total_packs, total_cost, duration_ms, outcome, created_at
		FROM snapshots
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.RequestID, &snap.Operation, &snap.Configuration, &snap.GridCode,
			&snap.Orientation, &snap.Accessories, &snap.Modules, &snap.TotalPacks, &snap.TotalCost,
			&snap.DurationMs, &snap.Outcome, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
