// Package catalog keeps a small SQLite history of pipeline runs: what
// was scanned, what was matched, where the output went. Only run
// metadata is stored; the extracted records themselves live solely in
// the JSONL output file of their run.
//
// Recording is best-effort from the caller's point of view: the CLI
// treats a catalog failure as a warning, never as a reason to fail a
// run that already produced its output.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusOK          = "ok"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Stages.
const (
	StageExtract = "extract"
	StageConvert = "convert"
)

// Run is one recorded pipeline run.
type Run struct {
	ID             string
	Stage          string
	Input          string
	Output         string
	DryRun         bool
	KeywordCount   int
	FilesScanned   int
	RecordsScanned int
	RecordsMatched int
	Status         string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Stats aggregates the catalog.
type Stats struct {
	TotalRuns      int64
	ExtractRuns    int64
	ConvertRuns    int64
	FailedRuns     int64
	RecordsMatched int64
}

// Catalog is the run-history store.
type Catalog interface {
	RecordRun(ctx context.Context, r *Run) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Config holds configuration for Open.
type Config struct {
	// DBPath is the catalog database file. ":memory:" for tests.
	DBPath string
}

// SQLiteCatalog implements Catalog on a single SQLite file.
type SQLiteCatalog struct {
	db *sql.DB
}

// Open opens (and if needed creates) the catalog database.
func Open(cfg Config) (*SQLiteCatalog, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("catalog db path is empty")
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging catalog: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	c := &SQLiteCatalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// RecordRun inserts one run. A missing ID is filled in; missing
// timestamps default to now.
func (c *SQLiteCatalog) RecordRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, stage, input, output, dry_run, keyword_count,
			files_scanned, records_scanned, records_matched,
			status, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Stage, r.Input, r.Output, boolToInt(r.DryRun), r.KeywordCount,
		r.FilesScanned, r.RecordsScanned, r.RecordsMatched,
		r.Status, r.Error, r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *SQLiteCatalog) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, stage, input, output, dry_run, keyword_count,
		       files_scanned, records_scanned, records_matched,
		       status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var (
			r                    Run
			dryRun               int
			startedAt, finishedAt string
		)
		if err := rows.Scan(
			&r.ID, &r.Stage, &r.Input, &r.Output, &dryRun, &r.KeywordCount,
			&r.FilesScanned, &r.RecordsScanned, &r.RecordsMatched,
			&r.Status, &r.Error, &startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.DryRun = dryRun != 0
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Stats aggregates run counts.
func (c *SQLiteCatalog) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN stage = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN stage = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status != ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(records_matched), 0)
		FROM runs`,
		StageExtract, StageConvert, StatusOK,
	).Scan(&s.TotalRuns, &s.ExtractRuns, &s.ConvertRuns, &s.FailedRuns, &s.RecordsMatched)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return &s, nil
}

func (c *SQLiteCatalog) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			stage           TEXT NOT NULL,
			input           TEXT NOT NULL,
			output          TEXT NOT NULL DEFAULT '',
			dry_run         INTEGER NOT NULL DEFAULT 0,
			keyword_count   INTEGER NOT NULL DEFAULT 0,
			files_scanned   INTEGER NOT NULL DEFAULT 0,
			records_scanned INTEGER NOT NULL DEFAULT 0,
			records_matched INTEGER NOT NULL DEFAULT 0,
			status          TEXT NOT NULL DEFAULT 'ok',
			error           TEXT NOT NULL DEFAULT '',
			started_at      TEXT NOT NULL,
			finished_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
