// Package journal records batch runs and per-file outcomes in a SQLite file
// so past runs can be listed and failures revisited.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/backmassage/rockola/internal/convert"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the journal was written by an incompatible version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// Store manages the journal database.
type Store struct {
	db   *sql.DB
	path string
}

// Run describes a batch at the moment it starts.
type Run struct {
	ID          string
	SourceDir   string
	DestDir     string
	EncoderMode string
	Workers     int
	DryRun      bool
	StartedAt   time.Time
}

// Totals are the three summary counts written when a run finishes.
type Totals struct {
	Total     int
	Processed int
	Omitted   int
	Errors    int
}

// RunRecord is a stored run.
type RunRecord struct {
	Run
	FinishedAt time.Time // zero when the run never finished
	Totals
}

// FileRecord is a stored per-file outcome.
type FileRecord struct {
	Source  string
	Dest    string
	Kind    string
	Label   string
	Detail  string
	Elapsed time.Duration
}

// Open creates or opens the journal at path and initializes the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Workers record concurrently; a single connection serializes writes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the journal file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: have %d, want %d (remove %s to reset)", ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// BeginRun inserts a new run row.
func (s *Store) BeginRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_dir, dest_dir, encoder_mode, workers, dry_run, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceDir, r.DestDir, r.EncoderMode, r.Workers, boolToInt(r.DryRun),
		r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcome stores one file outcome under runID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, o convert.Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, source_path, dest_path, kind, label, detail, in_bytes, out_bytes, elapsed_ms, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, o.Source, nullableString(o.Dest), o.Kind.String(), o.Label(), nullableString(o.Detail),
		o.InBytes, o.OutBytes, o.Elapsed.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun writes the final totals for runID.
func (s *Store) FinishRun(ctx context.Context, runID string, t Totals, finished time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, processed = ?, omitted = ?, errors = ? WHERE id = ?`,
		finished.UTC().Format(time.RFC3339Nano), t.Total, t.Processed, t.Omitted, t.Errors, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run: unknown run %q", runID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_dir, dest_dir, encoder_mode, workers, dry_run, started_at,
                finished_at, total, processed, omitted, errors
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			dryRun   int
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SourceDir, &r.DestDir, &r.EncoderMode, &r.Workers, &dryRun,
			&started, &finished, &r.Total, &r.Processed, &r.Omitted, &r.Errors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.DryRun = dryRun != 0
		r.StartedAt = parseTime(started)
		if finished.Valid {
			r.FinishedAt = parseTime(finished.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcomes returns the file records of runID in insertion order. When
// failedOnly is set, only Failed outcomes are returned.
func (s *Store) Outcomes(ctx context.Context, runID string, failedOnly bool) ([]FileRecord, error) {
	query := `SELECT source_path, dest_path, kind, label, detail, elapsed_ms FROM outcomes WHERE run_id = ?`
	if failedOnly {
		query += ` AND label = 'Failed'`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var (
			f            FileRecord
			dest, detail sql.NullString
			ms           int64
		)
		if err := rows.Scan(&f.Source, &dest, &f.Kind, &f.Label, &detail, &ms); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		f.Dest = dest.String
		f.Detail = detail.String
		f.Elapsed = time.Duration(ms) * time.Millisecond
		out = append(out, f)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
