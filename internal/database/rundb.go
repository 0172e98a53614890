package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/zomer-g/hesdermutne/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "hesdermutne.db"

var (
	// ErrRunNotFound is returned when no stored run matches an ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix matches more than one run")
)

// RunDB stores finished runs and their records in SQLite.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages INTEGER NOT NULL,
		records INTEGER NOT NULL,
		missing INTEGER NOT NULL DEFAULT 0,
		stop_reason TEXT NOT NULL,
		pages_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per record, in collection order (seq).
	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		page INTEGER NOT NULL,
		case_number TEXT NOT NULL,
		branch TEXT,
		date TEXT,
		hebrew_date TEXT,
		description TEXT,
		legislation TEXT,
		conditions TEXT,
		reasoning TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_records_case ON records(case_number);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunMetadata summarizes a stored run without its records.
type RunMetadata struct {
	ID         string
	BaseURL    string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Records    int
	Missing    int
	StopReason model.StopReason
}

// Duration returns how long the run took.
func (m RunMetadata) Duration() time.Duration {
	if m.StartedAt.IsZero() || m.FinishedAt.IsZero() {
		return 0
	}
	return m.FinishedAt.Sub(m.StartedAt)
}

// SaveRun stores the run and all of its records in one transaction.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run) (err error) {
	pagesJSON, err := json.Marshal(run.Pages)
	if err != nil {
		return fmt.Errorf("failed to serialize pages: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, base_url, started_at, finished_at, pages, records, missing, stop_reason, pages_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.BaseURL,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		len(run.Pages),
		len(run.Records),
		run.MissingCaseNumbers(),
		string(run.StopReason),
		string(pagesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (run_id, seq, page, case_number, branch, date, hebrew_date,
		description, legislation, conditions, reasoning)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	pageOf := recordPages(run)
	for i, rec := range run.Records {
		args := make([]any, 0, 11)
		args = append(args, run.ID, i, pageOf(i))
		for _, v := range rec.Values() {
			args = append(args, v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// recordPages maps a record position to the index of the page that
// produced it, using the per-page record counts.
func recordPages(run *model.Run) func(i int) int {
	bounds := make([]int, 0, len(run.Pages))
	indexes := make([]int, 0, len(run.Pages))
	total := 0
	for _, p := range run.Pages {
		total += p.Records
		bounds = append(bounds, total)
		indexes = append(indexes, p.Index)
	}
	return func(i int) int {
		for j, b := range bounds {
			if i < b {
				return indexes[j]
			}
		}
		return 0
	}
}

// ListRuns returns the most recent runs first. A limit of 0 returns all.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, base_url, started_at, finished_at, pages, records, missing, stop_reason
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		meta, err := scanRunMetadata(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunMetadata(row rowScanner) (RunMetadata, error) {
	var meta RunMetadata
	var started, finished, reason string
	if err := row.Scan(
		&meta.ID,
		&meta.BaseURL,
		&started,
		&finished,
		&meta.Pages,
		&meta.Records,
		&meta.Missing,
		&reason,
	); err != nil {
		return RunMetadata{}, fmt.Errorf("failed to scan run: %w", err)
	}
	meta.StartedAt = parseTimestamp(started)
	meta.FinishedAt = parseTimestamp(finished)
	meta.StopReason = model.StopReason(reason)
	return meta, nil
}

// GetRun loads a stored run with its page summaries and records.
// It returns ErrRunNotFound when no run has the given ID.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := rdb.db.QueryRowContext(ctx, `
	SELECT id, base_url, started_at, finished_at, pages, records, missing, stop_reason, pages_json
	FROM runs
	WHERE id = ?
	`, id)

	var meta RunMetadata
	var started, finished, reason string
	var pagesJSON sql.NullString
	err := row.Scan(
		&meta.ID,
		&meta.BaseURL,
		&started,
		&finished,
		&meta.Pages,
		&meta.Records,
		&meta.Missing,
		&reason,
		&pagesJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run := model.NewRun(meta.ID, meta.BaseURL)
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	run.StopReason = model.StopReason(reason)

	if pagesJSON.Valid && pagesJSON.String != "" {
		if err := json.Unmarshal([]byte(pagesJSON.String), &run.Pages); err != nil {
			return nil, fmt.Errorf("failed to parse pages: %w", err)
		}
	}

	records, err := rdb.GetRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Records = records
	return run, nil
}

// GetRecords returns the records of a run in collection order.
func (rdb *RunDB) GetRecords(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT case_number, branch, date, hebrew_date, description, legislation, conditions, reasoning
	FROM records
	WHERE run_id = ?
	ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	fields := model.Fields()
	records := make([]model.Record, 0)
	for rows.Next() {
		values := make([]sql.NullString, len(fields))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec := model.NewRecord()
		for i, f := range fields {
			rec.Set(f, values[i].String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestRunIDs returns the IDs of the n most recent runs, newest first.
func (rdb *RunDB) LatestRunIDs(ctx context.Context, n int) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id FROM runs
	ORDER BY started_at DESC
	LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list run IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResolveRunID expands a unique run ID prefix to the full ID.
func (rdb *RunDB) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}

	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id FROM runs
	WHERE substr(id, 1, ?) = ?
	LIMIT 2
	`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve run ID: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRunID, prefix)
	}
}

// timestampLayout is RFC 3339 with a fixed-width fraction, so stored
// values sort chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp stores times as UTC text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
