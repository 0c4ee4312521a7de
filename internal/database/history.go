package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/urlport/urlport/internal/model"
)

// ErrNoRuns is returned when a latest-run lookup finds no recorded
// migration for the requested project.
var ErrNoRuns = errors.New("no recorded migration runs for this project")

// HistoryDB stores one row per completed migration run.
//
// Design decision: We use a single shared database in the XDG data
// directory rather than a per-project file because the manifest path
// column already scopes rows to their project, and one file keeps the
// `history` command trivial.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended; the CLI and
	// a GUI front end may record runs against the same database.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true, EnableWAL: true}
}

// RunRecord is one row of migration history.
type RunRecord struct {
	RunID             string
	CreatedAt         time.Time
	Root              string
	ReplacementFormat string
	ChangesApplied    int
	FilesModified     int
	ManifestPath      string
	ReportPath        string
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "urlport.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// modernc.org/sqlite uses mode=rw to forbid creating new files
	// and mode=rwc to allow it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	const schema = `
CREATE TABLE IF NOT EXISTS migration_runs (
    run_id             TEXT PRIMARY KEY,
    created_at         TEXT NOT NULL,
    root               TEXT NOT NULL,
    replacement_format TEXT NOT NULL,
    changes_applied    INTEGER NOT NULL,
    files_modified     INTEGER NOT NULL,
    manifest_path      TEXT NOT NULL,
    report_path        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_root ON migration_runs(root, created_at);
`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun records a completed migration run.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.MigrationReport, reportPath string) error {
	_, err := h.db.ExecContext(ctx, `
INSERT INTO migration_runs
    (run_id, created_at, root, replacement_format, changes_applied, files_modified, manifest_path, report_path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.Root,
		report.ReplacementFormat,
		report.AppliedCount(),
		report.FilesModified(),
		report.BackupManifestPath,
		reportPath,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", report.RunID, err)
	}
	return nil
}

// ListRuns returns run history, newest first, optionally filtered to
// one project root (empty root lists everything).
func (h *HistoryDB) ListRuns(ctx context.Context, root string) ([]RunRecord, error) {
	query := `
SELECT run_id, created_at, root, replacement_format, changes_applied, files_modified, manifest_path, report_path
FROM migration_runs`
	args := []any{}
	if root != "" {
		query += " WHERE root = ?"
		args = append(args, root)
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var created string
		if err := rows.Scan(&r.RunID, &created, &r.Root, &r.ReplacementFormat,
			&r.ChangesApplied, &r.FilesModified, &r.ManifestPath, &r.ReportPath); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestRun returns the most recent run for a project root, or
// ErrNoRuns when the project has never been migrated.
func (h *HistoryDB) LatestRun(ctx context.Context, root string) (*RunRecord, error) {
	records, err := h.ListRuns(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRuns
	}
	return &records[0], nil
}
