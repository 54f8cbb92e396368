package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// dbFileName is the history database file inside the data directory.
const dbFileName = "a11yscan.db"

// HistoryDB stores one row per completed run, with the full site
// report as JSON. It manages connection pooling and provides the
// queries behind the history command.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
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

// Open opens or creates the history database under dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents file
	// creation, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per completed run; the full site report rides as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		started_at TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		site_average REAL NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is one row of the history listing.
type RunSummary struct {
	// ID is the run's identifier.
	ID string

	// Host is the audited site.
	Host string

	// StartedAt is the run's start time.
	StartedAt time.Time

	// PageCount is the number of pages in the report.
	PageCount int

	// SiteAverage is the site-wide average score.
	SiteAverage float64
}

// SaveRun records a completed run and its site report.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.Run, report *model.SiteReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize site report: %w", err)
	}

	query := `
	INSERT INTO runs (id, host, started_at, page_count, site_average, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = hdb.db.ExecContext(ctx, query,
		run.ID.String(),
		report.Host,
		run.StartedAt.UTC().Format(time.RFC3339),
		report.PageCount(),
		report.SiteAverage,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListRuns returns all runs for a host, most recent first.
func (hdb *HistoryDB) ListRuns(ctx context.Context, host string) ([]RunSummary, error) {
	query := `
	SELECT id, host, started_at, page_count, site_average
	FROM runs
	WHERE host = ?
	ORDER BY started_at DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// ListHosts returns every distinct host in the database.
func (hdb *HistoryDB) ListHosts(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT DISTINCT host FROM runs ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}
	return hosts, rows.Err()
}

// LatestReports returns up to n most recent site reports for a host,
// newest first.
func (hdb *HistoryDB) LatestReports(ctx context.Context, host string, n int) ([]*model.SiteReport, error) {
	query := `
	SELECT report_json
	FROM runs
	WHERE host = ?
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, host, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.SiteReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.SiteReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to parse stored report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// scanSummary reads one RunSummary row.
func scanSummary(rows *sql.Rows) (RunSummary, error) {
	var summary RunSummary
	var startedAt string

	if err := rows.Scan(&summary.ID, &summary.Host, &startedAt,
		&summary.PageCount, &summary.SiteAverage); err != nil {
		return RunSummary{}, fmt.Errorf("failed to scan run: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	summary.StartedAt = parsed
	return summary, nil
}
