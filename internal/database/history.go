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

	"github.com/nao1215/portalwatch/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "portalwatch.db"

// History provides SQLite-based storage for run reports.
type History struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures History behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrNotFound is returned when a database is opened read-only and does not exist.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, ErrNotFound is returned.
func Open(dbDir string, opts Options) (*History, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &History{
		db:     db,
		dbPath: dbPath,
	}

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
func (h *History) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *History) Path() string {
	return h.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (h *History) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		success INTEGER NOT NULL,
		failed_step TEXT,
		error TEXT,
		illegal_programs INTEGER DEFAULT 0,
		announcements INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_profile ON runs(profile);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished run. Saving a run with an existing ID replaces it.
func (h *History) SaveRun(ctx context.Context, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	var illegal, news int
	if report.Result != nil {
		illegal = report.Result.IllegalPrograms.Len()
		news = report.Result.Announcements.Len()
	}

	query := `
	INSERT INTO runs (id, profile, started_at, finished_at, success, failed_step, error,
		illegal_programs, announcements, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		success = excluded.success,
		failed_step = excluded.failed_step,
		error = excluded.error,
		illegal_programs = excluded.illegal_programs,
		announcements = excluded.announcements,
		report_json = excluded.report_json
	`

	_, err = h.db.ExecContext(ctx, query,
		report.ID,
		report.Profile,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Success,
		report.FailedStep,
		report.Error,
		illegal,
		news,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil without error when the run
// does not exist.
func (h *History) GetRun(ctx context.Context, id string) (*model.RunReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return decodeReport(reportJSON)
}

// LatestRuns returns up to limit runs of a profile, newest first.
// When successOnly is true failed runs are skipped.
func (h *History) LatestRuns(ctx context.Context, profile string, limit int, successOnly bool) ([]*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE profile = ? AND (? = 0 OR success = 1)
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := h.db.QueryContext(ctx, query, profile, successOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var reports []*model.RunReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		report, err := decodeReport(reportJSON)
		if err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ListProfiles returns every profile with at least one stored run.
func (h *History) ListProfiles(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT profile FROM runs ORDER BY profile`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var profile string
		if err := rows.Scan(&profile); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for listing history without loading the full report.
type RunMetadata struct {
	ID              string
	Profile         string
	StartedAt       time.Time
	FinishedAt      time.Time
	Success         bool
	FailedStep      string
	Error           string
	IllegalPrograms int
	Announcements   int
}

// ListRuns returns metadata for up to limit runs, newest first.
// An empty profile lists every profile.
func (h *History) ListRuns(ctx context.Context, profile string, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, profile, started_at, finished_at, success,
		COALESCE(failed_step, ''), COALESCE(error, ''), illegal_programs, announcements
	FROM runs
	WHERE ? = '' OR profile = ?
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := h.db.QueryContext(ctx, query, profile, profile, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started, finished string
		if err := rows.Scan(&meta.ID, &meta.Profile, &started, &finished, &meta.Success,
			&meta.FailedStep, &meta.Error, &meta.IllegalPrograms, &meta.Announcements); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.FinishedAt = parseTimestamp(finished)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// DeleteBefore removes runs that started before t and returns how many were removed.
func (h *History) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTimestamp(t))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

func decodeReport(s string) (*model.RunReport, error) {
	var report model.RunReport
	if err := json.Unmarshal([]byte(s), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// storedLayout sorts lexically in time order for UTC values.
const storedLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedLayout,
	"2006-01-02 15:04:05", // SQLite default datetime format
	time.RFC3339Nano,
	time.RFC3339,
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
