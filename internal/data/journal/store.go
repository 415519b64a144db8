// Package journal records conversion runs in a SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"esmigrate/internal/core/ports"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one row of the runs table.
type Run struct {
	ID          string    `yaml:"id"`
	LibraryRoot string    `yaml:"library_root"`
	DryRun      bool      `yaml:"dry_run"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
	Status      string    `yaml:"status"`
	Converted   int       `yaml:"converted"`
	Skipped     int       `yaml:"skipped"`
	Merged      int       `yaml:"merged"`
	Error       string    `yaml:"error,omitempty"`
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

var _ ports.RunJournal = (*Store)(nil)

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("journal path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("journal path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite journal %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// BeginRun inserts a running row and returns its id.
func (s *Store) BeginRun(ctx context.Context, info ports.RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now().UTC()
	}
	id := uuid.NewString()
	err := s.withRetry("begin run", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (run_id, library_root, dry_run, started_at_utc) VALUES (?, ?, ?, ?)`,
			id, info.LibraryRoot, boolToInt(info.DryRun), info.StartedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RecordFile(ctx context.Context, runID string, rec ports.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
INSERT INTO file_results (
  run_id, path, style, status, export_count, import_count, class_count, duration_ms, message
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO UPDATE SET
  style=excluded.style,
  status=excluded.status,
  export_count=excluded.export_count,
  import_count=excluded.import_count,
  class_count=excluded.class_count,
  duration_ms=excluded.duration_ms,
  message=excluded.message
`
	return s.withRetry("record file", func() error {
		_, err := s.db.ExecContext(ctx, query,
			runID, rec.Path, rec.Style, rec.Status,
			rec.Exports, rec.Imports, rec.Classes,
			rec.Duration.Milliseconds(), rec.Message,
		)
		return err
	})
}

func (s *Store) FinishRun(ctx context.Context, runID string, summary ports.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary.FinishedAt.IsZero() {
		summary.FinishedAt = time.Now().UTC()
	}
	if summary.Status == "" {
		summary.Status = "ok"
	}
	return s.withRetry("finish run", func() error {
		res, err := s.db.ExecContext(ctx, `
UPDATE runs SET finished_at_utc = ?, status = ?, converted_count = ?, skipped_count = ?,
  merged_count = ?, error = ?
WHERE run_id = ?`,
			summary.FinishedAt.UTC().Format(time.RFC3339Nano), summary.Status,
			summary.Converted, summary.Skipped, summary.Merged, summary.Error, runID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

// RecentRuns returns at most limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT run_id, library_root, dry_run, started_at_utc, finished_at_utc, status,
  converted_count, skipped_count, merged_count, error
FROM runs ORDER BY started_at_utc DESC, run_id ASC LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run         Run
			dryRun      int
			startedRaw  string
			finishedRaw string
		)
		if err := rows.Scan(&run.ID, &run.LibraryRoot, &dryRun, &startedRaw, &finishedRaw, &run.Status,
			&run.Converted, &run.Skipped, &run.Merged, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.DryRun = dryRun != 0
		started, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.StartedAt = started.UTC()
		if finishedRaw != "" {
			finished, err := time.Parse(time.RFC3339Nano, finishedRaw)
			if err != nil {
				return nil, fmt.Errorf("parse run timestamp %q: %w", finishedRaw, err)
			}
			run.FinishedAt = finished.UTC()
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// FileResults returns the recorded files of one run ordered by path.
func (s *Store) FileResults(ctx context.Context, runID string) ([]ports.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load file results", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT path, style, status, export_count, import_count, class_count, duration_ms, message
FROM file_results WHERE run_id = ? ORDER BY path ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.FileRecord, 0)
	for rows.Next() {
		var (
			rec ports.FileRecord
			ms  int64
		)
		if err := rows.Scan(&rec.Path, &rec.Style, &rec.Status, &rec.Exports, &rec.Imports, &rec.Classes, &ms, &rec.Message); err != nil {
			return nil, fmt.Errorf("scan file result row: %w", err)
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file result rows: %w", err)
	}
	return out, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
