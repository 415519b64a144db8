package ports

import (
	"context"
	"time"
)

// SourceStore abstracts the source tree the converter reads and rewrites in place.
type SourceStore interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
	Remove(path string) error
	IsFile(path string) bool
	IsDir(path string) bool
	// ListFiles returns every regular file below root, sorted.
	ListFiles(root string) ([]string, error)
}

// RunInfo describes a conversion run when it starts.
type RunInfo struct {
	LibraryRoot string
	DryRun      bool
	StartedAt   time.Time
}

// FileRecord is the journaled outcome of one converted file.
type FileRecord struct {
	Path     string
	Style    string
	Status   string
	Exports  int
	Imports  int
	Classes  int
	Duration time.Duration
	Message  string
}

// RunSummary closes a run.
type RunSummary struct {
	FinishedAt time.Time
	Converted  int
	Skipped    int
	Merged     int
	Status     string
	Error      string
}

// RunJournal persists conversion runs for later inspection.
type RunJournal interface {
	BeginRun(ctx context.Context, info RunInfo) (string, error)
	RecordFile(ctx context.Context, runID string, rec FileRecord) error
	FinishRun(ctx context.Context, runID string, summary RunSummary) error
	Close() error
}
