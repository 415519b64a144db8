package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	LibraryRoot string
	GoogDir     string
	JournalPath string
	MetricsFile string
}

// ResolvePaths makes every configured path absolute. Relative values are taken from base,
// normally the directory holding the config file.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return ResolvedPaths{}, err
	}

	root := ResolveRelative(abs, cfg.LibraryRoot)
	resolved := ResolvedPaths{
		LibraryRoot: root,
		GoogDir:     ResolveRelative(root, cfg.Cycles.GoogDir),
		JournalPath: ResolveRelative(abs, cfg.Journal.Path),
	}
	if cfg.Observability.MetricsFile != "" {
		resolved.MetricsFile = ResolveRelative(abs, cfg.Observability.MetricsFile)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
