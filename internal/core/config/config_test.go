package config

import (
	"os"
	"path/filepath"
	"testing"

	"esmigrate/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
library_root = "./closure-library"

[scan]
extensions = ["js", ".MJS "]
exclude_dirs = ["third_party", " "]
exclude_files = ["*_test.js"]

[cycles]
goog_dir = "/closure/goog/"

[rewrite]
convert_classes = false

[journal]
enabled = true
path = "state/journal.db"

[observability]
metrics_file = "metrics.prom"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LibraryRoot != "./closure-library" {
		t.Errorf("unexpected library_root %q", cfg.LibraryRoot)
	}
	if len(cfg.Scan.Extensions) != 2 || cfg.Scan.Extensions[0] != ".js" || cfg.Scan.Extensions[1] != ".mjs" {
		t.Errorf("extensions not normalized: %v", cfg.Scan.Extensions)
	}
	if len(cfg.Scan.ExcludeDirs) != 1 {
		t.Errorf("blank exclude dir kept: %v", cfg.Scan.ExcludeDirs)
	}
	if len(cfg.Scan.SkipFiles) != 1 || cfg.Scan.SkipFiles[0] != "goog.js" {
		t.Errorf("default skip_files lost: %v", cfg.Scan.SkipFiles)
	}
	if cfg.Cycles.GoogDir != "closure/goog" || !cfg.Cycles.Enabled {
		t.Errorf("unexpected cycles section %+v", cfg.Cycles)
	}
	if cfg.Rewrite.ConvertClasses {
		t.Error("convert_classes should be disabled")
	}
	if !cfg.Rewrite.ReplaceCompiled || !cfg.Rewrite.StripSuppressExtraRequire {
		t.Errorf("absent rewrite switches should keep defaults: %+v", cfg.Rewrite)
	}

	paths, err := ResolvePaths(cfg, filepath.Dir(path))
	if err != nil {
		t.Fatalf("ResolvePaths failed: %v", err)
	}
	base := filepath.Dir(path)
	if paths.LibraryRoot != filepath.Join(base, "closure-library") {
		t.Errorf("unexpected library root %q", paths.LibraryRoot)
	}
	if paths.GoogDir != filepath.Join(base, "closure-library", "closure", "goog") {
		t.Errorf("unexpected goog dir %q", paths.GoogDir)
	}
	if paths.JournalPath != filepath.Join(base, "state", "journal.db") {
		t.Errorf("unexpected journal path %q", paths.JournalPath)
	}
	if paths.MetricsFile != filepath.Join(base, "metrics.prom") {
		t.Errorf("unexpected metrics file %q", paths.MetricsFile)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.LibraryRoot != def.LibraryRoot || cfg.Cycles.GoogDir != def.Cycles.GoogDir || cfg.Journal.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version = 3"},
		{"glob", "[scan]\nexclude_dirs = [\"[oops\"]"},
		{"skip path", "[scan]\nskip_files = [\"closure/goog.js\"]"},
		{"escaping goog dir", "[cycles]\ngoog_dir = \"../goog\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.IsCode(err, errors.CodeConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}

	if _, err := Load(writeConfig(t, "version = [")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ESMIGRATE_LIBRARY_ROOT", "/srv/closure")
	t.Setenv("ESMIGRATE_CYCLES_ENABLED", "false")
	t.Setenv("ESMIGRATE_SCAN_SKIP_FILES", "goog.js, deps.js")
	t.Setenv("ESMIGRATE_JOURNAL_ENABLED", "not-a-bool")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LibraryRoot != "/srv/closure" || cfg.Cycles.Enabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Scan.SkipFiles) != 2 || cfg.Scan.SkipFiles[1] != "deps.js" {
		t.Fatalf("list override not trimmed: %v", cfg.Scan.SkipFiles)
	}
	if cfg.Journal.Enabled {
		t.Fatal("invalid bool should be ignored")
	}
}

func TestResolveRelative(t *testing.T) {
	if got := ResolveRelative("/a", ""); got != "/a" {
		t.Fatalf("empty value: %q", got)
	}
	if got := ResolveRelative("/a", "/b/../c"); got != "/c" {
		t.Fatalf("absolute value: %q", got)
	}
	if got := ResolveRelative("/a", "b/c"); got != "/a/b/c" {
		t.Fatalf("relative value: %q", got)
	}
}
