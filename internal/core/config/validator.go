package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/shared/util"

	"github.com/gobwas/glob"
)

// Validate checks a loaded configuration. Failures carry CodeConfiguration.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateScan,
		validateCycles,
		validateJournal,
	} {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeConfiguration, "invalid configuration")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version %d; supported version is %d", cfg.Version, CurrentVersion)
	}
	return nil
}

func validateScan(cfg *Config) error {
	for i, ext := range cfg.Scan.Extensions {
		if ext == "" || ext == "." {
			return fmt.Errorf("scan.extensions[%d] must not be empty", i)
		}
	}
	for label, patterns := range map[string][]string{
		"scan.exclude_dirs":  cfg.Scan.ExcludeDirs,
		"scan.exclude_files": cfg.Scan.ExcludeFiles,
	} {
		for _, p := range patterns {
			if _, err := glob.Compile(p); err != nil {
				return fmt.Errorf("%s pattern %q is invalid: %w", label, p, err)
			}
		}
	}
	for _, name := range cfg.Scan.SkipFiles {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("scan.skip_files entry %q must be a base name", name)
		}
	}
	return nil
}

func validateCycles(cfg *Config) error {
	if !cfg.Cycles.Enabled {
		return nil
	}
	if filepath.IsAbs(cfg.Cycles.GoogDir) {
		return fmt.Errorf("cycles.goog_dir must be relative to library_root, got %q", cfg.Cycles.GoogDir)
	}
	if util.HasPathPrefix(cfg.Cycles.GoogDir, "..") {
		return fmt.Errorf("cycles.goog_dir must stay inside library_root, got %q", cfg.Cycles.GoogDir)
	}
	return nil
}

func validateJournal(cfg *Config) error {
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path must not be empty when the journal is enabled")
	}
	return nil
}
