package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"esmigrate/internal/shared/util"

	"github.com/BurntSushi/toml"
)

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	}

	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if strings.TrimSpace(cfg.LibraryRoot) == "" {
		cfg.LibraryRoot = def.LibraryRoot
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = def.Scan.Extensions
	}
	if strings.TrimSpace(cfg.Cycles.GoogDir) == "" {
		cfg.Cycles.GoogDir = def.Cycles.GoogDir
	}
	if strings.TrimSpace(cfg.Journal.Path) == "" {
		cfg.Journal.Path = def.Journal.Path
	}
}

func normalize(cfg *Config) {
	cfg.LibraryRoot = strings.TrimSpace(cfg.LibraryRoot)
	cfg.Cycles.GoogDir = util.NormalizePatternPath(strings.Trim(strings.TrimSpace(cfg.Cycles.GoogDir), "/"))
	cfg.Journal.Path = strings.TrimSpace(cfg.Journal.Path)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Observability.MetricsFile = strings.TrimSpace(cfg.Observability.MetricsFile)

	for i, ext := range cfg.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Scan.Extensions[i] = ext
	}
	cfg.Scan.ExcludeDirs = trimAll(cfg.Scan.ExcludeDirs)
	cfg.Scan.ExcludeFiles = trimAll(cfg.Scan.ExcludeFiles)
	cfg.Scan.SkipFiles = trimAll(cfg.Scan.SkipFiles)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
