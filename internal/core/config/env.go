package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ESMIGRATE_[SECTION]_[KEY] (e.g., ESMIGRATE_JOURNAL_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.LibraryRoot, "ESMIGRATE_LIBRARY_ROOT")

	// Scan
	setEnvList(&cfg.Scan.Extensions, "ESMIGRATE_SCAN_EXTENSIONS")
	setEnvList(&cfg.Scan.ExcludeDirs, "ESMIGRATE_SCAN_EXCLUDE_DIRS")
	setEnvList(&cfg.Scan.ExcludeFiles, "ESMIGRATE_SCAN_EXCLUDE_FILES")
	setEnvList(&cfg.Scan.SkipFiles, "ESMIGRATE_SCAN_SKIP_FILES")

	// Cycles
	setEnvBool(&cfg.Cycles.Enabled, "ESMIGRATE_CYCLES_ENABLED")
	setEnvString(&cfg.Cycles.GoogDir, "ESMIGRATE_CYCLES_GOOG_DIR")

	// Rewrite
	setEnvBool(&cfg.Rewrite.ConvertClasses, "ESMIGRATE_REWRITE_CONVERT_CLASSES")
	setEnvBool(&cfg.Rewrite.ReplaceCompiled, "ESMIGRATE_REWRITE_REPLACE_COMPILED")
	setEnvBool(&cfg.Rewrite.StripSuppressExtraRequire, "ESMIGRATE_REWRITE_STRIP_SUPPRESS_EXTRA_REQUIRE")

	// Journal
	setEnvBool(&cfg.Journal.Enabled, "ESMIGRATE_JOURNAL_ENABLED")
	setEnvString(&cfg.Journal.Path, "ESMIGRATE_JOURNAL_PATH")

	// Observability
	setEnvString(&cfg.Observability.OTLPEndpoint, "ESMIGRATE_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "ESMIGRATE_OBSERVABILITY_OTLP_INSECURE")
	setEnvString(&cfg.Observability.MetricsFile, "ESMIGRATE_OBSERVABILITY_METRICS_FILE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

// setEnvList reads a comma separated list.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}
