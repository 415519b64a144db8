package config

const (
	DefaultFileName = "esmigrate.toml"
	CurrentVersion  = 1
)

type Config struct {
	Version       int           `toml:"version"`
	LibraryRoot   string        `toml:"library_root"`
	Scan          Scan          `toml:"scan"`
	Cycles        Cycles        `toml:"cycles"`
	Rewrite       Rewrite       `toml:"rewrite"`
	Journal       Journal       `toml:"journal"`
	Observability Observability `toml:"observability"`
}

type Scan struct {
	Extensions   []string `toml:"extensions"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	SkipFiles    []string `toml:"skip_files"`
}

type Cycles struct {
	Enabled bool   `toml:"enabled"`
	GoogDir string `toml:"goog_dir"`
}

type Rewrite struct {
	ConvertClasses            bool `toml:"convert_classes"`
	ReplaceCompiled           bool `toml:"replace_compiled"`
	StripSuppressExtraRequire bool `toml:"strip_suppress_extra_require"`
}

type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
	MetricsFile  string `toml:"metrics_file"`
}

// Default returns the configuration used when no file is present. Load decodes on top of it so
// boolean switches that are absent from the file keep their default.
func Default() *Config {
	return &Config{
		Version:     CurrentVersion,
		LibraryRoot: ".",
		Scan: Scan{
			Extensions:  []string{".js"},
			ExcludeDirs: []string{".git", "node_modules"},
			SkipFiles:   []string{"goog.js"},
		},
		Cycles: Cycles{
			Enabled: true,
			GoogDir: "closure/goog",
		},
		Rewrite: Rewrite{
			ConvertClasses:            true,
			ReplaceCompiled:           true,
			StripSuppressExtraRequire: true,
		},
		Journal: Journal{
			Path: ".esmigrate/journal.db",
		},
	}
}
