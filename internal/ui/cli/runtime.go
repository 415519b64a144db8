package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"esmigrate/internal/core/app"
	"esmigrate/internal/core/config"
	"esmigrate/internal/core/ports"
	"esmigrate/internal/data/journal"
	"esmigrate/internal/data/store"
	"esmigrate/internal/shared/observability"
)

// runtime is everything a command needs after the config is loaded.
type runtime struct {
	cfg      *config.Config
	paths    config.ResolvedPaths
	app      *app.App
	journal  *journal.Store
	shutdown observability.ShutdownFunc
}

func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func loadConfig(opts *rootOptions) (*config.Config, config.ResolvedPaths, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, config.ResolvedPaths{}, fmt.Errorf("load config %s: %w", opts.configPath, err)
	}
	base := filepath.Dir(opts.configPath)
	if opts.libraryRoot != "" {
		// A root given on the command line is relative to the working directory.
		cwd, err := os.Getwd()
		if err != nil {
			return nil, config.ResolvedPaths{}, err
		}
		cfg.LibraryRoot = config.ResolveRelative(cwd, opts.libraryRoot)
	}
	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		return nil, config.ResolvedPaths{}, fmt.Errorf("resolve paths: %w", err)
	}
	return cfg, paths, nil
}

func newRuntime(ctx context.Context, opts *rootOptions, dryRun bool) (*runtime, error) {
	cfg, paths, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
		ServiceVersion: versionString,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	rt := &runtime{cfg: cfg, paths: paths, shutdown: shutdown}
	var runJournal ports.RunJournal
	if cfg.Journal.Enabled {
		rt.journal, err = journal.Open(paths.JournalPath)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		runJournal = rt.journal
	}

	rt.app, err = app.New(app.Options{
		Config:  cfg,
		Paths:   paths,
		Store:   store.NewDisk(),
		Journal: runJournal,
		DryRun:  dryRun,
		Logger:  slog.Default(),
	})
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	slog.Debug("runtime ready", "library_root", paths.LibraryRoot, "dry_run", dryRun, "journal", cfg.Journal.Enabled)
	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			slog.Warn("failed to close journal", "error", err)
		}
	}
	if rt.shutdown != nil {
		if err := rt.shutdown(ctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
}
