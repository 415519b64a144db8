// Package app wires the conversion stages into one run over a library tree.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"esmigrate/internal/core/config"
	"esmigrate/internal/core/errors"
	"esmigrate/internal/core/ports"
	"esmigrate/internal/data/store"
	"esmigrate/internal/engine/cycles"
	"esmigrate/internal/engine/exports"
	"esmigrate/internal/engine/model"
	"esmigrate/internal/engine/scanner"
	"esmigrate/internal/shared/observability"
	"esmigrate/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Store  ports.SourceStore
	// Journal is optional.
	Journal ports.RunJournal
	DryRun  bool
	Logger  *slog.Logger
}

type App struct {
	cfg     *config.Config
	paths   config.ResolvedPaths
	store   ports.SourceStore
	overlay *store.Overlay
	journal ports.RunJournal
	dryRun  bool
	logger  *slog.Logger

	synth    *exports.Synthesizer
	progress *util.Limiter
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("source store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		cfg:      opts.Config,
		paths:    opts.Paths,
		store:    opts.Store,
		journal:  opts.Journal,
		dryRun:   opts.DryRun,
		logger:   logger,
		synth:    exports.NewSynthesizer(logger, opts.Config.Rewrite.ConvertClasses),
		progress: util.NewLimiter(1, 1),
	}
	if a.paths.LibraryRoot == "" {
		a.paths.LibraryRoot = opts.Config.LibraryRoot
	}
	if opts.DryRun {
		a.overlay = store.NewOverlay(opts.Store)
		a.store = a.overlay
	}
	return a, nil
}

// Changes returns the recorded writes and removals of a dry run, nil otherwise.
func (a *App) Changes() []store.Change {
	if a.overlay == nil {
		return nil
	}
	return a.overlay.Changes()
}

// Scan builds the declaration model without changing anything.
func (a *App) Scan(ctx context.Context) (*model.Model, error) {
	ctx, span := observability.Tracer().Start(ctx, "app.Scan",
		trace.WithAttributes(attribute.String("library_root", a.paths.LibraryRoot)))
	defer span.End()
	defer observeStage("scan", time.Now())

	if err := a.checkLibraryRoot(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	s, err := scanner.New(a.store, scanner.Options{
		Extensions:   a.cfg.Scan.Extensions,
		ExcludeDirs:  a.cfg.Scan.ExcludeDirs,
		ExcludeFiles: a.cfg.Scan.ExcludeFiles,
		SkipFiles:    a.cfg.Scan.SkipFiles,
	}, a.logger)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	m, err := s.Scan(ctx, a.paths.LibraryRoot)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(m.Files)), attribute.Int("namespaces", m.Registry.Len()))
	return m, nil
}

// Merge runs the cycle breaker over the goog directory.
func (a *App) Merge(ctx context.Context) ([]cycles.MergeResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "app.Merge")
	defer span.End()
	defer observeStage("merge", time.Now())

	if err := a.checkLibraryRoot(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	breaker, err := cycles.NewBreaker(a.store, a.paths.LibraryRoot, a.cfg.Cycles.GoogDir, a.logger)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	results, err := breaker.Process(ctx)
	for _, res := range results {
		observability.MergedFiles.Add(float64(len(res.Merged)))
		observability.MissingMergeMembers.Add(float64(len(res.Missing)))
	}
	if err != nil {
		recordSpanError(span, err)
		return results, err
	}
	return results, nil
}

// checkLibraryRoot fails before any file is read or written when the root is not a directory.
func (a *App) checkLibraryRoot() error {
	if a.paths.LibraryRoot != "" && a.store.IsDir(a.paths.LibraryRoot) {
		return nil
	}
	err := errors.New(errors.CodeConfiguration, "library root is not a directory")
	return errors.AddContext(err, errors.CtxPath, a.paths.LibraryRoot)
}

func observeStage(stage string, start time.Time) {
	observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
