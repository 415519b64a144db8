package app

import (
	"context"
	"strings"
	"time"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/core/ports"
	"esmigrate/internal/engine/cycles"
	"esmigrate/internal/engine/graph"
	"esmigrate/internal/engine/model"
	"esmigrate/internal/engine/resolver"
	"esmigrate/internal/shared/observability"
	"esmigrate/internal/shared/util"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	StyleProvide = "provide"
	StyleModule  = "module"

	StatusConverted = "converted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// FileOutcome is the result of converting one file.
type FileOutcome struct {
	Path     string            `yaml:"path"`
	Style    string            `yaml:"style"`
	Status   string            `yaml:"status"`
	Exports  []string          `yaml:"exports,omitempty"`
	Imports  []resolver.Import `yaml:"imports,omitempty"`
	Classes  int               `yaml:"classes,omitempty"`
	Duration time.Duration     `yaml:"duration"`
	Message  string            `yaml:"message,omitempty"`
}

// Report summarizes a whole conversion run.
type Report struct {
	RunID    string               `yaml:"run_id,omitempty"`
	DryRun   bool                 `yaml:"dry_run"`
	Merges   []cycles.MergeResult `yaml:"merges,omitempty"`
	Files    []FileOutcome        `yaml:"files"`
	Cycles   [][]string           `yaml:"residual_cycles,omitempty"`
	Duration time.Duration        `yaml:"duration"`
}

func (r *Report) Count(status string) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) MergedFiles() int {
	n := 0
	for _, m := range r.Merges {
		n += len(m.Merged)
	}
	return n
}

// Convert runs the cycle breaker, scans the library and rewrites every declaring file. A fatal
// error stops the run; files already written stay written.
func (a *App) Convert(ctx context.Context) (*Report, error) {
	ctx, span := observability.Tracer().Start(ctx, "app.Convert",
		trace.WithAttributes(attribute.Bool("dry_run", a.dryRun)))
	defer span.End()

	start := time.Now()
	report := &Report{DryRun: a.dryRun}
	runID := a.beginRun(ctx, start)
	report.RunID = runID

	err := a.convert(ctx, report)
	report.Duration = time.Since(start)
	a.finishRun(ctx, runID, report, err)
	a.flushMetrics()
	if err != nil {
		recordSpanError(span, err)
		return report, err
	}
	return report, nil
}

func (a *App) convert(ctx context.Context, report *Report) error {
	if a.cfg.Cycles.Enabled {
		merges, err := a.Merge(ctx)
		report.Merges = merges
		if err != nil {
			return err
		}
	}

	m, err := a.Scan(ctx)
	if err != nil {
		return err
	}

	report.Cycles = a.checkGraph(graph.Build(m))

	res := resolver.New(m.Registry, a.store, a.logger)
	for i, fm := range m.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.progress.Allow(1) {
			a.logger.Info("converting", "file", i+1, "of", len(m.Files), "heap", humanize.Bytes(util.HeapAlloc()))
		}

		outcome, err := a.convertFile(ctx, res, m.Registry, fm)
		a.recordFile(ctx, report.RunID, outcome)
		report.Files = append(report.Files, outcome)
		if err != nil {
			return err
		}
	}
	return nil
}

// checkGraph logs the shape of the require graph and returns the cycles the merge table did
// not break.
func (a *App) checkGraph(g *graph.Graph) [][]string {
	a.logger.Debug("require graph built", "files", g.FileCount(), "edges", g.EdgeCount())
	unresolved := g.Unresolved()
	for _, path := range util.SortedStringKeys(unresolved) {
		a.logger.Warn("requires without a declaring file", "path", path, "namespaces", strings.Join(unresolved[path], ","))
	}

	cycles := g.DetectCycles()
	observability.ResidualCycles.Set(float64(len(cycles)))
	for _, cycle := range cycles {
		head := cycle[0]
		chain, ok := g.FindImportChain(cycle[1%len(cycle)], head)
		if !ok {
			chain = append(cycle[1:], head)
		}
		a.logger.Warn("require cycle left after merging", "file", head, "chain", strings.Join(append([]string{head}, chain...), " -> "))
	}
	return cycles
}

// ConvertFile runs the per-file pipeline for one scanned file against registry.
func (a *App) ConvertFile(ctx context.Context, registry *model.Registry, fm model.FileModel) (FileOutcome, error) {
	return a.convertFile(ctx, resolver.New(registry, a.store, a.logger), registry, fm)
}

func (a *App) convertFile(ctx context.Context, res *resolver.Resolver, registry *model.Registry, fm model.FileModel) (FileOutcome, error) {
	style := StyleProvide
	if fm.IsModuleFile() {
		style = StyleModule
	}
	_, span := observability.Tracer().Start(ctx, "app.ConvertFile", trace.WithAttributes(
		attribute.String("path", fm.Path),
		attribute.String("style", style),
	))
	defer span.End()

	start := time.Now()
	outcome := FileOutcome{Path: fm.Path, Style: style}
	fail := func(err error) (FileOutcome, error) {
		err = errors.AddContext(err, errors.CtxPath, fm.Path)
		outcome.Status = StatusFailed
		outcome.Message = err.Error()
		outcome.Duration = time.Since(start)
		recordSpanError(span, err)
		return outcome, err
	}

	content, err := a.store.ReadFile(fm.Path)
	if err != nil {
		return fail(err)
	}

	requires, own := splitOwnRequires(fm, registry)
	for _, req := range own {
		if !req.HasFullText || req.FullText == "" {
			continue
		}
		content = strings.Replace(content, req.FullText+"\n", "", 1)
		content = strings.Replace(content, req.FullText, "", 1)
	}

	var (
		body     string
		exported []string
	)
	if style == StyleModule {
		decl := moduleDeclaration(fm)
		er, err := a.synth.Module(content, decl)
		if err != nil {
			return fail(err)
		}
		body, exported = er.Content, er.Exports
	} else {
		decls := append([]model.NamespaceDeclaration(nil), fm.Declarations...)
		er, err := a.synth.Provide(fm.Path, content, decls)
		if err != nil {
			return fail(err)
		}
		if er.Skipped {
			observability.FilesSkipped.Inc()
			outcome.Status = StatusSkipped
			outcome.Message = "nothing to export"
			outcome.Duration = time.Since(start)
			return outcome, nil
		}
		body, exported = er.Content, er.Exports
		outcome.Classes = er.Classes
	}

	rr, err := res.Resolve(fm.Path, body, requires, exported)
	if err != nil {
		return fail(err)
	}
	final := resolver.Finalize(rr.Content, fm.Declarations, resolver.FinalizeOptions{
		StripSuppressExtraRequire: a.cfg.Rewrite.StripSuppressExtraRequire,
		ReplaceCompiled:           a.cfg.Rewrite.ReplaceCompiled,
	})
	if err := a.store.WriteFile(fm.Path, final); err != nil {
		return fail(err)
	}

	outcome.Status = StatusConverted
	outcome.Exports = exported
	outcome.Imports = rr.Imports
	outcome.Duration = time.Since(start)

	observability.FilesConverted.WithLabelValues(style).Inc()
	observability.ImportsEmitted.Add(float64(len(rr.Imports)))
	observability.ExportsEmitted.Add(float64(len(exported)))
	observability.ClassesConverted.Add(float64(outcome.Classes))
	observability.FileDuration.WithLabelValues(style).Observe(outcome.Duration.Seconds())
	span.SetAttributes(attribute.Int("imports", len(rr.Imports)), attribute.Int("exports", len(exported)))
	a.logger.Debug("converted file", "path", fm.Path, "style", style, "imports", len(rr.Imports), "exports", len(exported))
	return outcome, nil
}

// splitOwnRequires separates requires of namespaces declared by fm itself; an import of the
// file from itself is never emitted.
func splitOwnRequires(fm model.FileModel, registry *model.Registry) (foreign, own []model.RequireReference) {
	for _, req := range fm.Requires {
		if path, ok := registry.Lookup(req.Namespace); ok && path == fm.Path {
			own = append(own, req)
			continue
		}
		foreign = append(foreign, req)
	}
	return foreign, own
}

func moduleDeclaration(fm model.FileModel) model.NamespaceDeclaration {
	for _, decl := range fm.Declarations {
		if decl.IsModule {
			return decl
		}
	}
	return fm.Declarations[0]
}

func (a *App) beginRun(ctx context.Context, start time.Time) string {
	if a.journal == nil {
		return ""
	}
	id, err := a.journal.BeginRun(ctx, ports.RunInfo{
		LibraryRoot: a.paths.LibraryRoot,
		DryRun:      a.dryRun,
		StartedAt:   start.UTC(),
	})
	if err != nil {
		a.logger.Warn("failed to journal run start", "error", err)
		return ""
	}
	return id
}

func (a *App) recordFile(ctx context.Context, runID string, outcome FileOutcome) {
	if a.journal == nil || runID == "" {
		return
	}
	err := a.journal.RecordFile(ctx, runID, ports.FileRecord{
		Path:     outcome.Path,
		Style:    outcome.Style,
		Status:   outcome.Status,
		Exports:  len(outcome.Exports),
		Imports:  len(outcome.Imports),
		Classes:  outcome.Classes,
		Duration: outcome.Duration,
		Message:  outcome.Message,
	})
	if err != nil {
		a.logger.Warn("failed to journal file result", "path", outcome.Path, "error", err)
	}
}

func (a *App) finishRun(ctx context.Context, runID string, report *Report, runErr error) {
	if a.journal == nil || runID == "" {
		return
	}
	summary := ports.RunSummary{
		FinishedAt: time.Now().UTC(),
		Converted:  report.Count(StatusConverted),
		Skipped:    report.Count(StatusSkipped),
		Merged:     report.MergedFiles(),
		Status:     "ok",
	}
	if runErr != nil {
		summary.Status = StatusFailed
		summary.Error = runErr.Error()
	}
	// The run context may already be cancelled; the summary row is still written.
	if err := a.journal.FinishRun(context.WithoutCancel(ctx), runID, summary); err != nil {
		a.logger.Warn("failed to journal run end", "error", err)
	}
}

func (a *App) flushMetrics() {
	if a.paths.MetricsFile == "" {
		return
	}
	if err := observability.WriteMetricsFile(a.paths.MetricsFile); err != nil {
		a.logger.Warn("failed to write metrics file", "path", a.paths.MetricsFile, "error", err)
	}
}
