// Package scanner builds the declaration model of a Closure library tree.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"esmigrate/internal/core/ports"
	"esmigrate/internal/engine/model"
	"esmigrate/internal/shared/observability"

	"github.com/gobwas/glob"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

type Options struct {
	Extensions   []string
	ExcludeDirs  []string
	ExcludeFiles []string
	// SkipFiles are base names that are never converted, whatever their content.
	SkipFiles []string
}

type Scanner struct {
	store     ports.SourceStore
	opts      Options
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
	skip      map[string]bool
	logger    *slog.Logger
}

func New(store ports.SourceStore, opts Options, logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".js"}
	}
	dirGlobs, err := compileGlobs(opts.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(opts.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(opts.SkipFiles))
	for _, name := range opts.SkipFiles {
		skip[name] = true
	}
	return &Scanner{
		store:     store,
		opts:      opts,
		dirGlobs:  dirGlobs,
		fileGlobs: fileGlobs,
		skip:      skip,
		logger:    logger,
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Files lists the convertible source files below root.
func (s *Scanner) Files(root string) ([]string, error) {
	all, err := s.store.ListFiles(root)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(all))
	for _, path := range all {
		if s.accept(root, path) {
			files = append(files, path)
		}
	}
	return files, nil
}

func (s *Scanner) accept(root, path string) bool {
	base := filepath.Base(path)
	if s.skip[base] || !s.supported(base) {
		return false
	}
	for _, g := range s.fileGlobs {
		if g.Match(base) {
			return false
		}
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return true
	}
	for _, dir := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, g := range s.dirGlobs {
			if g.Match(dir) {
				return false
			}
		}
	}
	return true
}

func (s *Scanner) supported(base string) bool {
	for _, ext := range s.opts.Extensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

// Scan parses every accepted file below root and returns the files that declare at least one
// namespace, together with the namespace registry.
func (s *Scanner) Scan(ctx context.Context, root string) (*model.Model, error) {
	files, err := s.Files(root)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(tree_sitter_javascript.Language())); err != nil {
		return nil, fmt.Errorf("load javascript grammar: %w", err)
	}

	m := &model.Model{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := s.store.ReadFile(path)
		if err != nil {
			return nil, err
		}
		observability.FilesScanned.Inc()

		fm, err := parseFile(parser, path, []byte(content))
		if err != nil {
			return nil, err
		}
		if len(fm.Declarations) == 0 {
			continue
		}
		s.logger.Debug("scanned file", "path", path, "declarations", len(fm.Declarations), "requires", len(fm.Requires))
		m.Files = append(m.Files, fm)
	}

	registry, err := model.NewRegistry(m.Files)
	if err != nil {
		return nil, err
	}
	m.Registry = registry
	return m, nil
}

// ParseSource extracts the file model of a single source text.
func ParseSource(path, content string) (model.FileModel, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(tree_sitter_javascript.Language())); err != nil {
		return model.FileModel{}, fmt.Errorf("load javascript grammar: %w", err)
	}
	return parseFile(parser, path, []byte(content))
}

func parseFile(parser *sitter.Parser, path string, content []byte) (model.FileModel, error) {
	tree := parser.Parse(content, nil)
	if tree == nil {
		return model.FileModel{}, fmt.Errorf("parse %s: no syntax tree", path)
	}
	defer tree.Close()
	return extract(tree.RootNode(), content, path), nil
}
