// Package cycles merges known groups of mutually dependent library files so the remaining
// file-level import graph is acyclic.
package cycles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/core/ports"
)

// MergeGroup names the files of one known cycle, relative to the goog directory.
type MergeGroup struct {
	Target  string   `yaml:"target" toml:"target"`
	Sources []string `yaml:"sources" toml:"sources"`
}

// DefaultMergeGroups are the import cycles of the Closure library.
var DefaultMergeGroups = []MergeGroup{
	{Target: "date/date.js", Sources: []string{"date/date.js", "date/datelike.js"}},
	{Target: "events/eventhandler.js", Sources: []string{
		"events/eventhandler.js", "events/events.js", "events/eventwrapper.js", "events/listenable.js",
		"events/eventtarget.js", "events/listener.js", "events/listenermap.js",
	}},
	{Target: "promise/promise.js", Sources: []string{"promise/thenable.js", "promise/promise.js", "promise/resolver.js"}},
	{Target: "ui/container.js", Sources: []string{"ui/container.js", "ui/containerrenderer.js"}},
	{Target: "ui/control.js", Sources: []string{"ui/controlrenderer.js", "ui/registry.js", "ui/control.js"}},
	{Target: "ui/menu.js", Sources: []string{"ui/menurenderer.js", "ui/menuitem.js", "ui/menu.js"}},
}

var declarationPattern = regexp.MustCompile(`goog\s*\.\s*(?:provide|module)\s*\(\s*['"]([\w$.]+)['"]\s*\)`)

// MergeResult reports one processed group.
type MergeResult struct {
	Target           string   `yaml:"target"`
	Merged           []string `yaml:"merged"`
	Missing          []string `yaml:"missing,omitempty"`
	StrippedRequires int      `yaml:"stripped_requires"`
	Skipped          bool     `yaml:"skipped,omitempty"`
}

type Breaker struct {
	store   ports.SourceStore
	googDir string
	groups  []MergeGroup
	logger  *slog.Logger
}

// NewBreaker fails with a configuration error when <libraryRoot>/<googDir> is not a directory.
func NewBreaker(store ports.SourceStore, libraryRoot, googDir string, logger *slog.Logger) (*Breaker, error) {
	dir := filepath.Join(libraryRoot, googDir)
	if !store.IsDir(dir) {
		err := &errors.DomainError{
			Code:    errors.CodeConfiguration,
			Message: "input dir not found",
		}
		return nil, err.WithContext(errors.CtxPath, dir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{store: store, googDir: dir, groups: DefaultMergeGroups, logger: logger}, nil
}

// WithGroups replaces the merge table.
func (b *Breaker) WithGroups(groups []MergeGroup) *Breaker {
	b.groups = groups
	return b
}

// Process merges every group in order.
func (b *Breaker) Process(ctx context.Context) ([]MergeResult, error) {
	results := make([]MergeResult, 0, len(b.groups))
	for _, group := range b.groups {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := b.merge(group)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (b *Breaker) merge(group MergeGroup) (MergeResult, error) {
	res := MergeResult{Target: group.Target}
	var parts, existing []string
	for _, name := range group.Sources {
		path := filepath.Join(b.googDir, name)
		if !b.store.IsFile(path) {
			b.logger.Info("cyclic dependency is not required and therefore skipped in the merge process",
				"file", filepath.Base(name), "target", group.Target)
			res.Missing = append(res.Missing, name)
			continue
		}
		content, err := b.store.ReadFile(path)
		if err != nil {
			return res, errors.AddContext(err, errors.CtxOperation, "merge")
		}
		parts = append(parts, content)
		existing = append(existing, path)
		res.Merged = append(res.Merged, name)
	}
	if len(parts) == 0 {
		res.Skipped = true
		return res, nil
	}

	content := strings.Join(parts, "\n\n")
	content, res.StrippedRequires = StripSelfRequires(content)

	for _, path := range existing {
		if err := b.store.Remove(path); err != nil {
			return res, err
		}
	}
	target := filepath.Join(b.googDir, group.Target)
	if err := b.store.WriteFile(target, content); err != nil {
		return res, errors.AddContext(err, errors.CtxOperation, "merge")
	}
	b.logger.Debug("merged cycle", "target", group.Target, "files", len(existing), "stripped", res.StrippedRequires)
	return res, nil
}

// StripSelfRequires removes require, requireType and forwardDeclare statements for every
// namespace declared inside content. A require bound to a name, as in
// "const X = goog.require('a.B');", keeps its binding and is pointed at the namespace itself. It
// returns the new text and the number of requires taken out.
func StripSelfRequires(content string) (string, int) {
	removed := 0
	for _, m := range declarationPattern.FindAllStringSubmatch(content, -1) {
		call := fmt.Sprintf(`goog\s*\.\s*(?:require|requireType|forwardDeclare)\s*\(\s*['"]%s['"]\s*\)`, regexp.QuoteMeta(m[1]))

		bound := regexp.MustCompile(`((?:const|let|var)\s+[\w${}\s,:]+?=\s*)` + call)
		removed += len(bound.FindAllStringIndex(content, -1))
		content = bound.ReplaceAllString(content, "${1}"+strings.ReplaceAll(m[1], "$", "$$"))

		bare := regexp.MustCompile(call + `\s*;[ \t]*\r?\n?`)
		removed += len(bare.FindAllStringIndex(content, -1))
		content = bare.ReplaceAllString(content, "")
	}
	return content, removed
}
