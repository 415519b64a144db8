package model

import (
	"fmt"
	"sort"
	"strings"

	"esmigrate/internal/core/errors"
)

// SourceFile is one unit of text plus its file-system identity.
type SourceFile struct {
	Path    string
	Content string
}

// NamespaceDeclaration is one goog.provide or goog.module statement.
type NamespaceDeclaration struct {
	Namespace string       `yaml:"namespace"`
	IsModule  bool         `yaml:"module"`
	FullText  string       `yaml:"text"`
	Exports   []ExportName `yaml:"exports,omitempty"`
}

// ExportName is a name exported by a module-style file.
type ExportName struct {
	Name           string `yaml:"name"`
	IsInlineExport bool   `yaml:"inline"`
	FullText       string `yaml:"text"`
}

// RequireReference is one dependency edge from a file to a required namespace.
// FullText is empty when HasFullText is false and the import must be synthesized.
type RequireReference struct {
	Namespace        string `yaml:"namespace"`
	ShortReference   string `yaml:"alias,omitempty"`
	ImportedFunction string `yaml:"function,omitempty"`
	FullText         string `yaml:"text,omitempty"`
	HasFullText      bool   `yaml:"-"`
}

type FileModel struct {
	Path         string                 `yaml:"path"`
	Declarations []NamespaceDeclaration `yaml:"declarations"`
	Requires     []RequireReference     `yaml:"requires,omitempty"`
}

// IsModuleFile reports whether the file uses goog.module. Module style is file scoped.
func (f FileModel) IsModuleFile() bool {
	for _, decl := range f.Declarations {
		if decl.IsModule {
			return true
		}
	}
	return false
}

// Model is the scanner's output: every file with declarations plus the namespace registry.
type Model struct {
	Files    []FileModel `yaml:"files"`
	Registry *Registry   `yaml:"-"`
}

func (m *Model) File(path string) (FileModel, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileModel{}, false
}

// Registry maps a namespace to the file declaring it. Read-only once built.
type Registry struct {
	byNamespace map[string]string
}

func NewRegistry(files []FileModel) (*Registry, error) {
	r := &Registry{byNamespace: make(map[string]string)}
	for _, f := range files {
		for _, decl := range f.Declarations {
			if prev, ok := r.byNamespace[decl.Namespace]; ok && prev != f.Path {
				err := &errors.DomainError{
					Code:    errors.CodeConflict,
					Message: fmt.Sprintf("namespace declared by %s and %s", prev, f.Path),
				}
				return nil, err.WithContext(errors.CtxNamespace, decl.Namespace)
			}
			r.byNamespace[decl.Namespace] = f.Path
		}
	}
	return r, nil
}

func (r *Registry) Lookup(namespace string) (string, bool) {
	if r == nil {
		return "", false
	}
	path, ok := r.byNamespace[namespace]
	return path, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byNamespace)
}

func (r *Registry) Namespaces() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byNamespace))
	for ns := range r.byNamespace {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// SortDeclarationsLongestFirst orders declarations so a.b.C is handled before its prefix a.b.
func SortDeclarationsLongestFirst(decls []NamespaceDeclaration) {
	sort.SliceStable(decls, func(i, j int) bool {
		return len(decls[i].Namespace) > len(decls[j].Namespace)
	})
}

func SortRequiresLongestFirst(requires []RequireReference) {
	sort.SliceStable(requires, func(i, j int) bool {
		return len(requires[i].Namespace) > len(requires[j].Namespace)
	})
}

// Segments splits a dotted namespace.
func Segments(namespace string) []string {
	return strings.Split(namespace, ".")
}

func LastSegment(namespace string) string {
	parts := Segments(namespace)
	return parts[len(parts)-1]
}
