// Package resolver turns goog.require references into ES6 imports with collision-free aliases.
package resolver

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/engine/exports"
	"esmigrate/internal/engine/jstext"
	"esmigrate/internal/engine/model"
)

// wholeModuleImports are type-like namespaces whose callers use many members.
var wholeModuleImports = map[string]bool{
	"GraphemeBreak":  true,
	"CssSpecificity": true,
	"CssSanitizer":   true,
	"ComponentUtil":  true,
}

// FileChecker reports whether a resolved target can be read.
type FileChecker interface {
	IsFile(path string) bool
}

type Resolver struct {
	registry *model.Registry
	files    FileChecker
	logger   *slog.Logger
}

func New(registry *model.Registry, files FileChecker, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, files: files, logger: logger}
}

// Import is one emitted import statement.
type Import struct {
	Namespace string `yaml:"namespace"`
	Alias     string `yaml:"alias"`
	Specifier string `yaml:"from"`
	Statement string `yaml:"statement"`
}

type Result struct {
	Content string
	Imports []Import
	// Aliases maps each required namespace to its local name.
	Aliases map[string]string
}

// Resolve rewrites every require of the file at path. exported are the names the file itself
// exports and may not be reused as aliases.
func (r *Resolver) Resolve(path, content string, requires []model.RequireReference, exported []string) (Result, error) {
	sorted := append([]model.RequireReference(nil), requires...)
	model.SortRequiresLongestFirst(sorted)

	forbidden := NewForbidden(exported...)
	// Names pinned in the source are taken before any alias is chosen.
	for _, req := range sorted {
		forbidden.Add(req.ImportedFunction)
		forbidden.Add(req.ShortReference)
	}
	res := Result{Aliases: make(map[string]string, len(sorted))}
	for _, req := range sorted {
		target, err := r.target(path, req.Namespace)
		if err != nil {
			return Result{}, err
		}
		specifier, err := RelativeSpecifier(path, target)
		if err != nil {
			return Result{}, errors.AddContext(errors.Wrap(err, errors.CodeUnresolved, "cannot compute import path"),
				errors.CtxNamespace, req.Namespace)
		}

		if req.ImportedFunction != "" {
			stmt := "import {" + req.ImportedFunction + "} from '" + specifier + "';"
			content = replaceOrInsert(content, req.FullText, stmt)
			forbidden.Add(req.ImportedFunction)
			res.Imports = append(res.Imports, Import{Namespace: req.Namespace, Alias: req.ImportedFunction, Specifier: specifier, Statement: stmt})
			continue
		}

		alias := req.ShortReference
		if alias == "" {
			alias = FindSafeReference(content, req.Namespace, forbidden)
			content = jstext.ReplaceQualified(content, req.Namespace, alias)
		}
		forbidden.Add(alias)
		res.Aliases[req.Namespace] = alias

		stmt := ImportStatement(req.Namespace, alias, specifier)
		content = replaceOrInsert(content, req.FullText, stmt)
		res.Imports = append(res.Imports, Import{Namespace: req.Namespace, Alias: alias, Specifier: specifier, Statement: stmt})
		r.logger.Debug("resolved require", "path", path, "namespace", req.Namespace, "alias", alias, "from", specifier)
	}
	res.Content = content
	return res, nil
}

func (r *Resolver) target(path, namespace string) (string, error) {
	target, ok := r.registry.Lookup(namespace)
	if !ok {
		err := &errors.DomainError{
			Code:    errors.CodeUnresolved,
			Message: fmt.Sprintf("required namespace %s could not be found", namespace),
		}
		return "", err.WithContext(errors.CtxNamespace, namespace).WithContext(errors.CtxPath, path)
	}
	if r.files != nil && !r.files.IsFile(target) {
		err := &errors.DomainError{
			Code:    errors.CodeUnresolved,
			Message: fmt.Sprintf("required namespace %s could not be read from %s", namespace, filepath.Base(target)),
		}
		return "", err.WithContext(errors.CtxNamespace, namespace).WithContext(errors.CtxPath, path)
	}
	return target, nil
}

// ImportStatement picks the import form for a namespace bound to alias.
func ImportStatement(namespace, alias, specifier string) string {
	last := jstext.LastSegment(namespace)
	element := exports.LocalName(namespace)
	switch {
	case !jstext.IsTypeName(last) || wholeModuleImports[last]:
		return "import * as " + alias + " from '" + specifier + "';"
	case element == alias:
		return "import {" + alias + "} from '" + specifier + "';"
	default:
		return "import {" + element + " as " + alias + "} from '" + specifier + "';"
	}
}

// RelativeSpecifier returns the ES6 module specifier for to, relative to the directory of from.
func RelativeSpecifier(from, to string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(from), to)
	if err != nil {
		return "", err
	}
	rel = strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

// replaceOrInsert substitutes stmt for fullText, or inserts it on a new line after the first
// import statement, else after the first goog.* statement, else at the top of the file.
func replaceOrInsert(content, fullText, stmt string) string {
	if fullText != "" && strings.Contains(content, fullText) {
		return strings.ReplaceAll(content, fullText, stmt)
	}
	at, ok := lineAfterFirst(content, "import")
	if !ok {
		at, ok = lineAfterFirst(content, "goog")
	}
	if !ok {
		return stmt + "\n" + content
	}
	if at == len(content) && !strings.HasSuffix(content, "\n") {
		return content + "\n" + stmt + "\n"
	}
	return content[:at] + stmt + "\n" + content[at:]
}

// lineAfterFirst finds the first line starting with prefix and returns the offset of the line
// following it.
func lineAfterFirst(content, prefix string) (int, bool) {
	for start := 0; start < len(content); {
		end := strings.IndexByte(content[start:], '\n')
		next := len(content)
		if end >= 0 {
			next = start + end + 1
		}
		if strings.HasPrefix(content[start:], prefix) {
			end := jstext.StatementEnd(content, start)
			if nl := strings.IndexByte(content[end:], '\n'); nl >= 0 {
				return end + nl + 1, true
			}
			return len(content), true
		}
		start = next
	}
	return 0, false
}
