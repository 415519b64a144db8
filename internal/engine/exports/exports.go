// Package exports turns namespace-assignment exports into ES6 export statements.
package exports

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/engine/classes"
	"esmigrate/internal/engine/jstext"
	"esmigrate/internal/engine/model"
)

// reservedExportNames are renamed to parent_Name when they would become a local binding.
var reservedExportNames = map[string]bool{
	"Error": true, "console": true, "File": true, "document": true, "window": true, "Array": true,
	"Set": true, "Map": true, "Notification": true, "ServiceWorker": true, "string": true, "array": true,
}

var (
	declareLegacyNamespace = regexp.MustCompile(`goog\.module\.declareLegacyNamespace\(\);?\n?`)
	letDefine              = regexp.MustCompile(`let\s+([\w$]+)\s*=\s*goog\s*\.\s*define\s*\(`)
	localConstructor       = regexp.MustCompile(`(?m)^(?:const|let|var)\s+([A-Z][\w$]*)\s*=\s*function\s*\(`)
	bareDefine             = regexp.MustCompile(`(?m)^([ \t]*)goog\s*\.\s*define\s*\(\s*'([^)']+\.([^).']+))'`)
)

// LocalName is the binding used for ns inside its own file: the last segment, prefixed with the
// parent segment when it is reserved.
func LocalName(ns string) string {
	parts := jstext.Segments(ns)
	name := parts[len(parts)-1]
	if reservedExportNames[name] && len(parts) > 1 {
		return parts[len(parts)-2] + "_" + name
	}
	return name
}

// Result is the outcome of export synthesis for one file.
type Result struct {
	Content string
	// Exports are the local names the file now exports, used as forbidden aliases later.
	Exports []string
	// Skipped is set when no export candidate was found and Content is the original text.
	Skipped bool
	// Classes counts constructor functions rewritten to class declarations.
	Classes int
}

type Synthesizer struct {
	logger         *slog.Logger
	convertClasses bool
}

func NewSynthesizer(logger *slog.Logger, convertClasses bool) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{logger: logger, convertClasses: convertClasses}
}

// Provide converts a provide-style file. decls is sorted longest-first in place.
func (s *Synthesizer) Provide(path, original string, decls []model.NamespaceDeclaration) (Result, error) {
	content, defined := FixDefines(original, nil)
	exported := make(map[string]bool)
	for _, name := range defined {
		exported[name] = true
	}

	res := Result{}
	model.SortDeclarationsLongestFirst(decls)
	for _, decl := range decls {
		ns := decl.Namespace
		if s.convertClasses {
			converted, err := classes.Convert(content, ns)
			if err != nil {
				return Result{}, err
			}
			if converted.Converted {
				content = converted.Content
				res.Classes++
				s.logger.Debug("converted class", "path", path, "namespace", ns,
					"methods", converted.Methods, "fields", converted.Fields, "base", converted.Base)
			}
		}

		last := jstext.LastSegment(ns)
		qualified := jstext.QualifiedPattern(ns)
		switch {
		case !strings.HasSuffix(last, "_") && regexp.MustCompile(`(?m)^\s*`+qualified+`\s*=(?:[^=]|$)`).MatchString(content):
			short := LocalName(ns)
			content = regexp.MustCompile(`(?m)^([ \t]*)`+qualified+`[ \t]*=([^=]|$)`).
				ReplaceAllString(content, "${1}let "+short+" =${2}")
			content = jstext.ReplaceQualified(content, ns, short)
			exported[short] = true
		case !strings.HasSuffix(last, "_") && regexp.MustCompile(`(?m)^\s*`+qualified+`\s*;`).MatchString(content):
			short := LocalName(ns)
			content = regexp.MustCompile(`(?m)^([ \t]*)`+qualified+`\s*;`).ReplaceAllString(content, "${1}let "+short+";")
			content = jstext.ReplaceQualified(content, ns, short)
			exported[short] = true
		default:
			content = exportContainerMembers(content, ns, exported)
		}

		content = removeStatement(content, decl.FullText)
	}

	for name := range exported {
		if name == "" {
			delete(exported, name)
		}
	}
	if len(exported) == 0 {
		s.logger.Info("don't know what to export, skipping", "path", path)
		return Result{Content: original, Skipped: true}, nil
	}

	names := make([]string, 0, len(exported))
	for name := range exported {
		names = append(names, name)
	}
	sort.Strings(names)
	res.Content = appendExport(content, names)
	res.Exports = names
	return res, nil
}

// exportContainerMembers binds ns.member assignments and ns.member typedefs directly below ns.
func exportContainerMembers(content, ns string, exported map[string]bool) string {
	qualified := jstext.QualifiedPattern(ns)
	assignment := regexp.MustCompile(`(?m)^` + qualified + `\s*\.\s*([\w$]{2,})(\s*=[^=])`)
	for {
		m := assignment.FindStringSubmatchIndex(content)
		if m == nil {
			break
		}
		name := content[m[2]:m[3]]
		if !strings.HasSuffix(name, "_") {
			exported[name] = true
		}
		content = content[:m[0]] + "let " + name + content[m[4]:]
		content = jstext.ReplaceQualified(content, ns+"."+name, name)
	}

	typedef := regexp.MustCompile(`(?m)^` + qualified + `\s*\.\s*([\w$]{2,})\s*;`)
	for {
		m := typedef.FindStringSubmatchIndex(content)
		if m == nil {
			break
		}
		name := content[m[2]:m[3]]
		if !strings.HasSuffix(name, "_") {
			exported[name] = true
		}
		content = content[:m[0]] + "let " + name + ";" + content[m[1]:]
		content = jstext.ReplaceQualified(content, ns+"."+name, name)
	}
	return content
}

// Module converts a module-style file.
func (s *Synthesizer) Module(content string, decl model.NamespaceDeclaration) (Result, error) {
	content = removeStatement(content, decl.FullText)
	content = declareLegacyNamespace.ReplaceAllString(content, "")

	classCount := 0
	if s.convertClasses {
		for _, m := range localConstructor.FindAllStringSubmatch(content, -1) {
			converted, err := classes.Convert(content, m[1])
			if err != nil {
				return Result{}, errors.AddContext(err, errors.CtxNamespace, decl.Namespace)
			}
			if converted.Converted {
				content = converted.Content
				classCount++
				s.logger.Debug("converted class", "namespace", decl.Namespace, "class", m[1],
					"methods", converted.Methods, "fields", converted.Fields, "base", converted.Base)
			}
		}
	}

	var inline, block []model.ExportName
	for _, e := range decl.Exports {
		if e.IsInlineExport {
			inline = append(inline, e)
		} else {
			block = append(block, e)
		}
	}

	all := make([]string, 0, len(decl.Exports))
	for _, e := range inline {
		if e.FullText != "" {
			content = strings.ReplaceAll(content, e.FullText, "export "+e.Name+" =")
		}
		selfRef := regexp.MustCompile(`export ` + regexp.QuoteMeta(e.Name) + ` = ` + regexp.QuoteMeta(e.Name) + `([^\w$]|$)`)
		content = selfRef.ReplaceAllString(content, "export {"+e.Name+"}${1}")
		all = append(all, e.Name)
	}

	blockNames := make([]string, 0, len(block))
	for _, e := range block {
		blockNames = append(blockNames, e.Name)
	}
	content, blockNames = FixDefines(content, blockNames)
	defined := blockNames[len(block):]

	for _, e := range block {
		all = append(all, e.Name)
	}
	all = append(all, defined...)

	if len(blockNames) == 0 {
		return Result{Content: content, Exports: all, Classes: classCount}, nil
	}
	if len(block) > 0 {
		content = removeStatement(content, block[0].FullText)
	}
	return Result{Content: appendExport(content, blockNames), Exports: all, Classes: classCount}, nil
}

// FixDefines rewrites "let X = goog.define(" to const and gives top-level
// "goog.define('a.b.C', ...)" calls a const binding named C. The introduced names are appended
// to exports.
func FixDefines(content string, exports []string) (string, []string) {
	for _, m := range letDefine.FindAllStringSubmatch(content, -1) {
		content = strings.Replace(content, m[0], "const "+m[1]+" = goog.define(", 1)
		exports = append(exports, m[1])
	}
	for _, m := range bareDefine.FindAllStringSubmatch(content, -1) {
		indent, fq, short := m[1], m[2], m[3]
		content = strings.Replace(content, m[0], indent+"const "+short+" = "+m[0][len(indent):], 1)
		content = jstext.ReplaceQualified(content, fq, short)
		exports = append(exports, short)
	}
	return content, exports
}

// removeStatement deletes the first occurrence of text together with the line break after it.
func removeStatement(content, text string) string {
	if text == "" {
		return content
	}
	idx := strings.Index(content, text)
	if idx < 0 {
		return content
	}
	end := idx + len(text)
	if strings.HasPrefix(content[end:], "\r\n") {
		end += 2
	} else if strings.HasPrefix(content[end:], "\n") {
		end++
	}
	return content[:idx] + content[end:]
}

func appendExport(content string, names []string) string {
	return strings.TrimRight(content, "\r\n") + "\n\nexport {" + strings.Join(names, ", ") + "};\n"
}
