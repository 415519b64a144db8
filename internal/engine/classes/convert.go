// Package classes rewrites constructor-function classes (a constructor plus prototype
// assignments and goog.inherits) into ES6 class declarations.
package classes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/engine/jstext"
)

// Result describes one class rewrite.
type Result struct {
	Content   string
	Converted bool
	Base      string
	Methods   int
	Fields    int
}

type edit struct {
	start, end int
	text       string
}

var staticNameExclusions = map[string]bool{
	"prototype":   true,
	"superClass_": true,
	"base":        true,
}

// Convert rewrites the class declared as ns, if content contains one. ns may also be a local
// binding ("const Foo = function(...)"), in which case the declaration keyword is kept. Content
// without a constructor function for ns is returned unchanged with Converted set to false.
func Convert(content, ns string) (Result, error) {
	qualified := jstext.QualifiedPattern(ns)
	ctorRe := regexp.MustCompile(`(?m)^((?:const|let|var)\s+)?` + qualified + `\s*=\s*function\s*\(`)
	loc := ctorRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return Result{Content: content}, nil
	}
	ctorStart := loc[0]
	keyword := ""
	if loc[2] >= 0 {
		keyword = content[loc[2]:loc[3]]
	}
	parenOpen := loc[1] - 1
	parenClose := jstext.MatchingBrace(content, parenOpen)
	if parenClose < 0 {
		return Result{Content: content}, nil
	}
	bodyOpen := parenClose + 1
	for bodyOpen < len(content) && strings.ContainsRune(" \t\r\n", rune(content[bodyOpen])) {
		bodyOpen++
	}
	if bodyOpen >= len(content) || content[bodyOpen] != '{' {
		return Result{Content: content}, nil
	}
	bodyClose := jstext.MatchingBrace(content, bodyOpen)
	if bodyClose < 0 {
		return Result{Content: content}, nil
	}
	ctorEnd := bodyClose + 1
	if ctorEnd < len(content) && content[ctorEnd] == ';' {
		ctorEnd++
	}

	ctorDoc, _, _ := jstext.LeadingDocComment(content, ctorStart)
	prototypeRe := regexp.MustCompile(`(?m)^` + qualified + `\s*\.\s*prototype\s*\.\s*([\w$]+)`)
	if !strings.Contains(ctorDoc, "@constructor") && !prototypeRe.MatchString(content) {
		return Result{Content: content}, nil
	}

	res := Result{Converted: true}
	var edits []edit

	inheritsRe := regexp.MustCompile(`goog\s*\.\s*inherits\s*\(\s*` + qualified + `\s*,\s*([\w$.\s]+?)\s*\)\s*;[ \t]*\r?\n?`)
	if m := inheritsRe.FindStringSubmatchIndex(content); m != nil {
		res.Base = whitespace.ReplaceAllString(content[m[2]:m[3]], "")
		edits = append(edits, edit{start: m[0], end: m[1]})
	}
	info := &InheritsInfo{ClassNamespace: ns, BaseNamespace: res.Base}

	var members []ClassMember
	var memberRanges []edit
	collect := func(matchStart, nameEnd int, name string, static bool) {
		if matchStart >= ctorStart && matchStart < ctorEnd {
			return
		}
		rest := content[nameEnd:]
		trimmed := strings.TrimLeft(rest, " \t")
		if !strings.HasPrefix(trimmed, "=") && !strings.HasPrefix(trimmed, ";") {
			return
		}
		if strings.HasPrefix(trimmed, "==") {
			return
		}
		end := jstext.StatementEnd(content, nameEnd)
		doc, start, ok := jstext.LeadingDocComment(content, matchStart)
		if !ok {
			start = matchStart
		}
		if static && (strings.Contains(doc, "@constructor") || strings.Contains(doc, "@interface")) {
			return
		}
		members = append(members, ClassMember{
			FullText:       content[start:end],
			Doc:            doc,
			ClassNamespace: ns,
			Name:           name,
			Declaration:    content[nameEnd:end],
			Static:         static,
		})
		memberRanges = append(memberRanges, edit{start: start, end: swallowLineBreaks(content, end)})
	}

	for _, m := range prototypeRe.FindAllStringSubmatchIndex(content, -1) {
		collect(m[0], m[1], content[m[2]:m[3]], false)
	}
	staticRe := regexp.MustCompile(`(?m)^` + qualified + `\s*\.\s*([\w$]+)\s*=\s*function\b`)
	for _, m := range staticRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[m[2]:m[3]]
		if staticNameExclusions[name] {
			continue
		}
		nameEnd := m[3]
		collect(m[0], nameEnd, name, true)
	}

	var fields, methods []string
	for _, member := range members {
		rendered, err := member.Render(info)
		if err != nil {
			return Result{}, errors.AddContext(err, errors.CtxNamespace, ns)
		}
		if member.IsField() {
			fields = append(fields, rendered)
			res.Fields++
		} else {
			methods = append(methods, rendered)
			res.Methods++
		}
	}

	params := strings.TrimSpace(content[parenOpen+1 : parenClose])
	body := RewriteSuperCalls(content[bodyOpen+1:bodyClose], *info)
	classText := keyword + buildClass(ns, res.Base, params, body, fields, methods)

	edits = append(edits, edit{start: ctorStart, end: ctorEnd, text: classText})
	edits = append(edits, memberRanges...)
	out, err := applyEdits(content, edits)
	if err != nil {
		return Result{}, errors.AddContext(err, errors.CtxNamespace, ns)
	}
	res.Content = out
	return res, nil
}

func buildClass(ns, base, params, body string, fields, methods []string) string {
	var b strings.Builder
	b.WriteString(ns)
	b.WriteString(" = class")
	if base != "" {
		b.WriteString(" extends ")
		b.WriteString(base)
	}
	b.WriteString(" {\n")

	bodyText := strings.Trim(body, "\r\n")
	emptyCtor := params == "" && strings.TrimSpace(bodyText) == "" && len(fields) == 0
	var sections []string
	if !emptyCtor {
		var ctor strings.Builder
		ctor.WriteString("  constructor(" + params + ") {\n")
		if strings.TrimSpace(bodyText) != "" {
			ctor.WriteString(jstext.IndentLines(jstext.Dedent("\n"+bodyText), "    ")[1:])
			ctor.WriteString("\n")
		}
		for i, f := range fields {
			if i > 0 || strings.TrimSpace(bodyText) != "" {
				ctor.WriteString("\n")
			}
			ctor.WriteString(jstext.IndentLines(f, "    "))
			ctor.WriteString("\n")
		}
		ctor.WriteString("  }")
		sections = append(sections, ctor.String())
	}
	for _, m := range methods {
		sections = append(sections, jstext.IndentLines(m, "  "))
	}
	b.WriteString(strings.Join(sections, "\n\n"))
	if len(sections) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("};")
	return b.String()
}

// swallowLineBreaks extends end over the rest of its line and at most one blank line.
func swallowLineBreaks(content string, end int) int {
	i := end
	for i < len(content) && (content[i] == ' ' || content[i] == '\t' || content[i] == '\r') {
		i++
	}
	if i < len(content) && content[i] == '\n' {
		i++
		j := i
		for j < len(content) && (content[j] == ' ' || content[j] == '\t' || content[j] == '\r') {
			j++
		}
		if j < len(content) && content[j] == '\n' {
			return j + 1
		}
		return i
	}
	return end
}

func applyEdits(content string, edits []edit) (string, error) {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b strings.Builder
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			return "", errors.New(errors.CodeInternal, fmt.Sprintf("overlapping rewrite at offset %d", e.start))
		}
		b.WriteString(content[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(content[pos:])
	return b.String(), nil
}
