package scanner

import (
	"strings"

	"esmigrate/internal/engine/model"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var requireCalls = map[string]bool{
	"goog.require":        true,
	"goog.requireType":    true,
	"goog.forwardDeclare": true,
}

// extractionContext carries the source and the file model being filled for one parse.
type extractionContext struct {
	source  []byte
	file    *model.FileModel
	exports []model.ExportName
}

func (c *extractionContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.source[node.StartByte():node.EndByte()])
}

// extract walks the top-level statements of a parsed file. Legacy namespace calls are only
// meaningful at the top level, so nested scopes are never visited.
func extract(root *sitter.Node, source []byte, path string) model.FileModel {
	fm := model.FileModel{Path: path}
	ctx := &extractionContext{source: source, file: &fm}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "expression_statement":
			ctx.expressionStatement(stmt)
		case "lexical_declaration", "variable_declaration":
			ctx.declaration(stmt)
		}
	}

	if len(ctx.exports) > 0 {
		for i := range fm.Declarations {
			if fm.Declarations[i].IsModule {
				fm.Declarations[i].Exports = ctx.exports
				break
			}
		}
	}
	return fm
}

func (c *extractionContext) expressionStatement(stmt *sitter.Node) {
	expr := stmt.NamedChild(0)
	if expr == nil {
		return
	}
	switch expr.Kind() {
	case "call_expression":
		callee, arg, ok := c.googCall(expr)
		if !ok {
			return
		}
		full := c.text(stmt)
		switch {
		case callee == "goog.provide" || callee == "goog.module":
			c.file.Declarations = append(c.file.Declarations, model.NamespaceDeclaration{
				Namespace: arg,
				IsModule:  callee == "goog.module",
				FullText:  full,
			})
		case requireCalls[callee]:
			c.file.Requires = append(c.file.Requires, model.RequireReference{
				Namespace:   arg,
				FullText:    full,
				HasFullText: true,
			})
		}
	case "assignment_expression":
		c.exportAssignment(stmt, expr)
	}
}

// exportAssignment records "exports.name = ..." and "exports = {...}" statements.
func (c *extractionContext) exportAssignment(stmt, assign *sitter.Node) {
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}

	switch left.Kind() {
	case "member_expression":
		object := left.ChildByFieldName("object")
		property := left.ChildByFieldName("property")
		if c.text(object) != "exports" || property == nil {
			return
		}
		prefix := string(c.source[stmt.StartByte():right.StartByte()])
		c.exports = append(c.exports, model.ExportName{
			Name:           c.text(property),
			IsInlineExport: true,
			FullText:       strings.TrimRight(prefix, " \t\r\n"),
		})
	case "identifier":
		if c.text(left) != "exports" {
			return
		}
		full := c.text(stmt)
		for _, name := range c.blockExportNames(right) {
			c.exports = append(c.exports, model.ExportName{Name: name, FullText: full})
		}
	}
}

func (c *extractionContext) blockExportNames(value *sitter.Node) []string {
	switch value.Kind() {
	case "identifier":
		return []string{c.text(value)}
	case "object":
		var names []string
		for i := uint(0); i < value.NamedChildCount(); i++ {
			entry := value.NamedChild(i)
			switch entry.Kind() {
			case "shorthand_property_identifier":
				names = append(names, c.text(entry))
			case "pair":
				names = append(names, unquote(c.text(entry.ChildByFieldName("key"))))
			}
		}
		return names
	}
	return nil
}

// declaration handles "const X = goog.require('ns');" and "const {a, b} = goog.require('ns');".
func (c *extractionContext) declaration(stmt *sitter.Node) {
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		declarator := stmt.NamedChild(i)
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		value := declarator.ChildByFieldName("value")
		name := declarator.ChildByFieldName("name")
		if value == nil || name == nil || value.Kind() != "call_expression" {
			continue
		}
		callee, ns, ok := c.googCall(value)
		if !ok || !requireCalls[callee] {
			continue
		}
		full := c.text(stmt)

		switch name.Kind() {
		case "identifier":
			c.file.Requires = append(c.file.Requires, model.RequireReference{
				Namespace:      ns,
				ShortReference: c.text(name),
				FullText:       full,
				HasFullText:    true,
			})
		case "object_pattern":
			for j, fn := range c.patternNames(name) {
				ref := model.RequireReference{Namespace: ns, ImportedFunction: fn}
				if j == 0 {
					ref.FullText = full
					ref.HasFullText = true
				}
				c.file.Requires = append(c.file.Requires, ref)
			}
		}
	}
}

func (c *extractionContext) patternNames(pattern *sitter.Node) []string {
	var names []string
	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		entry := pattern.NamedChild(i)
		switch entry.Kind() {
		case "shorthand_property_identifier_pattern":
			names = append(names, c.text(entry))
		case "pair_pattern":
			names = append(names, c.text(entry.ChildByFieldName("key")))
		}
	}
	return names
}

// googCall returns the dotted callee and the first string argument of a call like
// goog.provide('a.b').
func (c *extractionContext) googCall(call *sitter.Node) (string, string, bool) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil || fn.Kind() != "member_expression" {
		return "", "", false
	}
	callee := strings.Join(strings.Fields(c.text(fn)), "")
	if !strings.HasPrefix(callee, "goog.") {
		return "", "", false
	}
	first := args.NamedChild(0)
	if first == nil || first.Kind() != "string" {
		return "", "", false
	}
	return callee, unquote(c.text(first)), true
}

func unquote(s string) string {
	return strings.Trim(s, "'\"`")
}
