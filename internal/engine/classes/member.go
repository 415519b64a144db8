package classes

import (
	"fmt"
	"regexp"
	"strings"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/engine/jstext"
)

// Shape is the closed set of legacy member declaration forms.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeNoInitializer is "Foo.prototype.bar;".
	ShapeNoInitializer
	// ShapeAbstractMarker is "Foo.prototype.bar = goog.abstractMethod;".
	ShapeAbstractMarker
	// ShapeDelegation is "Foo.prototype.bar = Foo.prototype.baz;" or a plain function reference.
	ShapeDelegation
	// ShapeFunctionAssignment is "Foo.prototype.bar = function(...) {...};".
	ShapeFunctionAssignment
)

func (s Shape) String() string {
	switch s {
	case ShapeNoInitializer:
		return "no-initializer"
	case ShapeAbstractMarker:
		return "abstract"
	case ShapeDelegation:
		return "delegation"
	case ShapeFunctionAssignment:
		return "function"
	default:
		return "unknown"
	}
}

const nullFunction = "goog.nullFunction"

var (
	methodDelegationPattern = regexp.MustCompile(`^\s*=\s*(?:/\*\*[^*]+\*/\s*\(\s*)?[\w$.\s]+` +
		jstext.QualifiedPattern(".prototype.") + `([\w$]+)\)?;$`)
	functionDelegationPattern = regexp.MustCompile(`^\s*=\s*(?:/\*\*[^*]+\*/\s*\(\s*)?([\w$.\s]+\.[\w$]+(?:\('[^']+'\))?)\)?;$`)
	abstractMarkerPattern     = regexp.MustCompile(`^\s*=\s*goog\.abstractMethod;$`)
	functionAssignmentPattern = regexp.MustCompile(`^\s*=\s*function\s*`)
	functionInitializer       = regexp.MustCompile(`(?s)^\s*=\s*function.*`)
	nullFunctionInitializer   = regexp.MustCompile(`(?s)^\s*=\s*goog\.nullFunction;.*`)

	visibilityWithType     = regexp.MustCompile(`\* @(private|protected|public) \{`)
	placeholderFuncType    = regexp.MustCompile(`\s*\* @type \{function\(\) ?: ?void\}\r?\n`)
	docClose               = regexp.MustCompile(`(\s*)\*/\s*$`)
	primitiveNonNullable   = regexp.MustCompile(`@type \{(number|boolean|string|KeyCodes)\}`)
	typeAnnotation         = regexp.MustCompile(`@type \{(.*)\}`)
	typeAnnotationLine     = regexp.MustCompile(`@type \{.*\}`)
	initializerAssignment  = regexp.MustCompile(`^\s*=\s*`)
	whitespace             = regexp.MustCompile(`\s+`)
	trailingStatementClose = regexp.MustCompile(`;\s*$`)
)

// ClassMember is one prototype (or static) member of a legacy class. It is derived from text
// each time a class is rewritten and never persisted.
type ClassMember struct {
	FullText       string
	Doc            string
	ClassNamespace string
	Name           string
	// Declaration is everything after the member name, for example " = function() {...};".
	Declaration string
	Static      bool
}

// InheritsInfo names the class being rewritten and its goog.inherits base, if any.
type InheritsInfo struct {
	ClassNamespace string
	BaseNamespace  string
}

func (m ClassMember) hasNoInitializer() bool {
	return strings.TrimSpace(m.Declaration) == ";"
}

func (m ClassMember) isAbstractMarker() bool {
	return abstractMarkerPattern.MatchString(m.Declaration)
}

// Shape classifies the declaration. Anything outside the closed set is an error: the pattern
// library is exhaustive for the legacy code base, so an unmatched form is a coverage bug.
func (m ClassMember) Shape() (Shape, error) {
	switch {
	case m.hasNoInitializer():
		return ShapeNoInitializer, nil
	case m.isAbstractMarker():
		return ShapeAbstractMarker, nil
	case functionDelegationPattern.MatchString(m.Declaration):
		return ShapeDelegation, nil
	case functionAssignmentPattern.MatchString(m.Declaration):
		return ShapeFunctionAssignment, nil
	}
	err := &errors.DomainError{
		Code:    errors.CodeUnknownShape,
		Message: fmt.Sprintf("unexpected declaration %q", strings.TrimSpace(m.Declaration)),
	}
	return ShapeUnknown, err.WithContext(errors.CtxMember, m.ClassNamespace+"."+m.Name)
}

func (m ClassMember) IsMethod() bool {
	return functionInitializer.MatchString(m.Declaration) ||
		(nullFunctionInitializer.MatchString(m.Declaration) && !strings.Contains(m.Doc, "{Function}")) ||
		strings.Contains(m.Doc, "@param") ||
		strings.Contains(m.Doc, "@return") ||
		m.isAbstractMarker()
}

func (m ClassMember) IsField() bool {
	return !m.IsMethod()
}

// DocComment returns the member documentation adjusted for ES6 class syntax.
func (m ClassMember) DocComment() string {
	if m.Doc == "" {
		if m.isAbstractMarker() {
			return "/** @abstract */"
		}
		return ""
	}
	doc := visibilityWithType.ReplaceAllString(m.Doc, "* @$1\n * @type {")
	if m.isAbstractMarker() {
		doc = placeholderFuncType.ReplaceAllString(doc, "\n")
		if !strings.Contains(doc, "@abstract") {
			doc = docClose.ReplaceAllString(doc, "${1}* @abstract${0}")
		}
		return doc
	}
	if m.hasNoInitializer() && primitiveNonNullable.MatchString(doc) {
		doc = typeAnnotation.ReplaceAllString(doc, "@type {${1}|null}")
	}
	return doc
}

// MethodDeclaration renders the member as an ES6 method. inherits may be nil.
func (m ClassMember) MethodDeclaration(inherits *InheritsInfo) (string, error) {
	shape, err := m.Shape()
	if err != nil {
		return "", err
	}
	params := jstext.InferParameters(m.Doc)
	header := m.Name + "(" + params + ") {"
	if m.Static {
		header = "static " + header
	}

	switch shape {
	case ShapeNoInitializer, ShapeAbstractMarker:
		if shape == ShapeNoInitializer && strings.Contains(m.Doc, "@override") {
			return header + "\n  return super." + m.Name + "(" + params + ");\n}", nil
		}
		return header + "}", nil
	case ShapeDelegation:
		if match := methodDelegationPattern.FindStringSubmatch(m.Declaration); match != nil {
			return header + "\n  return this." + match[1] + "(" + params + ");\n}", nil
		}
		match := functionDelegationPattern.FindStringSubmatch(m.Declaration)
		delegate := whitespace.ReplaceAllString(match[1], "")
		if delegate == nullFunction {
			return header + "}", nil
		}
		return header + "\n  return " + delegate + "(" + params + ");\n}", nil
	case ShapeFunctionAssignment:
		decl := functionAssignmentPattern.ReplaceAllLiteralString(m.Declaration, m.Name)
		decl = trailingStatementClose.ReplaceAllString(decl, "")
		decl = jstext.Dedent(decl)
		if inherits != nil {
			decl = RewriteSuperCalls(decl, *inherits)
		}
		if m.Static {
			decl = "static " + decl
		}
		return decl, nil
	}
	return "", fmt.Errorf("unhandled member shape %s", shape)
}

// Field renders the member as a constructor assignment.
func (m ClassMember) Field() string {
	doc := m.DocComment()
	rhs := m.Declaration
	if m.hasNoInitializer() {
		if unionsWithUndefined(doc) {
			rhs = " = undefined;"
		} else {
			rhs = " = null;"
		}
	}
	rhs = initializerAssignment.ReplaceAllLiteralString(rhs, "")
	code := "this." + m.Name + " = " + strings.TrimRight(jstext.Dedent(rhs), " \t\r\n")
	if doc == "" {
		return code
	}
	return doc + "\n" + code
}

// Render returns the complete ES6 representation of the member, documentation included.
func (m ClassMember) Render(inherits *InheritsInfo) (string, error) {
	if m.IsField() {
		return m.Field(), nil
	}
	decl, err := m.MethodDeclaration(inherits)
	if err != nil {
		return "", err
	}
	doc := m.DocComment()
	if doc == "" {
		return decl, nil
	}
	return doc + "\n" + decl, nil
}

// unionsWithUndefined matches "@type {...undefined...}" where undefined is not a generic
// argument such as Array<undefined>.
func unionsWithUndefined(doc string) bool {
	for _, line := range typeAnnotationLine.FindAllString(doc, -1) {
		rest := line
		for {
			idx := strings.Index(rest, "undefined")
			if idx < 0 {
				break
			}
			after := rest[idx+len("undefined"):]
			if !strings.HasPrefix(after, ">") {
				return true
			}
			rest = after
		}
	}
	return false
}

// RewriteSuperCalls turns the legacy base-invocation protocol into super calls.
func RewriteSuperCalls(code string, info InheritsInfo) string {
	ns := jstext.QualifiedPattern(info.ClassNamespace)
	rules := []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(ns + `\s*\.\s*base\s*\(\s*this,\s*['"]constructor['"],?\s*`), "super("},
		{regexp.MustCompile(ns + `\s*\.\s*base\s*\(\s*this,\s*['"]([\w$]+)['"],?\s*`), "super.${1}("},
		{regexp.MustCompile(ns + `\s*\.\s*superClass_\s*\.\s*constructor\s*\.\s*call\s*\(\s*this,?\s*`), "super("},
		{regexp.MustCompile(ns + `\s*\.\s*superClass_\s*\.\s*([\w$]+)\s*\.\s*call\s*\(\s*this,?\s*`), "super.${1}("},
	}
	if info.BaseNamespace != "" {
		base := jstext.QualifiedPattern(info.BaseNamespace)
		rules = append(rules,
			struct {
				re   *regexp.Regexp
				repl string
			}{regexp.MustCompile(base + `\s*\.\s*prototype\s*\.\s*([\w$]+)\s*\.\s*call\s*\(\s*this,?\s*`), "super.${1}("},
			struct {
				re   *regexp.Regexp
				repl string
			}{regexp.MustCompile(`(^|[^\w$.])` + base + `\s*\.\s*call\s*\(\s*this,?\s*`), "${1}super("},
		)
	}
	for _, rule := range rules {
		code = rule.re.ReplaceAllString(code, rule.repl)
	}
	return code
}
