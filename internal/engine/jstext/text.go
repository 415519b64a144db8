// Package jstext is the pattern layer shared by every rewrite pass. It recognizes the closed set
// of legacy idioms on raw text; it never builds a syntax tree.
package jstext

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// QualifiedPattern returns a regexp source matching ns with optional whitespace around dots.
// A leading or trailing dot in ns is kept, so ".prototype." matches "Foo .prototype. bar".
func QualifiedPattern(ns string) string {
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `\s*\.\s*`)
}

func Segments(ns string) []string {
	return strings.Split(ns, ".")
}

func LastSegment(ns string) string {
	parts := Segments(ns)
	return parts[len(parts)-1]
}

// IsTypeName reports whether name starts with an upper-case letter.
func IsTypeName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func isQuote(b byte) bool {
	return b == '\'' || b == '"'
}

// ReplaceQualified rewrites every occurrence of fq bounded by non-identifier characters to
// short. Occurrences touching a quote are string literals and stay untouched, as do ones
// preceded by a dot (they are members of something else).
func ReplaceQualified(content, fq, short string) string {
	if fq == "" || fq == short {
		return content
	}
	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(content[pos:], fq)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(fq)
		var before, after byte
		if start > 0 {
			before = content[start-1]
		}
		if end < len(content) {
			after = content[end]
		}
		if isWordByte(before) || before == '.' || isWordByte(after) || isQuote(before) || isQuote(after) {
			b.WriteString(content[pos:end])
			pos = end
			continue
		}
		b.WriteString(content[pos:start])
		b.WriteString(short)
		pos = end
	}
	b.WriteString(content[pos:])
	return b.String()
}

// ReplaceMemberQualified rewrites ns.member to member for every member of ns. Occurrences
// next to a comma or quote are left alone since they are usually string arguments.
func ReplaceMemberQualified(content, ns string) string {
	needle := ns + "."
	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(content[pos:], needle)
		if idx < 0 {
			break
		}
		start := pos + idx
		memberStart := start + len(needle)
		memberEnd := memberStart
		for memberEnd < len(content) && isWordByte(content[memberEnd]) {
			memberEnd++
		}
		var before, after byte
		if start > 0 {
			before = content[start-1]
		}
		if memberEnd < len(content) {
			after = content[memberEnd]
		}
		skip := memberEnd == memberStart ||
			isWordByte(before) || before == '.' ||
			before == ',' || isQuote(before) ||
			after == ',' || isQuote(after)
		if skip {
			b.WriteString(content[pos:memberStart])
			pos = memberStart
			continue
		}
		b.WriteString(content[pos:start])
		b.WriteString(content[memberStart:memberEnd])
		pos = memberEnd
	}
	b.WriteString(content[pos:])
	return b.String()
}

// IsShadowedByDeclaration reports whether content declares name with var, let or const.
func IsShadowedByDeclaration(content, name string) bool {
	re := regexp.MustCompile(`(?:^|[^\w$.])(?:var|let|const)\s+` + regexp.QuoteMeta(name) + `(?:$|[^\w$])`)
	return re.MatchString(content)
}

// IsUsedAsQualifier reports whether name appears as the head of a dotted path, for example
// "name.foo", preceded by a character that is neither a dot nor part of an identifier.
func IsUsedAsQualifier(content, name string) bool {
	re := regexp.MustCompile(`(?:^|[^.\w$])` + regexp.QuoteMeta(name) + `\.`)
	return re.MatchString(content)
}

// LeadingDocComment returns the /** */ block that ends right before offset, separated from it
// only by whitespace, and the index where that block starts. ok is false without one.
func LeadingDocComment(content string, offset int) (doc string, start int, ok bool) {
	j := offset
	for j > 0 && strings.ContainsRune(" \t\r\n", rune(content[j-1])) {
		j--
	}
	if j < 2 || content[j-2:j] != "*/" {
		return "", offset, false
	}
	open := strings.LastIndex(content[:j-2], "/**")
	if open < 0 || strings.Contains(content[open+3:j-2], "*/") {
		return "", offset, false
	}
	return content[open:j], open, true
}

// InferParameters builds a parameter list from @param annotations. Variadic types produce
// "...name"; optional "[name]" and "[name=default]" forms produce "name".
func InferParameters(doc string) string {
	var params []string
	rest := doc
	for {
		idx := strings.Index(rest, "@param")
		if idx < 0 {
			break
		}
		rest = rest[idx+len("@param"):]
		i := skipSpaces(rest, 0)
		variadic := false
		if i < len(rest) && rest[i] == '{' {
			closeIdx := matchCurly(rest, i)
			if closeIdx < 0 {
				break
			}
			typ := strings.TrimSpace(rest[i+1 : closeIdx])
			variadic = strings.HasPrefix(typ, "...")
			i = skipSpaces(rest, closeIdx+1)
		}
		if i < len(rest) && rest[i] == '[' {
			i++
		}
		start := i
		for i < len(rest) && isWordByte(rest[i]) {
			i++
		}
		if i == start {
			continue
		}
		name := rest[start:i]
		if variadic {
			name = "..." + name
		}
		params = append(params, name)
		rest = rest[i:]
	}
	return strings.Join(params, ", ")
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '*') {
		if s[i] == '*' && i+1 < len(s) && s[i+1] == '/' {
			break
		}
		i++
	}
	return i
}

// matchCurly matches braces inside JSDoc type expressions, which contain no strings.
func matchCurly(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IndentLines prefixes every non-empty line of s with indent.
func IndentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// Dedent removes the common leading whitespace of all non-empty lines after the first.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return s
	}
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) >= common {
			lines[i] = lines[i][common:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " \t")
		}
	}
	return strings.Join(lines, "\n")
}
