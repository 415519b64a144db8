package jstext

import "strings"

// isWordByte matches \w plus '$', the JavaScript identifier alphabet for ASCII.
func isWordByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// regexAllowedAfter lists the characters after which a '/' starts a regex literal.
const regexAllowedAfter = "(,=:[!&|?{};+-*%<>~^"

// skipNonCode returns the index just past the string, template, comment or regex literal
// starting at i. ok is false when s[i] does not start one of those.
func skipNonCode(s string, i int, prev byte) (int, bool) {
	if i >= len(s) {
		return i, false
	}
	switch c := s[i]; c {
	case '\'', '"', '`':
		j := i + 1
		for j < len(s) {
			switch s[j] {
			case '\\':
				j += 2
				continue
			case c:
				return j + 1, true
			case '\n':
				if c != '`' {
					return j, true
				}
			}
			j++
		}
		return len(s), true
	case '/':
		if i+1 < len(s) && s[i+1] == '/' {
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				return len(s), true
			}
			return i + end, true
		}
		if i+1 < len(s) && s[i+1] == '*' {
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return len(s), true
			}
			return i + 2 + end + 2, true
		}
		if prev != 0 && !strings.ContainsRune(regexAllowedAfter, rune(prev)) {
			return i, false
		}
		j := i + 1
		inClass := false
		for j < len(s) {
			switch s[j] {
			case '\\':
				j += 2
				continue
			case '[':
				inClass = true
			case ']':
				inClass = false
			case '\n':
				return j, true
			case '/':
				if !inClass {
					j++
					for j < len(s) && isWordByte(s[j]) {
						j++
					}
					return j, true
				}
			}
			j++
		}
		return len(s), true
	}
	return i, false
}

// MatchingBrace returns the index of the bracket closing the one at open, or -1.
func MatchingBrace(s string, open int) int {
	if open < 0 || open >= len(s) {
		return -1
	}
	var stack []byte
	var prev byte
	for i := open; i < len(s); {
		if next, ok := skipNonCode(s, i, prev); ok {
			i = next
			continue
		}
		c := s[i]
		switch c {
		case '{', '(', '[':
			stack = append(stack, c)
		case '}', ')', ']':
			if len(stack) == 0 {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			prev = c
		}
		i++
	}
	return -1
}

// StatementEnd returns the offset just after the statement starting at from: after the first
// ';' at bracket depth zero, or after a closing '}' at depth zero that ends its line and is not
// continued on the next one. Returns len(s) when neither is found.
func StatementEnd(s string, from int) int {
	depth := 0
	var prev byte
	for i := from; i < len(s); {
		if next, ok := skipNonCode(s, i, prev); ok {
			i = next
			continue
		}
		c := s[i]
		switch c {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
			if depth == 0 && c == '}' && endsUncontinuedLine(s, i+1) {
				return i + 1
			}
		case ';':
			if depth <= 0 {
				return i + 1
			}
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			prev = c
		}
		i++
	}
	return len(s)
}

func endsUncontinuedLine(s string, i int) bool {
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r') {
		j++
	}
	if j < len(s) && s[j] != '\n' {
		return false
	}
	for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r' || s[j] == '\n') {
		j++
	}
	if j >= len(s) {
		return true
	}
	return !strings.ContainsRune(".,;)?:+-*/|&=(", rune(s[j]))
}
