package resolver

import (
	"strconv"

	"esmigrate/internal/engine/jstext"
)

// ReservedAliases can never be chosen as an import alias.
var ReservedAliases = []string{
	"document", "Array", "localStorage", "Map", "Set", "string", "number",
	"Object", "Notification", "Error", "Date",
}

var defaultReplacements = map[string]string{
	"string": "strings",
	"number": "numbers",
}

// Forbidden is the per-file accumulator of names an alias may not take. It grows as aliases are
// chosen; it is never shared between files.
type Forbidden struct {
	names map[string]struct{}
}

// NewForbidden seeds the set with the reserved aliases plus the given names.
func NewForbidden(names ...string) *Forbidden {
	f := &Forbidden{names: make(map[string]struct{}, len(ReservedAliases)+len(names))}
	for _, n := range ReservedAliases {
		f.Add(n)
	}
	for _, n := range names {
		f.Add(n)
	}
	return f
}

func (f *Forbidden) Add(name string) {
	if name != "" {
		f.names[name] = struct{}{}
	}
}

func (f *Forbidden) Contains(name string) bool {
	_, ok := f.names[name]
	return ok
}

// FindSafeReference chooses the local alias for namespace in a file with the given text. The
// result depends only on text, namespace and the current forbidden set; the set is not modified.
func FindSafeReference(text, namespace string, forbidden *Forbidden) string {
	parts := jstext.Segments(namespace)
	name := parts[len(parts)-1]
	typeLike := jstext.IsTypeName(name)
	index := len(parts) - 1

	// Type-like aliases are capitalised on return, so both spellings must be free.
	final := func(candidate string) string {
		if typeLike {
			return jstext.Capitalize(candidate)
		}
		return candidate
	}
	collides := func(candidate string) bool {
		for _, c := range []string{candidate, final(candidate)} {
			if forbidden.Contains(c) || jstext.IsShadowedByDeclaration(text, c) {
				return true
			}
		}
		return false
	}
	qualifies := func(candidate string) bool {
		return jstext.IsUsedAsQualifier(text, candidate) || jstext.IsUsedAsQualifier(text, final(candidate))
	}

	underscored := false
	for collides(name) {
		if replacement, ok := defaultReplacements[name]; ok {
			name = replacement
			continue
		}
		index--
		if index >= 0 {
			name = parts[index] + name
			continue
		}
		if !underscored {
			name = "_" + name
			underscored = true
			continue
		}
		name = numbered(name, collides)
		break
	}

	for qualifies(name) {
		index--
		switch {
		case index >= 0:
			name = parts[index] + "_" + name
		case name[len(name)-1] != 's':
			name += "s"
		case !underscored:
			name = "_" + name
			underscored = true
		default:
			name = numbered(name, func(c string) bool { return collides(c) || qualifies(c) })
		}
	}
	if collides(name) {
		name = numbered(name, func(c string) bool { return collides(c) || qualifies(c) })
	}

	return final(name)
}

// numbered is the terminal fallback: name2, name3, ... until clear.
func numbered(name string, taken func(string) bool) string {
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
