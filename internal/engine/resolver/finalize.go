package resolver

import (
	"regexp"

	"esmigrate/internal/engine/exports"
	"esmigrate/internal/engine/jstext"
	"esmigrate/internal/engine/model"
)

var (
	suppressExtraRequire = regexp.MustCompile(`@suppress\s*\{extraRequire\}`)
	compiledConstant     = regexp.MustCompile(`(^|[^\w$])COMPILED([^\w$]|$)`)
)

// FinalizeOptions toggles the clean-ups that run after imports are in place.
type FinalizeOptions struct {
	StripSuppressExtraRequire bool
	ReplaceCompiled           bool
}

// Finalize removes the remaining references to the file's own namespaces: statement-start
// member assignments become let bindings and qualified member uses become bare names.
func Finalize(content string, decls []model.NamespaceDeclaration, opts FinalizeOptions) string {
	if opts.StripSuppressExtraRequire {
		content = suppressExtraRequire.ReplaceAllString(content, "")
	}

	sorted := append([]model.NamespaceDeclaration(nil), decls...)
	model.SortDeclarationsLongestFirst(sorted)
	for _, decl := range sorted {
		qualified := jstext.QualifiedPattern(decl.Namespace)
		memberAssignment := regexp.MustCompile(`(?m)^` + qualified + `\s*\.\s*([\w$]+)\s*=([^=]|$)`)
		content = memberAssignment.ReplaceAllString(content, "let ${1} =${2}")
		content = jstext.ReplaceMemberQualified(content, decl.Namespace)

		short := exports.LocalName(decl.Namespace)
		if jstext.IsShadowedByDeclaration(content, short) {
			content = jstext.ReplaceQualified(content, decl.Namespace, short)
		}
	}

	if opts.ReplaceCompiled {
		// Applied twice so adjacent occurrences sharing a delimiter are both rewritten.
		content = compiledConstant.ReplaceAllString(content, "${1}true${2}")
		content = compiledConstant.ReplaceAllString(content, "${1}true${2}")
	}
	return content
}
