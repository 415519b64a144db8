package jstext

import (
	"regexp"
	"testing"
)

func TestReplaceQualified(t *testing.T) {
	tests := []struct {
		name    string
		content string
		fq      string
		short   string
		want    string
	}{
		{"call", "x = new goog.events.Event(a);", "goog.events.Event", "Event", "x = new Event(a);"},
		{"doc type", "@type {!goog.events.Event}", "goog.events.Event", "Event", "@type {!Event}"},
		{"string literal kept", "goog.provide('goog.events.Event');", "goog.events.Event", "Event", "goog.provide('goog.events.Event');"},
		{"longer identifier kept", "goog.events.EventTarget()", "goog.events.Event", "Event", "goog.events.EventTarget()"},
		{"member of other kept", "a.goog.events.Event;", "goog.events.Event", "Event", "a.goog.events.Event;"},
		{"prefix of longer path", " goog.events.listen(x)", "goog.events", "events", " events.listen(x)"},
		{"start of file", "goog.array.forEach(x)", "goog.array", "array", "array.forEach(x)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplaceQualified(tt.content, tt.fq, tt.short); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceMemberQualified(t *testing.T) {
	got := ReplaceMemberQualified(" goog.foo.bar(1); f('goog.foo.baz'); g(goog.foo.qux, 2);", "goog.foo")
	want := " bar(1); f('goog.foo.baz'); g(goog.foo.qux, 2);"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIsShadowedByDeclaration(t *testing.T) {
	if !IsShadowedByDeclaration("let Logger = 1;", "Logger") {
		t.Fatal("expected let binding to shadow")
	}
	if !IsShadowedByDeclaration("for (var  i = 0;;) {}", "i") {
		t.Fatal("expected var binding to shadow")
	}
	if IsShadowedByDeclaration("let LoggerFactory = 1;", "Logger") {
		t.Fatal("prefix of longer binding must not shadow")
	}
	if IsShadowedByDeclaration("a.const Logger", "Logger") {
		t.Fatal("member access is not a declaration")
	}
}

func TestIsUsedAsQualifier(t *testing.T) {
	if !IsUsedAsQualifier("x = events.listen();", "events") {
		t.Fatal("expected qualifier use")
	}
	if IsUsedAsQualifier("x = goog.events.listen();", "events") {
		t.Fatal("dotted member is not a qualifier head")
	}
}

func TestStatementEnd(t *testing.T) {
	src := "a.b = function(x) {\n  if (x) { return ';'; }\n  // ; comment\n  return /;/.test(x);\n};\nnext();"
	end := StatementEnd(src, 0)
	if src[:end] != "a.b = function(x) {\n  if (x) { return ';'; }\n  // ; comment\n  return /;/.test(x);\n};" {
		t.Fatalf("unexpected statement: %q", src[:end])
	}

	noSemi := "a.b = function() {\n}\na.c = 1;"
	end = StatementEnd(noSemi, 0)
	if noSemi[:end] != "a.b = function() {\n}" {
		t.Fatalf("unexpected statement without semicolon: %q", noSemi[:end])
	}
}

func TestMatchingBrace(t *testing.T) {
	src := "f({a: '}', b: [1, 2]}) + 1"
	if got := MatchingBrace(src, 1); got != len("f({a: '}', b: [1, 2]})")-1 {
		t.Fatalf("unexpected close index %d", got)
	}
	if MatchingBrace("(", 0) != -1 {
		t.Fatal("expected -1 for unbalanced input")
	}
}

func TestInferParameters(t *testing.T) {
	doc := `/**
 * @param {number} a First.
 * @param {function(string):{x: number}} cb Callback.
 * @param {string=} [opt_b] Optional.
 * @param {...*} var_args Rest.
 * @return {string}
 */`
	if got := InferParameters(doc); got != "a, cb, opt_b, ...var_args" {
		t.Fatalf("got %q", got)
	}
	if got := InferParameters("/** @return {string} */"); got != "" {
		t.Fatalf("expected no parameters, got %q", got)
	}
}

func TestLeadingDocComment(t *testing.T) {
	src := "/** first */\nx = 1;\n/**\n * doc\n */\nfoo.prototype.bar;"
	offset := len(src) - len("foo.prototype.bar;")
	doc, start, ok := LeadingDocComment(src, offset)
	if !ok || doc != "/**\n * doc\n */" || start != len("/** first */\nx = 1;\n") {
		t.Fatalf("unexpected doc %q start=%d ok=%v", doc, start, ok)
	}
	if _, _, ok := LeadingDocComment("x = 1;\ny = 2;", 7); ok {
		t.Fatal("expected no doc comment")
	}
}

func TestQualifiedPattern(t *testing.T) {
	re := regexp.MustCompile(QualifiedPattern("a.b.C") + QualifiedPattern(".prototype."))
	if !re.MatchString("a.b\n    .C.prototype.x") {
		t.Fatal("expected multiline-safe match")
	}
}

func TestCapitalizeAndTypeName(t *testing.T) {
	if !IsTypeName("Event") || IsTypeName("events") || IsTypeName("") {
		t.Fatal("IsTypeName")
	}
	if Capitalize("yLogger") != "YLogger" || Capitalize("_x") != "_x" {
		t.Fatal("Capitalize")
	}
}
