package resolver

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/engine/jstext"
	"esmigrate/internal/engine/model"
)

type fileSet map[string]bool

func (f fileSet) IsFile(path string) bool { return f[path] }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(t *testing.T, files map[string][]string) *Resolver {
	t.Helper()
	var models []model.FileModel
	present := fileSet{}
	for path, namespaces := range files {
		fm := model.FileModel{Path: path}
		for _, ns := range namespaces {
			fm.Declarations = append(fm.Declarations, model.NamespaceDeclaration{Namespace: ns})
		}
		models = append(models, fm)
		present[path] = true
	}
	registry, err := model.NewRegistry(models)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return New(registry, present, quietLogger())
}

func TestFindSafeReference(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		namespace string
		forbidden *Forbidden
		want      string
	}{
		{"last segment", "x = goog.events.listen();", "goog.events", NewForbidden(), "events"},
		{"default replacement", "goog.string.trim(s);", "goog.string", NewForbidden(), "strings"},
		{"shadowed type name", "let Logger = 1;\nx.y.Logger.log();", "x.y.Logger", NewForbidden(), "YLogger"},
		{"used as qualifier", "events.foo();", "goog.events", NewForbidden(), "goog_events"},
		{"pluralized", "(item.x);", "item", NewForbidden(), "items"},
		{"underscore after plural", " events.x;", "events", NewForbidden(), "_events"},
		{"numeric fallback", "", "a", NewForbidden("a", "_a"), "_a2"},
		{"forbidden export", "", "goog.ui.Menu", NewForbidden("Menu"), "UiMenu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindSafeReference(tt.text, tt.namespace, tt.forbidden); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindSafeReference_NeverShadows(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		typeLike bool
	}{
		{"lower-case prefix bound", "let Logger = 1;\nconst yLogger = 2;\n", true},
		{"capitalised prefix bound", "let Logger = 1;\nlet YLogger = 2;\nx.y.Logger.log();", true},
		{"every prefix bound", "let Logger = 1;\nlet YLogger = 2;\nlet XyLogger = 3;\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSafeReference(tt.text, "x.y.Logger", NewForbidden())
			if jstext.IsShadowedByDeclaration(tt.text, got) || got == "yLogger" {
				t.Fatalf("alias %q collides with a local binding", got)
			}
			if tt.typeLike && !jstext.IsTypeName(got) {
				t.Fatalf("alias %q lost its type-like case", got)
			}
		})
	}
}

func TestFindSafeReference_CapitalisedForbidden(t *testing.T) {
	got := FindSafeReference("", "goog.ui.Menu", NewForbidden("Menu", "UiMenu"))
	if got != "GooguiMenu" {
		t.Fatalf("got %q, want %q", got, "GooguiMenu")
	}
}

func TestResolve_RewritesRequires(t *testing.T) {
	r := newTestResolver(t, map[string][]string{
		"/src/app/main.js":         {"app.main"},
		"/src/lib/events/event.js": {"goog.events.Event"},
		"/src/lib/string/string.js": {"goog.string"},
		"/src/lib/x/logger.js":     {"x.y.Logger"},
	})
	content := `goog.provide('app.main');

goog.require('goog.events.Event');
goog.require('goog.string');
goog.require('x.y.Logger');

let Logger = 1;
let run = function() {
  var e = new goog.events.Event('x');
  return goog.string.trim(x.y.Logger.name);
};
`
	requires := []model.RequireReference{
		{Namespace: "goog.events.Event", FullText: "goog.require('goog.events.Event');", HasFullText: true},
		{Namespace: "goog.string", FullText: "goog.require('goog.string');", HasFullText: true},
		{Namespace: "x.y.Logger", FullText: "goog.require('x.y.Logger');", HasFullText: true},
	}
	res, err := r.Resolve("/src/app/main.js", content, requires, []string{"run"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"import {Event} from '../lib/events/event.js';",
		"import * as strings from '../lib/string/string.js';",
		"import {Logger as YLogger} from '../lib/x/logger.js';",
		"var e = new Event('x');",
		"return strings.trim(YLogger.name);",
	} {
		if !strings.Contains(res.Content, want) {
			t.Fatalf("expected %q in:\n%s", want, res.Content)
		}
	}
	if strings.Contains(res.Content, "goog.require") {
		t.Fatalf("require survived:\n%s", res.Content)
	}
	seen := map[string]bool{"run": true}
	for ns, alias := range res.Aliases {
		if seen[alias] {
			t.Fatalf("alias %q for %s is not unique", alias, ns)
		}
		seen[alias] = true
	}
}

func TestResolve_UnresolvedIsFatal(t *testing.T) {
	r := newTestResolver(t, map[string][]string{"/src/a.js": {"a"}})
	_, err := r.Resolve("/src/a.js", "goog.require('missing.ns');", []model.RequireReference{
		{Namespace: "missing.ns", FullText: "goog.require('missing.ns');", HasFullText: true},
	}, nil)
	if !errors.IsCode(err, errors.CodeUnresolved) || !errors.IsFatal(err) {
		t.Fatalf("expected fatal unresolved error, got %v", err)
	}

	registry, _ := model.NewRegistry([]model.FileModel{{Path: "/src/gone.js", Declarations: []model.NamespaceDeclaration{{Namespace: "gone"}}}})
	r = New(registry, fileSet{}, quietLogger())
	_, err = r.Resolve("/src/a.js", "", []model.RequireReference{{Namespace: "gone"}}, nil)
	if !errors.IsCode(err, errors.CodeUnresolved) {
		t.Fatalf("expected unreadable target to be unresolved, got %v", err)
	}
}

func TestResolve_InsertsSynthesizedImports(t *testing.T) {
	r := newTestResolver(t, map[string][]string{"/src/a.js": {"a"}, "/src/b.js": {"lib.b"}})
	reqs := []model.RequireReference{{Namespace: "lib.b"}}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"after first import", "goog.provide('a');\nimport {X} from './x.js';\n\nfoo();\n",
			"goog.provide('a');\nimport {X} from './x.js';\nimport * as b from './b.js';\n\nfoo();\n"},
		{"after first goog statement", "goog.provide('a');\n\nfoo();\n",
			"goog.provide('a');\nimport * as b from './b.js';\n\nfoo();\n"},
		{"top of file", "foo();\n", "import * as b from './b.js';\nfoo();\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve("/src/a.js", tt.content, reqs, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Content != tt.want {
				t.Fatalf("got %q, want %q", res.Content, tt.want)
			}
		})
	}
}

func TestResolve_ImportedFunction(t *testing.T) {
	r := newTestResolver(t, map[string][]string{"/src/a.js": {"a"}, "/src/b.js": {"lib.b"}})
	content := "const {helper} = goog.require('lib.b');\nhelper();\n"
	res, err := r.Resolve("/src/a.js", content, []model.RequireReference{
		{Namespace: "lib.b", ImportedFunction: "helper", FullText: "const {helper} = goog.require('lib.b');", HasFullText: true},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "import {helper} from './b.js';\nhelper();\n" {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestResolve_PinnedNamesAreNotReused(t *testing.T) {
	r := newTestResolver(t, map[string][]string{
		"/src/a.js":         {"a"},
		"/src/ui/foo.js":    {"goog.ui.long.Foo"},
		"/src/util/util.js": {"x.util"},
	})
	content := "goog.require('goog.ui.long.Foo');\nconst {Foo} = goog.require('x.util');\nnew goog.ui.long.Foo(Foo());\n"
	res, err := r.Resolve("/src/a.js", content, []model.RequireReference{
		{Namespace: "goog.ui.long.Foo", FullText: "goog.require('goog.ui.long.Foo');", HasFullText: true},
		{Namespace: "x.util", ImportedFunction: "Foo", FullText: "const {Foo} = goog.require('x.util');", HasFullText: true},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "import {Foo as LongFoo} from './ui/foo.js';\nimport {Foo} from './util/util.js';\nnew LongFoo(Foo());\n"
	if res.Content != want {
		t.Fatalf("got %q, want %q", res.Content, want)
	}
}

func TestImportStatementAndSpecifier(t *testing.T) {
	if got := ImportStatement("goog.ui.ComponentUtil", "ComponentUtil", "./c.js"); got != "import * as ComponentUtil from './c.js';" {
		t.Fatalf("whole module exception: %q", got)
	}
	if got := ImportStatement("goog.async.Error", "AsyncError", "./e.js"); got != "import {async_Error as AsyncError} from './e.js';" {
		t.Fatalf("reserved element: %q", got)
	}
	if got := ImportStatement("a.Foo", "Foo", "./f.js"); got != "import {Foo} from './f.js';" {
		t.Fatalf("named import: %q", got)
	}

	if got, _ := RelativeSpecifier("/a/b/c.js", "/a/b/d.js"); got != "./d.js" {
		t.Fatalf("sibling: %q", got)
	}
	if got, _ := RelativeSpecifier("/a/b/c.js", "/a/x/d.js"); got != "../x/d.js" {
		t.Fatalf("parent: %q", got)
	}
}

func TestFinalize(t *testing.T) {
	content := "let x = 1;\napp.main.helper = function() {};\napp.main.helper();\nf('app.main.helper');\nif (!COMPILED) {}\n/** @suppress {extraRequire} */\n"
	got := Finalize(content, []model.NamespaceDeclaration{{Namespace: "app.main"}}, FinalizeOptions{
		StripSuppressExtraRequire: true,
		ReplaceCompiled:           true,
	})
	want := "let x = 1;\nlet helper = function() {};\nhelper();\nf('app.main.helper');\nif (!true) {}\n/**  */\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = Finalize("let Widget = 1;\nnew a.b.Widget();\n", []model.NamespaceDeclaration{{Namespace: "a.b.Widget"}}, FinalizeOptions{})
	if got != "let Widget = 1;\nnew Widget();\n" {
		t.Fatalf("self reference not rewritten: %q", got)
	}
}
