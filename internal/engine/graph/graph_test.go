package graph

import (
	"reflect"
	"testing"

	"esmigrate/internal/engine/model"
)

func buildModel(t *testing.T, files ...model.FileModel) *model.Model {
	t.Helper()
	registry, err := model.NewRegistry(files)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return &model.Model{Files: files, Registry: registry}
}

func file(path, ns string, requires ...string) model.FileModel {
	f := model.FileModel{Path: path, Declarations: []model.NamespaceDeclaration{{Namespace: ns}}}
	for _, r := range requires {
		f.Requires = append(f.Requires, model.RequireReference{Namespace: r})
	}
	return f
}

func TestDetectCycles(t *testing.T) {
	g := Build(buildModel(t,
		file("a.js", "a", "b"),
		file("b.js", "b", "c"),
		file("c.js", "c", "a"),
		file("d.js", "d", "a"),
	))

	cycles := g.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %v", cycles)
	}
	if !reflect.DeepEqual(cycles[0], []string{"a.js", "b.js", "c.js"}) {
		t.Fatalf("unexpected cycle %v", cycles[0])
	}
}

func TestDetectCycles_Acyclic(t *testing.T) {
	g := Build(buildModel(t,
		file("a.js", "a", "b", "c"),
		file("b.js", "b", "c"),
		file("c.js", "c"),
	))
	if cycles := g.DetectCycles(); len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %v", cycles)
	}
	if g.EdgeCount() != 3 || g.FileCount() != 3 {
		t.Fatalf("unexpected size %d files %d edges", g.FileCount(), g.EdgeCount())
	}
}

func TestFindImportChain(t *testing.T) {
	g := Build(buildModel(t,
		file("a.js", "a", "b"),
		file("b.js", "b", "c"),
		file("c.js", "c"),
	))
	chain, ok := g.FindImportChain("a.js", "c.js")
	if !ok || !reflect.DeepEqual(chain, []string{"a.js", "b.js", "c.js"}) {
		t.Fatalf("unexpected chain %v %v", chain, ok)
	}
	if _, ok := g.FindImportChain("c.js", "a.js"); ok {
		t.Fatal("expected no reverse chain")
	}
}

func TestUnresolvedAndSelfRequires(t *testing.T) {
	g := Build(buildModel(t,
		model.FileModel{
			Path:         "a.js",
			Declarations: []model.NamespaceDeclaration{{Namespace: "a"}, {Namespace: "a.B"}},
			Requires:     []model.RequireReference{{Namespace: "a.B"}, {Namespace: "missing"}},
		},
	))
	if g.EdgeCount() != 0 {
		t.Fatal("self require must not create an edge")
	}
	if got := g.Unresolved()["a.js"]; !reflect.DeepEqual(got, []string{"missing"}) {
		t.Fatalf("unexpected unresolved %v", got)
	}
}
