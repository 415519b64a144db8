// Package graph is the file-level dependency graph induced by require references.
package graph

import (
	"sync"

	"esmigrate/internal/engine/model"
	"esmigrate/internal/shared/observability"
)

type Graph struct {
	mu sync.RWMutex

	files      map[string]bool
	imports    map[string]map[string]*ImportEdge // from -> to -> edge
	unresolved map[string][]string               // file -> namespaces without a declaring file
}

// ImportEdge is one resolved require between two files.
type ImportEdge struct {
	From       string
	To         string
	Namespaces []string
}

func NewGraph() *Graph {
	return &Graph{
		files:      make(map[string]bool),
		imports:    make(map[string]map[string]*ImportEdge),
		unresolved: make(map[string][]string),
	}
}

// Build adds every file of m.
func Build(m *model.Model) *Graph {
	g := NewGraph()
	for _, f := range m.Files {
		g.AddFile(f, m.Registry)
	}
	return g
}

// AddFile records the file and an edge for each require that resolves through registry.
// Requires resolving to the file itself are ignored.
func (g *Graph) AddFile(f model.FileModel, registry *model.Registry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.files[f.Path] = true
	for _, req := range f.Requires {
		target, ok := registry.Lookup(req.Namespace)
		if !ok {
			g.unresolved[f.Path] = append(g.unresolved[f.Path], req.Namespace)
			continue
		}
		if target == f.Path {
			continue
		}
		g.files[target] = true
		if g.imports[f.Path] == nil {
			g.imports[f.Path] = make(map[string]*ImportEdge)
		}
		edge, ok := g.imports[f.Path][target]
		if !ok {
			edge = &ImportEdge{From: f.Path, To: target}
			g.imports[f.Path][target] = edge
		}
		edge.Namespaces = append(edge.Namespaces, req.Namespace)
	}
	observability.GraphNodes.Set(float64(len(g.files)))
	observability.GraphEdges.Set(float64(g.edgeCountLocked()))
}

func (g *Graph) FileCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.files)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCountLocked()
}

func (g *Graph) edgeCountLocked() int {
	n := 0
	for _, targets := range g.imports {
		n += len(targets)
	}
	return n
}

// Unresolved maps each file to the required namespaces no file declares.
func (g *Graph) Unresolved() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]string, len(g.unresolved))
	for path, namespaces := range g.unresolved {
		out[path] = append([]string(nil), namespaces...)
	}
	return out
}
