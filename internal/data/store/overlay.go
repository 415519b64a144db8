package store

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"esmigrate/internal/core/ports"
)

// ChangeKind says what happened to a path inside an Overlay.
type ChangeKind string

const (
	ChangeWrite  ChangeKind = "write"
	ChangeRemove ChangeKind = "remove"
)

// Change is one pending modification recorded by an Overlay.
type Change struct {
	Path   string
	Kind   ChangeKind
	Before string
	After  string
}

// Overlay records writes and removals on top of a base store that it never modifies. Dry runs
// convert against an Overlay and report its Changes.
type Overlay struct {
	base    ports.SourceStore
	mu      sync.RWMutex
	writes  map[string]string
	removed map[string]bool
}

func NewOverlay(base ports.SourceStore) *Overlay {
	return &Overlay{base: base, writes: make(map[string]string), removed: make(map[string]bool)}
}

func (o *Overlay) ReadFile(path string) (string, error) {
	clean := filepath.Clean(path)
	o.mu.RLock()
	content, written := o.writes[clean]
	gone := o.removed[clean]
	o.mu.RUnlock()
	if written {
		return content, nil
	}
	if gone {
		return "", wrapFSError(os.ErrNotExist, path, "read")
	}
	return o.base.ReadFile(path)
}

func (o *Overlay) WriteFile(path, content string) error {
	clean := filepath.Clean(path)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes[clean] = content
	delete(o.removed, clean)
	return nil
}

func (o *Overlay) Remove(path string) error {
	if !o.IsFile(path) {
		return wrapFSError(os.ErrNotExist, path, "remove")
	}
	clean := filepath.Clean(path)
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.writes, clean)
	o.removed[clean] = true
	return nil
}

func (o *Overlay) IsFile(path string) bool {
	clean := filepath.Clean(path)
	o.mu.RLock()
	_, written := o.writes[clean]
	gone := o.removed[clean]
	o.mu.RUnlock()
	if written {
		return true
	}
	return !gone && o.base.IsFile(path)
}

func (o *Overlay) IsDir(path string) bool {
	o.mu.RLock()
	below := hasFileBelow(o.writes, path)
	o.mu.RUnlock()
	return below || o.base.IsDir(path)
}

func (o *Overlay) ListFiles(root string) ([]string, error) {
	var files []string
	if o.base.IsDir(root) {
		base, err := o.base.ListFiles(root)
		if err != nil {
			return nil, err
		}
		files = base
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	seen := make(map[string]bool, len(files)+len(o.writes))
	var out []string
	for _, f := range files {
		clean := filepath.Clean(f)
		if o.removed[clean] || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	for path := range o.writes {
		if isBelow(path, root) && !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Changes lists every pending modification, sorted by path. Writes that leave content unchanged
// are omitted.
func (o *Overlay) Changes() []Change {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var out []Change
	for path, after := range o.writes {
		before := ""
		if o.base.IsFile(path) {
			before, _ = o.base.ReadFile(path)
			if before == after {
				continue
			}
		}
		out = append(out, Change{Path: path, Kind: ChangeWrite, Before: before, After: after})
	}
	for path := range o.removed {
		before, _ := o.base.ReadFile(path)
		out = append(out, Change{Path: path, Kind: ChangeRemove, Before: before})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
