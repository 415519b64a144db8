package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process source tree keyed by cleaned path.
type Memory struct {
	mu    sync.RWMutex
	files map[string]string
}

func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for path, content := range files {
		m.files[filepath.Clean(path)] = content
	}
	return m
}

func (m *Memory) ReadFile(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[filepath.Clean(path)]
	if !ok {
		return "", wrapFSError(os.ErrNotExist, path, "read")
	}
	return content, nil
}

func (m *Memory) WriteFile(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
	return nil
}

func (m *Memory) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean := filepath.Clean(path)
	if _, ok := m.files[clean]; !ok {
		return wrapFSError(os.ErrNotExist, path, "remove")
	}
	delete(m.files, clean)
	return nil
}

func (m *Memory) IsFile(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *Memory) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return hasFileBelow(m.files, path)
}

func (m *Memory) ListFiles(root string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for path := range m.files {
		if isBelow(path, root) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func isBelow(path, dir string) bool {
	dir = filepath.Clean(dir)
	if dir == "." {
		return !filepath.IsAbs(path)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func hasFileBelow(files map[string]string, dir string) bool {
	for path := range files {
		if isBelow(path, dir) {
			return true
		}
	}
	return false
}
