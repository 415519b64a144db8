package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"esmigrate/internal/data/store"
	"esmigrate/internal/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	mathSource = "goog.provide('goog.math');\n\ngoog.math.clamp = function(v, lo, hi) {\n  return Math.min(Math.max(v, lo), hi);\n};\n"
	mainSource = "goog.provide('app.main');\n\ngoog.require('goog.math');\n\napp.main.run = function(v) {\n  return goog.math.clamp(v, 0, 1);\n};\n"
)

func writeLibrary(t *testing.T) (configPath, root string) {
	t.Helper()
	dir := t.TempDir()
	root = filepath.Join(dir, "lib")
	files := map[string]string{
		filepath.Join(root, "closure", "goog", "math", "math.js"): mathSource,
		filepath.Join(root, "app", "main.js"):                     mainSource,
	}
	for path, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	configPath = filepath.Join(dir, "esmigrate.toml")
	cfg := "library_root = \"lib\"\n\n[cycles]\nenabled = false\n\n[journal]\nenabled = true\npath = \"state/journal.db\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return configPath, root
}

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestScan_YAML(t *testing.T) {
	cfgPath, root := writeLibrary(t)
	out, errOut, code := execute(t, "--config", cfgPath, "scan", "--format", "yaml")
	require.Equal(t, 0, code, errOut)

	var m model.Model
	require.NoError(t, yaml.Unmarshal([]byte(out), &m))
	require.Len(t, m.Files, 2)
	assert.Equal(t, filepath.Join(root, "app", "main.js"), m.Files[0].Path)
	assert.Equal(t, "app.main", m.Files[0].Declarations[0].Namespace)
	assert.Equal(t, "goog.math", m.Files[0].Requires[0].Namespace)
}

func TestScan_UnknownFormat(t *testing.T) {
	cfgPath, _ := writeLibrary(t)
	_, errOut, code := execute(t, "--config", cfgPath, "scan", "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown format")
}

func TestConvert_DryRunPrintsDiff(t *testing.T) {
	cfgPath, root := writeLibrary(t)
	out, errOut, code := execute(t, "--config", cfgPath, "convert", "--dry-run")
	require.Equal(t, 0, code, errOut)

	assert.Contains(t, out, "+ export {run};")
	assert.Contains(t, out, "- goog.provide('app.main');")
	assert.Contains(t, out, "Dry run finished")

	data, err := os.ReadFile(filepath.Join(root, "app", "main.js"))
	require.NoError(t, err)
	assert.Equal(t, mainSource, string(data))
}

func TestConvert_WritesAndJournals(t *testing.T) {
	cfgPath, root := writeLibrary(t)
	out, errOut, code := execute(t, "--config", cfgPath, "convert")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "converted: 2")

	data, err := os.ReadFile(filepath.Join(root, "app", "main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "import * as math from '../closure/goog/math/math.js';")

	out, errOut, code = execute(t, "--config", cfgPath, "journal")
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "2 converted")

	runID := strings.SplitN(lines[0], "\t", 2)[0]
	out, errOut, code = execute(t, "--config", cfgPath, "journal", runID)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, filepath.Join(root, "app", "main.js"))
}

func TestVersion(t *testing.T) {
	out, _, code := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "esmigrate v"+versionString+"\n", out)
}

func TestRenderDiff_Remove(t *testing.T) {
	got := renderDiff(store.Change{Path: "/lib/a.js", Kind: store.ChangeRemove, Before: "a\nb\n"})
	assert.Contains(t, got, "remove /lib/a.js")
	assert.Contains(t, got, "- 2 lines (4 B)")
}
