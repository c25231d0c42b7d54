package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveNearestAncestor(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "default_max_lines = 100\n")
	writeConfig(t, filepath.Join(root, "sub"), "default_max_lines = 42\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "other"), 0o755))

	loader, err := NewLoader(root)
	require.NoError(t, err)

	deep, err := loader.Resolve(filepath.Join(root, "sub", "deep", "a.go"))
	require.NoError(t, err)
	assert.Equal(t, 42, deep.DefaultMaxLines)
	assert.Equal(t, filepath.Join(root, "sub"), deep.RootDir)

	other, err := loader.Resolve(filepath.Join(root, "other", "b.go"))
	require.NoError(t, err)
	assert.Equal(t, 100, other.DefaultMaxLines)
	assert.Equal(t, root, other.RootDir)
}

func TestResolveFallsBackToBuiltin(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))

	loader, err := NewLoader(root)
	require.NoError(t, err)

	cfg, err := loader.Resolve(filepath.Join(root, "nested", "a.go"))
	require.NoError(t, err)
	assert.True(t, cfg.Origin.IsBuiltIn())
	assert.Equal(t, DefaultMaxLines, cfg.DefaultMaxLines)
}

func TestResolveMemoizesPerDirectory(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "default_max_lines = 77\n")

	loader, err := NewLoader(root)
	require.NoError(t, err)

	first, err := loader.ResolveDir(root)
	require.NoError(t, err)

	// A config edit after first resolution must not be seen: results are
	// memoized for the lifetime of the loader.
	writeConfig(t, root, "default_max_lines = 1\n")

	second, err := loader.ResolveDir(root)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 77, second.DefaultMaxLines)
}

func TestResolveSiblingsShareAncestorConfig(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "default_max_lines = 9\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))

	loader, err := NewLoader(root)
	require.NoError(t, err)

	a, err := loader.ResolveDir(filepath.Join(root, "a"))
	require.NoError(t, err)
	b, err := loader.ResolveDir(filepath.Join(root, "b"))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolveSurfacesParseErrors(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "not_a_real_key = true\n")

	loader, err := NewLoader(root)
	require.NoError(t, err)

	_, err = loader.ResolveDir(root)
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestPinnedLoaderIgnoresDiscovery(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "default_max_lines = 11\n")

	pinnedDir := t.TempDir()
	compiled, err := Compile(Origin{File: "explicit"}, pinnedDir, Default())
	require.NoError(t, err)

	loader := NewPinnedLoader(compiled)
	cfg, err := loader.Resolve(filepath.Join(root, "a.go"))
	require.NoError(t, err)
	assert.Same(t, compiled, cfg)
}

func TestLoadFileRootsAtConfigDir(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "default_max_lines = 5\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.RootDir)
	assert.Equal(t, path, cfg.Origin.File)
}
