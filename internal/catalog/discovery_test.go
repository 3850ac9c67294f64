package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mosaic/internal/manifest"
)

func writePlugin(t *testing.T, root, name, version string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data := []byte(`{
		"name": "` + name + `",
		"version": "` + version + `",
		"description": "test plugin",
		"author": "dash team",
		"license": "MIT",
		"keywords": ["test"],
		"category": "general",
		"optionsSchema": {}
	}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.Filename), data, 0o644))
}

func TestScanRegistersValidPlugins(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "clock", "1.0.0")
	writePlugin(t, root, "weather", "0.2.0")

	c := New(nil)
	result, err := c.Scan([]string{root}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Registered)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 2, c.Len())
}

func TestScanSkipsInvalidManifest(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "clock", "1.0.0")

	badDir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, manifest.Filename), []byte(`{"name":"NOPE"}`), 0o644))

	c := New(nil)
	result, err := c.Scan([]string{root}, nil)
	require.NoError(t, err, "invalid manifests are skipped, never fatal")

	assert.Equal(t, 1, result.Registered)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0], "broken")
}

func TestScanMissingRoot(t *testing.T) {
	c := New(nil)
	_, err := c.Scan([]string{filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Error(t, err)

	_, err = c.Scan(nil, nil)
	assert.Error(t, err)
}

func TestScanUsesCache(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "clock", "1.0.0")

	cache := manifest.NewCache()
	c := New(nil)

	_, err := c.Scan([]string{root}, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// A second scan reuses the cached parse; registration stays stable.
	result, err := c.Scan([]string{root}, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Registered)
	assert.Equal(t, 1, c.Len())
}

func TestScanDeduplicatesRoots(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "clock", "1.0.0")

	c := New(nil)
	result, err := c.Scan([]string{root, root}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Registered)
}
