package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifestFile(t *testing.T, dir, name, version string) string {
	t.Helper()
	path := filepath.Join(dir, Filename)
	data := []byte(`{
		"name": "` + name + `",
		"version": "` + version + `",
		"description": "test widget",
		"author": "dash team",
		"license": "MIT",
		"keywords": ["test"],
		"category": "general",
		"optionsSchema": {}
	}`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCacheReusesUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, "clock", "1.0.0")

	c := NewCache()
	first, err := c.Load(path)
	require.NoError(t, err)

	second, err := c.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file returns the cached manifest")
	assert.Equal(t, 1, c.Len())
}

func TestCacheReparsesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, "clock", "1.0.0")

	c := NewCache()
	first, err := c.Load(path)
	require.NoError(t, err)

	writeManifestFile(t, dir, "clock", "2.0.0")
	// Force a distinct mtime even on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	second, err := c.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, "2.0.0", second.Version)
}

func TestCacheTouchWithoutEditKeepsEntry(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, "clock", "1.0.0")

	c := NewCache()
	first, err := c.Load(path)
	require.NoError(t, err)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	second, err := c.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "same fingerprint refreshes the stat key without a re-parse")
}

func TestCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, "clock", "1.0.0")

	c := NewCache()
	first, err := c.Load(path)
	require.NoError(t, err)

	c.Invalidate(path)
	assert.Equal(t, 0, c.Len())

	second, err := c.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestFingerprintStable(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, "clock", "1.0.0")

	a, err := Fingerprint(path)
	require.NoError(t, err)
	b, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
