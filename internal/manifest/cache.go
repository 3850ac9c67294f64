package manifest

import (
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

type cacheEntry struct {
	manifest *Manifest
	modTime  time.Time
	size     int64
	sum      string
}

// Cache keeps parsed manifests keyed by source path. An entry is reused
// while the file's mtime and size match; when they differ the content
// fingerprint decides between a stat refresh and a full re-parse, so a
// touch without an edit does not invalidate.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Load returns the manifest at path, parsing it only when the source
// changed since the last call.
func (c *Cache) Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()

	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.manifest, nil
	}

	sum, err := Fingerprint(path)
	if err != nil {
		return nil, err
	}

	if ok && entry.sum == sum {
		// Touched but unchanged; refresh the stat key only.
		c.mu.Lock()
		entry.modTime = info.ModTime()
		entry.size = info.Size()
		c.mu.Unlock()
		return entry.manifest, nil
	}

	m, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = &cacheEntry{
		manifest: m,
		modTime:  info.ModTime(),
		size:     info.Size(),
		sum:      sum,
	}
	c.mu.Unlock()
	return m, nil
}

// Invalidate drops the cached entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len reports how many manifests are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fingerprint computes the BLAKE3 hash of a file.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
