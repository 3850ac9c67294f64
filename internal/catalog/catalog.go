package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mattjoyce/mosaic/internal/manifest"
	"github.com/mattjoyce/mosaic/internal/widget"
)

// ErrNotFound reports a name with no catalog record.
var ErrNotFound = errors.New("plugin not found")

// Record pairs a manifest with runtime liveness. Owned exclusively by
// the catalog; other components reference records by name.
type Record struct {
	Manifest     *manifest.Manifest
	Instantiated bool
	Instance     *widget.Instance
}

// Catalog is the in-memory index of discovered plugins: records by name
// plus category and keyword indices. Only Register/Unregister mutate the
// record set; only MarkInstantiated/MarkUnloaded mutate liveness, and
// only the loader calls those.
type Catalog struct {
	mu         sync.RWMutex
	records    map[string]*Record
	byCategory map[string]map[string]bool
	byKeyword  map[string]map[string]bool
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		records:    make(map[string]*Record),
		byCategory: make(map[string]map[string]bool),
		byKeyword:  make(map[string]map[string]bool),
		logger:     logger,
	}
}

// Register validates and inserts a manifest, overwriting any existing
// record for the name. A version change is logged, never an error.
func (c *Catalog) Register(m *manifest.Manifest) error {
	if m == nil {
		return fmt.Errorf("nil manifest")
	}
	if err := m.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.records[m.Name]; ok {
		if existing.Manifest.Version != m.Version {
			c.logger.Info("plugin version changed",
				"plugin", m.Name,
				"from", existing.Manifest.Version,
				"to", m.Version)
		}
		c.dropIndicesLocked(existing.Manifest)
		existing.Manifest = m
		c.addIndicesLocked(m)
		return nil
	}

	c.records[m.Name] = &Record{Manifest: m}
	c.addIndicesLocked(m)
	return nil
}

// Unregister removes a record and its index entries. False if absent.
func (c *Catalog) Unregister(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[name]
	if !ok {
		return false
	}
	c.dropIndicesLocked(rec.Manifest)
	delete(c.records, name)
	return true
}

// Lookup returns the manifest registered under name.
func (c *Catalog) Lookup(name string) (*manifest.Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[name]
	if !ok {
		return nil, false
	}
	return rec.Manifest, true
}

// ByCategory returns manifests in a category, sorted by name.
func (c *Catalog) ByCategory(category string) []*manifest.Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectLocked(c.byCategory[category])
}

// Search matches a name substring, a description substring, or an exact
// keyword. Matching is case-insensitive; results sort by name.
func (c *Catalog) Search(term string) []*manifest.Manifest {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make(map[string]bool)
	for name, rec := range c.records {
		if strings.Contains(strings.ToLower(name), needle) ||
			strings.Contains(strings.ToLower(rec.Manifest.Description), needle) {
			names[name] = true
		}
	}
	for name := range c.byKeyword[needle] {
		names[name] = true
	}
	return c.collectLocked(names)
}

// MarkInstantiated records the live instance for name. Loader-only.
func (c *Catalog) MarkInstantiated(name string, inst *widget.Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[name]
	if !ok {
		return fmt.Errorf("mark instantiated %q: %w", name, ErrNotFound)
	}
	rec.Instantiated = true
	rec.Instance = inst
	return nil
}

// MarkUnloaded clears liveness for name. Loader-only.
func (c *Catalog) MarkUnloaded(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.records[name]; ok {
		rec.Instantiated = false
		rec.Instance = nil
	}
}

// Instance returns the live instance for name, if any.
func (c *Catalog) Instance(name string) (*widget.Instance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[name]
	if !ok || !rec.Instantiated {
		return nil, false
	}
	return rec.Instance, true
}

// IsLoaded reports whether name is currently instantiated.
func (c *Catalog) IsLoaded(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[name]
	return ok && rec.Instantiated
}

// Loaded lists instantiated plugin names, sorted.
func (c *Catalog) Loaded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for name, rec := range c.records {
		if rec.Instantiated {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadedVersions maps instantiated plugin names to versions, the shape
// compatibility checks consume.
func (c *Catalog) LoadedVersions() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string)
	for name, rec := range c.records {
		if rec.Instantiated {
			out[name] = rec.Manifest.Version
		}
	}
	return out
}

// Manifests returns a snapshot of all registered manifests by name.
func (c *Catalog) Manifests() map[string]*manifest.Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*manifest.Manifest, len(c.records))
	for name, rec := range c.records {
		out[name] = rec.Manifest
	}
	return out
}

// All returns every registered manifest, sorted by name.
func (c *Catalog) All() []*manifest.Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*manifest.Manifest, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec.Manifest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports how many plugins are registered.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Catalog) addIndicesLocked(m *manifest.Manifest) {
	if m.Category != "" {
		if c.byCategory[m.Category] == nil {
			c.byCategory[m.Category] = make(map[string]bool)
		}
		c.byCategory[m.Category][m.Name] = true
	}
	for _, kw := range m.Keywords {
		kw = strings.ToLower(kw)
		if c.byKeyword[kw] == nil {
			c.byKeyword[kw] = make(map[string]bool)
		}
		c.byKeyword[kw][m.Name] = true
	}
}

func (c *Catalog) dropIndicesLocked(m *manifest.Manifest) {
	if set, ok := c.byCategory[m.Category]; ok {
		delete(set, m.Name)
		if len(set) == 0 {
			delete(c.byCategory, m.Category)
		}
	}
	for _, kw := range m.Keywords {
		kw = strings.ToLower(kw)
		if set, ok := c.byKeyword[kw]; ok {
			delete(set, m.Name)
			if len(set) == 0 {
				delete(c.byKeyword, kw)
			}
		}
	}
}

func (c *Catalog) collectLocked(names map[string]bool) []*manifest.Manifest {
	out := make([]*manifest.Manifest, 0, len(names))
	for name := range names {
		if rec, ok := c.records[name]; ok {
			out = append(out, rec.Manifest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
