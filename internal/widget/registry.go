package widget

import (
	"fmt"
	"sort"
	"sync"
)

type registryEntry struct {
	factory Factory
	version int
}

// Registry maps factory kinds to constructors, with a version per kind.
// Reload bumps the version and instantiates from the current factory;
// nothing depends on module-cache behavior.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*registryEntry)}
}

// Register installs a factory for kind. Re-registering replaces the
// factory and bumps the version.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.factories[kind]; ok {
		entry.factory = f
		entry.version++
		return
	}
	r.factories[kind] = &registryEntry{factory: f, version: 1}
}

// Resolve returns the current factory and version for kind.
func (r *Registry) Resolve(kind string) (Factory, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.factories[kind]
	if !ok {
		return nil, 0, fmt.Errorf("no factory registered for kind %q", kind)
	}
	return entry.factory, entry.version, nil
}

// Bump invalidates cached constructions of kind by incrementing its
// version. Returns the new version, or 0 for an unknown kind.
func (r *Registry) Bump(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.factories[kind]
	if !ok {
		return 0
	}
	entry.version++
	return entry.version
}

// Kinds lists registered factory kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
