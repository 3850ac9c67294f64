// Package watcher follows the plugin roots with fsnotify and keeps the
// catalog in step with what is on disk while the dashboard runs.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mattjoyce/mosaic/internal/catalog"
	"github.com/mattjoyce/mosaic/internal/events"
	"github.com/mattjoyce/mosaic/internal/manifest"
)

// DefaultDelay is how long the watcher waits after the last file event
// before refreshing a plugin. Editors save in bursts; one refresh per
// burst is enough.
const DefaultDelay = 250 * time.Millisecond

// pendingChange accumulates file ops for one plugin directory while its
// debounce timer runs.
type pendingChange struct {
	ops   fsnotify.Op
	timer *time.Timer
}

// Watcher reconciles the catalog with filesystem changes under the
// plugin roots. A new manifest registers its plugin, an edit
// re-registers it, a deletion unregisters it, and every applied change
// publishes on events.TopicManifestChanged.
//
// Raw notifications are debounced per plugin directory, so a manifest
// and its script saved together produce a single refresh.
type Watcher struct {
	catalog *catalog.Catalog
	cache   *manifest.Cache
	bus     *events.Hub
	logger  *slog.Logger

	fsw   *fsnotify.Watcher
	roots []string
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingChange
	closed  bool

	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New prepares a watcher over roots. Nothing is watched until Start.
func New(roots []string, cat *catalog.Catalog, cache *manifest.Cache, bus *events.Hub, logger *slog.Logger) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one plugin root is required")
	}
	if cache == nil {
		cache = manifest.NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		catalog: cat,
		cache:   cache,
		bus:     bus,
		logger:  logger,
		fsw:     fsw,
		roots:   roots,
		delay:   DefaultDelay,
		pending: make(map[string]*pendingChange),
		closeCh: make(chan struct{}),
	}, nil
}

// Start registers the roots and begins processing events.
func (w *Watcher) Start() error {
	for _, root := range w.roots {
		if err := w.watchTree(root); err != nil {
			return fmt.Errorf("failed to watch plugin root %s: %w", root, err)
		}
	}

	w.wg.Add(1)
	go w.run()
	return nil
}

// Close stops watching and waits for the event loop to exit. Pending
// refreshes are dropped.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		for dir, p := range w.pending {
			p.timer.Stop()
			delete(w.pending, dir)
		}
		w.mu.Unlock()

		close(w.closeCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// Flush fires every pending refresh immediately. Tests use this instead
// of waiting out the debounce window.
func (w *Watcher) Flush() {
	w.mu.Lock()
	fired := make(map[string]fsnotify.Op, len(w.pending))
	for dir, p := range w.pending {
		p.timer.Stop()
		fired[dir] = p.ops
		delete(w.pending, dir)
	}
	w.mu.Unlock()

	for dir, ops := range fired {
		w.refresh(dir, ops)
	}
}

// watchTree adds root and every directory under it to the watch set.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plugin watch error", "error", err)
		}
	}
}

// handleEvent maps one raw notification to a debounced plugin refresh.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// Files can land in a new directory before its watch
			// does, so sweep it for manifests that already exist.
			if err := w.watchTree(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			w.scheduleExisting(ev.Name, ev.Op)
			return
		}
	}

	switch {
	case relevantFile(ev.Name):
		w.schedule(filepath.Dir(ev.Name), ev.Op)
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		// The gone path may have been a whole plugin directory.
		w.schedule(ev.Name, ev.Op)
	}
}

// relevantFile reports whether a change to name can affect a plugin.
func relevantFile(name string) bool {
	return filepath.Base(name) == manifest.Filename || filepath.Ext(name) == ".lua"
}

// schedule starts or extends the debounce window for one plugin dir.
func (w *Watcher) schedule(dir string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if p, ok := w.pending[dir]; ok {
		p.ops |= op
		p.timer.Reset(w.delay)
		return
	}

	p := &pendingChange{ops: op}
	p.timer = time.AfterFunc(w.delay, func() { w.fire(dir) })
	w.pending[dir] = p
}

// scheduleExisting schedules dir itself plus every manifest dir under it.
func (w *Watcher) scheduleExisting(dir string, op fsnotify.Op) {
	w.schedule(dir, op)
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != manifest.Filename {
			return nil
		}
		w.schedule(filepath.Dir(path), op)
		return nil
	})
}

func (w *Watcher) fire(dir string) {
	w.mu.Lock()
	p, ok := w.pending[dir]
	if ok {
		delete(w.pending, dir)
	}
	closed := w.closed
	w.mu.Unlock()

	if !ok || closed {
		return
	}
	w.refresh(dir, p.ops)
}

// refresh reconciles one plugin directory against the catalog.
func (w *Watcher) refresh(dir string, ops fsnotify.Op) {
	path := filepath.Join(dir, manifest.Filename)
	w.cache.Invalidate(path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			w.unregisterDir(dir, ops)
			return
		}
		w.logger.Warn("failed to stat manifest", "path", path, "error", err)
		return
	}

	m, err := w.cache.Load(path)
	if err != nil {
		w.logger.Warn("failed to load changed manifest", "path", path, "error", err)
		return
	}
	if err := w.catalog.Register(m); err != nil {
		w.logger.Warn("failed to register changed plugin", "path", path, "error", err)
		return
	}

	w.logger.Info("plugin refreshed", "plugin", m.Name, "version", m.Version, "path", dir)
	w.bus.Publish(events.TopicManifestChanged, map[string]any{
		"plugin": m.Name,
		"path":   dir,
		"op":     ops.String(),
	})
}

// unregisterDir drops whatever plugin was registered from dir.
func (w *Watcher) unregisterDir(dir string, ops fsnotify.Op) {
	for _, m := range w.catalog.All() {
		if m.Path() != dir {
			continue
		}
		w.catalog.Unregister(m.Name)
		w.logger.Info("plugin removed", "plugin", m.Name, "path", dir)
		w.bus.Publish(events.TopicManifestChanged, map[string]any{
			"plugin":  m.Name,
			"path":    dir,
			"op":      ops.String(),
			"removed": true,
		})
	}
}

func (w *Watcher) pendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
