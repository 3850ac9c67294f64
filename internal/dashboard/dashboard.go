// Package dashboard assembles the runtime from its parts: plugin
// discovery, the loader, the grid engine, the scheduler, and the
// manifest watcher, all sharing one event hub. New builds the
// components, Start boots the configured widgets, and Run puts the
// terminal UI on top.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/mattjoyce/mosaic/internal/builtin"
	"github.com/mattjoyce/mosaic/internal/catalog"
	"github.com/mattjoyce/mosaic/internal/config"
	"github.com/mattjoyce/mosaic/internal/events"
	"github.com/mattjoyce/mosaic/internal/layout"
	"github.com/mattjoyce/mosaic/internal/loader"
	"github.com/mattjoyce/mosaic/internal/manifest"
	"github.com/mattjoyce/mosaic/internal/scheduler"
	"github.com/mattjoyce/mosaic/internal/tui"
	"github.com/mattjoyce/mosaic/internal/watcher"
	"github.com/mattjoyce/mosaic/internal/widget"
)

// Version is the runtime version reported to plugin compatibility
// checks and printed by the CLI.
const Version = "0.1.0"

// destroyTimeout bounds widget teardown during shutdown so one stuck
// Destroy hook cannot hang the process.
const destroyTimeout = 5 * time.Second

// instanceRunner adapts catalog instances to the scheduler. Lookup
// happens per call, so a reload swaps the instance without the
// scheduler noticing.
type instanceRunner struct {
	cat *catalog.Catalog
}

func (r instanceRunner) Update(ctx context.Context, name string) error {
	inst, ok := r.cat.Instance(name)
	if !ok {
		return fmt.Errorf("widget %s is not loaded", name)
	}
	return inst.Update(ctx)
}

func (r instanceRunner) Render(ctx context.Context, name string) (string, error) {
	inst, ok := r.cat.Instance(name)
	if !ok {
		return "", fmt.Errorf("widget %s is not loaded", name)
	}
	return inst.Render(ctx)
}

// Dashboard owns the component graph for one running instance.
type Dashboard struct {
	cfg    *config.Config
	logger *slog.Logger

	hub      *events.Hub
	catalog  *catalog.Catalog
	cache    *manifest.Cache
	registry *widget.Registry
	loader   *loader.Loader
	engine   *layout.Engine
	sched    *scheduler.Scheduler
	watcher  *watcher.Watcher

	mu        sync.Mutex
	loadOrder []string
	runCtx    context.Context

	unsubReload func()
	stopOnce    sync.Once
}

// New builds every component but starts nothing. The returned
// Dashboard is ready for Start or Run.
func New(cfg *config.Config, logger *slog.Logger) (*Dashboard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	hub := events.NewHub(256)
	cat := catalog.New(logger)
	cache := manifest.NewCache()

	registry := widget.NewRegistry()
	builtin.RegisterAll(registry)

	ld := loader.New(cat, registry, hub, logger, loader.Options{
		Timeout: cfg.Dashboard.LoadTimeout,
		Host: loader.HostInfo{
			Platform:       runtime.GOOS,
			RuntimeVersion: Version,
		},
	})

	eng, err := layout.New(layout.Config{
		Rows:       cfg.Dashboard.Grid.Rows,
		Cols:       cfg.Dashboard.Grid.Cols,
		AutoLayout: cfg.Dashboard.AutoLayout,
		Responsive: cfg.Dashboard.Responsive,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		MaxConcurrentUpdates: cfg.Dashboard.MaxConcurrentUpdates,
		MaxConcurrentRenders: cfg.Dashboard.MaxConcurrentRenders,
		UpdateInterval:       cfg.Dashboard.UpdateInterval,
		FrameRate:            cfg.Dashboard.FrameRate,
	}, instanceRunner{cat: cat}, hub, logger)

	return &Dashboard{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		catalog:  cat,
		cache:    cache,
		registry: registry,
		loader:   ld,
		engine:   eng,
		sched:    sched,
	}, nil
}

// Start scans the plugin roots, boots every enabled widget, and begins
// scheduling. A widget that fails to start is logged and skipped; the
// rest of the dashboard comes up without it. Discovery failure is
// fatal because a missing plugin root is a configuration mistake, not
// a widget problem.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	d.runCtx = ctx
	d.mu.Unlock()

	result, err := d.catalog.Scan(d.cfg.PluginDirs, d.cache)
	if err != nil {
		return fmt.Errorf("plugin discovery failed: %w", err)
	}
	d.logger.Info("plugin scan complete",
		"registered", result.Registered, "failed", len(result.Failed))

	for _, wc := range d.cfg.Widgets {
		if !wc.Enabled {
			continue
		}
		if err := d.startWidget(ctx, wc); err != nil {
			d.logger.Error("widget failed to start", "widget", wc.Name, "error", err)
		}
	}

	w, err := watcher.New(d.cfg.PluginDirs, d.catalog, d.cache, d.hub, d.logger)
	if err != nil {
		return fmt.Errorf("manifest watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("manifest watcher: %w", err)
	}
	d.watcher = w
	d.unsubReload = d.hub.SubscribeTopic(events.TopicManifestChanged, d.onManifestChanged)

	if err := d.sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	d.mu.Lock()
	started := len(d.loadOrder)
	d.mu.Unlock()
	d.logger.Info("dashboard started", "widgets", started)
	return nil
}

// startWidget loads one widget, places it on the grid, and registers
// it with the scheduler. A placement failure unloads the instance so
// nothing is left running off-grid.
func (d *Dashboard) startWidget(ctx context.Context, wc config.WidgetConfig) error {
	if _, err := d.loader.Load(ctx, wc.Name, wc.Options); err != nil {
		return err
	}

	pos, err := d.engine.AddWidget(wc.Name, wc.Position)
	if err != nil {
		d.loader.Unload(ctx, wc.Name)
		return err
	}

	d.sched.Register(wc.Name, scheduler.WidgetOptions{
		UpdateInterval: wc.UpdateInterval,
		Priority:       wc.Priority,
		CanPause:       wc.Pausable(),
		Hidden:         !wc.Shown(),
	})

	d.mu.Lock()
	d.loadOrder = append(d.loadOrder, wc.Name)
	d.mu.Unlock()

	d.logger.Info("widget started", "widget", wc.Name, "position", pos.String())
	return nil
}

// onManifestChanged reacts to watcher events. A changed manifest
// reloads the running widget, a removed manifest retires it, and a
// manifest appearing for an enabled widget that failed at boot starts
// it late.
func (d *Dashboard) onManifestChanged(ev events.Event) {
	payload := ev.Payload()
	name, _ := payload["plugin"].(string)
	if name == "" {
		return
	}
	removed, _ := payload["removed"].(bool)

	d.mu.Lock()
	ctx := d.runCtx
	d.mu.Unlock()
	if ctx == nil {
		return
	}

	switch {
	case removed:
		if !d.catalog.IsLoaded(name) {
			return
		}
		d.loader.Unload(ctx, name)
		d.sched.Deregister(name)
		d.engine.RemoveWidget(name)
		d.dropFromOrder(name)
		d.logger.Info("widget retired", "widget", name)
	case d.catalog.IsLoaded(name):
		if _, err := d.loader.Reload(ctx, name); err != nil {
			d.logger.Error("widget reload failed", "widget", name, "error", err)
		}
	default:
		wc, ok := d.widgetConfig(name)
		if !ok || !wc.Enabled {
			return
		}
		if err := d.startWidget(ctx, wc); err != nil {
			d.logger.Error("widget failed to start", "widget", name, "error", err)
		}
	}
}

func (d *Dashboard) widgetConfig(name string) (config.WidgetConfig, bool) {
	for _, wc := range d.cfg.Widgets {
		if wc.Name == name {
			return wc, true
		}
	}
	return config.WidgetConfig{}, false
}

func (d *Dashboard) dropFromOrder(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadOrder = slices.DeleteFunc(d.loadOrder, func(s string) bool { return s == name })
}

// Stop tears the dashboard down: watcher first so no reloads race the
// shutdown, then the scheduler, then widgets in reverse load order.
// Safe to call more than once.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(d.stop)
}

func (d *Dashboard) stop() {
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.logger.Warn("watcher close failed", "error", err)
		}
	}
	if d.unsubReload != nil {
		d.unsubReload()
	}
	d.sched.Stop()

	// Clearing runCtx stops any manifest event still buffered in the
	// subscription from starting widgets mid-teardown.
	d.mu.Lock()
	order := slices.Clone(d.loadOrder)
	d.loadOrder = nil
	d.runCtx = nil
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
	defer cancel()
	for i := len(order) - 1; i >= 0; i-- {
		d.loader.Unload(ctx, order[i])
	}

	d.logger.Info("dashboard stopped")
}

// Content returns a widget's most recent render. Paused and isolated
// widgets keep serving their last frame.
func (d *Dashboard) Content(name string) string {
	inst, ok := d.catalog.Instance(name)
	if !ok {
		return ""
	}
	return inst.Content()
}

// Run starts the dashboard and blocks in the terminal UI until ctx is
// cancelled or the user quits. Everything is torn down before Run
// returns.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		d.Stop()
		return err
	}
	defer d.Stop()

	return tui.Run(ctx, tui.Options{
		Title:     d.cfg.Dashboard.Title,
		FrameRate: d.cfg.Dashboard.FrameRate,
		Theme:     tui.NewTheme(d.cfg.Theme),
		Engine:    d.engine,
		Scheduler: d.sched,
		Hub:       d.hub,
		Content:   d.Content,
	})
}
