package loader

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mattjoyce/mosaic/internal/events"
	"github.com/mattjoyce/mosaic/internal/manifest"
	"github.com/mattjoyce/mosaic/internal/widget"
)

const DefaultLoadTimeout = 30 * time.Second

// HostInfo describes the runtime that compatibility checks run against.
type HostInfo struct {
	Platform       string
	RuntimeVersion string
}

// Options configures a Loader.
type Options struct {
	// Timeout bounds how long a caller waits on an in-flight load.
	Timeout time.Duration
	Host    HostInfo
}

// Loader orchestrates plugin instantiation: compatibility check,
// dependency-ordered recursive loads, construction through the factory
// registry, and the initialization hook. Concurrent loads of one name
// are single-flight; all callers share the eventual result.
type Loader struct {
	store    Store
	registry *widget.Registry
	bus      *events.Hub
	logger   *slog.Logger
	timeout  time.Duration
	host     HostInfo

	group singleflight.Group

	mu       sync.Mutex
	failures map[string]*LoadFailure
}

func New(store Store, registry *widget.Registry, bus *events.Hub, logger *slog.Logger, opts Options) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	host := opts.Host
	if host.Platform == "" {
		host.Platform = runtime.GOOS
	}
	return &Loader{
		store:    store,
		registry: registry,
		bus:      bus,
		logger:   logger,
		timeout:  timeout,
		host:     host,
		failures: make(map[string]*LoadFailure),
	}
}

// Load returns the instance for name, loading it if necessary. A load
// already in flight for the same name is joined, not duplicated. Waiting
// beyond the configured timeout fails the caller with ErrLoadTimeout
// while the load itself continues.
func (l *Loader) Load(ctx context.Context, name string, options map[string]any) (*widget.Instance, error) {
	if inst, ok := l.store.Instance(name); ok {
		return inst, nil
	}

	// The load must outlive an abandoning caller.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(name, func() (any, error) {
		return l.doLoad(loadCtx, name, options)
	})

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*widget.Instance), nil
	case <-timer.C:
		return nil, &PluginError{Plugin: name, Op: "load", Err: ErrLoadTimeout}
	case <-ctx.Done():
		return nil, &PluginError{Plugin: name, Op: "load", Err: ctx.Err()}
	}
}

func (l *Loader) doLoad(ctx context.Context, name string, options map[string]any) (*widget.Instance, error) {
	if inst, ok := l.store.Instance(name); ok {
		return inst, nil
	}

	inst, err := l.loadOne(ctx, name, options)
	if err != nil {
		l.recordFailure(name, err)
		return nil, err
	}

	l.clearFailure(name)
	return inst, nil
}

func (l *Loader) loadOne(ctx context.Context, name string, options map[string]any) (*widget.Instance, error) {
	m, ok := l.store.Lookup(name)
	if !ok {
		return nil, &PluginError{Plugin: name, Op: "load", Err: ErrNotFound}
	}

	available := l.store.Manifests()
	compat := manifest.CheckCompatibility(m, manifest.CompatContext{
		Available:      available,
		Loaded:         l.store.LoadedVersions(),
		Platform:       l.host.Platform,
		RuntimeVersion: l.host.RuntimeVersion,
	})
	for _, w := range compat.Warnings {
		l.logger.Warn("compatibility warning", "plugin", name, "warning", w)
	}
	if !compat.Compatible {
		return nil, &PluginError{
			Plugin: name,
			Op:     "load",
			Err:    &manifest.CompatibilityError{Plugin: name, Issues: compat.Issues},
		}
	}

	manifests := make([]*manifest.Manifest, 0, len(available))
	for _, am := range available {
		manifests = append(manifests, am)
	}
	graph := manifest.BuildGraph(manifests)

	order, err := manifest.ResolveLoadOrder([]string{name}, graph)
	if err != nil {
		return nil, &PluginError{Plugin: name, Op: "load", Err: err}
	}

	// Everything before name in the order is a transitive dependency.
	for _, dep := range order {
		if dep == name || l.store.IsLoaded(dep) {
			continue
		}
		if _, err := l.Load(ctx, dep, nil); err != nil {
			return nil, &PluginError{Plugin: name, Op: "load", Err: err}
		}
	}

	return l.instantiate(ctx, m, options)
}

func (l *Loader) instantiate(ctx context.Context, m *manifest.Manifest, options map[string]any) (*widget.Instance, error) {
	name := m.Name

	merged := manifest.MergeOptions(m.OptionsSchema, options)
	if violations := manifest.ValidateOptions(m.OptionsSchema, merged); len(violations) > 0 {
		return nil, &PluginError{
			Plugin: name,
			Op:     "load",
			Err:    fmt.Errorf("invalid options: %s", strings.Join(violations, "; ")),
		}
	}

	kind := m.BuiltinKind()
	if kind == "" {
		kind = "script"
	}
	factory, version, err := l.registry.Resolve(kind)
	if err != nil {
		return nil, &PluginError{Plugin: name, Op: "load", Err: err}
	}

	impl, err := factory(widget.Context{
		Name:     name,
		Options:  merged,
		Manifest: m,
		Bus:      l.bus,
		Logger:   l.logger.With(slog.String("widget", name)),
	})
	if err != nil {
		return nil, &PluginError{Plugin: name, Op: "load", Err: err}
	}

	inst, err := widget.NewInstance(name, impl, merged, l.logger)
	if err != nil {
		return nil, &PluginError{Plugin: name, Op: "load", Err: err}
	}
	inst.FactoryVersion = version

	if err := inst.Initialize(ctx); err != nil {
		return nil, &PluginError{Plugin: name, Op: "initialize", Err: err}
	}

	if err := l.store.MarkInstantiated(name, inst); err != nil {
		return nil, &PluginError{Plugin: name, Op: "load", Err: err}
	}

	l.logger.Info("plugin loaded", "plugin", name, "version", m.Version, "factory_version", version)
	if l.bus != nil {
		l.bus.Publish(events.TopicPluginLoaded, map[string]any{
			"plugin":  name,
			"version": m.Version,
		})
		l.bus.Publish(events.TopicWidgetCreated, map[string]any{
			"widget": inst.ID,
			"plugin": name,
		})
	}
	return inst, nil
}

// Unload runs the destroy hook (failures logged, never propagated) and
// clears the catalog's liveness mark. False if name is not loaded.
func (l *Loader) Unload(ctx context.Context, name string) bool {
	inst, ok := l.store.Instance(name)
	if !ok {
		return false
	}

	if err := inst.Destroy(ctx); err != nil {
		l.logger.Warn("destroy hook failed", "plugin", name, "error", err)
	}

	l.store.MarkUnloaded(name)
	l.logger.Info("plugin unloaded", "plugin", name)
	if l.bus != nil {
		l.bus.Publish(events.TopicPluginUnloaded, map[string]any{"plugin": name})
	}
	return true
}

// Reload unloads name, bumps its factory version so the next
// construction sees fresh code, and loads it again with the same
// options the instance was carrying.
func (l *Loader) Reload(ctx context.Context, name string) (*widget.Instance, error) {
	var options map[string]any
	if inst, ok := l.store.Instance(name); ok {
		options = inst.Options()
	}

	if m, ok := l.store.Lookup(name); ok {
		kind := m.BuiltinKind()
		if kind == "" {
			kind = "script"
		}
		l.registry.Bump(kind)
	}

	l.Unload(ctx, name)
	return l.Load(ctx, name, options)
}

// Failure returns the recorded outcome of the last failed load for name.
func (l *Loader) Failure(name string) (LoadFailure, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.failures[name]
	if !ok {
		return LoadFailure{}, false
	}
	return *f, true
}

func (l *Loader) recordFailure(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.failures[name]
	if !ok {
		f = &LoadFailure{Plugin: name}
		l.failures[name] = f
	}
	f.Attempts++
	f.LastErr = err
	f.At = time.Now()

	l.logger.Error("plugin load failed", "plugin", name, "attempts", f.Attempts, "error", err)
}

func (l *Loader) clearFailure(name string) {
	l.mu.Lock()
	delete(l.failures, name)
	l.mu.Unlock()
}
