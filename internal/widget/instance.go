package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a lifecycle stage. Transitions: created -> initialized ->
// rendered <-> updated, with destroyed reachable from anywhere.
type State string

const (
	StateCreated     State = "created"
	StateInitialized State = "initialized"
	StateRendered    State = "rendered"
	StateUpdated     State = "updated"
	StateDestroyed   State = "destroyed"
)

// Instance is one live widget. The scheduler drives its transitions; the
// layout engine owns its geometry elsewhere. Exactly one scheduler entry
// exists per instance.
type Instance struct {
	Name           string
	ID             string
	FactoryVersion int

	mu          sync.Mutex
	impl        any
	state       State
	options     map[string]any
	content     string
	lastUpdate  time.Time
	lastRender  time.Time
	initialized bool
	destroyed   bool
	children    []*Instance
	logger      *slog.Logger
}

// NewInstance wraps a constructed implementation. The value must satisfy
// the structural contract.
func NewInstance(name string, impl any, options map[string]any, logger *slog.Logger) (*Instance, error) {
	if err := CheckContract(impl); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Instance{
		Name:    name,
		ID:      uuid.NewString(),
		impl:    impl,
		state:   StateCreated,
		options: options,
		logger:  logger.With(slog.String("widget", name)),
	}, nil
}

// Initialize runs the implementation's initialization hook once.
// A second call is a warning no-op.
func (in *Instance) Initialize(ctx context.Context) error {
	in.mu.Lock()
	if in.destroyed {
		in.mu.Unlock()
		return fmt.Errorf("widget %s is destroyed", in.Name)
	}
	if in.initialized {
		in.mu.Unlock()
		in.logger.Warn("initialize called twice, ignoring")
		return nil
	}
	impl := in.impl
	in.mu.Unlock()

	if hook, ok := impl.(Initializer); ok {
		if err := hook.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize %s: %w", in.Name, err)
		}
	}

	in.mu.Lock()
	in.initialized = true
	if !in.destroyed {
		in.state = StateInitialized
	}
	in.mu.Unlock()
	return nil
}

// Update refreshes the widget's data. Safe to call repeatedly; never
// rebuilds structure.
func (in *Instance) Update(ctx context.Context) error {
	in.mu.Lock()
	if in.destroyed {
		in.mu.Unlock()
		return fmt.Errorf("widget %s is destroyed", in.Name)
	}
	impl := in.impl
	in.mu.Unlock()

	if hook, ok := impl.(Updater); ok {
		if err := hook.Update(ctx); err != nil {
			return fmt.Errorf("update %s: %w", in.Name, err)
		}
	}

	in.mu.Lock()
	in.lastUpdate = time.Now()
	if in.initialized && !in.destroyed {
		in.state = StateUpdated
	}
	in.mu.Unlock()
	return nil
}

// Render rebuilds on-screen content. Requires an initialized, live widget.
func (in *Instance) Render(ctx context.Context) (string, error) {
	in.mu.Lock()
	if in.destroyed {
		in.mu.Unlock()
		return "", fmt.Errorf("widget %s is destroyed", in.Name)
	}
	if !in.initialized {
		in.mu.Unlock()
		return "", fmt.Errorf("widget %s is not initialized", in.Name)
	}
	impl := in.impl
	in.mu.Unlock()

	content, err := impl.(Renderer).Render(ctx)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", in.Name, err)
	}

	in.mu.Lock()
	in.content = content
	in.lastRender = time.Now()
	if !in.destroyed {
		in.state = StateRendered
	}
	in.mu.Unlock()
	return content, nil
}

// Destroy tears the widget down: children first, then the implementation
// hook. Idempotent; child failures are logged, not propagated.
func (in *Instance) Destroy(ctx context.Context) error {
	in.mu.Lock()
	if in.destroyed {
		in.mu.Unlock()
		return nil
	}
	in.destroyed = true
	in.state = StateDestroyed
	children := in.children
	in.children = nil
	impl := in.impl
	in.mu.Unlock()

	for _, child := range children {
		if err := child.Destroy(ctx); err != nil {
			in.logger.Warn("child destroy failed", "child", child.Name, "error", err)
		}
	}

	if hook, ok := impl.(Destroyer); ok {
		if err := hook.Destroy(ctx); err != nil {
			return fmt.Errorf("destroy %s: %w", in.Name, err)
		}
	}
	return nil
}

// AddChild attaches a child destroyed along with this instance.
func (in *Instance) AddChild(child *Instance) {
	in.mu.Lock()
	in.children = append(in.children, child)
	in.mu.Unlock()
}

func (in *Instance) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

func (in *Instance) Destroyed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.destroyed
}

// Content returns the last rendered output. An isolated or paused widget
// keeps serving this until resumed or unloaded.
func (in *Instance) Content() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.content
}

func (in *Instance) LastUpdate() time.Time {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.lastUpdate
}

func (in *Instance) LastRender() time.Time {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.lastRender
}

func (in *Instance) Options() map[string]any {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.options
}

// Impl exposes the implementation value for capability queries.
func (in *Instance) Impl() any {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.impl
}
