package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mattjoyce/mosaic/internal/events"
)

const (
	// ReasonTooManyErrors is the pause reason set when a widget crosses
	// the consecutive-error isolation threshold.
	ReasonTooManyErrors = "too many consecutive errors"
	// ReasonHidden is the pause reason set when a pausable widget
	// becomes invisible.
	ReasonHidden = "hidden"

	backoffCap    = 8.0
	backoffDecay  = 0.9
	backoffAfter  = 2 // failures tolerated before backoff grows
	isolateAfter  = 5 // failures tolerated before the widget is paused
	defaultFrames = 10
)

// Config carries the scheduler's global knobs. Zero values fall back to
// defaults.
type Config struct {
	MaxConcurrentUpdates int
	MaxConcurrentRenders int
	// UpdateInterval is the per-widget default cadence when registration
	// does not set one.
	UpdateInterval time.Duration
	// FrameRate is ticks per second for the frame driver.
	FrameRate int
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentUpdates <= 0 {
		c.MaxConcurrentUpdates = 4
	}
	if c.MaxConcurrentRenders <= 0 {
		c.MaxConcurrentRenders = 2
	}
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = 30 * time.Second
	}
	if c.FrameRate <= 0 {
		c.FrameRate = defaultFrames
	}
	return c
}

// WidgetOptions configures one widget's scheduling entry.
type WidgetOptions struct {
	// UpdateInterval overrides the scheduler default; 0 keeps it.
	UpdateInterval time.Duration
	Priority       int
	CanPause       bool
	Hidden         bool
}

// entry is the scheduler's per-widget state. The backoff multiplier
// starts at 1, doubles on repeated failure up to backoffCap, and decays
// by backoffDecay toward 1 on success.
type entry struct {
	name     string
	interval time.Duration
	priority int
	canPause bool

	paused      bool
	pauseReason string
	visible     bool

	consecutiveErrors int
	backoff           float64

	lastUpdate time.Time
	lastRender time.Time
	nextDue    time.Time
}

func (e *entry) effectiveInterval() time.Duration {
	return time.Duration(float64(e.interval) * e.backoff)
}

// Scheduler dispatches widget update and render work: priority queues,
// two independent in-flight ceilings, visibility gating, and per-widget
// error backoff with isolation. All state lives behind one mutex;
// widget work runs outside it.
type Scheduler struct {
	cfg    Config
	runner Runner
	events *events.Hub
	logger *slog.Logger

	mu            sync.Mutex
	entries       map[string]*entry
	updateQueue   []queued
	renderQueue   []queued
	queuedUpdate  map[string]bool
	queuedRender  map[string]bool
	runningUpdate map[string]bool
	runningRender map[string]bool
	suspended     bool
	framePending  int

	now    func() time.Time
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a new Scheduler instance.
func New(cfg Config, runner Runner, hub *events.Hub, logger *slog.Logger) *Scheduler {
	if hub == nil {
		hub = events.NewHub(128)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:           cfg.withDefaults(),
		runner:        runner,
		events:        hub,
		logger:        logger.With("component", "scheduler"),
		entries:       make(map[string]*entry),
		queuedUpdate:  make(map[string]bool),
		queuedRender:  make(map[string]bool),
		runningUpdate: make(map[string]bool),
		runningRender: make(map[string]bool),
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Register creates or replaces the scheduling entry for a widget. The
// first update is due immediately; periodic enqueues then follow the
// widget's interval scaled by its backoff multiplier.
func (s *Scheduler) Register(name string, opts WidgetOptions) {
	interval := opts.UpdateInterval
	if interval <= 0 {
		interval = s.cfg.UpdateInterval
	}

	s.mu.Lock()
	if _, ok := s.entries[name]; ok {
		s.logger.Warn("Replacing scheduler entry", "widget", name)
	}
	s.entries[name] = &entry{
		name:     name,
		interval: interval,
		priority: opts.Priority,
		canPause: opts.CanPause,
		visible:  !opts.Hidden,
		backoff:  1,
		nextDue:  s.now(),
	}
	s.mu.Unlock()

	s.logger.Info("Registered widget",
		"widget", name,
		"interval", interval,
		"priority", opts.Priority,
		"can_pause", opts.CanPause,
	)
}

// Deregister removes a widget's entry and any queued work. In-flight
// work for the widget runs to completion and its outcome is discarded.
func (s *Scheduler) Deregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; !ok {
		return false
	}
	delete(s.entries, name)
	s.updateQueue = dropQueued(s.updateQueue, name)
	s.renderQueue = dropQueued(s.renderQueue, name)
	delete(s.queuedUpdate, name)
	delete(s.queuedRender, name)
	return true
}

// Start begins the frame loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.runner == nil {
		return fmt.Errorf("scheduler has no runner")
	}
	s.logger.Info("Starting scheduler", "frame_rate", s.cfg.FrameRate,
		"max_updates", s.cfg.MaxConcurrentUpdates, "max_renders", s.cfg.MaxConcurrentRenders)

	s.wg.Add(1)
	go s.frameLoop(ctx)
	return nil
}

// Stop halts the frame loop and waits for in-flight work to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// frameLoop ticks at the configured frame rate. Each tick enqueues due
// updates and drains both queues, decoupling data readiness from
// repaint frequency.
func (s *Scheduler) frameLoop(ctx context.Context) {
	defer s.wg.Done()

	s.tick(ctx)

	interval := time.Second / time.Duration(s.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			s.logger.Warn("Scheduler context cancelled, stopping frame loop")
			return
		}
	}
}

// tick performs a single frame pass: enqueue due updates, drain both
// queues, publish a frame event when renders landed since the last one.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()

	// Sorted iteration keeps enqueue order deterministic.
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	if !s.suspended {
		for _, name := range names {
			e := s.entries[name]
			if e.paused || (!e.visible && e.canPause) {
				continue
			}
			if now.Before(e.nextDue) {
				continue
			}
			if s.enqueueUpdateLocked(e, false) {
				e.nextDue = now.Add(e.effectiveInterval())
			}
		}
	}

	s.drainLocked(ctx)

	rendered := s.framePending
	s.framePending = 0
	s.mu.Unlock()

	if rendered > 0 {
		s.events.Publish(events.TopicDashboardRendered, map[string]any{
			"widgets": rendered,
			"at":      now.UTC(),
		})
	}
}

// Pause suspends all scheduling: no new work is enqueued or started
// until Resume. In-flight work completes.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	already := s.suspended
	s.suspended = true
	s.mu.Unlock()

	if !already {
		s.logger.Info("Scheduler paused")
		s.events.Publish(events.TopicSchedulerPaused, map[string]any{"at": s.now().UTC()})
	}
}

// Resume lifts a global pause and immediately drains queued work.
func (s *Scheduler) Resume(ctx context.Context) {
	s.mu.Lock()
	already := !s.suspended
	s.suspended = false
	s.drainLocked(ctx)
	s.mu.Unlock()

	if !already {
		s.logger.Info("Scheduler resumed")
		s.events.Publish(events.TopicSchedulerResume, map[string]any{"at": s.now().UTC()})
	}
}

// Suspended reports whether the scheduler is globally paused.
func (s *Scheduler) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// recordFailureLocked applies the error policy: count, grow backoff
// past backoffAfter failures, isolate past isolateAfter.
func (s *Scheduler) recordFailureLocked(e *entry, op string, err error) {
	e.consecutiveErrors++

	if e.consecutiveErrors > backoffAfter {
		e.backoff = min(e.backoff*2, backoffCap)
	}
	e.nextDue = s.now().Add(e.effectiveInterval())

	s.logger.Error("Widget operation failed",
		"widget", e.name,
		"op", op,
		"error", err,
		"consecutive_errors", e.consecutiveErrors,
		"backoff", e.backoff,
	)

	if e.consecutiveErrors > isolateAfter && !e.paused {
		e.paused = true
		e.pauseReason = ReasonTooManyErrors
		s.logger.Warn("Widget isolated", "widget", e.name, "reason", e.pauseReason)
	}

	s.events.Publish(events.TopicWidgetError, map[string]any{
		"widget":             e.name,
		"op":                 op,
		"error":              err.Error(),
		"consecutive_errors": e.consecutiveErrors,
		"paused":             e.paused,
	})
}

// recordSuccessLocked resets the error streak and decays the backoff
// multiplier toward 1.
func (s *Scheduler) recordSuccessLocked(e *entry) {
	e.consecutiveErrors = 0
	e.backoff = max(1, e.backoff*backoffDecay)
	e.nextDue = s.now().Add(e.effectiveInterval())
}

func dropQueued(q []queued, name string) []queued {
	out := q[:0]
	for _, item := range q {
		if item.name != name {
			out = append(out, item)
		}
	}
	return out
}
