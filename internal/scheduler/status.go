package scheduler

import (
	"context"
	"sort"
	"time"
)

// WidgetStatus is a point-in-time view of one scheduling entry.
type WidgetStatus struct {
	Name              string
	Priority          int
	Interval          time.Duration
	EffectiveInterval time.Duration
	Backoff           float64
	ConsecutiveErrors int
	Paused            bool
	PauseReason       string
	Visible           bool
	CanPause          bool
	LastUpdate        time.Time
	LastRender        time.Time
	NextDue           time.Time
	QueuedUpdate      bool
	QueuedRender      bool
	Updating          bool
	Rendering         bool
}

// Snapshot reports every entry's state, sorted by name.
func (s *Scheduler) Snapshot() []WidgetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WidgetStatus, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, WidgetStatus{
			Name:              name,
			Priority:          e.priority,
			Interval:          e.interval,
			EffectiveInterval: e.effectiveInterval(),
			Backoff:           e.backoff,
			ConsecutiveErrors: e.consecutiveErrors,
			Paused:            e.paused,
			PauseReason:       e.pauseReason,
			Visible:           e.visible,
			CanPause:          e.canPause,
			LastUpdate:        e.lastUpdate,
			LastRender:        e.lastRender,
			NextDue:           e.nextDue,
			QueuedUpdate:      s.queuedUpdate[name],
			QueuedRender:      s.queuedRender[name],
			Updating:          s.runningUpdate[name],
			Rendering:         s.runningRender[name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Status reports one entry's state.
func (s *Scheduler) Status(name string) (WidgetStatus, bool) {
	for _, st := range s.Snapshot() {
		if st.Name == name {
			return st, true
		}
	}
	return WidgetStatus{}, false
}

// PauseWidget stops periodic and manual enqueues for one widget until
// it is resumed. Queued work for the widget is removed.
func (s *Scheduler) PauseWidget(name, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	e.paused = true
	e.pauseReason = reason
	s.updateQueue = dropQueued(s.updateQueue, name)
	s.renderQueue = dropQueued(s.renderQueue, name)
	delete(s.queuedUpdate, name)
	delete(s.queuedRender, name)

	s.logger.Info("Widget paused", "widget", name, "reason", reason)
	return true
}

// ResumeWidget lifts a per-widget pause, clears the error streak, and
// triggers an immediate update.
func (s *Scheduler) ResumeWidget(ctx context.Context, name string) bool {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return false
	}
	e.paused = false
	e.pauseReason = ""
	e.consecutiveErrors = 0
	e.nextDue = s.now()
	if s.enqueueUpdateLocked(e, true) {
		s.drainLocked(ctx)
	}
	s.mu.Unlock()

	s.logger.Info("Widget resumed", "widget", name)
	return true
}

// SetVisibility toggles a widget's visibility. Turning visible triggers
// an immediate update and lifts a visibility pause; turning invisible
// pauses the widget when it is pausable, keeping its configuration.
func (s *Scheduler) SetVisibility(ctx context.Context, name string, visible bool) bool {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return false
	}

	e.visible = visible
	if visible {
		if e.paused && e.pauseReason == ReasonHidden {
			e.paused = false
			e.pauseReason = ""
		}
		if s.enqueueUpdateLocked(e, true) {
			s.drainLocked(ctx)
		}
	} else if e.canPause && !e.paused {
		e.paused = true
		e.pauseReason = ReasonHidden
		s.updateQueue = dropQueued(s.updateQueue, name)
		s.renderQueue = dropQueued(s.renderQueue, name)
		delete(s.queuedUpdate, name)
		delete(s.queuedRender, name)
	}
	s.mu.Unlock()

	s.logger.Debug("Widget visibility changed", "widget", name, "visible", visible)
	return true
}
