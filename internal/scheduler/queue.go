package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/mattjoyce/mosaic/internal/events"
)

// queued is one pending operation for a widget.
type queued struct {
	name     string
	priority int
}

// insertByPriority places an item by descending priority, after any
// existing items of the same priority so arrival order holds within a
// band. Immediate items go to the front regardless of priority.
func insertByPriority(q []queued, item queued, immediate bool) []queued {
	if immediate {
		return append([]queued{item}, q...)
	}
	idx := sort.Search(len(q), func(i int) bool {
		return q[i].priority < item.priority
	})
	q = append(q, queued{})
	copy(q[idx+1:], q[idx:])
	q[idx] = item
	return q
}

// EnqueueUpdate queues update work for a widget and drains. Returns
// false without touching the queue when the widget is unknown, paused,
// invisible and pausable, already queued, or already updating.
func (s *Scheduler) EnqueueUpdate(ctx context.Context, name string, immediate bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	if !s.enqueueUpdateLocked(e, immediate) {
		return false
	}
	s.drainLocked(ctx)
	return true
}

// EnqueueRender queues render work for a widget and drains, under the
// same gating as EnqueueUpdate.
func (s *Scheduler) EnqueueRender(ctx context.Context, name string, immediate bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	if !s.enqueueRenderLocked(e, immediate) {
		return false
	}
	s.drainLocked(ctx)
	return true
}

func (s *Scheduler) enqueueUpdateLocked(e *entry, immediate bool) bool {
	if e.paused || (!e.visible && e.canPause) {
		return false
	}
	if s.queuedUpdate[e.name] || s.runningUpdate[e.name] {
		return false
	}
	s.updateQueue = insertByPriority(s.updateQueue, queued{name: e.name, priority: e.priority}, immediate)
	s.queuedUpdate[e.name] = true
	return true
}

func (s *Scheduler) enqueueRenderLocked(e *entry, immediate bool) bool {
	if e.paused || (!e.visible && e.canPause) {
		return false
	}
	if s.queuedRender[e.name] || s.runningRender[e.name] {
		return false
	}
	s.renderQueue = insertByPriority(s.renderQueue, queued{name: e.name, priority: e.priority}, immediate)
	s.queuedRender[e.name] = true
	return true
}

// drainLocked starts queued work while the matching in-flight count is
// under its ceiling. Completions re-enter here, so the pool drains
// continuously rather than in batches.
func (s *Scheduler) drainLocked(ctx context.Context) {
	if s.suspended {
		return
	}

	for len(s.updateQueue) > 0 && len(s.runningUpdate) < s.cfg.MaxConcurrentUpdates {
		item := s.updateQueue[0]
		s.updateQueue = s.updateQueue[1:]
		delete(s.queuedUpdate, item.name)
		s.runningUpdate[item.name] = true

		s.wg.Add(1)
		go s.runUpdate(ctx, item.name)
	}

	for len(s.renderQueue) > 0 && len(s.runningRender) < s.cfg.MaxConcurrentRenders {
		item := s.renderQueue[0]
		s.renderQueue = s.renderQueue[1:]
		delete(s.queuedRender, item.name)
		s.runningRender[item.name] = true

		s.wg.Add(1)
		go s.runRender(ctx, item.name)
	}
}

func (s *Scheduler) runUpdate(ctx context.Context, name string) {
	defer s.wg.Done()

	start := time.Now()
	err := s.runner.Update(ctx, name)
	elapsed := time.Since(start)

	s.mu.Lock()
	delete(s.runningUpdate, name)
	e, ok := s.entries[name]
	if ok {
		if err != nil {
			s.recordFailureLocked(e, "update", err)
		} else {
			e.lastUpdate = s.now()
			s.recordSuccessLocked(e)
			// Fresh data wants a repaint.
			s.enqueueRenderLocked(e, false)
		}
	}
	s.drainLocked(ctx)
	s.mu.Unlock()

	if ok && err == nil {
		s.events.Publish(events.TopicWidgetUpdated, map[string]any{
			"widget":      name,
			"duration_ms": elapsed.Milliseconds(),
		})
	}
}

func (s *Scheduler) runRender(ctx context.Context, name string) {
	defer s.wg.Done()

	_, err := s.runner.Render(ctx, name)

	s.mu.Lock()
	delete(s.runningRender, name)
	e, ok := s.entries[name]
	if ok {
		if err != nil {
			s.recordFailureLocked(e, "render", err)
		} else {
			e.lastRender = s.now()
			s.framePending++
		}
	}
	s.drainLocked(ctx)
	s.mu.Unlock()
}

// QueueLengths reports pending update and render counts.
func (s *Scheduler) QueueLengths() (updates, renders int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updateQueue), len(s.renderQueue)
}

// QueueSnapshot returns pending widget names in drain order.
func (s *Scheduler) QueueSnapshot() (updates, renders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.updateQueue {
		updates = append(updates, item.name)
	}
	for _, item := range s.renderQueue {
		renders = append(renders, item.name)
	}
	return updates, renders
}
