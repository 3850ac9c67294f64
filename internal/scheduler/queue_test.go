package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mosaic/internal/events"
)

// blockingRunner holds updates in flight until released, so tests can
// observe queue state under a saturated ceiling. Renders complete
// immediately and are recorded.
type blockingRunner struct {
	started chan string
	release chan struct{}

	mu      sync.Mutex
	renders []string
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan string, 32),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Update(ctx context.Context, name string) error {
	r.started <- name
	<-r.release
	return nil
}

func (r *blockingRunner) Render(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	r.renders = append(r.renders, name)
	r.mu.Unlock()
	return "", nil
}

func (r *blockingRunner) renderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.renders)
}

func awaitStarted(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	deadline := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case name := <-ch:
			out = append(out, name)
		case <-deadline:
			t.Fatalf("timed out waiting for %d started ops, got %v", n, out)
		}
	}
	return out
}

func TestInsertByPriority(t *testing.T) {
	var q []queued
	q = insertByPriority(q, queued{name: "a", priority: 5}, false)
	q = insertByPriority(q, queued{name: "b", priority: 1}, false)
	q = insertByPriority(q, queued{name: "c", priority: 5}, false)
	q = insertByPriority(q, queued{name: "d", priority: 10}, false)
	q = insertByPriority(q, queued{name: "e", priority: 5}, false)

	names := make([]string, len(q))
	for i, item := range q {
		names[i] = item.name
	}
	assert.Equal(t, []string{"d", "a", "c", "e", "b"}, names,
		"descending priority, arrival order within a band")

	q = insertByPriority(q, queued{name: "urgent", priority: 0}, true)
	assert.Equal(t, "urgent", q[0].name, "immediate goes to the front")
}

func TestQueueOrderUnderSaturation(t *testing.T) {
	runner := newBlockingRunner()
	slogger, _ := NewTestSlogger()
	s := New(Config{MaxConcurrentUpdates: 1, MaxConcurrentRenders: 1}, runner, events.NewHub(32), slogger)
	ctx := context.Background()

	s.Register("first", WidgetOptions{Priority: 0})
	s.Register("low", WidgetOptions{Priority: 1})
	s.Register("mid-a", WidgetOptions{Priority: 5})
	s.Register("mid-b", WidgetOptions{Priority: 5})
	s.Register("high", WidgetOptions{Priority: 10})
	s.Register("urgent", WidgetOptions{Priority: 0})

	require.True(t, s.EnqueueUpdate(ctx, "first", false))
	assert.Equal(t, []string{"first"}, awaitStarted(t, runner.started, 1))

	require.True(t, s.EnqueueUpdate(ctx, "low", false))
	require.True(t, s.EnqueueUpdate(ctx, "mid-a", false))
	require.True(t, s.EnqueueUpdate(ctx, "mid-b", false))
	require.True(t, s.EnqueueUpdate(ctx, "high", false))
	require.True(t, s.EnqueueUpdate(ctx, "urgent", true))

	updates, _ := s.QueueSnapshot()
	assert.Equal(t, []string{"urgent", "high", "mid-a", "mid-b", "low"}, updates)

	close(runner.release)
	assert.Equal(t, []string{"urgent", "high", "mid-a", "mid-b", "low"},
		awaitStarted(t, runner.started, 5), "drain pops in queue order")
	s.wg.Wait()
}

func TestEnqueueGates(t *testing.T) {
	runner := newBlockingRunner()
	slogger, _ := NewTestSlogger()
	s := New(Config{MaxConcurrentUpdates: 1}, runner, events.NewHub(32), slogger)
	ctx := context.Background()

	s.Register("running", WidgetOptions{})
	s.Register("queued", WidgetOptions{})
	s.Register("paused", WidgetOptions{})
	s.Register("hidden", WidgetOptions{CanPause: true})
	s.Register("hidden-fixed", WidgetOptions{})

	t.Run("unknown widget", func(t *testing.T) {
		assert.False(t, s.EnqueueUpdate(ctx, "ghost", false))
	})

	require.True(t, s.EnqueueUpdate(ctx, "running", false))
	awaitStarted(t, runner.started, 1)

	t.Run("already executing", func(t *testing.T) {
		assert.False(t, s.EnqueueUpdate(ctx, "running", false))
	})

	t.Run("already queued", func(t *testing.T) {
		require.True(t, s.EnqueueUpdate(ctx, "queued", false))
		before, _ := s.QueueLengths()
		assert.False(t, s.EnqueueUpdate(ctx, "queued", false))
		after, _ := s.QueueLengths()
		assert.Equal(t, before, after)
	})

	t.Run("paused widget", func(t *testing.T) {
		require.True(t, s.PauseWidget("paused", "manual"))
		before, _ := s.QueueLengths()
		assert.False(t, s.EnqueueUpdate(ctx, "paused", false))
		after, _ := s.QueueLengths()
		assert.Equal(t, before, after)
	})

	t.Run("invisible and pausable", func(t *testing.T) {
		require.True(t, s.SetVisibility(ctx, "hidden", false))
		before, _ := s.QueueLengths()
		assert.False(t, s.EnqueueUpdate(ctx, "hidden", false))
		after, _ := s.QueueLengths()
		assert.Equal(t, before, after)
	})

	t.Run("invisible but not pausable", func(t *testing.T) {
		require.True(t, s.SetVisibility(ctx, "hidden-fixed", false))
		assert.True(t, s.EnqueueUpdate(ctx, "hidden-fixed", false))
	})

	close(runner.release)
	s.wg.Wait()
}

func TestDistinctCeilings(t *testing.T) {
	runner := newBlockingRunner()
	slogger, _ := NewTestSlogger()
	s := New(Config{MaxConcurrentUpdates: 2, MaxConcurrentRenders: 2}, runner, events.NewHub(32), slogger)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d"} {
		s.Register(name, WidgetOptions{})
	}

	require.True(t, s.EnqueueUpdate(ctx, "a", false))
	require.True(t, s.EnqueueUpdate(ctx, "b", false))
	awaitStarted(t, runner.started, 2)

	require.True(t, s.EnqueueUpdate(ctx, "c", false))
	updates, renders := s.QueueLengths()
	assert.Equal(t, 1, updates, "third update waits for the ceiling")
	assert.Equal(t, 0, renders)

	// Renders have their own ceiling; a full update pool does not block them.
	require.True(t, s.EnqueueRender(ctx, "d", false))
	assert.Eventually(t, func() bool { return runner.renderCount() == 1 },
		time.Second, 5*time.Millisecond)

	close(runner.release)
	s.wg.Wait()
}

func TestUpdateSuccessEnqueuesRender(t *testing.T) {
	runner := newBlockingRunner()
	close(runner.release) // updates complete immediately
	slogger, _ := NewTestSlogger()
	s := New(Config{}, runner, events.NewHub(32), slogger)
	ctx := context.Background()

	s.Register("w", WidgetOptions{})
	require.True(t, s.EnqueueUpdate(ctx, "w", false))
	s.wg.Wait()

	assert.Equal(t, []string{"w"}, runner.renders)

	st, ok := s.Status("w")
	require.True(t, ok)
	assert.False(t, st.LastUpdate.IsZero())
	assert.False(t, st.LastRender.IsZero())
	assert.Zero(t, st.ConsecutiveErrors)
}

func TestDeregisterDropsQueuedWork(t *testing.T) {
	runner := newBlockingRunner()
	slogger, _ := NewTestSlogger()
	s := New(Config{MaxConcurrentUpdates: 1}, runner, events.NewHub(32), slogger)
	ctx := context.Background()

	s.Register("busy", WidgetOptions{})
	s.Register("waiting", WidgetOptions{})

	require.True(t, s.EnqueueUpdate(ctx, "busy", false))
	awaitStarted(t, runner.started, 1)
	require.True(t, s.EnqueueUpdate(ctx, "waiting", false))

	assert.False(t, s.Deregister("ghost"))
	assert.True(t, s.Deregister("waiting"))

	updates, _ := s.QueueLengths()
	assert.Zero(t, updates)

	// Deregistering the in-flight widget discards its outcome quietly.
	assert.True(t, s.Deregister("busy"))
	close(runner.release)
	s.wg.Wait()

	_, ok := s.Status("busy")
	assert.False(t, ok)
}

func TestTickPublishesFrameEvent(t *testing.T) {
	runner := newBlockingRunner()
	close(runner.release)
	slogger, _ := NewTestSlogger()
	hub := events.NewHub(32)
	s := New(Config{}, runner, hub, slogger)
	ctx := context.Background()

	s.Register("w", WidgetOptions{})
	require.True(t, s.EnqueueUpdate(ctx, "w", false))
	s.wg.Wait()

	ch, cancel := hub.Subscribe()
	defer cancel()

	s.tick(ctx)

	select {
	case ev := <-ch:
		assert.Equal(t, events.TopicDashboardRendered, ev.Topic)
		assert.EqualValues(t, 1, ev.Payload()["widgets"])
	case <-time.After(time.Second):
		t.Fatal("no frame event published")
	}

	// Nothing rendered since; the next tick stays quiet.
	s.tick(ctx)
	s.wg.Wait()
	select {
	case ev := <-ch:
		if ev.Topic == events.TopicDashboardRendered {
			t.Fatalf("unexpected frame event: %v", ev.Payload())
		}
	default:
	}
}
