package events

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one bus message. Payloads are plain maps handed through
// unserialized; everything runs in one process.
type Event struct {
	ID    int64          `json:"id"`
	Topic string         `json:"topic"`
	At    time.Time      `json:"at"`
	Data  map[string]any `json:"data"`
}

// Payload returns the event data, never nil.
func (e Event) Payload() map[string]any {
	if e.Data == nil {
		return map[string]any{}
	}
	return e.Data
}

type subscriber struct {
	ch    chan Event
	topic string // "" matches every topic
}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
type Hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]*subscriber
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]*subscriber),
	}
}

// Publish stamps the event and fans it out. The payload is copied so a
// publisher reusing its map cannot mutate what subscribers see.
func (h *Hub) Publish(topic string, data map[string]any) {
	ev := Event{
		ID:    h.nextID.Add(1),
		Topic: topic,
		At:    time.Now().UTC(),
	}
	if len(data) > 0 {
		ev.Data = maps.Clone(data)
	}

	h.mu.Lock()
	h.bufferLocked(ev)
	for _, sub := range h.subs {
		if sub.topic != "" && sub.topic != topic {
			continue
		}
		// Don't let slow clients block producers.
		select {
		case sub.ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe registers for every topic. The caller drains the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	return h.subscribe("")
}

// SubscribeTopic invokes fn for each event published on topic, from a
// dedicated goroutine so handlers never run under the hub lock. The
// returned func unsubscribes and stops the goroutine.
func (h *Hub) SubscribeTopic(topic string, fn func(Event)) func() {
	ch, cancel := h.subscribe(topic)
	go func() {
		for ev := range ch {
			fn(ev)
		}
	}()
	return cancel
}

func (h *Hub) subscribe(topic string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 128) // absorbs bursts between TUI frames
	h.subs[id] = &subscriber{ch: ch, topic: topic}

	cancel := func() {
		h.mu.Lock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// If lastID is 0, the full ring buffer snapshot is returned.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if lastID == 0 || ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) bufferLocked(ev Event) {
	capacity := len(h.ring)
	if capacity == 0 {
		return
	}

	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}

	// Full ring overwrites the oldest entry.
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
