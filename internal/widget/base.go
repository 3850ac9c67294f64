package widget

import (
	"context"
	"sync"
	"time"

	"github.com/mattjoyce/mosaic/internal/manifest"
)

// Base supplies default hooks for everything but Render. Embed it and
// implement Render.
type Base struct {
	Ctx Context
}

func (b *Base) Initialize(ctx context.Context) error { return nil }

func (b *Base) Update(ctx context.Context) error { return nil }

func (b *Base) Destroy(ctx context.Context) error { return nil }

func (b *Base) OptionsSchema() map[string]manifest.OptionProperty { return nil }

const (
	defaultFetchRetries = 3
	defaultRetryDelay   = time.Second
	defaultCacheWindow  = 30 * time.Second
)

// DataWidget is the data-driven specialization: a fetch loop with retry,
// a time-boxed cache, and stale fallback. Periodic re-fetching rides the
// scheduler's update cadence via Update.
type DataWidget struct {
	Base

	// FetchFunc produces fresh data. Required.
	FetchFunc func(ctx context.Context) (any, error)
	// Retries is the number of fetch attempts per refresh.
	Retries int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	// CacheWindow bounds how long fetched data stays fresh. On fetch
	// failure, data younger than twice the window is served stale.
	CacheWindow time.Duration

	mu        sync.Mutex
	data      any
	fetchedAt time.Time
	stale     bool
}

// Update refreshes data through the cache; fetch errors surface so the
// scheduler can count them.
func (d *DataWidget) Update(ctx context.Context) error {
	_, err := d.Data(ctx)
	return err
}

// Data returns cached data while fresh, refetching with retry when the
// cache window has passed. A failed refresh serves stale data if it is
// within twice the window, and fails otherwise.
func (d *DataWidget) Data(ctx context.Context) (any, error) {
	window := d.CacheWindow
	if window <= 0 {
		window = defaultCacheWindow
	}

	d.mu.Lock()
	if d.data != nil && time.Since(d.fetchedAt) < window {
		data := d.data
		d.mu.Unlock()
		return data, nil
	}
	d.mu.Unlock()

	data, err := d.fetchWithRetry(ctx)
	if err == nil {
		d.mu.Lock()
		d.data = data
		d.fetchedAt = time.Now()
		d.stale = false
		d.mu.Unlock()
		return data, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data != nil && time.Since(d.fetchedAt) < 2*window {
		d.stale = true
		if d.Ctx.Logger != nil {
			d.Ctx.Logger.Warn("fetch failed, serving stale data", "error", err)
		}
		return d.data, nil
	}
	return nil, err
}

// Stale reports whether the last served data outlived its cache window.
func (d *DataWidget) Stale() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stale
}

// FetchedAt returns when the current data was fetched.
func (d *DataWidget) FetchedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetchedAt
}

func (d *DataWidget) fetchWithRetry(ctx context.Context) (any, error) {
	retries := d.Retries
	if retries <= 0 {
		retries = defaultFetchRetries
	}
	delay := d.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		data, err := d.FetchFunc(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if attempt < retries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}
