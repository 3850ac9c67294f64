package loader

import (
	"errors"
	"fmt"
	"time"
)

// ErrLoadTimeout reports a caller that gave up waiting on an in-flight
// load. The underlying load keeps running.
var ErrLoadTimeout = errors.New("load timed out")

// ErrNotFound reports a load request for a name the catalog does not hold.
var ErrNotFound = errors.New("plugin not found in catalog")

// PluginError wraps any failure during load, initialize, update, render
// or destroy, always naming the plugin.
type PluginError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Op, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// LoadFailure is the recorded outcome of the most recent failed load
// attempt for a plugin name.
type LoadFailure struct {
	Plugin   string
	Attempts int
	LastErr  error
	At       time.Time
}
