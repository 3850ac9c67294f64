package widget

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/mosaic/internal/events"
	"github.com/mattjoyce/mosaic/internal/manifest"
)

// The widget contract is structural: a plugin implementation is any value
// exposing Render, plus whichever optional hooks it wants. No base type is
// required; Base supplies defaults for everything but Render.

// Renderer is the one required capability.
type Renderer interface {
	Render(ctx context.Context) (string, error)
}

// Initializer runs once before first render.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Updater refreshes data or content between renders.
type Updater interface {
	Update(ctx context.Context) error
}

// Destroyer releases resources on teardown.
type Destroyer interface {
	Destroy(ctx context.Context) error
}

// OptionsProvider exposes the option schema the implementation accepts.
type OptionsProvider interface {
	OptionsSchema() map[string]manifest.OptionProperty
}

// Context is handed to a factory at construction. The bus comes in here
// rather than through inheritance; widgets publish and subscribe on it
// directly. Manifest gives script-backed widgets their entry path.
type Context struct {
	Name     string
	Options  map[string]any
	Manifest *manifest.Manifest
	Bus      *events.Hub
	Logger   *slog.Logger
}

// Factory constructs a widget implementation.
type Factory func(wctx Context) (any, error)

// CheckContract verifies a constructed value exposes the required method
// set. It reports what is missing rather than failing on type identity.
func CheckContract(v any) error {
	if v == nil {
		return fmt.Errorf("implementation is nil")
	}
	if _, ok := v.(Renderer); !ok {
		return fmt.Errorf("implementation %T does not provide Render(ctx) (string, error)", v)
	}
	return nil
}
