package loader

import (
	"github.com/mattjoyce/mosaic/internal/manifest"
	"github.com/mattjoyce/mosaic/internal/widget"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/mattjoyce/mosaic/internal/loader Store

// Store defines the catalog surface the loader depends on. Liveness
// marks flow through here and nowhere else.
type Store interface {
	Lookup(name string) (*manifest.Manifest, bool)
	Manifests() map[string]*manifest.Manifest
	LoadedVersions() map[string]string
	IsLoaded(name string) bool
	Instance(name string) (*widget.Instance, bool)
	MarkInstantiated(name string, inst *widget.Instance) error
	MarkUnloaded(name string)
}
