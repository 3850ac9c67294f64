package manifest

import (
	"fmt"
	"strings"
)

// ManifestError reports every constraint a manifest violates.
type ManifestError struct {
	Path       string
	Violations []string
}

func (e *ManifestError) Error() string {
	where := e.Path
	if where == "" {
		where = "manifest"
	}
	return fmt.Sprintf("invalid manifest %s: %s", where, strings.Join(e.Violations, "; "))
}

// CircularDependencyError names the dependency chain that loops.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// MissingDependencyError reports a dependency absent from the catalog.
type MissingDependencyError struct {
	Plugin     string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("plugin %q depends on %q which is not registered", e.Plugin, e.Dependency)
}

// CompatibilityError reports hard compatibility failures for a plugin.
type CompatibilityError struct {
	Plugin string
	Issues []string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("plugin %q is not compatible: %s", e.Plugin, strings.Join(e.Issues, "; "))
}
