package manifest

import (
	"fmt"
	"os/exec"
	"runtime"
)

// CompatContext describes the host environment a compatibility check
// runs against. Zero-value fields fall back to the running host.
type CompatContext struct {
	// Available manifests by name (usually the catalog's view).
	Available map[string]*Manifest
	// Loaded plugin versions by name.
	Loaded map[string]string
	// Platform defaults to runtime.GOOS.
	Platform string
	// RuntimeVersion is the host version requirements are checked against.
	RuntimeVersion string
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Compatibility is the outcome of a check. Issues are hard failures;
// warnings are advisory and never block a load.
type Compatibility struct {
	Compatible bool
	Issues     []string
	Warnings   []string
}

// CheckCompatibility verifies a manifest against the host context.
// It always returns a report, never an error.
func CheckCompatibility(m *Manifest, ctx CompatContext) Compatibility {
	platform := ctx.Platform
	if platform == "" {
		platform = runtime.GOOS
	}
	lookPath := ctx.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var issues, warnings []string

	for _, spec := range m.Dependencies {
		dep, err := ParseDependency(spec)
		if err != nil {
			issues = append(issues, fmt.Sprintf("invalid dependency specifier %q", spec))
			continue
		}
		avail, ok := ctx.Available[dep.Name]
		if !ok {
			issues = append(issues, fmt.Sprintf("missing dependency: %s", dep.Name))
			continue
		}
		if dep.Version != "latest" && CompareVersions(avail.Version, dep.Version) < 0 {
			warnings = append(warnings, fmt.Sprintf(
				"dependency %s wants version %s, catalog has %s", dep.Name, dep.Version, avail.Version))
		}
	}

	if req := m.Requirements; req != nil {
		if len(req.Platforms) > 0 && !contains(req.Platforms, platform) {
			issues = append(issues, fmt.Sprintf("platform %s not in supported set %v", platform, req.Platforms))
		}
		for _, cmd := range req.Commands {
			if _, err := lookPath(cmd); err != nil {
				issues = append(issues, fmt.Sprintf("required command not found: %s", cmd))
			}
		}
		if req.MinRuntime != "" && ctx.RuntimeVersion != "" &&
			CompareVersions(ctx.RuntimeVersion, req.MinRuntime) < 0 {
			issues = append(issues, fmt.Sprintf(
				"runtime %s below required minimum %s", ctx.RuntimeVersion, req.MinRuntime))
		}
	}

	if loadedVersion, ok := ctx.Loaded[m.Name]; ok && loadedVersion != m.Version {
		warnings = append(warnings, fmt.Sprintf(
			"version %s differs from already-loaded %s", m.Version, loadedVersion))
	}

	return Compatibility{
		Compatible: len(issues) == 0,
		Issues:     issues,
		Warnings:   warnings,
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
