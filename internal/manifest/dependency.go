package manifest

import (
	"fmt"
	"strings"
)

// Dependency is one parsed dependency specifier.
type Dependency struct {
	Name    string
	Version string // "latest" when the specifier carries no version
}

// ParseDependency parses "name", "name@version" or "@scope/name@version".
func ParseDependency(spec string) (Dependency, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Dependency{}, fmt.Errorf("empty dependency specifier")
	}

	// A leading @ introduces a scope, not a version separator.
	rest := spec
	scope := ""
	if strings.HasPrefix(rest, "@") {
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return Dependency{}, fmt.Errorf("scoped dependency %q missing name after scope", spec)
		}
		scope = rest[:slash+1]
		rest = rest[slash+1:]
	}

	name := rest
	version := "latest"
	if at := strings.Index(rest, "@"); at >= 0 {
		name = rest[:at]
		version = rest[at+1:]
		if version == "" {
			return Dependency{}, fmt.Errorf("dependency %q has empty version", spec)
		}
	}
	if name == "" {
		return Dependency{}, fmt.Errorf("dependency %q has empty name", spec)
	}

	return Dependency{Name: scope + name, Version: version}, nil
}
