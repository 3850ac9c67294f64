package manifest

import (
	"sort"
)

// DependencyGraph maps a plugin name to the names it directly depends on.
// Edges exist only between names present in the working set; specifiers
// naming unregistered plugins are not edges (compatibility checks flag
// those separately as missing dependencies).
type DependencyGraph map[string][]string

// BuildGraph constructs a dependency graph from a working set of manifests.
func BuildGraph(manifests []*Manifest) DependencyGraph {
	present := make(map[string]bool, len(manifests))
	for _, m := range manifests {
		present[m.Name] = true
	}

	g := make(DependencyGraph, len(manifests))
	for _, m := range manifests {
		deps := make([]string, 0, len(m.Dependencies))
		for _, spec := range m.Dependencies {
			dep, err := ParseDependency(spec)
			if err != nil {
				continue // validated at parse time; unreachable for registered manifests
			}
			if present[dep.Name] && dep.Name != m.Name {
				deps = append(deps, dep.Name)
			}
		}
		sort.Strings(deps)
		g[m.Name] = deps
	}
	return g
}

// Dependents returns the names that directly depend on name.
func (g DependencyGraph) Dependents(name string) []string {
	var out []string
	for n, deps := range g {
		for _, d := range deps {
			if d == name {
				out = append(out, n)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

const (
	unvisited = iota
	visiting
	visited
)

// ResolveLoadOrder returns names in dependency-first order via depth-first
// post-order traversal. Revisiting a name still on the current path fails
// with a *CircularDependencyError naming the chain; a name already fully
// visited is skipped idempotently.
func ResolveLoadOrder(names []string, g DependencyGraph) ([]string, error) {
	marks := make(map[string]int, len(g))
	order := make([]string, 0, len(g))
	path := make([]string, 0, len(g))

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case visited:
			return nil
		case visiting:
			return &CircularDependencyError{Chain: cycleChain(path, name)}
		}

		marks[name] = visiting
		path = append(path, name)

		for _, dep := range g[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		marks[name] = visited
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// DetectCycle scans the entire graph and returns the first cycle found,
// or nil when the graph is acyclic. Traversal order is deterministic.
func DetectCycle(g DependencyGraph) *CircularDependencyError {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	if _, err := ResolveLoadOrder(names, g); err != nil {
		if cerr, ok := err.(*CircularDependencyError); ok {
			return cerr
		}
	}
	return nil
}

// cycleChain trims the visit path to the looping segment and closes it,
// so a -> b -> c -> b reports "b -> c -> b".
func cycleChain(path []string, repeat string) []string {
	start := 0
	for i, n := range path {
		if n == repeat {
			start = i
			break
		}
	}
	chain := append([]string(nil), path[start:]...)
	return append(chain, repeat)
}
