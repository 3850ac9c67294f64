package catalog

import (
	"fmt"
	"sort"

	"github.com/mattjoyce/mosaic/internal/manifest"
)

// HealthIssue is one finding from a catalog scan.
type HealthIssue struct {
	Category string `json:"category"`
	Plugin   string `json:"plugin,omitempty"`
	Message  string `json:"message"`
}

// HealthReport categorizes catalog problems. Issues block loads that
// touch them; warnings are advisory.
type HealthReport struct {
	Issues   []HealthIssue `json:"issues"`
	Warnings []HealthIssue `json:"warnings"`
}

func (r *HealthReport) Healthy() bool {
	return len(r.Issues) == 0
}

// Health scans every record for dependency names missing from the
// catalog, cycles across the whole registered set, and multiple
// versions sharing a base name. It reports and never fails.
func (c *Catalog) Health() *HealthReport {
	report := &HealthReport{}

	manifests := c.All()
	byName := make(map[string]*manifest.Manifest, len(manifests))
	for _, m := range manifests {
		byName[m.Name] = m
	}

	for _, m := range manifests {
		for _, spec := range m.Dependencies {
			dep, err := manifest.ParseDependency(spec)
			if err != nil {
				report.Issues = append(report.Issues, HealthIssue{
					Category: "manifest",
					Plugin:   m.Name,
					Message:  fmt.Sprintf("invalid dependency specifier %q", spec),
				})
				continue
			}
			if _, ok := byName[dep.Name]; !ok {
				report.Issues = append(report.Issues, HealthIssue{
					Category: "missing-dependency",
					Plugin:   m.Name,
					Message:  fmt.Sprintf("depends on %q which is not registered", dep.Name),
				})
			}
		}
	}

	graph := manifest.BuildGraph(manifests)
	if cerr := manifest.DetectCycle(graph); cerr != nil {
		report.Issues = append(report.Issues, HealthIssue{
			Category: "cycle",
			Message:  cerr.Error(),
		})
	}

	byBase := make(map[string][]string)
	for _, m := range manifests {
		base := m.BaseName()
		byBase[base] = append(byBase[base], m.Name)
	}
	bases := make([]string, 0, len(byBase))
	for base := range byBase {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	for _, base := range bases {
		if names := byBase[base]; len(names) > 1 {
			sort.Strings(names)
			report.Warnings = append(report.Warnings, HealthIssue{
				Category: "duplicate-version",
				Plugin:   base,
				Message:  fmt.Sprintf("multiple versions share base name %q: %v", base, names),
			})
		}
	}

	return report
}
