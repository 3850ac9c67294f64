// Package doctor validates mosaic configuration against the discovered
// plugin catalog before the dashboard runs.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattjoyce/mosaic/internal/catalog"
	"github.com/mattjoyce/mosaic/internal/config"
	"github.com/mattjoyce/mosaic/internal/layout"
	"github.com/mattjoyce/mosaic/internal/manifest"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates configuration against discovered plugins.
type Doctor struct {
	cfg            *config.Config
	catalog        *catalog.Catalog
	runtimeVersion string
}

// New creates a Doctor from a loaded config and plugin catalog.
func New(cfg *config.Config, cat *catalog.Catalog, runtimeVersion string) *Doctor {
	return &Doctor{cfg: cfg, catalog: cat, runtimeVersion: runtimeVersion}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.checkConfig(r)
	d.checkPluginDirs(r)
	d.checkWidgetRefs(r)
	d.checkCompatibility(r)
	d.checkCatalogHealth(r)
	d.checkLayout(r)
	d.warnUnusedPlugins(r)
	d.warnShortIntervals(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// checkConfig reruns full config validation so doctor reports the same
// problems a strict load would fail on.
func (d *Doctor) checkConfig(r *Result) {
	for _, problem := range config.Validate(d.cfg) {
		d.addError(r, "config", "", problem)
	}
}

// checkPluginDirs verifies every configured plugin root exists, since a
// missing root fails the catalog scan outright.
func (d *Doctor) checkPluginDirs(r *Result) {
	for i, dir := range d.cfg.PluginDirs {
		field := fmt.Sprintf("plugin_dirs[%d]", i)
		info, err := os.Stat(dir)
		if err != nil {
			d.addError(r, "plugins", field,
				fmt.Sprintf("plugin directory does not exist: %s", dir))
			continue
		}
		if !info.IsDir() {
			d.addError(r, "plugins", field,
				fmt.Sprintf("plugin root is not a directory: %s", dir))
		}
	}
}

// checkWidgetRefs checks that enabled widgets resolve to discovered
// plugins and that their options satisfy the plugin's schema.
func (d *Doctor) checkWidgetRefs(r *Result) {
	for _, w := range d.cfg.Widgets {
		if !w.Enabled {
			continue
		}
		m, ok := d.catalog.Lookup(w.Name)
		if !ok {
			d.addError(r, "widgets", fmt.Sprintf("widgets.%s", w.Name),
				fmt.Sprintf("widget %q is not provided by any discovered plugin", w.Name))
			continue
		}
		for _, violation := range manifest.ValidateOptions(m.OptionsSchema, w.Options) {
			d.addError(r, "widgets", fmt.Sprintf("widgets.%s.options", w.Name), violation)
		}
	}
}

// checkCompatibility runs the same pre-flight the loader runs, so doctor
// surfaces platform, command and dependency problems before launch.
func (d *Doctor) checkCompatibility(r *Result) {
	ctx := manifest.CompatContext{
		Available:      d.catalog.Manifests(),
		RuntimeVersion: d.runtimeVersion,
	}
	for _, w := range d.cfg.Widgets {
		if !w.Enabled {
			continue
		}
		m, ok := d.catalog.Lookup(w.Name)
		if !ok {
			continue // already reported by checkWidgetRefs
		}
		field := fmt.Sprintf("widgets.%s", w.Name)
		compat := manifest.CheckCompatibility(m, ctx)
		for _, issue := range compat.Issues {
			d.addError(r, "compatibility", field, issue)
		}
		for _, warning := range compat.Warnings {
			d.addWarning(r, "compatibility", field, warning)
		}
	}
}

// checkCatalogHealth folds the catalog's own report into the result.
func (d *Doctor) checkCatalogHealth(r *Result) {
	report := d.catalog.Health()
	for _, issue := range report.Issues {
		d.addError(r, issue.Category, pluginField(issue.Plugin), issue.Message)
	}
	for _, warning := range report.Warnings {
		d.addWarning(r, warning.Category, pluginField(warning.Plugin), warning.Message)
	}
}

func pluginField(plugin string) string {
	if plugin == "" {
		return ""
	}
	return "plugins." + plugin
}

// checkLayout looks for overlapping configured positions. With
// auto-layout on the engine relocates one of the pair, so an overlap is
// only advisory; with it off the placement fails at startup.
func (d *Doctor) checkLayout(r *Result) {
	positions := make(map[string]layout.Position)
	for _, w := range d.cfg.Widgets {
		if !w.Enabled || w.Position == nil {
			continue
		}
		p := *w.Position
		positions[w.Name] = layout.Position{Row: p[0], Col: p[1], RowSpan: p[2], ColSpan: p[3]}
	}

	for _, c := range layout.FindConflicts(positions) {
		if d.cfg.Dashboard.AutoLayout {
			d.addWarning(r, "layout", "",
				fmt.Sprintf("widgets %q and %q overlap; auto-layout will relocate one of them", c.A, c.B))
		} else {
			d.addError(r, "layout", "",
				fmt.Sprintf("widgets %q and %q overlap and auto-layout is disabled", c.A, c.B))
		}
	}
}

// warnUnusedPlugins warns about discovered plugins no enabled widget uses.
func (d *Doctor) warnUnusedPlugins(r *Result) {
	used := make(map[string]bool)
	for _, w := range d.cfg.Widgets {
		if w.Enabled {
			used[w.Name] = true
		}
	}
	for _, m := range d.catalog.All() {
		if !used[m.Name] {
			d.addWarning(r, "unused", "",
				fmt.Sprintf("plugin %q discovered but no enabled widget uses it", m.Name))
		}
	}
}

// warnShortIntervals warns about update intervals that will hammer
// widget data sources.
func (d *Doctor) warnShortIntervals(r *Result) {
	if iv := d.cfg.Dashboard.UpdateInterval; iv > 0 && iv < time.Second {
		d.addWarning(r, "schedule", "dashboard.update_interval",
			fmt.Sprintf("update interval %s is very short (< 1s)", iv))
	}
	for _, w := range d.cfg.Widgets {
		if !w.Enabled {
			continue
		}
		if iv := w.UpdateInterval; iv > 0 && iv < time.Second {
			d.addWarning(r, "schedule", fmt.Sprintf("widgets.%s.update_interval", w.Name),
				fmt.Sprintf("update interval %s is very short (< 1s)", iv))
		}
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
