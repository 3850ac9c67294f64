package config

import (
	"fmt"
)

// Validate checks the configuration and returns every problem found, not
// just the first. An empty slice means the config is usable.
func Validate(cfg *Config) []string {
	var problems []string

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		problems = append(problems, fmt.Sprintf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level))
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format must be text or json (got %q)", cfg.Log.Format))
	}

	if cfg.Dashboard.FrameRate < 1 || cfg.Dashboard.FrameRate > 120 {
		problems = append(problems, fmt.Sprintf("dashboard.frame_rate must be between 1 and 120 (got %d)", cfg.Dashboard.FrameRate))
	}
	if cfg.Dashboard.Grid.Rows < 1 {
		problems = append(problems, fmt.Sprintf("dashboard.grid.rows must be at least 1 (got %d)", cfg.Dashboard.Grid.Rows))
	}
	if cfg.Dashboard.Grid.Cols < 1 {
		problems = append(problems, fmt.Sprintf("dashboard.grid.cols must be at least 1 (got %d)", cfg.Dashboard.Grid.Cols))
	}
	if cfg.Dashboard.MaxConcurrentUpdates < 1 {
		problems = append(problems, "dashboard.max_concurrent_updates must be at least 1")
	}
	if cfg.Dashboard.MaxConcurrentRenders < 1 {
		problems = append(problems, "dashboard.max_concurrent_renders must be at least 1")
	}
	if cfg.Dashboard.UpdateInterval <= 0 {
		problems = append(problems, "dashboard.update_interval must be positive")
	}
	if cfg.Dashboard.LoadTimeout <= 0 {
		problems = append(problems, "dashboard.load_timeout must be positive")
	}

	if len(cfg.PluginDirs) == 0 {
		problems = append(problems, "plugin_dirs must list at least one directory")
	}

	seen := make(map[string]bool)
	for i, w := range cfg.Widgets {
		name := w.Name
		if name == "" {
			problems = append(problems, fmt.Sprintf("widgets[%d]: name is required", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("widget %q: listed more than once", name))
		}
		seen[name] = true

		if w.Position != nil {
			problems = append(problems, validatePosition(name, *w.Position, cfg.Dashboard.Grid)...)
		}
		if w.UpdateInterval < 0 {
			problems = append(problems, fmt.Sprintf("widget %q: update_interval must not be negative", name))
		}
		if w.Options != nil {
			problems = append(problems, unresolvedEnvVars(name, w.Options)...)
		}
	}

	return problems
}

func validatePosition(name string, pos [4]int, grid GridConfig) []string {
	var problems []string

	row, col, rowSpan, colSpan := pos[0], pos[1], pos[2], pos[3]
	if row < 0 || col < 0 {
		problems = append(problems, fmt.Sprintf("widget %q: position row and col must not be negative (got [%d, %d, %d, %d])",
			name, row, col, rowSpan, colSpan))
	}
	if rowSpan < 1 || colSpan < 1 {
		problems = append(problems, fmt.Sprintf("widget %q: position spans must be at least 1 (got [%d, %d, %d, %d])",
			name, row, col, rowSpan, colSpan))
		return problems
	}
	if row+rowSpan > grid.Rows || col+colSpan > grid.Cols {
		problems = append(problems, fmt.Sprintf("widget %q: position [%d, %d, %d, %d] exceeds the %dx%d grid",
			name, row, col, rowSpan, colSpan, grid.Rows, grid.Cols))
	}

	return problems
}

// unresolvedEnvVars walks widget options for ${VAR} placeholders that
// survived interpolation. Unset secrets fail here instead of leaking
// placeholder strings into widgets at runtime.
func unresolvedEnvVars(widget string, data map[string]any) []string {
	var problems []string
	for _, value := range data {
		switch v := value.(type) {
		case string:
			if m := envVarPattern.FindStringSubmatch(v); m != nil {
				problems = append(problems, fmt.Sprintf("widget %q: environment variable ${%s} is not set", widget, m[1]))
			}
		case map[string]any:
			problems = append(problems, unresolvedEnvVars(widget, v)...)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					if m := envVarPattern.FindStringSubmatch(s); m != nil {
						problems = append(problems, fmt.Sprintf("widget %q: environment variable ${%s} is not set", widget, m[1]))
					}
				}
			}
		}
	}
	return problems
}
