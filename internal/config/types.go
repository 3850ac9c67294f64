package config

import "time"

// Config is the root dashboard configuration.
type Config struct {
	Log        LogConfig       `yaml:"log"`
	Dashboard  DashboardConfig `yaml:"dashboard"`
	PluginDirs []string        `yaml:"plugin_dirs"`
	Theme      ThemeConfig     `yaml:"theme"`
	Widgets    []WidgetConfig  `yaml:"widgets"`
}

// LogConfig controls structured log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DashboardConfig holds grid geometry and scheduler tuning.
type DashboardConfig struct {
	Title                string        `yaml:"title"`
	FrameRate            int           `yaml:"frame_rate"` // frames per second
	Grid                 GridConfig    `yaml:"grid"`
	Responsive           bool          `yaml:"responsive"`
	AutoLayout           bool          `yaml:"auto_layout"`
	MaxConcurrentUpdates int           `yaml:"max_concurrent_updates"`
	MaxConcurrentRenders int           `yaml:"max_concurrent_renders"`
	UpdateInterval       time.Duration `yaml:"update_interval"`
	LoadTimeout          time.Duration `yaml:"load_timeout"`
}

// GridConfig sets the base grid dimensions.
type GridConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// ThemeConfig holds terminal color values. Colors are lipgloss strings:
// ANSI-256 numbers ("240") or hex ("#7D56F4").
type ThemeConfig struct {
	Border      string `yaml:"border"`
	BorderFocus string `yaml:"border_focus"`
	Title       string `yaml:"title"`
	Accent      string `yaml:"accent"`
	Muted       string `yaml:"muted"`
	Error       string `yaml:"error"`
}

// WidgetConfig is one widget entry in the dashboard.
// Position is [row, col, rowSpan, colSpan]; nil means auto-placement.
// A zero UpdateInterval inherits dashboard.update_interval.
type WidgetConfig struct {
	Name           string         `yaml:"name"`
	Enabled        bool           `yaml:"enabled"`
	Position       *[4]int        `yaml:"position,omitempty"`
	Options        map[string]any `yaml:"options,omitempty"`
	UpdateInterval time.Duration  `yaml:"update_interval,omitempty"`
	Priority       int            `yaml:"priority,omitempty"`
	CanPause       *bool          `yaml:"can_pause,omitempty"`
	Visible        *bool          `yaml:"visible,omitempty"`
}

// Pausable reports whether the scheduler may skip this widget while it is
// hidden. Unset defaults to true.
func (w WidgetConfig) Pausable() bool {
	return w.CanPause == nil || *w.CanPause
}

// Shown reports the widget's initial visibility. Unset defaults to true.
func (w WidgetConfig) Shown() bool {
	return w.Visible == nil || *w.Visible
}

// Defaults returns the configuration used when no file is present.
// Load decodes user YAML over this struct, so omitted fields keep these
// values while explicit zero values stick.
func Defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Dashboard: DashboardConfig{
			Title:                "mosaic",
			FrameRate:            10,
			Grid:                 GridConfig{Rows: 12, Cols: 12},
			Responsive:           true,
			AutoLayout:           true,
			MaxConcurrentUpdates: 4,
			MaxConcurrentRenders: 2,
			UpdateInterval:       30 * time.Second,
			LoadTimeout:          30 * time.Second,
		},
		PluginDirs: []string{"./plugins"},
		Theme: ThemeConfig{
			Border:      "240",
			BorderFocus: "205",
			Title:       "86",
			Accent:      "205",
			Muted:       "241",
			Error:       "196",
		},
	}
}
