package doctor

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/mosaic/internal/catalog"
	"github.com/mattjoyce/mosaic/internal/config"
	"github.com/mattjoyce/mosaic/internal/manifest"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.PluginDirs = []string{t.TempDir()}
	cfg.Widgets = []config.WidgetConfig{
		{Name: "clock", Enabled: true},
	}
	return cfg
}

func testManifest(t *testing.T, doc string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("fixture manifest: %v", err)
	}
	return m
}

func clockManifest(t *testing.T) *manifest.Manifest {
	return testManifest(t, `{
		"name": "clock",
		"version": "1.0.0",
		"description": "Shows the time",
		"author": "mosaic",
		"license": "MIT",
		"keywords": ["time"],
		"category": "system",
		"entry": "builtin:clock",
		"optionsSchema": {"zone": {"type": "string"}}
	}`)
}

func textManifest(t *testing.T) *manifest.Manifest {
	return testManifest(t, `{
		"name": "text",
		"version": "1.0.0",
		"description": "Static text",
		"author": "mosaic",
		"license": "MIT",
		"keywords": ["text"],
		"category": "display",
		"entry": "builtin:text",
		"optionsSchema": {}
	}`)
}

func catalogWith(t *testing.T, manifests ...*manifest.Manifest) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, m := range manifests {
		if err := cat.Register(m); err != nil {
			t.Fatalf("register fixture: %v", err)
		}
	}
	return cat
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()
	d := New(validConfig(t), catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got: %v", r.Warnings)
	}
}

func TestValidate_ConfigProblems(t *testing.T) {
	t.Parallel()
	cfg := validConfig(t)
	cfg.Dashboard.FrameRate = 0
	d := New(cfg, catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "config", "frame_rate")
}

func TestValidate_MissingPluginDir(t *testing.T) {
	t.Parallel()
	cfg := validConfig(t)
	cfg.PluginDirs = []string{"/nonexistent/mosaic-plugins"}
	d := New(cfg, catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "plugins", "does not exist")
}

func TestValidate_WidgetNotDiscovered(t *testing.T) {
	t.Parallel()
	cfg := validConfig(t)
	cfg.Widgets = append(cfg.Widgets, config.WidgetConfig{Name: "ghost", Enabled: true})
	d := New(cfg, catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "widgets", "ghost")
}

func TestValidate_DisabledWidgetSkipped(t *testing.T) {
	t.Parallel()
	cfg := validConfig(t)
	cfg.Widgets = append(cfg.Widgets, config.WidgetConfig{Name: "ghost", Enabled: false})
	d := New(cfg, catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
}

func TestValidate_BadWidgetOptions(t *testing.T) {
	t.Parallel()
	cfg := validConfig(t)
	cfg.Widgets[0].Options = map[string]any{"zone": 42}
	d := New(cfg, catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "widgets", "expected string")
}

func TestValidate_MissingDependency(t *testing.T) {
	t.Parallel()
	weather := testManifest(t, `{
		"name": "weather",
		"version": "1.0.0",
		"description": "Weather summary",
		"author": "mosaic",
		"license": "MIT",
		"keywords": ["weather"],
		"category": "data",
		"entry": "builtin:weather",
		"dependencies": ["geo@1.0.0"],
		"optionsSchema": {}
	}`)
	cfg := validConfig(t)
	cfg.Widgets = []config.WidgetConfig{{Name: "weather", Enabled: true}}
	d := New(cfg, catalogWith(t, weather), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "compatibility", "missing dependency")
	assertHasError(t, r, "missing-dependency", "geo")
}

func TestValidate_RequiredCommandMissing(t *testing.T) {
	t.Parallel()
	m := testManifest(t, `{
		"name": "disk",
		"version": "1.0.0",
		"description": "Disk usage",
		"author": "mosaic",
		"license": "MIT",
		"keywords": ["disk"],
		"category": "system",
		"entry": "builtin:cmdrunner",
		"optionsSchema": {},
		"requirements": {"commands": ["mosaic-doctor-test-missing-cmd"]}
	}`)
	cfg := validConfig(t)
	cfg.Widgets = []config.WidgetConfig{{Name: "disk", Enabled: true}}
	d := New(cfg, catalogWith(t, m), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "compatibility", "required command not found")
}

func overlappingWidgets(t *testing.T) *config.Config {
	t.Helper()
	cfg := validConfig(t)
	a := [4]int{0, 0, 2, 2}
	b := [4]int{1, 1, 2, 2}
	cfg.Widgets = []config.WidgetConfig{
		{Name: "clock", Enabled: true, Position: &a},
		{Name: "text", Enabled: true, Position: &b},
	}
	return cfg
}

func TestValidate_OverlapWarnsWithAutoLayout(t *testing.T) {
	t.Parallel()
	cfg := overlappingWidgets(t)
	cfg.Dashboard.AutoLayout = true
	d := New(cfg, catalogWith(t, clockManifest(t), textManifest(t)), "1.0.0")
	r := d.Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	assertHasWarning(t, r, "layout", "overlap")
}

func TestValidate_OverlapErrorsWithoutAutoLayout(t *testing.T) {
	t.Parallel()
	cfg := overlappingWidgets(t)
	cfg.Dashboard.AutoLayout = false
	d := New(cfg, catalogWith(t, clockManifest(t), textManifest(t)), "1.0.0")
	r := d.Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "layout", "auto-layout is disabled")
}

func TestValidate_WarnUnusedPlugin(t *testing.T) {
	t.Parallel()
	spare := testManifest(t, `{
		"name": "spare",
		"version": "1.0.0",
		"description": "Nothing uses this",
		"author": "mosaic",
		"license": "MIT",
		"keywords": ["spare"],
		"category": "misc",
		"entry": "builtin:text",
		"optionsSchema": {}
	}`)
	d := New(validConfig(t), catalogWith(t, clockManifest(t), spare), "1.0.0")
	r := d.Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got: %v", r.Errors)
	}
	assertHasWarning(t, r, "unused", "spare")
}

func TestValidate_WarnShortInterval(t *testing.T) {
	t.Parallel()
	cfg := validConfig(t)
	cfg.Widgets[0].UpdateInterval = 500 * time.Millisecond
	d := New(cfg, catalogWith(t, clockManifest(t)), "1.0.0")
	r := d.Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got: %v", r.Errors)
	}
	assertHasWarning(t, r, "schedule", "very short")
}

func TestFormatJSON(t *testing.T) {
	t.Parallel()
	r := &Result{
		Valid:  false,
		Errors: []Issue{{Category: "test", Message: "bad thing"}},
	}
	out, err := FormatJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bad thing") {
		t.Fatalf("expected JSON to contain error message, got: %s", out)
	}
}

func TestFormatHuman_Valid(t *testing.T) {
	t.Parallel()
	r := &Result{Valid: true}
	out := FormatHuman(r)
	if !strings.Contains(out, "valid") {
		t.Fatalf("expected 'valid' in output, got: %s", out)
	}
}

func TestFormatHuman_Errors(t *testing.T) {
	t.Parallel()
	r := &Result{
		Valid:  false,
		Errors: []Issue{{Category: "test", Field: "x.y", Message: "broken"}},
	}
	out := FormatHuman(r)
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "broken") {
		t.Fatalf("expected error in output, got: %s", out)
	}
}

func TestFormatHuman_Warnings(t *testing.T) {
	t.Parallel()
	r := &Result{
		Valid:    true,
		Warnings: []Issue{{Category: "unused", Message: fmt.Sprintf("plugin %q discovered but no enabled widget uses it", "spare")}},
	}
	out := FormatHuman(r)
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "1 warning(s)") {
		t.Fatalf("expected warning count in output, got: %s", out)
	}
}

// --- helpers ---

func assertHasError(t *testing.T, r *Result, category, substring string) {
	t.Helper()
	for _, e := range r.Errors {
		if e.Category == category && strings.Contains(e.Message, substring) {
			return
		}
	}
	t.Fatalf("expected error with category=%q containing %q, got: %v", category, substring, r.Errors)
}

func assertHasWarning(t *testing.T, r *Result, category, substring string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Category == category && strings.Contains(w.Message, substring) {
			return
		}
	}
	t.Fatalf("expected warning with category=%q containing %q, got: %v", category, substring, r.Warnings)
}
