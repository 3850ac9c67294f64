package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const Filename = "plugin.json"

// Manifest describes a plugin's metadata, dependencies and requirements.
type Manifest struct {
	// Identity
	Name        string   `json:"name" validate:"required"`
	Version     string   `json:"version" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Author      string   `json:"author" validate:"required"`
	License     string   `json:"license" validate:"required"`
	Keywords    []string `json:"keywords" validate:"required,min=1"`
	Category    string   `json:"category" validate:"required"`

	// Entry point: "builtin:<kind>" for compiled-in widgets, or a
	// relative path to a Lua script (default: "builtin:<name>").
	Entry string `json:"entry"`

	// Dependency specifiers: "name" or "name@version".
	Dependencies []string `json:"dependencies"`

	// Options accepted by the widget, JSON-Schema shaped.
	OptionsSchema map[string]OptionProperty `json:"optionsSchema" validate:"required"`

	// Optional system requirements.
	Requirements *Requirements `json:"requirements,omitempty"`

	// Internal: directory containing plugin.json
	path string
}

// OptionProperty describes one widget option.
type OptionProperty struct {
	Type        string   `json:"type"`        // string, number, boolean, array, object
	Default     any      `json:"default"`     // Default value
	Description string   `json:"description"` // Property description
	Enum        []string `json:"enum"`        // Allowed values for enum types
	Minimum     *float64 `json:"minimum"`     // Minimum value for numbers
	Maximum     *float64 `json:"maximum"`     // Maximum value for numbers
	MinLength   *int     `json:"minLength"`   // Minimum length for strings/arrays
	MaxLength   *int     `json:"maxLength"`   // Maximum length for strings/arrays
}

// Requirements declares what the host must provide for the plugin to run.
type Requirements struct {
	Platforms  []string `json:"platforms,omitempty"`  // GOOS names; empty = any
	Commands   []string `json:"commands,omitempty"`   // external binaries on PATH
	MinRuntime string   `json:"minRuntime,omitempty"` // minimum host version
}

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// versionPattern validates version strings (simplified semver).
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// validOptionTypes are the allowed option property types.
var validOptionTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// validate is shared; field names in messages come from json tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads and validates a plugin manifest from a file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Decode(data)
	if err != nil {
		var me *ManifestError
		if errors.As(err, &me) {
			me.Path = path
		}
		return nil, err
	}

	m.path = filepath.Dir(path)
	return m, nil
}

// LoadFromDir loads a manifest from a plugin directory.
// Looks for plugin.json in the directory.
func LoadFromDir(dir string) (*Manifest, error) {
	return Load(filepath.Join(dir, Filename))
}

// Decode parses and validates manifest JSON.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// applyDefaults sets default values for optional fields.
func (m *Manifest) applyDefaults() {
	if m.Entry == "" && m.Name != "" {
		m.Entry = "builtin:" + m.Name
	}
}

// Validate checks the manifest and reports every violated constraint,
// not just the first, as a *ManifestError.
func (m *Manifest) Validate() error {
	var violations []string

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("manifest validation: %w", err)
		}
		for _, fe := range verrs {
			violations = append(violations, describeFieldError(fe))
		}
	}

	if m.Name != "" && !namePattern.MatchString(m.Name) {
		violations = append(violations, fmt.Sprintf("name %q must be lowercase-kebab (%s)", m.Name, namePattern))
	}
	if m.Version != "" && !versionPattern.MatchString(m.Version) {
		violations = append(violations, fmt.Sprintf("version %q must be three-part numeric with optional pre-release suffix", m.Version))
	}

	for i, spec := range m.Dependencies {
		if _, err := ParseDependency(spec); err != nil {
			violations = append(violations, fmt.Sprintf("dependencies[%d]: %v", i, err))
		}
	}

	for name, prop := range m.OptionsSchema {
		if prop.Type != "" && !validOptionTypes[prop.Type] {
			violations = append(violations, fmt.Sprintf("optionsSchema.%s has invalid type %q", name, prop.Type))
		}
	}

	if m.Entry != "" && !strings.HasPrefix(m.Entry, "builtin:") {
		if strings.Contains(m.Entry, "..") {
			violations = append(violations, fmt.Sprintf("entry contains path traversal: %s", m.Entry))
		}
		if filepath.Ext(m.Entry) != ".lua" {
			violations = append(violations, fmt.Sprintf("entry %q must be builtin:<kind> or a .lua script", m.Entry))
		}
	}

	if len(violations) > 0 {
		return &ManifestError{Path: m.path, Violations: violations}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// Path returns the directory containing the manifest file.
func (m *Manifest) Path() string {
	return m.path
}

// EntryPath returns the absolute path of a script entry point.
// Builtin entries have no path.
func (m *Manifest) EntryPath() string {
	if strings.HasPrefix(m.Entry, "builtin:") {
		return ""
	}
	return filepath.Join(m.path, m.Entry)
}

// BuiltinKind returns the factory kind for a builtin entry, or "".
func (m *Manifest) BuiltinKind() string {
	if !strings.HasPrefix(m.Entry, "builtin:") {
		return ""
	}
	return strings.TrimPrefix(m.Entry, "builtin:")
}

// OptionDefaults returns the default value of every option that has one.
func (m *Manifest) OptionDefaults() map[string]any {
	defaults := make(map[string]any)
	for key, prop := range m.OptionsSchema {
		if prop.Default != nil {
			defaults[key] = prop.Default
		}
	}
	return defaults
}

// BaseName returns the name with any trailing version-ish suffix removed,
// so "weather-v2" and "weather" group together in health reports.
func (m *Manifest) BaseName() string {
	return baseNamePattern.ReplaceAllString(m.Name, "")
}

var baseNamePattern = regexp.MustCompile(`-v\d+$`)

func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}

// Clone creates a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	clone := *m

	if m.Keywords != nil {
		clone.Keywords = make([]string, len(m.Keywords))
		copy(clone.Keywords, m.Keywords)
	}
	if m.Dependencies != nil {
		clone.Dependencies = make([]string, len(m.Dependencies))
		copy(clone.Dependencies, m.Dependencies)
	}
	if m.OptionsSchema != nil {
		clone.OptionsSchema = make(map[string]OptionProperty, len(m.OptionsSchema))
		for k, v := range m.OptionsSchema {
			clone.OptionsSchema[k] = v
		}
	}
	if m.Requirements != nil {
		req := *m.Requirements
		if m.Requirements.Platforms != nil {
			req.Platforms = append([]string(nil), m.Requirements.Platforms...)
		}
		if m.Requirements.Commands != nil {
			req.Commands = append([]string(nil), m.Requirements.Commands...)
		}
		clone.Requirements = &req
	}
	return &clone
}
