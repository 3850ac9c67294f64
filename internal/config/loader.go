package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. A directory is accepted
// too and resolves to mosaic.yaml inside it.
func Load(configPath string) (*Config, error) {
	data, absPath, err := readConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return cfg, nil
}

// LoadLenient reads and decodes configuration without validating it, for
// callers like doctor that report problems instead of failing on them.
func LoadLenient(configPath string) (*Config, error) {
	data, absPath, err := readConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return cfg, nil
}

func readConfig(configPath string) ([]byte, string, error) {
	// Resolve to absolute path for consistent error messages
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "mosaic.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, "", fmt.Errorf("directory provided but mosaic.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, absPath, nil
}

// Parse decodes YAML over Defaults and validates the result. Environment
// variables referenced as ${VAR} are interpolated before decoding.
func Parse(data []byte) (*Config, error) {
	cfg, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if problems := Validate(cfg); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return cfg, nil
}

// Decode decodes YAML over Defaults without validating.
func Decode(data []byte) (*Config, error) {
	interpolated := interpolateEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is and caught by validation.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}
