// Package builtin holds the compiled-in widget implementations. Each is
// registered under a factory kind that manifests reference through
// "builtin:<kind>" entries; the script kind backs every Lua entry.
package builtin

import (
	"github.com/mattjoyce/mosaic/internal/widget"
)

// RegisterAll installs every built-in widget factory.
func RegisterAll(r *widget.Registry) {
	r.Register("clock", NewClock)
	r.Register("text", NewText)
	r.Register("httpjson", NewHTTPJSON)
	r.Register("script", NewScript)
	r.Register("cmdrunner", NewCmdRunner)
}

// Options arrive merged from manifest defaults (JSON, numbers decode as
// float64) and dashboard config (YAML, numbers decode as int). The
// getters absorb both.

func optString(opts map[string]any, key, fallback string) string {
	if v, ok := opts[key].(string); ok {
		return v
	}
	return fallback
}

func optBool(opts map[string]any, key string, fallback bool) bool {
	if v, ok := opts[key].(bool); ok {
		return v
	}
	return fallback
}

func optInt(opts map[string]any, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func optStrings(opts map[string]any, key string) []string {
	switch v := opts[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
