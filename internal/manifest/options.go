package manifest

import (
	"fmt"
	"sort"
)

// ValidateOptions checks user-supplied widget options against the
// manifest's schema, reporting every violation. Unknown keys pass
// through untouched since schemas are advisory for extensions.
func ValidateOptions(schema map[string]OptionProperty, opts map[string]any) []string {
	var violations []string

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop, ok := schema[key]
		if !ok || prop.Type == "" {
			continue
		}
		value := opts[key]

		if !optionTypeMatches(prop.Type, value) {
			violations = append(violations, fmt.Sprintf("option %s: expected %s, got %T", key, prop.Type, value))
			continue
		}

		if len(prop.Enum) > 0 {
			if s, ok := value.(string); ok && !contains(prop.Enum, s) {
				violations = append(violations, fmt.Sprintf("option %s: %q not in %v", key, s, prop.Enum))
			}
		}

		if n, ok := asNumber(value); ok {
			if prop.Minimum != nil && n < *prop.Minimum {
				violations = append(violations, fmt.Sprintf("option %s: %v below minimum %v", key, n, *prop.Minimum))
			}
			if prop.Maximum != nil && n > *prop.Maximum {
				violations = append(violations, fmt.Sprintf("option %s: %v above maximum %v", key, n, *prop.Maximum))
			}
		}

		if s, ok := value.(string); ok {
			if prop.MinLength != nil && len(s) < *prop.MinLength {
				violations = append(violations, fmt.Sprintf("option %s: shorter than %d", key, *prop.MinLength))
			}
			if prop.MaxLength != nil && len(s) > *prop.MaxLength {
				violations = append(violations, fmt.Sprintf("option %s: longer than %d", key, *prop.MaxLength))
			}
		}
	}

	return violations
}

// MergeOptions overlays user options on schema defaults.
func MergeOptions(schema map[string]OptionProperty, opts map[string]any) map[string]any {
	merged := make(map[string]any, len(schema)+len(opts))
	for key, prop := range schema {
		if prop.Default != nil {
			merged[key] = prop.Default
		}
	}
	for key, value := range opts {
		merged[key] = value
	}
	return merged
}

func optionTypeMatches(want string, value any) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := asNumber(value)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
