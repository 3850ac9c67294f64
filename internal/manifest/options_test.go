package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func TestValidateOptions(t *testing.T) {
	schema := map[string]OptionProperty{
		"label":    {Type: "string", MaxLength: iptr(10)},
		"interval": {Type: "number", Minimum: fptr(1), Maximum: fptr(60)},
		"mode":     {Type: "string", Enum: []string{"bar", "line"}},
		"enabled":  {Type: "boolean"},
	}

	t.Run("valid", func(t *testing.T) {
		v := ValidateOptions(schema, map[string]any{
			"label":    "CPU",
			"interval": float64(5),
			"mode":     "bar",
			"enabled":  true,
		})
		assert.Empty(t, v)
	})

	t.Run("collects every violation", func(t *testing.T) {
		v := ValidateOptions(schema, map[string]any{
			"label":    "way too long label here",
			"interval": float64(500),
			"mode":     "pie",
			"enabled":  "yes",
		})
		assert.Len(t, v, 4)
	})

	t.Run("unknown keys pass", func(t *testing.T) {
		v := ValidateOptions(schema, map[string]any{"custom": 1})
		assert.Empty(t, v)
	})

	t.Run("ints accepted as numbers", func(t *testing.T) {
		v := ValidateOptions(schema, map[string]any{"interval": 5})
		assert.Empty(t, v)
	})
}

func TestMergeOptions(t *testing.T) {
	schema := map[string]OptionProperty{
		"label": {Type: "string", Default: "CPU"},
		"mode":  {Type: "string", Default: "bar"},
	}

	merged := MergeOptions(schema, map[string]any{"mode": "line"})
	assert.Equal(t, "CPU", merged["label"])
	assert.Equal(t, "line", merged["mode"])
}
