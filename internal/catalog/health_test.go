package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/mosaic/internal/manifest"
)

func TestHealthClean(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Register(testManifest("core")))
	require.NoError(t, c.Register(testManifest("app", func(m *manifest.Manifest) {
		m.Dependencies = []string{"core"}
	})))

	report := c.Health()
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Warnings)
}

func TestHealthMissingDependency(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Register(testManifest("app", func(m *manifest.Manifest) {
		m.Dependencies = []string{"ghost"}
	})))

	report := c.Health()
	assert.False(t, report.Healthy())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "missing-dependency", report.Issues[0].Category)
	assert.Equal(t, "app", report.Issues[0].Plugin)
}

func TestHealthCycle(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Register(testManifest("a", func(m *manifest.Manifest) {
		m.Dependencies = []string{"b"}
	})))
	require.NoError(t, c.Register(testManifest("b", func(m *manifest.Manifest) {
		m.Dependencies = []string{"a"}
	})))

	report := c.Health()
	assert.False(t, report.Healthy())

	found := false
	for _, issue := range report.Issues {
		if issue.Category == "cycle" {
			found = true
			assert.Contains(t, issue.Message, " -> ")
		}
	}
	assert.True(t, found, "expected a cycle issue")
}

func TestHealthDuplicateVersions(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Register(testManifest("weather")))
	require.NoError(t, c.Register(testManifest("weather-v2")))

	report := c.Health()
	assert.True(t, report.Healthy(), "duplicate versions warn, not fail")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "duplicate-version", report.Warnings[0].Category)
	assert.Contains(t, report.Warnings[0].Message, "weather")
}
