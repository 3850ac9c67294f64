package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverConfigPathEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("dashboard:\n  title: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MOSAIC_CONFIG", configPath)

	got, err := DiscoverConfigPath()
	if err != nil {
		t.Fatalf("DiscoverConfigPath() error = %v", err)
	}
	if got != configPath {
		t.Errorf("DiscoverConfigPath() = %q, want %q", got, configPath)
	}
}

func TestDiscoverConfigPathFallsThroughBrokenEnv(t *testing.T) {
	t.Setenv("MOSAIC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	if err := os.WriteFile("mosaic.yaml", []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DiscoverConfigPath()
	if err != nil {
		t.Fatalf("DiscoverConfigPath() error = %v", err)
	}
	if got != "./mosaic.yaml" {
		t.Errorf("DiscoverConfigPath() = %q, want local fallback", got)
	}
}

func TestDiscoverConfigPathUserDir(t *testing.T) {
	home := t.TempDir()
	configDir := filepath.Join(home, ".config", "mosaic")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(configDir, "mosaic.yaml")
	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MOSAIC_CONFIG", "")
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	got, err := DiscoverConfigPath()
	if err != nil {
		t.Fatalf("DiscoverConfigPath() error = %v", err)
	}
	if got != configPath {
		t.Errorf("DiscoverConfigPath() = %q, want %q", got, configPath)
	}
}

func TestDiscoverConfigPathNotFound(t *testing.T) {
	t.Setenv("MOSAIC_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	_, err := DiscoverConfigPath()
	if err == nil {
		t.Fatal("DiscoverConfigPath() succeeded with nothing to find")
	}
	if !strings.Contains(err.Error(), "$MOSAIC_CONFIG") {
		t.Errorf("error = %v, want candidate list", err)
	}
}

// chdir switches the working directory and restores it when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
