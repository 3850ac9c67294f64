package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiscoverConfigPath finds the configuration file by checking standard
// locations. Priority order: $MOSAIC_CONFIG, ~/.config/mosaic/mosaic.yaml,
// ./mosaic.yaml
func DiscoverConfigPath() (string, error) {
	// 1. Check environment variable
	if path := os.Getenv("MOSAIC_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// 2. Check user config directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "mosaic", "mosaic.yaml")
		if _, err := os.Stat(userConfig); err == nil {
			return userConfig, nil
		}
	}

	// 3. Fallback to config in current directory
	localConfig := "./mosaic.yaml"
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	return "", fmt.Errorf("no config found (checked: $MOSAIC_CONFIG, ~/.config/mosaic/mosaic.yaml, ./mosaic.yaml)")
}
