package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/mosaic/internal/manifest"
)

// ScanResult summarizes one discovery pass.
type ScanResult struct {
	Registered int
	Failed     []string // manifest paths that did not load
}

// Scan walks plugin roots for plugin.json files, parses them through the
// cache, and registers what validates. Invalid manifests are logged and
// skipped, never fatal. Roots are processed in input order.
func (c *Catalog) Scan(roots []string, cache *manifest.Cache) (*ScanResult, error) {
	absRoots, err := normalizeRoots(roots)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = manifest.NewCache()
	}

	result := &ScanResult{}
	for _, root := range absRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || d.Name() != manifest.Filename {
				return nil
			}

			m, err := cache.Load(path)
			if err != nil {
				c.logger.Warn("failed to load manifest", "path", path, "error", err)
				result.Failed = append(result.Failed, path)
				return nil
			}

			if err := c.Register(m); err != nil {
				c.logger.Warn("failed to register plugin", "path", path, "error", err)
				result.Failed = append(result.Failed, path)
				return nil
			}

			c.logger.Info("registered plugin", "plugin", m.Name, "version", m.Version, "path", m.Path())
			result.Registered++
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("failed to scan plugin root %s: %w", root, err)
		}
	}

	return result, nil
}

func normalizeRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one plugin root is required")
	}

	out := make([]string, 0, len(roots))
	seen := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve plugin root %q: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("plugin root does not exist: %s", abs)
			}
			return nil, fmt.Errorf("failed to stat plugin root %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("plugin root is not a directory: %s", abs)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one plugin root is required")
	}
	return out, nil
}
