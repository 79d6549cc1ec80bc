// Package workspace manages the project's build, dist and cache directories
// and the generated packaging descriptor.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/orthopole/matex/internal/config"
)

// Manager handles the fixed directories a project build writes to.
type Manager struct {
	root     string
	buildDir string
	distDir  string
	cacheDir string
	// descriptor is the generated packaging descriptor path.
	descriptor string
}

// NewManager creates a workspace manager rooted at root (the directory
// containing the project configuration).
func NewManager(root string, cfg *config.Config) *Manager {
	if root == "" {
		root = "."
	}
	return &Manager{
		root:       root,
		buildDir:   filepath.Join(root, cfg.Output.BuildDir),
		distDir:    filepath.Join(root, cfg.Output.DistDir),
		cacheDir:   filepath.Join(root, cfg.Output.CacheDir),
		descriptor: filepath.Join(root, cfg.DescriptorPath()),
	}
}

// BuildDir is where per-source intermediates are staged.
func (m *Manager) BuildDir() string { return m.buildDir }

// DistDir is where the final artifact is emitted.
func (m *Manager) DistDir() string { return m.distDir }

// CacheDir holds the build signature and history database.
func (m *Manager) CacheDir() string { return m.cacheDir }

// DescriptorPath is the generated packaging descriptor file.
func (m *Manager) DescriptorPath() string { return m.descriptor }

// EnsureDirs creates the build, dist and cache directories.
func (m *Manager) EnsureDirs() error {
	for _, dir := range []string{m.buildDir, m.distDir, m.cacheDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Clean removes the build, dist and cache directories and the generated
// descriptor. Removal failures are logged, never returned: clean must
// succeed whether or not anything exists.
func (m *Manager) Clean() {
	for _, path := range []string{m.buildDir, m.distDir, m.cacheDir} {
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("Failed to remove directory", "path", path, "error", err)
			continue
		}
		slog.Debug("Removed directory", "path", path)
	}
	if err := os.Remove(m.descriptor); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove descriptor", "path", m.descriptor, "error", err)
	}
}
