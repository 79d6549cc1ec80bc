package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orthopole/matex/internal/config"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Project: config.Project{Name: "pkg"},
		Output: config.OutputConfig{
			BuildDir: "build",
			DistDir:  "dist",
			CacheDir: ".matex-cache",
		},
	}
	return NewManager(root, cfg), root
}

func TestManager_Paths(t *testing.T) {
	m, root := testManager(t)
	assert.Equal(t, filepath.Join(root, "build"), m.BuildDir())
	assert.Equal(t, filepath.Join(root, "dist"), m.DistDir())
	assert.Equal(t, filepath.Join(root, ".matex-cache"), m.CacheDir())
	assert.Equal(t, filepath.Join(root, "pkg.spec.yaml"), m.DescriptorPath())
}

func TestManager_EnsureDirs(t *testing.T) {
	m, _ := testManager(t)
	require.NoError(t, m.EnsureDirs())

	for _, dir := range []string{m.BuildDir(), m.DistDir(), m.CacheDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Idempotent.
	assert.NoError(t, m.EnsureDirs())
}

func TestManager_Clean(t *testing.T) {
	m, _ := testManager(t)
	require.NoError(t, m.EnsureDirs())
	require.NoError(t, os.WriteFile(m.DescriptorPath(), []byte("tool: matex\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(m.BuildDir(), "main.sty"), []byte("x"), 0o644))

	m.Clean()

	for _, path := range []string{m.BuildDir(), m.DistDir(), m.CacheDir(), m.DescriptorPath()} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
}

func TestManager_CleanTwice(t *testing.T) {
	m, _ := testManager(t)
	require.NoError(t, m.EnsureDirs())

	// Clean must succeed both times, whether or not anything exists.
	m.Clean()
	m.Clean()

	_, err := os.Stat(m.BuildDir())
	assert.True(t, os.IsNotExist(err))
}
