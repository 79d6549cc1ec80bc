package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject creates a minimal project in a temp dir and chdirs into it.
// It returns the install directory configured for the project.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)

	installDir := filepath.Join(root, "texmf")
	configYAML := fmt.Sprintf(`
project:
  name: pkg
sources:
  - src/main.mtx
install:
  dir: %s
`, installDir)
	require.NoError(t, os.WriteFile("matex.yaml", []byte(configYAML), 0o644))
	require.NoError(t, os.MkdirAll("src", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("src", "main.mtx"),
		[]byte("VERSION 1\nPAC amsmath\nDEF \\foo TO BE bar\n"), 0o644))
	return installDir
}

func rootCLI() *CLI {
	return &CLI{Config: "matex.yaml"}
}

func TestLifecycle(t *testing.T) {
	installDir := setupProject(t)
	global := &Global{}

	// build: exactly one executable artifact in dist.
	require.NoError(t, (&BuildCmd{}).Run(global, rootCLI()))

	artifact := filepath.Join("dist", "pkg.sty")
	info, err := os.Stat(artifact)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	entries, err := os.ReadDir("dist")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = os.Stat("pkg.spec.yaml")
	assert.NoError(t, err)

	// install after build: artifact present at the install path.
	require.NoError(t, (InstallCmd{}).Run(global, rootCLI()))
	installed := filepath.Join(installDir, "pkg.sty")
	info, err = os.Stat(installed)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// uninstall removes it; a second uninstall still succeeds.
	require.NoError(t, (UninstallCmd{}).Run(global, rootCLI()))
	_, err = os.Stat(installed)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, (UninstallCmd{}).Run(global, rootCLI()))

	// clean removes build, dist, cache and the descriptor; twice is fine.
	require.NoError(t, (CleanCmd{}).Run(global, rootCLI()))
	require.NoError(t, (CleanCmd{}).Run(global, rootCLI()))
	for _, path := range []string{"build", "dist", ".matex-cache", "pkg.spec.yaml"} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
}

func TestUninstallBeforeAnyInstall(t *testing.T) {
	setupProject(t)
	assert.NoError(t, (UninstallCmd{}).Run(&Global{}, rootCLI()))
}

func TestInstallWithoutBuild(t *testing.T) {
	setupProject(t)
	err := (InstallCmd{}).Run(&Global{}, rootCLI())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact not found")
}

func TestBuildSkipsSecondRun(t *testing.T) {
	setupProject(t)
	global := &Global{}

	require.NoError(t, (&BuildCmd{}).Run(global, rootCLI()))
	first, err := os.Stat(filepath.Join("dist", "pkg.sty"))
	require.NoError(t, err)

	require.NoError(t, (&BuildCmd{}).Run(global, rootCLI()))
	second, err := os.Stat(filepath.Join("dist", "pkg.sty"))
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime())
}

func TestCompileCmd(t *testing.T) {
	setupProject(t)

	cmd := &CompileCmd{Output: "out.sty", Source: filepath.Join("src", "main.mtx")}
	require.NoError(t, cmd.Run(&Global{}, rootCLI()))

	content, err := os.ReadFile("out.sty")
	require.NoError(t, err)
	assert.Equal(t, "\\usepackage{amsmath}\n\\def\\foo{bar}\n", string(content))
}

func TestCompileCmd_ErrorsDoNotWriteOutput(t *testing.T) {
	setupProject(t)
	require.NoError(t, os.WriteFile("bad.mtx", []byte("VERSION 1\nXYZ boom\n"), 0o644))

	cmd := &CompileCmd{Output: "out.sty", Source: "bad.mtx"}
	require.Error(t, cmd.Run(&Global{}, rootCLI()))

	_, err := os.Stat("out.sty")
	assert.True(t, os.IsNotExist(err))
}

func TestCheckCmd(t *testing.T) {
	setupProject(t)

	t.Run("clean sources pass", func(t *testing.T) {
		assert.NoError(t, (&CheckCmd{Format: "text"}).Run(&Global{}, rootCLI()))
	})

	t.Run("broken source fails", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join("src", "main.mtx"),
			[]byte("VERSION 1\nXYZ boom\n"), 0o644))
		err := (&CheckCmd{Format: "text"}).Run(&Global{}, rootCLI())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "check failed")
	})

	t.Run("explicit directory", func(t *testing.T) {
		err := (&CheckCmd{Format: "json", Path: "src"}).Run(&Global{}, rootCLI())
		assert.Error(t, err)
	})
}

func TestCompileFlags(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	// -c is auto-comment on compile; the config path has no short flag.
	_, err = parser.Parse([]string{"compile", "-c", "-o", "out.sty", "in.mtx"})
	require.NoError(t, err)
	assert.True(t, cli.Compile.AutoComment)
	assert.Equal(t, "out.sty", cli.Compile.Output)
	assert.Equal(t, "matex.yaml", cli.Config)
}

func TestInitCmd(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	require.NoError(t, (&InitCmd{}).Run(&Global{}, rootCLI()))
	_, err := os.Stat("matex.yaml")
	assert.NoError(t, err)

	require.Error(t, (&InitCmd{}).Run(&Global{}, rootCLI()))
	assert.NoError(t, (&InitCmd{Force: true}).Run(&Global{}, rootCLI()))
}
