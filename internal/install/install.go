// Package install copies built artifacts into the local TeX tree and
// removes them again.
package install

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/orthopole/matex/internal/config"
)

// Installer places the built artifact on the TeX search path.
type Installer struct {
	cfg *config.Config
}

// New creates an installer for the given configuration.
func New(cfg *config.Config) *Installer {
	return &Installer{cfg: cfg}
}

// Dir resolves the install directory: the configured override, or
// ~/texmf/tex/latex/<name>.
func (i *Installer) Dir() (string, error) {
	if i.cfg.Install.Dir != "" {
		return homedir.Expand(i.cfg.Install.Dir)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "texmf", "tex", "latex", i.cfg.Project.Name), nil
}

// InstalledPath is the artifact's destination inside the install directory.
func (i *Installer) InstalledPath() (string, error) {
	dir, err := i.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, i.cfg.ArtifactName()), nil
}

// Install copies the artifact into the install directory, preserving its
// permission bits.
func (i *Installer) Install(artifactPath string) (string, error) {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return "", fmt.Errorf("artifact not found (run build first): %w", err)
	}

	dir, err := i.Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create install directory %s: %w", dir, err)
	}

	dest := filepath.Join(dir, i.cfg.ArtifactName())
	if err := copyFile(artifactPath, dest, info.Mode()); err != nil {
		return "", err
	}
	slog.Info("Installed artifact", "path", dest)
	return dest, nil
}

// Uninstall removes the installed artifact. A missing file is not an error:
// uninstall must succeed whether or not anything was installed.
func (i *Installer) Uninstall() error {
	dest, err := i.InstalledPath()
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Artifact was not installed", "path", dest)
			return nil
		}
		return fmt.Errorf("remove %s: %w", dest, err)
	}
	slog.Info("Removed installed artifact", "path", dest)

	// Drop the per-project directory when empty; shared parents stay.
	dir := filepath.Dir(dest)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	// OpenFile honors umask; chmod to the exact source bits.
	return os.Chmod(dst, mode)
}
