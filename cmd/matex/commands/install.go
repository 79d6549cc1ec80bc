package commands

import (
	"fmt"
	"path/filepath"

	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/install"
	"github.com/orthopole/matex/internal/workspace"
)

// InstallCmd implements the 'install' command.
type InstallCmd struct{}

func (InstallCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForBuild(); err != nil {
		return err
	}

	ws := workspace.NewManager(".", cfg)
	artifact := filepath.Join(ws.DistDir(), cfg.ArtifactName())

	dest, err := install.New(cfg).Install(artifact)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %s\n", dest)
	return nil
}

// UninstallCmd implements the 'uninstall' command. It succeeds even when
// nothing was ever installed.
type UninstallCmd struct{}

func (UninstallCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}

	if err := install.New(cfg).Uninstall(); err != nil {
		return err
	}
	fmt.Println("Uninstalled")
	return nil
}
