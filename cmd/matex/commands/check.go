package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/orthopole/matex/internal/compiler"
	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/diag"
)

// CheckCmd implements the 'check' command: compile sources without writing
// any output and report diagnostics.
type CheckCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Quiet  bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`

	Path string `arg:"" optional:"" help:"File or directory to check. Defaults to the configured sources"`
}

func (ch *CheckCmd) Run(_ *Global, root *CLI) error {
	sources, err := ch.resolveSources(root.Config)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("nothing to check")
	}

	result := &diag.Result{}
	for _, source := range sources {
		src, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		c := compiler.New(compiler.Options{IncludeDir: filepath.Dir(source)})
		_, r := c.Compile(src, source)
		result.Merge(r)
	}

	var formatter diag.Formatter
	if ch.Format == "json" {
		formatter = &diag.JSONFormatter{}
	} else {
		formatter = &diag.TextFormatter{Quiet: ch.Quiet}
	}
	if err := formatter.Format(os.Stdout, result); err != nil {
		return err
	}

	if result.HasErrors() {
		return errors.New("check failed")
	}
	return nil
}

// resolveSources expands the check target: an explicit file, a directory
// walked for .mtx files, or the configured project sources.
func (ch *CheckCmd) resolveSources(configPath string) ([]string, error) {
	if ch.Path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg.Sources, nil
	}

	info, err := os.Stat(ch.Path)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %s", ch.Path)
	}
	if !info.IsDir() {
		return []string{ch.Path}, nil
	}

	var sources []string
	err = filepath.WalkDir(ch.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".mtx") {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", ch.Path, err)
	}
	return sources, nil
}
