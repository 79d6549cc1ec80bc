package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/orthopole/matex/internal/build"
	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/diag"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Force bool `short:"f" help:"Rebuild even when sources are unchanged"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	builder := build.NewBuilder(".", cfg)
	result, err := builder.Run(context.Background(), b.Force)
	if result != nil && len(result.Diagnostics.Issues) > 0 {
		formatter := &diag.TextFormatter{}
		if ferr := formatter.Format(os.Stderr, result.Diagnostics); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		if errors.Is(err, build.ErrCompileFailed) {
			return errors.New("build failed")
		}
		return err
	}

	if result.Skipped {
		fmt.Println("Build up to date")
	} else {
		fmt.Printf("Built %s\n", result.ArtifactPath)
	}
	return nil
}
