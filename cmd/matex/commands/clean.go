package commands

import (
	"fmt"

	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/workspace"
)

// CleanCmd implements the 'clean' command. Once the configuration is known,
// clean always succeeds: removal errors are suppressed and running it twice
// is fine.
type CleanCmd struct{}

func (CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	workspace.NewManager(".", cfg).Clean()
	fmt.Println("Cleaned")
	return nil
}
