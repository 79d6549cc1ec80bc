package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orthopole/matex/internal/build"
	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/history"
	"github.com/orthopole/matex/internal/workspace"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of events to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ws := workspace.NewManager(".", cfg)
	dbPath := filepath.Join(ws.CacheDir(), build.HistoryFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No build history")
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	events, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(events) == 0 {
		fmt.Println("No build history")
		return nil
	}

	for _, event := range events {
		fmt.Printf("%s  %-16s %s\n",
			event.Timestamp.Format("2006-01-02 15:04:05"),
			event.EventType,
			event.BuildID)
	}
	return nil
}
