package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `help:"Configuration file path" default:"matex.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compile   CompileCmd   `cmd:"" help:"Compile a single MaTeX source to LaTeX"`
	Build     BuildCmd     `cmd:"" help:"Build the project artifact from configured sources"`
	Clean     CleanCmd     `cmd:"" help:"Remove build, dist and cache directories and the packaging descriptor"`
	Install   InstallCmd   `cmd:"" help:"Copy the built artifact into the install directory"`
	Uninstall UninstallCmd `cmd:"" help:"Remove the installed artifact"`
	Check     CheckCmd     `cmd:"" help:"Check sources without writing output"`
	Watch     WatchCmd     `cmd:"" help:"Rebuild automatically when sources change"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	History   HistoryCmd   `cmd:"" help:"List recent builds"`
}

// AfterApply runs after flag parsing; sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
