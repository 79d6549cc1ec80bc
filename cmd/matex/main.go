package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/orthopole/matex/cmd/matex/commands"
	"github.com/orthopole/matex/internal/compiler"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}

	ctx := kong.Parse(&cli,
		kong.Name("matex"),
		kong.Description("MaTeX - a LaTeX preprocessor"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("MaTeX %s - a LaTeX preprocessor", compiler.Version)},
	)
	ctx.FatalIfErrorf(ctx.Run(global, &cli))
}
