package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orthopole/matex/internal/compiler"
	"github.com/orthopole/matex/internal/diag"
)

// CompileCmd implements the 'compile' command: the single-file mode that
// mirrors invoking the preprocessor directly.
type CompileCmd struct {
	Output      string `short:"o" help:"Output file" default:"a.sty"`
	AutoComment bool   `short:"c" help:"Prepend a generated-file header to the output"`

	Source string `arg:"" help:"MaTeX source file"`
}

func (cc *CompileCmd) Run(_ *Global, _ *CLI) error {
	src, err := os.ReadFile(cc.Source)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	c := compiler.New(compiler.Options{
		AutoComment: cc.AutoComment,
		IncludeDir:  filepath.Dir(cc.Source),
	})
	output, result := c.Compile(src, cc.Source)

	if len(result.Issues) > 0 {
		formatter := &diag.TextFormatter{}
		if err := formatter.Format(os.Stderr, result); err != nil {
			return err
		}
	}
	if result.HasErrors() {
		return errors.New("compile failed")
	}

	if err := os.WriteFile(cc.Output, output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
