package config

import (
	"fmt"
	"os"
)

// starterConfig is the commented configuration written by Init. It must stay
// loadable by Load.
const starterConfig = `# MaTeX project configuration.
project:
  name: mypackage
  description: LaTeX macros built with MaTeX

# Source language version. Only version 1 exists.
version: 1

# Sources are compiled in order and bundled into a single .sty artifact.
sources:
  - src/main.mtx

output:
  build_dir: build
  dist_dir: dist
  cache_dir: .matex-cache
  # Prepend a generated-file header to compiled output.
  auto_comment: true
  # Permission bits applied to the dist artifact (octal).
  mode: "0755"

# install:
#   # Overrides the default ~/texmf/tex/latex/<name> install location.
#   dir: ~/texmf/tex/latex/mypackage

# history:
#   # Set to false to skip recording build events in the cache directory.
#   enabled: true
`

// Init creates a new configuration file with commented example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
