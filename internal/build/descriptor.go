package build

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Descriptor is the generated packaging descriptor written next to the
// project configuration after a successful build. It records what went into
// the artifact; clean removes it.
type Descriptor struct {
	Tool        string       `yaml:"tool"`
	ToolVersion string       `yaml:"tool_version"`
	Project     string       `yaml:"project"`
	BuildID     string       `yaml:"build_id"`
	BuiltAt     time.Time    `yaml:"built_at"`
	Sources     []SourceHash `yaml:"sources"`
	Artifact    Artifact     `yaml:"artifact"`
}

// Artifact describes the produced bundle.
type Artifact struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"`
	Size int64  `yaml:"size"`
}

// Write marshals the descriptor to path.
func (d *Descriptor) Write(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

// ReadDescriptor loads a previously written descriptor.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	return &d, nil
}
