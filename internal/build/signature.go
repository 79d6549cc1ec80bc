package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SourceHash is the content hash of a single source file.
type SourceHash struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Signature represents the complete signature of a build's inputs. Two
// builds with identical signatures produce identical artifacts, so a
// matching cached signature lets the build be skipped.
type Signature struct {
	Sources     []SourceHash `json:"sources"`
	ConfigHash  string       `json:"config_hash"`
	ToolVersion string       `json:"tool_version"`
	BuildHash   string       `json:"build_hash"` // computed hash of all above
	Timestamp   time.Time    `json:"timestamp"`
}

// ComputeSignature hashes all source files and the build-relevant
// configuration into a deterministic signature.
func ComputeSignature(root string, sources []string, configData any, toolVersion string) (*Signature, error) {
	sig := &Signature{ToolVersion: toolVersion, Timestamp: time.Now()}

	for _, source := range sources {
		data, err := os.ReadFile(filepath.Join(root, source))
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", source, err)
		}
		sum := sha256.Sum256(data)
		sig.Sources = append(sig.Sources, SourceHash{Path: source, Hash: hex.EncodeToString(sum[:])})
	}

	configJSON, err := json.Marshal(configData)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	configSum := sha256.Sum256(configJSON)
	sig.ConfigHash = hex.EncodeToString(configSum[:])

	hash, err := sig.computeHash()
	if err != nil {
		return nil, err
	}
	sig.BuildHash = hash
	return sig, nil
}

func (s *Signature) computeHash() (string, error) {
	payload := struct {
		Sources     []SourceHash `json:"sources"`
		ConfigHash  string       `json:"config_hash"`
		ToolVersion string       `json:"tool_version"`
	}{s.Sources, s.ConfigHash, s.ToolVersion}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal signature: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// LoadSignature reads a cached signature. A missing file returns nil without
// error.
func LoadSignature(path string) (*Signature, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	var sig Signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signature: %w", err)
	}
	return &sig, nil
}

// Save writes the signature to path.
func (s *Signature) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signature: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}
