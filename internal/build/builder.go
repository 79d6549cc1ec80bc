// Package build orchestrates project builds: compiling every configured
// source, bundling the results into a single distributable artifact and
// recording the build in the history store.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orthopole/matex/internal/compiler"
	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/diag"
	"github.com/orthopole/matex/internal/history"
	"github.com/orthopole/matex/internal/workspace"
)

// ErrCompileFailed indicates one or more sources failed to compile. The
// Result carries the diagnostics.
var ErrCompileFailed = errors.New("compile failed")

// SignatureFile is the cached build signature inside the cache directory.
const SignatureFile = "signature.json"

// HistoryFile is the build history database inside the cache directory.
const HistoryFile = "history.db"

// Builder runs project builds.
type Builder struct {
	root string
	cfg  *config.Config
	ws   *workspace.Manager
}

// Result is the outcome of a build.
type Result struct {
	BuildID      string
	ArtifactPath string
	Skipped      bool
	Diagnostics  *diag.Result
}

// NewBuilder creates a builder for the project rooted at root.
func NewBuilder(root string, cfg *config.Config) *Builder {
	return &Builder{
		root: root,
		cfg:  cfg,
		ws:   workspace.NewManager(root, cfg),
	}
}

// Workspace exposes the directory layout the builder writes to.
func (b *Builder) Workspace() *workspace.Manager { return b.ws }

// Run executes a build. When force is false and the cached signature matches
// the current inputs, the build is skipped.
func (b *Builder) Run(ctx context.Context, force bool) (*Result, error) {
	if err := b.cfg.ValidateForBuild(); err != nil {
		return nil, err
	}
	mode, err := b.cfg.ArtifactMode()
	if err != nil {
		return nil, err
	}
	if err := b.ws.EnsureDirs(); err != nil {
		return nil, err
	}

	sig, err := ComputeSignature(b.root, b.cfg.Sources, b.cfg, compiler.Version)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BuildID:      uuid.NewString(),
		ArtifactPath: filepath.Join(b.ws.DistDir(), b.cfg.ArtifactName()),
		Diagnostics:  &diag.Result{},
	}

	store := b.openHistory()
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	if !force && b.upToDate(sig, result.ArtifactPath) {
		slog.Info("Build up to date, skipping", "artifact", result.ArtifactPath)
		result.Skipped = true
		b.record(ctx, store, result.BuildID, history.EventBuildSkipped, nil)
		return result, nil
	}

	slog.Info("Starting build",
		"project", b.cfg.Project.Name,
		"build_id", result.BuildID,
		"sources", len(b.cfg.Sources))
	b.record(ctx, store, result.BuildID, history.EventBuildStarted, map[string]string{
		"project": b.cfg.Project.Name,
	})

	compiled, err := b.compileSources(result.Diagnostics)
	if err != nil {
		b.record(ctx, store, result.BuildID, history.EventBuildFailed, map[string]string{
			"errors": fmt.Sprint(result.Diagnostics.ErrorCount()),
		})
		return result, err
	}

	if err := b.bundle(compiled, result.ArtifactPath, mode); err != nil {
		b.record(ctx, store, result.BuildID, history.EventBuildFailed, nil)
		return result, err
	}

	if err := b.writeDescriptor(sig, result, mode); err != nil {
		return result, err
	}
	if err := sig.Save(filepath.Join(b.ws.CacheDir(), SignatureFile)); err != nil {
		slog.Warn("Failed to cache build signature", "error", err)
	}

	b.record(ctx, store, result.BuildID, history.EventBuildSucceeded, map[string]string{
		"artifact": result.ArtifactPath,
	})
	slog.Info("Build succeeded", "artifact", result.ArtifactPath)
	return result, nil
}

// upToDate reports whether the cached signature matches sig and the artifact
// still exists.
func (b *Builder) upToDate(sig *Signature, artifactPath string) bool {
	cached, err := LoadSignature(filepath.Join(b.ws.CacheDir(), SignatureFile))
	if err != nil {
		slog.Warn("Failed to load cached signature", "error", err)
		return false
	}
	if cached == nil || cached.BuildHash != sig.BuildHash {
		return false
	}
	_, err = os.Stat(artifactPath)
	return err == nil
}

// compiled pairs a source path with its compiled output.
type compiled struct {
	source string
	output []byte
}

func (b *Builder) compileSources(diags *diag.Result) ([]compiled, error) {
	var outputs []compiled
	for _, source := range b.cfg.Sources {
		path := filepath.Join(b.root, source)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", source, err)
		}

		c := compiler.New(compiler.Options{
			AutoComment: b.cfg.Output.AutoComment,
			IncludeDir:  filepath.Dir(path),
		})
		output, result := c.Compile(src, source)
		diags.Merge(result)
		if result.HasErrors() {
			return nil, ErrCompileFailed
		}

		staged := filepath.Join(b.ws.BuildDir(), styName(source))
		if err := os.WriteFile(staged, output, 0o644); err != nil {
			return nil, fmt.Errorf("stage output %s: %w", staged, err)
		}
		slog.Debug("Compiled source", "source", source, "staged", staged)
		outputs = append(outputs, compiled{source: source, output: output})
	}
	return outputs, nil
}

// bundle concatenates compiled outputs into the single dist artifact and
// applies the configured permission bits.
func (b *Builder) bundle(outputs []compiled, artifactPath string, mode os.FileMode) error {
	var buf bytes.Buffer
	for _, out := range outputs {
		if len(outputs) > 1 {
			fmt.Fprintf(&buf, "%% --- %s ---\n", out.source)
		}
		buf.Write(out.output)
	}

	if err := os.WriteFile(artifactPath, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("write artifact %s: %w", artifactPath, err)
	}
	// WriteFile honors umask; chmod to the exact configured bits.
	if err := os.Chmod(artifactPath, mode); err != nil {
		return fmt.Errorf("chmod artifact %s: %w", artifactPath, err)
	}
	return nil
}

func (b *Builder) writeDescriptor(sig *Signature, result *Result, mode os.FileMode) error {
	info, err := os.Stat(result.ArtifactPath)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	descriptor := &Descriptor{
		Tool:        "matex",
		ToolVersion: compiler.Version,
		Project:     b.cfg.Project.Name,
		BuildID:     result.BuildID,
		BuiltAt:     time.Now().UTC(),
		Sources:     sig.Sources,
		Artifact: Artifact{
			Path: result.ArtifactPath,
			Mode: fmt.Sprintf("%#o", uint32(mode)),
			Size: info.Size(),
		},
	}
	return descriptor.Write(b.ws.DescriptorPath())
}

// openHistory opens the build history store; failures are logged and
// disable recording for this build.
func (b *Builder) openHistory() *history.Store {
	if !b.cfg.HistoryEnabled() {
		return nil
	}
	store, err := history.Open(filepath.Join(b.ws.CacheDir(), HistoryFile))
	if err != nil {
		slog.Warn("Failed to open build history", "error", err)
		return nil
	}
	return store
}

// record appends a build event; history failures never fail a build.
func (b *Builder) record(ctx context.Context, store *history.Store, buildID, eventType string, metadata map[string]string) {
	if store == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"project": b.cfg.Project.Name})
	if err := store.Append(ctx, buildID, eventType, payload, metadata); err != nil {
		slog.Warn("Failed to record build event", "event", eventType, "error", err)
	}
}

func styName(source string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".sty"
}
