// Package source downloads and stages the release tarballs of one LLVM
// version, assembling the unified tree the build system expects.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"

	"github.com/adamrehn/llvm-select/internal/env"
	"github.com/adamrehn/llvm-select/internal/executor"
	"github.com/adamrehn/llvm-select/internal/fsutil"
	"github.com/adamrehn/llvm-select/internal/llvm"
)

// Acquirer fetches and stages source archives. The configured work
// directory must be exclusive to one invocation at a time.
type Acquirer struct {
	cfg          env.Config
	runner       executor.Runner
	keepArchives bool
	stream       bool
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithKeepArchives retains downloaded archive files after unpacking.
func WithKeepArchives(keep bool) Option {
	return func(a *Acquirer) { a.keepArchives = keep }
}

// WithStreaming streams download progress to the console.
func WithStreaming(stream bool) Option {
	return func(a *Acquirer) { a.stream = stream }
}

// New creates an Acquirer.
func New(cfg env.Config, runner executor.Runner, opts ...Option) *Acquirer {
	a := &Acquirer{cfg: cfg, runner: runner}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchAndStage downloads and unpacks every archive in the set, then
// relocates the non-core trees to their fixed subpaths inside the core
// tree. It returns the core tree root.
//
// A failure at any point aborts immediately; partial staging is left in
// place for explicit cleanup by the caller. Presence of expected marker
// files after relocation is the caller's post-condition to verify.
func (a *Acquirer) FetchAndStage(ctx context.Context, set llvm.SourceSet) (string, error) {
	for _, archive := range set.Archives {
		if err := a.fetchOne(ctx, archive); err != nil {
			return "", err
		}
	}

	root := filepath.Join(a.cfg.WorkDir, set.Core().StageDir)
	for _, archive := range set.Archives {
		if archive.Role == llvm.RoleCore {
			continue
		}
		staged := filepath.Join(a.cfg.WorkDir, archive.StageDir)
		dest := filepath.Join(root, filepath.FromSlash(archive.Subpath))
		log.Debugf("relocating %s -> %s", staged, dest)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("prepare %s: %w", filepath.Dir(dest), err)
		}
		if err := os.Rename(staged, dest); err != nil {
			return "", fmt.Errorf("relocate %s tree: %w", archive.Role, err)
		}
	}
	return root, nil
}

func (a *Acquirer) fetchOne(ctx context.Context, archive llvm.Archive) error {
	file := filepath.Join(a.cfg.WorkDir, archive.Filename)
	dest := filepath.Join(a.cfg.WorkDir, archive.StageDir)

	log.Debugf("downloading %s", archive.URL)
	err := a.runner.Run(ctx, executor.Command{
		Name:   "curl",
		Args:   []string{"-f", archive.URL, "-o", file},
		Stream: a.stream,
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", archive.Filename, err)
	}

	log.Debugf("unpacking %s into %s", archive.Filename, dest)
	if a.cfg.HostOS == "windows" {
		// No tar binary to rely on; unpack with the built-in reader.
		if err := Extract(file, dest); err != nil {
			return fmt.Errorf("unpack %s: %w", archive.Filename, err)
		}
	} else {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("prepare %s: %w", dest, err)
		}
		err := a.runner.Run(ctx, executor.Command{
			Name: "tar",
			Args: []string{"-xf", file, "-C", dest, "--strip-components=1"},
		})
		if err != nil {
			return fmt.Errorf("unpack %s: %w", archive.Filename, err)
		}
	}

	if !a.keepArchives {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("remove %s: %w", file, err)
		}
	}
	return nil
}

// Cleanup removes every archive file and staging directory the set could
// have produced, including the core tree and any build directories inside
// it. It is best-effort and safe to call after a failure at any stage.
func Cleanup(cfg env.Config, set llvm.SourceSet) {
	for _, archive := range set.Archives {
		for _, p := range []string{
			filepath.Join(cfg.WorkDir, archive.Filename),
			filepath.Join(cfg.WorkDir, archive.StageDir),
		} {
			if err := fsutil.RemoveIfExists(p); err != nil {
				log.Warnf("cleanup %s: %v", p, err)
			}
		}
	}
}
