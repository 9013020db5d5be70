// Package registry enumerates, removes, and activates the toolchain
// versions installed under the installation root.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"golang.org/x/mod/semver"

	"github.com/adamrehn/llvm-select/internal/builder"
	"github.com/adamrehn/llvm-select/internal/env"
	"github.com/adamrehn/llvm-select/internal/fsutil"
	"github.com/adamrehn/llvm-select/internal/llvm"
)

// Installed names match "<digit>.<rest>-<buildtype>"; the buildtype suffix
// is validated separately against the allowed set.
var namePattern = regexp.MustCompile(`^[0-9]\..+-([^-]+)$`)

// Registry operates on the installation root.
type Registry struct {
	cfg env.Config
}

// New creates a Registry.
func New(cfg env.Config) *Registry {
	return &Registry{cfg: cfg}
}

// List returns the installed <version>-<buildtype> names, ordered by
// version then name. Entries that merely resemble the pattern but carry an
// unknown build type are ignored, as is anything that is not a directory.
// A missing installation root yields an empty list.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.InstallRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.cfg.InstallRoot, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := namePattern.FindStringSubmatch(entry.Name())
		if m == nil || !builder.ValidBuildType(m[1]) {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Slice(names, func(i, j int) bool {
		// Three-component names compare as semver with the buildtype as a
		// pre-release tag. Two-component names (possible only up to 3.4)
		// are not valid semver and sort below, matching the version
		// ordering where an absent revision precedes any present one.
		if c := semver.Compare("v"+names[i], "v"+names[j]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})
	return names, nil
}

// Remove deletes an installed version directory. It fails with the specific
// path when the directory is absent.
func (r *Registry) Remove(v llvm.Version, buildType string) (string, error) {
	dir := r.cfg.InstallDir(v.String(), buildType)
	if _, err := os.Lstat(dir); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no installed version at %s", dir)
		}
		return "", err
	}
	if err := fsutil.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("remove %s: %w", dir, err)
	}
	return dir, nil
}

// Activate routes the well-known llvm-config path to the named installed
// version: a symlink on Unix-likes, a generated .cmd shim on Windows. It
// fails when the version is not installed.
func (r *Registry) Activate(v llvm.Version, buildType string) (string, error) {
	name := v.String() + "-" + buildType
	installed, err := r.List()
	if err != nil {
		return "", err
	}
	found := false
	for _, n := range installed {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("version %s is not currently installed", name)
	}

	if r.cfg.HostOS == "windows" {
		exe := filepath.Join(r.cfg.InstallRoot, name, "bin", "llvm-config.exe")
		shim := filepath.Join(filepath.Dir(r.cfg.InstallRoot), "bin", "llvm-config.cmd")
		if err := os.MkdirAll(filepath.Dir(shim), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(shim, []byte(shimContents(exe)), 0o755); err != nil {
			return "", fmt.Errorf("write shim %s: %w", shim, err)
		}
		return exe, nil
	}

	target := filepath.Join(r.cfg.InstallRoot, name, "bin", "llvm-config")
	if err := fsutil.RemoveIfExists(r.cfg.LinkPath); err != nil {
		return "", fmt.Errorf("replace %s: %w", r.cfg.LinkPath, err)
	}
	if err := os.Symlink(target, r.cfg.LinkPath); err != nil {
		return "", fmt.Errorf("link %s: %w", r.cfg.LinkPath, err)
	}
	return target, nil
}

// shimContents is the routing script that forwards all arguments to the
// active version's llvm-config.
func shimContents(exe string) string {
	return "@echo off\r\n\"" + exe + "\" %*\r\n"
}
