// Package env carries the process-wide locations the tool operates on.
// A Config is built once and threaded explicitly into every component so
// tests can substitute scratch roots.
package env

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultReleaseBase is the upstream release archive location.
const DefaultReleaseBase = "http://llvm.org/releases"

// Config holds every external location the tool reads or writes.
type Config struct {
	// InstallRoot is the directory holding <version>-<buildtype> installs.
	InstallRoot string

	// WorkDir is the staging directory for downloads and unpacked trees.
	// It must be exclusive to one invocation at a time: concurrent runs in
	// the same WorkDir corrupt each other's staged sources.
	WorkDir string

	// ReleaseBase is the base URL archives are fetched from.
	ReleaseBase string

	// LinkPath is the well-known llvm-config symlink updated on activation
	// (unused on Windows, where a .cmd shim is written instead).
	LinkPath string

	// HostOS is the GOOS the layout rules are evaluated for.
	HostOS string
}

// Default returns the configuration for the current process: a system-wide
// install root on Unix-likes, a directory next to the executable on Windows,
// and the current directory as the staging area.
func Default() (Config, error) {
	cfg := Config{
		ReleaseBase: DefaultReleaseBase,
		LinkPath:    "/usr/local/bin/llvm-config",
		HostOS:      runtime.GOOS,
	}

	wd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	cfg.WorkDir = wd

	if runtime.GOOS == "windows" {
		exe, err := os.Executable()
		if err != nil {
			return Config{}, err
		}
		cfg.InstallRoot = filepath.Join(filepath.Dir(filepath.Dir(exe)), "versions")
	} else {
		cfg.InstallRoot = "/usr/local/llvm"
	}
	return cfg, nil
}

// InstallDir returns the installation directory for one version/buildtype.
func (c Config) InstallDir(version, buildType string) string {
	return filepath.Join(c.InstallRoot, version+"-"+buildType)
}
