package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamrehn/llvm-select/internal/env"
	"github.com/adamrehn/llvm-select/internal/llvm"
)

func testConfig(t *testing.T) env.Config {
	t.Helper()
	root := t.TempDir()
	return env.Config{
		InstallRoot: filepath.Join(root, "llvm"),
		LinkPath:    filepath.Join(root, "bin", "llvm-config"),
		HostOS:      runtime.GOOS,
	}
}

func installVersion(t *testing.T, cfg env.Config, name string) {
	t.Helper()
	bin := filepath.Join(cfg.InstallRoot, name, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	exe := filepath.Join(bin, "llvm-config")
	if cfg.HostOS == "windows" {
		exe += ".exe"
	}
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
}

func TestListMatchesOnlyValidNames(t *testing.T) {
	cfg := testConfig(t)
	installVersion(t, cfg, "3.4.1-Release")
	installVersion(t, cfg, "3.5.0-Debug")
	installVersion(t, cfg, "3.4-MinSizeRel")

	// Lookalikes that must not qualify.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.InstallRoot, "3.4.1-Bogus"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.InstallRoot, "x3.4-Release"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.InstallRoot, "notaversion"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InstallRoot, "3.6.0-Release"), []byte("a file"), 0o644))

	got, err := New(cfg).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"3.4-MinSizeRel", "3.4.1-Release", "3.5.0-Debug"}, got)
}

func TestListOrdersRevisionlessBelowRevisioned(t *testing.T) {
	cfg := testConfig(t)
	installVersion(t, cfg, "3.4.2-Release")
	installVersion(t, cfg, "3.4-Release")
	installVersion(t, cfg, "3.4.1-Release")

	got, err := New(cfg).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"3.4-Release", "3.4.1-Release", "3.4.2-Release"}, got)
}

func TestListEmptyRoot(t *testing.T) {
	cfg := testConfig(t)

	got, err := New(cfg).List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemove(t *testing.T) {
	cfg := testConfig(t)
	installVersion(t, cfg, "3.4.1-Release")

	dir, err := New(cfg).Remove(llvm.MustParse("3.4.1"), "Release")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "3.4.1-Release"), dir)
	assert.NoDirExists(t, dir)
}

func TestRemoveMissingNamesPath(t *testing.T) {
	cfg := testConfig(t)

	_, err := New(cfg).Remove(llvm.MustParse("3.4.1"), "Release")
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(cfg.InstallRoot, "3.4.1-Release"))
}

func TestActivateRequiresInstalledVersion(t *testing.T) {
	cfg := testConfig(t)

	_, err := New(cfg).Activate(llvm.MustParse("3.4.1"), "Release")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3.4.1-Release")
	assert.Contains(t, err.Error(), "not currently installed")
}

func TestActivateReplacesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink activation is the non-Windows path")
	}
	cfg := testConfig(t)
	installVersion(t, cfg, "3.4.1-Release")
	installVersion(t, cfg, "3.5.0-Release")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.LinkPath), 0o755))

	reg := New(cfg)

	target, err := reg.Activate(llvm.MustParse("3.4.1"), "Release")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.InstallRoot, "3.4.1-Release", "bin", "llvm-config"), target)

	resolved, err := os.Readlink(cfg.LinkPath)
	require.NoError(t, err)
	assert.Equal(t, target, resolved)

	// Activating another version replaces the existing link.
	target, err = reg.Activate(llvm.MustParse("3.5.0"), "Release")
	require.NoError(t, err)
	resolved, err = os.Readlink(cfg.LinkPath)
	require.NoError(t, err)
	assert.Equal(t, target, resolved)
}

func TestActivateReplacesPlainFileAtLinkPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink activation is the non-Windows path")
	}
	cfg := testConfig(t)
	installVersion(t, cfg, "3.4.1-Release")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.LinkPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.LinkPath, []byte("stale"), 0o755))

	_, err := New(cfg).Activate(llvm.MustParse("3.4.1"), "Release")
	require.NoError(t, err)

	info, err := os.Lstat(cfg.LinkPath)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSymlink, info.Mode()&os.ModeSymlink)
}

func TestShimContents(t *testing.T) {
	shim := shimContents(`C:\llvm\versions\3.5.0-Release\bin\llvm-config.exe`)
	assert.Contains(t, shim, "@echo off")
	assert.Contains(t, shim, `"C:\llvm\versions\3.5.0-Release\bin\llvm-config.exe" %*`)
}
