// Package cmake wraps common CMake build steps with chainable configuration.
// All process execution goes through an executor.Runner so orchestration
// code can be tested with a recording fake.
package cmake

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/adamrehn/llvm-select/internal/executor"
	"github.com/adamrehn/llvm-select/pkgs/buildsys"
)

type CMake struct {
	runner     executor.Runner
	SourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	defines    map[string]string
	env        map[string]string
	stream     bool
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper running commands through r.
func New(r executor.Runner) *CMake {
	return &CMake{
		runner:  r,
		defines: map[string]string{},
		env:     map[string]string{},
	}
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
	if c.buildDir == "" {
		c.buildDir = filepath.Join(dir, "build")
	}
}

func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = dir
	return c
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = value
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.Define(key, "true")
	}
	return c.Define(key, "false")
}

func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// Stream sends the child processes' output live to the console instead of
// capturing it for failure reporting.
func (c *CMake) Stream(stream bool) *CMake {
	c.stream = stream
	return c
}

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.buildDir}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs)
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := append([]string{"--build", c.buildDir}, args...)
	return c.run(ctx, cmdArgs)
}

func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir, "--target", "install"}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) definesArgs() []string {
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+c.defines[k])
	}
	return args
}

func (c *CMake) run(ctx context.Context, args []string) error {
	return c.runner.Run(ctx, executor.Command{
		Name:   "cmake",
		Args:   args,
		Env:    c.env,
		Stream: c.stream,
	})
}
