// Package buildsys captures the shared lifecycle of build-tool wrappers.
// It keeps the configure/compile/install sequence and environment setup;
// implementations add their own extras.
package buildsys

import "context"

// BuildSystem is the common lifecycle of a build helper.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment override for the child processes.
	Env(key, val string)

	// Lifecycle. Each step runs an external process to completion and
	// fails on a non-zero exit.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
