// Package builder drives the external build system over a staged source
// tree and installs the result into a version-and-buildtype-named directory.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/adamrehn/llvm-select/internal/env"
	"github.com/adamrehn/llvm-select/internal/executor"
	"github.com/adamrehn/llvm-select/internal/llvm"
	"github.com/adamrehn/llvm-select/pkgs/buildsys"
	"github.com/adamrehn/llvm-select/pkgs/buildsys/cmake"
)

// BuildTypes are the valid CMake build types, in display order.
var BuildTypes = []string{"Release", "Debug", "RelWithDebInfo", "MinSizeRel"}

// ValidBuildType reports whether bt is one of the four allowed values.
func ValidBuildType(bt string) bool {
	for _, t := range BuildTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// Builder orchestrates configure, compile, and install. Each step runs to
// completion before the next begins; there are no timeouts, so a hung child
// process hangs the orchestration.
type Builder struct {
	cfg     env.Config
	runner  executor.Runner
	verbose bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithVerbose streams build output live instead of capturing it.
func WithVerbose(verbose bool) Option {
	return func(b *Builder) { b.verbose = verbose }
}

// New creates a Builder.
func New(cfg env.Config, runner executor.Runner, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, runner: runner}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Prerequisites probes every external tool the acquire-and-build cycle
// needs. It runs before any destructive action and names the missing tool.
func (b *Builder) Prerequisites(ctx context.Context) error {
	if err := executor.Require(ctx, b.runner, "curl"); err != nil {
		return err
	}
	if err := executor.Require(ctx, b.runner, "cmake"); err != nil {
		return err
	}
	if b.cfg.HostOS != "windows" {
		if err := executor.Require(ctx, b.runner, "tar"); err != nil {
			return err
		}
	}
	return nil
}

// Build configures, compiles, and installs the staged source tree, and
// returns the installation directory.
func (b *Builder) Build(ctx context.Context, v llvm.Version, buildType, srcRoot string) (string, error) {
	if !ValidBuildType(buildType) {
		return "", fmt.Errorf("invalid build type %q (valid: %s)",
			buildType, strings.Join(BuildTypes, ", "))
	}

	installDir := b.cfg.InstallDir(v.String(), buildType)
	generator := b.selectGenerator(ctx)
	log.Debugf("using CMake generator %q", generator)

	mingw := b.cfg.HostOS == "windows" && b.runner.Available(ctx, "g++", "-v")

	main := cmake.New(b.runner).
		Generator(generator).
		BuildType(buildType).
		Stream(b.verbose)
	main.Source(srcRoot)
	main.BuildDir(filepath.Join(srcRoot, "build"))
	main.InstallDir(installDir)
	main.DefineBool("LLVM_ENABLE_EH", true)
	main.DefineBool("LLVM_ENABLE_RTTI", true)
	main.DefineBool("LLVM_INCLUDE_TESTS", false)

	if mingw {
		// tblgen.exe can fail to start under MinGW when libstdc++-6.dll is
		// not resolvable, so the generator tools are built separately with
		// static runtime linking and fed into the main build. The static
		// flags themselves break other parts of the compilation, hence the
		// isolated sub-build rather than applying them globally.
		tablegens, err := b.buildTablegens(ctx, generator, buildType, srcRoot)
		if err != nil {
			return "", err
		}
		for k, path := range tablegens {
			main.Define(k, path)
		}
	}

	if err := os.MkdirAll(b.cfg.InstallRoot, 0o755); err != nil {
		return "", fmt.Errorf("prepare install root: %w", err)
	}
	if err := runSteps(ctx, main); err != nil {
		return "", err
	}

	if mingw {
		b.copyRuntimeDLL(ctx, installDir)
	}
	return installDir, nil
}

// runSteps drives the three discrete lifecycle steps; any non-zero exit
// aborts the whole orchestration.
func runSteps(ctx context.Context, bs buildsys.BuildSystem) error {
	if err := bs.Configure(ctx); err != nil {
		return err
	}
	if err := bs.Build(ctx); err != nil {
		return err
	}
	return bs.Install(ctx)
}

// selectGenerator picks the CMake generator for the host. Ninja is
// preferred where available, but not on Windows where it has issues with
// certain LLVM versions; there, NMake is used only when MinGW g++ is
// absent.
func (b *Builder) selectGenerator(ctx context.Context) string {
	if b.cfg.HostOS != "windows" && b.runner.Available(ctx, "ninja", "--version") {
		return "Ninja"
	}
	if b.cfg.HostOS == "windows" && !b.runner.Available(ctx, "g++", "-v") {
		return "NMake Makefiles"
	}
	return "Unix Makefiles"
}

// buildTablegens runs the isolated static-runtime sub-build of llvm-tblgen
// and clang-tblgen and returns the define overrides pointing the main build
// at the resulting binaries.
func (b *Builder) buildTablegens(ctx context.Context, generator, buildType, srcRoot string) (map[string]string, error) {
	buildDir := filepath.Join(srcRoot, "build-tblgen")

	tg := cmake.New(b.runner).
		Generator(generator).
		BuildType(buildType).
		Stream(b.verbose)
	tg.Source(srcRoot)
	tg.BuildDir(buildDir)
	tg.DefineBool("LLVM_INCLUDE_TESTS", false)
	tg.Env("LDFLAGS", appendFlags(os.Getenv("LDFLAGS"), "-static-libgcc -static-libstdc++"))
	tg.Env("CXXFLAGS", appendFlags(os.Getenv("CXXFLAGS"), "-static-libgcc -static-libstdc++"))
	tg.Env("CFLAGS", appendFlags(os.Getenv("CFLAGS"), "-static-libgcc"))

	if err := tg.Configure(ctx); err != nil {
		return nil, err
	}
	if err := tg.Build(ctx, "--target", "llvm-tblgen"); err != nil {
		return nil, err
	}
	if err := tg.Build(ctx, "--target", "clang-tblgen"); err != nil {
		return nil, err
	}

	return map[string]string{
		"LLVM_TABLEGEN":  filepath.Join(buildDir, "bin", "llvm-tblgen.exe"),
		"CLANG_TABLEGEN": filepath.Join(buildDir, "bin", "clang-tblgen.exe"),
	}, nil
}

// copyRuntimeDLL copies the MinGW libstdc++-6.dll next to the installed
// binaries, which dynamically depend on it and cannot count on it being on
// the search path at run time. Best-effort: the install has already
// succeeded.
func (b *Builder) copyRuntimeDLL(ctx context.Context, installDir string) {
	out, err := b.runner.Output(ctx, executor.Command{Name: "where", Args: []string{"g++"}})
	if err != nil {
		log.Warnf("locate g++: %v", err)
		return
	}
	location, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	dll := filepath.Join(filepath.Dir(strings.TrimSpace(location)), "libstdc++-6.dll")
	if _, err := os.Stat(dll); err != nil {
		return
	}
	if err := copyFile(dll, filepath.Join(installDir, "bin", "libstdc++-6.dll")); err != nil {
		log.Warnf("copy %s: %v", dll, err)
	}
}

func appendFlags(current, extra string) string {
	return strings.TrimSpace(current + " " + extra)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
