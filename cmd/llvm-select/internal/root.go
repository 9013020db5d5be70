// Package internal implements the llvm-select command line.
package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/adamrehn/llvm-select/internal/builder"
	"github.com/adamrehn/llvm-select/internal/env"
	"github.com/adamrehn/llvm-select/internal/executor"
	"github.com/adamrehn/llvm-select/internal/llvm"
	"github.com/adamrehn/llvm-select/internal/registry"
	"github.com/adamrehn/llvm-select/internal/source"
)

var (
	listFlag    bool
	removeFlag  bool
	installFlag bool
	noCleanup   bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "llvm-select [version] [buildtype]",
	Short: "Manage LLVM/Clang versions built from source",
	Long: `llvm-select downloads, builds, and installs LLVM/Clang versions from
the upstream release archives and switches the active llvm-config between
installed versions.

Without flags, the named version is set as the active version.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&listFlag, "list", false, "List installed library versions")
	rootCmd.Flags().BoolVar(&removeFlag, "remove", false, "Remove an installed library version")
	rootCmd.Flags().BoolVar(&installFlag, "install", false, "Install a new library version")
	rootCmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Don't remove build files after installing a new library version")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show live output of the download and build steps")
}

// Execute runs the root command. Any reported error exits with code 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var notAvailable *executor.NotAvailableError
		if errors.As(err, &notAvailable) {
			fmt.Fprintf(os.Stderr, "Error: %s.\n", notAvailable.Error())
			fmt.Fprintf(os.Stderr, "Please ensure %s is installed and available in the system PATH.\n", notAvailable.Tool)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetOutputLevel(log.Ldebug)
	} else {
		log.SetOutputLevel(log.Lwarn)
	}

	cfg, err := env.Default()
	if err != nil {
		return err
	}
	reg := registry.New(cfg)

	buildType := "Release"
	if len(args) > 1 {
		buildType = args[1]
	}
	if !builder.ValidBuildType(buildType) {
		return fmt.Errorf("invalid build type %q (valid: %s)",
			buildType, strings.Join(builder.BuildTypes, ", "))
	}

	if listFlag {
		return runList(reg)
	}

	if len(args) == 0 {
		return errors.New("an LLVM version must be specified")
	}
	version, err := llvm.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w %q", err, args[0])
	}

	switch {
	case removeFlag:
		dir, err := reg.Remove(version, buildType)
		if err != nil {
			return fmt.Errorf("failed to remove the specified library version: %w", err)
		}
		fmt.Printf("Removed `%s`.\n", dir)
		return nil
	case installFlag:
		return runInstall(cmd, cfg, version, buildType)
	default:
		target, err := reg.Activate(version, buildType)
		if err != nil {
			return err
		}
		fmt.Printf("Set llvm-config to point to `%s`.\n", target)
		return nil
	}
}

func runList(reg *registry.Registry) error {
	versions, err := reg.List()
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("There are no library versions currently installed.")
		return nil
	}
	fmt.Println("Installed library versions:")
	for _, v := range versions {
		fmt.Println(v)
	}
	return nil
}

func runInstall(cmd *cobra.Command, cfg env.Config, version llvm.Version, buildType string) error {
	ctx := cmd.Context()
	runner := executor.New()

	b := builder.New(cfg, runner, builder.WithVerbose(verbose))
	if err := b.Prerequisites(ctx); err != nil {
		return err
	}

	set := llvm.Sources(version, cfg.HostOS, cfg.ReleaseBase)

	// Cleanup is unconditional on the flag, not on success: a failed build
	// must not leave multi-gigabyte trees behind unless explicitly asked.
	if !noCleanup {
		defer source.Cleanup(cfg, set)
	}

	acquirer := source.New(cfg, runner,
		source.WithKeepArchives(noCleanup),
		source.WithStreaming(verbose))
	srcRoot, err := acquirer.FetchAndStage(ctx, set)
	if err != nil {
		return err
	}

	installDir, err := b.Build(ctx, version, buildType, srcRoot)
	if err != nil {
		return err
	}
	fmt.Println("Library installed to: " + installDir)
	return nil
}
