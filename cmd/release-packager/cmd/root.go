package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/service/packager"
	"github.com/oshokin/release-packager/internal/version"
)

var (
	// configPath to the pipeline YAML file.
	configPath string
	// logLevel is the minimum level written to the log.
	logLevel string
	// source overrides the configured repository path or URL.
	source string
	// ref overrides the configured branch or tag to clone.
	ref string
	// output receives a copy of the finished archive.
	output string
	// manual ignores the CI environment and runs unconditionally.
	manual bool

	// rootCmd runs the release pipeline once.
	rootCmd = &cobra.Command{
		Use:   "release-packager",
		Short: "Build, package and publish the game updater release.",
		Long: `Runs the release pipeline once: checks out the repository, provisions the
Python runtime, installs dependencies, builds a standalone executable, assembles
the distribution folder, archives it, stores the archive as a build artifact,
creates the release and uploads the archive as its asset.

Inside GitHub Actions the event is read from the environment and a run only
happens for a pull request into the configured branch. Outside CI, or with
--manual, the run is unconditional.

The release host token is read from GITHUB_TOKEN and is never written anywhere.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: setLogLevel,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath: configPath,
				Source:     source,
				Ref:        ref,
				Output:     output,
			}

			if manual {
				options.Trigger = &pipeline.Trigger{Event: pipeline.EventManual}
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the release-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel(_ *cobra.Command, _ []string) error {
	return logger.SetLevelByName(logLevel)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.Flags().StringVarP(&source, "source", "s", "", "repository path or git URL, overrides the configuration")
	rootCmd.Flags().StringVar(&ref, "ref", "", "branch or tag to clone from a git URL")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "also copy the finished archive to this path")
	rootCmd.Flags().BoolVar(&manual, "manual", false, "run regardless of the CI event")
}
