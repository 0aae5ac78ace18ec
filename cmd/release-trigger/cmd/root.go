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
	"github.com/oshokin/release-packager/internal/service/trigger"
	"github.com/oshokin/release-packager/internal/version"
)

var (
	// configPath to the pipeline YAML file.
	configPath string
	// logLevel is the minimum level written to the log.
	logLevel string
	// wait retries while the server is unreachable or busy.
	wait bool
	// lastRun prints the latest run instead of starting one.
	lastRun bool
	// manual ignores the CI environment.
	manual bool

	// rootCmd asks a release-server to run the pipeline.
	rootCmd = &cobra.Command{
		Use:   "release-trigger [server-address]",
		Short: "Ask a release server to run the pipeline and wait for the result.",
		Long: `Sends a trigger to a running release-server and waits for the run to finish.
The process exits non-zero when the run fails, so it can gate a CI job.

The event is read from the GitHub Actions environment unless --manual is given.
The bearer token is read from RELEASE_TRIGGER_TOKEN.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelByName(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &trigger.Options{
				ConfigPath: configPath,
				Wait:       wait,
				LastRun:    lastRun,
			}

			if len(args) > 0 {
				options.ServerAddress = args[0]
			}

			if manual {
				options.Trigger = &pipeline.Trigger{Event: pipeline.EventManual}
			}

			return trigger.Run(ctx, options)
		},
	}
)

// Execute runs the release-trigger CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.Flags().BoolVarP(&wait, "wait", "w", false, "retry while the server is unreachable or busy")
	rootCmd.Flags().BoolVar(&lastRun, "last", false, "print the most recent run and exit")
	rootCmd.Flags().BoolVar(&manual, "manual", false, "run regardless of the CI event")
}
