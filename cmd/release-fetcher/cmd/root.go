package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/service/fetcher"
	"github.com/oshokin/release-packager/internal/version"
)

var (
	// configPath to the pipeline YAML file.
	configPath string
	// logLevel is the minimum level written to the log.
	logLevel string
	// destination receives the archive and the installed folder.
	destination string
	// stopRunning kills running copies of the packaged executable first.
	stopRunning bool
	// quiet hides the progress bar.
	quiet bool

	// rootCmd downloads and installs a published release.
	rootCmd = &cobra.Command{
		Use:   "release-fetcher [tag|latest]",
		Short: "Download and install a published release.",
		Long: `Reads the release description, downloads the archive asset, checks it
against the published SHA-512 checksum and unpacks the distribution folder into
the destination, replacing a previous installation.

Without a tag the configured release tag is fetched; "latest" picks the newest
release. Transient server errors are retried.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelByName(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &fetcher.Options{
				ConfigPath:  configPath,
				Destination: destination,
				StopRunning: stopRunning,
				Quiet:       quiet,
			}

			if len(args) > 0 {
				options.Tag = args[0]
			}

			return fetcher.Run(ctx, options)
		},
	}
)

// Execute runs the release-fetcher CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&destination, "destination", "d", "game", "folder receiving the installed release")
	rootCmd.Flags().BoolVar(&stopRunning, "stop-running", false, "stop running copies of the packaged executable first")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the download progress bar")
}
