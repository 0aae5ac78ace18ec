package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/service/server"
	"github.com/oshokin/release-packager/internal/version"
)

var (
	// configPath to the pipeline YAML file.
	configPath string
	// logLevel is the minimum level written to the log.
	logLevel string

	// rootCmd runs the trigger agent.
	rootCmd = &cobra.Command{
		Use:   "release-server [listen-address]",
		Short: "Run the release pipeline on request over gRPC.",
		Long: `Starts the trigger agent. Clients call it to run the release pipeline on this
machine; one run executes at a time and the caller receives the run record.

Only the port from server.address is used for listening (e.g. :50061). A listen
address argument overrides it (e.g. :9090, 0.0.0.0:50061).

Callers authenticate with an OIDC token when server.oidc_issuer is set, or with
the shared token from RELEASE_TRIGGER_TOKEN otherwise.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelByName(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the release-server CLI and exits with non-zero status on error.
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
}
