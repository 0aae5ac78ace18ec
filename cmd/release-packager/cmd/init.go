package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-packager/internal/service/packager"
)

var (
	// initRepository is the owner/name written into the new configuration.
	initRepository string
	// initForce overwrites an existing configuration.
	initForce bool

	// initCmd writes a starter configuration.
	initCmd = &cobra.Command{
		Use:   "init [source]",
		Short: "Write a starter pipeline configuration.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &packager.InitOptions{
				ConfigPath: configPath,
				Repository: initRepository,
				Force:      initForce,
			}

			if len(args) > 0 {
				options.Source = args[0]
			}

			return packager.Init(context.Background(), options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().StringVarP(&initRepository, "repository", "r", "", "owner/name receiving the releases")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing configuration")

	rootCmd.AddCommand(initCmd)
}
