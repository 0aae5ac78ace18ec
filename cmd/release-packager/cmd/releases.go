package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-packager/internal/service/releases"
)

var (
	// verifyTag compares the archive with the description of this release.
	verifyTag string
	// historyLimit caps the number of runs shown.
	historyLimit int

	// releasesCmd groups release maintenance.
	releasesCmd = &cobra.Command{
		Use:   "releases",
		Short: "Inspect and clean up published releases.",
	}

	// releasesListCmd prints every release.
	releasesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the releases of the configured repository.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return releases.List(ctx, &releases.Options{ConfigPath: configPath, Out: cmd.OutOrStdout()})
		},
	}

	// releasesDeleteCmd removes a release and its tag.
	releasesDeleteCmd = &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a release and its tag so the tag can be published again.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &releases.DeleteOptions{
				Options: releases.Options{ConfigPath: configPath, Out: cmd.OutOrStdout()},
				Tag:     args[0],
			}

			return releases.Delete(ctx, options)
		},
	}

	// verifyCmd checks a built archive.
	verifyCmd = &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check an archive's layout and, with --tag, its published checksum.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &releases.VerifyOptions{
				Options: releases.Options{ConfigPath: configPath, Out: cmd.OutOrStdout()},
				Archive: args[0],
				Tag:     verifyTag,
			}

			return releases.Verify(ctx, options)
		},
	}

	// historyCmd prints past runs.
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &releases.HistoryOptions{
				Options: releases.Options{ConfigPath: configPath, Out: cmd.OutOrStdout()},
				Limit:   historyLimit,
			}

			return releases.History(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	verifyCmd.Flags().StringVarP(&verifyTag, "tag", "t", "", "release whose description the archive must match")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show, 0 for all")

	releasesCmd.AddCommand(releasesListCmd, releasesDeleteCmd)
	rootCmd.AddCommand(releasesCmd, verifyCmd, historyCmd)
}
