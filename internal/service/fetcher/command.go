package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
)

// Options are inputs accepted by the fetcher entry point.
type Options struct {
	// ConfigPath is the optional path to the pipeline YAML file.
	ConfigPath string
	// Tag selects the release; empty uses the configured tag, "latest" the newest release.
	Tag string
	// Destination receives the archive and the installed folder.
	Destination string
	// StopRunning kills running copies of the packaged executable first.
	StopRunning bool
	// Quiet hides the progress bar.
	Quiet bool
}

// defaultDestination mirrors where the game updater keeps installed builds.
const defaultDestination = "game"

// Run fetches and installs one release.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-fetcher")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	httpClient := NewRetryClient(ctx, http.DefaultTransport, DefaultRetries, DefaultBackoff)

	client, err := github.NewClient(ctx, cfg.Release, github.WithHTTPClient(httpClient))
	if err != nil {
		return err
	}

	var fetcherOptions []Option
	if !opts.Quiet {
		fetcherOptions = append(fetcherOptions, WithProgress(os.Stderr))
	}

	if opts.StopRunning {
		fetcherOptions = append(fetcherOptions, WithStopRunning())
	}

	tag := opts.Tag
	if tag == "" {
		tag = cfg.Release.Tag
	}

	destination := opts.Destination
	if destination == "" {
		destination = defaultDestination
	}

	result, err := New(client, cfg.Release.AssetName, fetcherOptions...).Fetch(ctx, tag, destination)
	if err != nil {
		return fmt.Errorf("fetch release %s: %w", tag, err)
	}

	logger.Infof(ctx, "Installed %s %s into %s", result.Description.Distribution, result.Version, result.Dir)

	return nil
}
