package packager

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/render"
)

// errConfigExists prevents init from overwriting a configuration.
var errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is the configuration file (defaults to release-packager.yaml).
	ConfigPath string
	// Source overrides the configured repository path or URL.
	Source string
	// Ref overrides the configured ref to clone.
	Ref string
	// Output copies the finished archive to this path.
	Output string
	// Trigger describes the event; nil reads the CI environment and falls back to a manual run.
	Trigger *pipeline.Trigger
	// Pipeline holds extra pipeline options, e.g. a scripted toolchain runner.
	Pipeline []Option
}

// InitOptions contains inputs for writing a starter configuration.
type InitOptions struct {
	// ConfigPath is where the configuration is written.
	ConfigPath string
	// Repository is the owner/name that receives releases.
	Repository string
	// Source is the repository path or URL to package.
	Source string
	// Force overwrites an existing file.
	Force bool
}

// Run loads the configuration and executes one pipeline run.
// A trigger that does not match the rule is logged and is not an error.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Source != "" {
		cfg.Source.Path = opts.Source
	}

	if opts.Ref != "" {
		cfg.Source.Ref = opts.Ref
	}

	trigger := opts.Trigger
	if trigger == nil {
		trigger = pipeline.TriggerFromEnvironment()
	}

	p, err := NewPipeline(ctx, cfg, append([]Option{WithArchiveOutput(opts.Output)}, opts.Pipeline...)...)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	defer func() {
		_ = p.Close()
	}()

	run, err := p.Execute(ctx, trigger)
	if errors.Is(err, pipeline.ErrTriggerIgnored) {
		logger.InfoKV(ctx, "Trigger ignored, nothing to do", "reason", err)

		return nil
	}

	if run != nil {
		logger.Info(ctx, "\n"+render.RunSummary(run))
	}

	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	return nil
}

// Init writes a configuration filled with defaults.
func Init(ctx context.Context, opts *InitOptions) error {
	ctx = logger.WithName(ctx, "release-packager")

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}

	cfg := config.Default()

	if opts.Repository != "" {
		cfg.Release.Repository = opts.Repository
	}

	if opts.Source != "" {
		cfg.Source.Path = opts.Source
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	logger.InfoKV(ctx, "Configuration written", "path", path, "repository", cfg.Release.Repository)
	logger.Infof(ctx, "Provide the release token through the %s environment variable", config.EnvReleaseToken)

	return nil
}
