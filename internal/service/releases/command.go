package releases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/archive"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/release"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/manifest"
	"github.com/oshokin/release-packager/internal/render"
	"github.com/oshokin/release-packager/internal/repository/history"
)

// Options are shared by every maintenance command.
type Options struct {
	// ConfigPath is the pipeline YAML file.
	ConfigPath string
	// Out receives tables; defaults to stdout.
	Out io.Writer
}

// DeleteOptions select the release to remove.
type DeleteOptions struct {
	Options

	// Tag names the release and the tag reference to delete.
	Tag string
}

// VerifyOptions select the archive to check.
type VerifyOptions struct {
	Options

	// Archive is the zip file to check.
	Archive string
	// Tag, when set, also compares the archive against that release's description.
	Tag string
}

// HistoryOptions bound the history listing.
type HistoryOptions struct {
	Options

	// Limit caps the number of runs shown; zero shows every stored run.
	Limit int
}

// releaseAPI is the part of the release host client the commands use.
type releaseAPI interface {
	ListReleases(ctx context.Context) ([]*release.Release, error)
	GetReleaseByTag(ctx context.Context, tag string) (*release.Release, error)
	DeleteRelease(ctx context.Context, id int64) error
	DeleteTag(ctx context.Context, tag string) error
}

var errTagRequired = errors.New("tag must be provided")

// List prints every release of the configured repository.
func List(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-packager")

	cfg, client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Listing releases", "repository", cfg.Release.Repository)

	return listReleases(ctx, client, output(opts))
}

// Delete removes the release tagged opts.Tag and the tag itself, so the
// fixed tag can be published again.
func Delete(ctx context.Context, opts *DeleteOptions) error {
	ctx = logger.WithName(ctx, "release-packager")

	_, client, err := connect(ctx, &opts.Options)
	if err != nil {
		return err
	}

	return deleteRelease(ctx, client, opts.Tag)
}

// Verify checks that an archive has the configured layout and, with a tag,
// that it matches the published checksum.
func Verify(ctx context.Context, opts *VerifyOptions) error {
	ctx = logger.WithName(ctx, "release-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	files := append([]string{cfg.Build.Executable}, cfg.Distribution.Files...)
	if err = archive.VerifyLayout(opts.Archive, cfg.Distribution.Name, files); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Archive layout verified", "archive", opts.Archive, "files", len(files))

	if opts.Tag == "" {
		return nil
	}

	client, err := github.NewClient(ctx, cfg.Release)
	if err != nil {
		return err
	}

	return verifyAgainstRelease(ctx, client, opts.Archive, opts.Tag)
}

// History prints the most recent pipeline runs.
func History(ctx context.Context, opts *HistoryOptions) error {
	ctx = logger.WithName(ctx, "release-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	repo, err := history.Open(ctx, cfg.History)
	if err != nil {
		return err
	}

	defer func() {
		_ = history.Close(repo)
	}()

	return printHistory(ctx, repo, opts.Limit, output(&opts.Options))
}

func connect(ctx context.Context, opts *Options) (*config.Config, *github.Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	client, err := github.NewClient(ctx, cfg.Release)
	if err != nil {
		return nil, nil, err
	}

	return cfg, client, nil
}

func output(opts *Options) io.Writer {
	if opts.Out != nil {
		return opts.Out
	}

	return os.Stdout
}

func listReleases(ctx context.Context, api releaseAPI, out io.Writer) error {
	releases, err := api.ListReleases(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, render.Releases(releases))

	return err
}

func deleteRelease(ctx context.Context, api releaseAPI, tag string) error {
	if tag == "" {
		return errTagRequired
	}

	rel, err := api.GetReleaseByTag(ctx, tag)

	switch {
	case err == nil:
		if err = api.DeleteRelease(ctx, rel.ID); err != nil {
			return fmt.Errorf("delete release %s: %w", tag, err)
		}

		logger.InfoKV(ctx, "Release deleted", "tag", tag, "id", rel.ID)
	case errors.Is(err, github.ErrNotFound):
		logger.InfoKV(ctx, "No release for tag", "tag", tag)
	default:
		return err
	}

	err = api.DeleteTag(ctx, tag)

	switch {
	case err == nil:
		logger.InfoKV(ctx, "Tag deleted", "tag", tag)
	case errors.Is(err, github.ErrNotFound):
		logger.InfoKV(ctx, "Tag already absent", "tag", tag)
	default:
		return fmt.Errorf("delete tag %s: %w", tag, err)
	}

	return nil
}

func verifyAgainstRelease(ctx context.Context, api releaseAPI, archivePath, tag string) error {
	rel, err := api.GetReleaseByTag(ctx, tag)
	if err != nil {
		return err
	}

	desc, err := manifest.Parse(rel.Body)
	if err != nil {
		return fmt.Errorf("release %s: %w", tag, err)
	}

	if err = manifest.VerifyFile(archivePath, desc.ArchiveChecksum); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Archive matches release", "tag", tag, "version", desc.Version)

	return nil
}

func printHistory(ctx context.Context, repo history.Repository, limit int, out io.Writer) error {
	runs, err := repo.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	_, err = fmt.Fprintln(out, render.History(runs))

	return err
}
