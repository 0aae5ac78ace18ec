package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/archive"
	"github.com/oshokin/release-packager/internal/artifact"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/distribution"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/domain/release"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/manifest"
	"github.com/oshokin/release-packager/internal/repository/history"
	"github.com/oshokin/release-packager/internal/toolchain"
	"github.com/oshokin/release-packager/internal/workspace"
)

// ReleaseHost is the part of the release API the pipeline writes to.
type ReleaseHost interface {
	CreateRelease(ctx context.Context, req *release.CreateRequest) (*release.Release, error)
	UploadAsset(ctx context.Context, rel *release.Release, name, contentType string, file *os.File) (*release.Asset, error)
}

// Pipeline executes release runs for one configuration.
type Pipeline struct {
	cfg           *config.Config
	runner        toolchain.Runner
	store         artifact.Store
	host          ReleaseHost
	history       history.Repository
	archiveOutput string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the command runner used for git, the interpreter and the packaging tool.
func WithRunner(runner toolchain.Runner) Option {
	return func(p *Pipeline) {
		p.runner = runner
	}
}

// WithArtifactStore replaces the configured artifact backend.
func WithArtifactStore(store artifact.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithReleaseHost replaces the release API client.
func WithReleaseHost(host ReleaseHost) Option {
	return func(p *Pipeline) {
		p.host = host
	}
}

// WithHistory replaces the configured run history.
func WithHistory(repo history.Repository) Option {
	return func(p *Pipeline) {
		p.history = repo
	}
}

// WithArchiveOutput copies the finished archive to path, outside the discarded workspace.
func WithArchiveOutput(path string) Option {
	return func(p *Pipeline) {
		p.archiveOutput = path
	}
}

// NewPipeline builds a pipeline for cfg. Dependencies not supplied through
// options are constructed from the configuration.
func NewPipeline(ctx context.Context, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.runner == nil {
		p.runner = toolchain.NewExecRunner()
	}

	var err error

	if p.store == nil {
		if p.store, err = artifact.New(cfg.Artifact); err != nil {
			return nil, fmt.Errorf("create artifact store: %w", err)
		}
	}

	if p.host == nil {
		if p.host, err = github.NewClient(ctx, cfg.Release); err != nil {
			return nil, fmt.Errorf("create release client: %w", err)
		}
	}

	if p.history == nil {
		if p.history, err = history.Open(ctx, cfg.History); err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
	}

	return p, nil
}

// Close releases the history connection.
func (p *Pipeline) Close() error {
	return history.Close(p.history)
}

// History returns the run history the pipeline writes to.
func (p *Pipeline) History() history.Repository {
	return p.history
}

// execution carries what each step hands to the next.
type execution struct {
	run         *pipeline.Run
	toolchain   *toolchain.Toolchain
	workspace   *workspace.Workspace
	runtime     *toolchain.Runtime
	executable  string
	dist        *distribution.Distribution
	archivePath string
	description *manifest.Description
	release     *release.Release
}

type stepFunc func(ctx context.Context, e *execution) error

// Execute performs one run for trigger. It returns pipeline.ErrTriggerIgnored
// without a run when the trigger does not match the rule. Otherwise the run
// record is always returned, and the error is a *pipeline.StepError when a
// step failed.
func (p *Pipeline) Execute(ctx context.Context, trigger *pipeline.Trigger) (*pipeline.Run, error) {
	if !p.cfg.Trigger.Matches(trigger) {
		return nil, fmt.Errorf("%s into %q: %w", trigger.Event, trigger.BaseBranch, pipeline.ErrTriggerIgnored)
	}

	lock, err := workspace.AcquireLock(ctx, p.cfg.Source.LockFile)
	if err != nil {
		return nil, err
	}

	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Failed to release lock", "error", releaseErr)
		}
	}()

	e := &execution{
		run:       pipeline.NewRun(trigger),
		toolchain: toolchain.New(p.runner, p.cfg.Runtime, p.cfg.Build),
	}

	ctx = logger.WithKV(ctx, "run_id", e.run.ID)

	logger.InfoKV(ctx, "Pipeline run started",
		"source", p.cfg.Source.Path, "distribution", p.cfg.Distribution.Name, "tag", p.cfg.Release.Tag)

	defer func() {
		if discardErr := e.workspace.Discard(); discardErr != nil {
			logger.WarnKV(ctx, "Failed to remove workspace", "error", discardErr)
		}
	}()

	runErr := p.runSteps(ctx, e)
	e.run.Finish(runErr)

	if saveErr := p.history.Save(ctx, e.run); saveErr != nil {
		logger.WarnKV(ctx, "Failed to save run history", "error", saveErr)
	}

	if runErr != nil {
		logger.ErrorKV(ctx, "Pipeline run failed",
			"step", e.run.FailedStep, "category", e.run.Category, "error", runErr)

		return e.run, runErr
	}

	logger.InfoKV(ctx, "Pipeline run succeeded", "duration", e.run.Duration(), "release", e.run.ReleaseURL)

	return e.run, nil
}

func (p *Pipeline) runSteps(ctx context.Context, e *execution) error {
	steps := []struct {
		step pipeline.Step
		fn   stepFunc
	}{
		{pipeline.StepCheckout, p.checkout},
		{pipeline.StepProvisionRuntime, p.provisionRuntime},
		{pipeline.StepInstallDependencies, p.installDependencies},
		{pipeline.StepBuildExecutable, p.buildExecutable},
		{pipeline.StepAssembleDistribution, p.assembleDistribution},
		{pipeline.StepCreateArchive, p.createArchive},
		{pipeline.StepPublishArtifact, p.publishArtifact},
		{pipeline.StepCreateRelease, p.createRelease},
		{pipeline.StepUploadAsset, p.uploadAsset},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return pipeline.NewStepError(s.step, err)
		}

		stepCtx := logger.WithKV(ctx, "step", s.step)
		startedAt := time.Now()

		logger.Info(stepCtx, "Step started")

		err := s.fn(stepCtx, e)
		e.run.Record(s.step, startedAt, err)

		if err != nil {
			return pipeline.NewStepError(s.step, err)
		}

		logger.InfoKV(stepCtx, "Step completed", "duration", time.Since(startedAt).Round(time.Millisecond))
	}

	return nil
}

func (p *Pipeline) checkout(ctx context.Context, e *execution) error {
	exclude := slices.Clone(p.cfg.Source.Exclude)
	exclude = append(exclude, filepath.Base(p.cfg.Source.LockFile))

	ws, err := workspace.Checkout(ctx, p.runner, p.cfg.Source.Path, p.cfg.Source.Ref, exclude)
	if err != nil {
		return err
	}

	e.workspace = ws

	return nil
}

func (p *Pipeline) provisionRuntime(ctx context.Context, e *execution) error {
	rt, err := e.toolchain.ProvisionRuntime(ctx, e.workspace.Dir)
	if err != nil {
		return err
	}

	e.runtime = rt

	return nil
}

func (p *Pipeline) installDependencies(ctx context.Context, e *execution) error {
	return e.toolchain.InstallDependencies(ctx, e.runtime, e.workspace.Dir)
}

func (p *Pipeline) buildExecutable(ctx context.Context, e *execution) error {
	exe, err := e.toolchain.BuildExecutable(ctx, e.runtime, e.workspace.Dir)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Executable built", "path", exe)
	e.executable = exe

	return nil
}

func (p *Pipeline) assembleDistribution(ctx context.Context, e *execution) error {
	dist, err := distribution.Assemble(ctx,
		e.workspace.Dir,
		filepath.Dir(e.executable),
		filepath.Base(e.executable),
		p.cfg.Distribution.Name,
		p.cfg.Distribution.Files,
	)
	if err != nil {
		return err
	}

	e.dist = dist

	return nil
}

func (p *Pipeline) createArchive(ctx context.Context, e *execution) error {
	archivePath := filepath.Join(filepath.Dir(e.workspace.Dir), e.dist.Name+archive.Extension)

	if err := archive.Create(e.dist.Dir, archivePath, e.dist.Name); err != nil {
		return err
	}

	if err := archive.VerifyLayout(archivePath, e.dist.Name, e.dist.Entries()); err != nil {
		return err
	}

	desc, err := manifest.Build(e.dist, archivePath)
	if err != nil {
		return fmt.Errorf("describe archive: %w", err)
	}

	e.archivePath = archivePath
	e.description = desc
	e.run.Version = desc.Version

	if p.archiveOutput != "" {
		if err = os.MkdirAll(filepath.Dir(p.archiveOutput), 0o755); err != nil {
			return err
		}

		if err = workspace.CopyFile(archivePath, p.archiveOutput); err != nil {
			return fmt.Errorf("copy archive: %w", err)
		}

		e.run.ArchivePath = p.archiveOutput
	}

	logger.InfoKV(ctx, "Archive created", "name", filepath.Base(archivePath), "version", desc.Version)

	return nil
}

func (p *Pipeline) publishArtifact(ctx context.Context, e *execution) error {
	key, err := artifact.Publish(ctx, p.store, p.cfg.Artifact.Name, e.archivePath)
	if err != nil {
		return err
	}

	e.run.ArtifactKey = key

	return nil
}

func (p *Pipeline) createRelease(ctx context.Context, e *execution) error {
	body, err := manifest.Render(e.description)
	if err != nil {
		return err
	}

	rel, err := p.host.CreateRelease(ctx, &release.CreateRequest{
		TagName:         p.cfg.Release.Tag,
		Name:            p.cfg.Release.Title,
		Body:            body,
		Draft:           false,
		Prerelease:      false,
		TargetCommitish: p.cfg.Release.TargetCommitish,
	})
	if err != nil {
		if errors.Is(err, github.ErrReleaseExists) {
			return fmt.Errorf("tag %s: %w", p.cfg.Release.Tag, err)
		}

		return err
	}

	logger.InfoKV(ctx, "Release created", "tag", rel.TagName, "url", rel.HTMLURL)

	e.release = rel
	e.run.ReleaseURL = rel.HTMLURL

	return nil
}

func (p *Pipeline) uploadAsset(ctx context.Context, e *execution) error {
	file, err := os.Open(filepath.Clean(e.archivePath))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	asset, err := p.host.UploadAsset(ctx, e.release, p.cfg.Release.AssetName, p.cfg.Release.ContentType, file)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Asset uploaded", "name", asset.Name, "size", asset.Size)

	e.run.AssetURL = asset.DownloadURL

	return nil
}
