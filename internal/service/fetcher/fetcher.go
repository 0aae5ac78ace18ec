package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/archive"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/release"
	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/manifest"
)

var (
	// ErrAssetMissing means the release has no archive asset.
	ErrAssetMissing = errors.New("release has no archive asset")
	// ErrUnexpectedContentType means the asset is not served as an archive.
	ErrUnexpectedContentType = errors.New("unexpected asset content type")
	// ErrVersionMismatch means the installed package.json differs from the description.
	ErrVersionMismatch = errors.New("installed version differs from the release")
	// ErrUnsafeName means the release description names a path outside the destination.
	ErrUnsafeName = errors.New("unsafe name in release description")
)

// LatestTag selects the most recent release.
const LatestTag = "latest"

// archiveMode is applied to the downloaded archive.
const archiveMode os.FileMode = 0o644

// acceptedContentTypes are the media types an archive may be served with.
var acceptedContentTypes = []string{
	"application/zip",
	"application/x-zip-compressed",
	"application/octet-stream",
}

// unsafeNameChars are replaced when a release name becomes a folder name.
var unsafeNameChars = regexp.MustCompile(`[\\/:"*?<>|]+`)

// ReleaseSource reads releases and streams assets.
type ReleaseSource interface {
	GetReleaseByTag(ctx context.Context, tag string) (*release.Release, error)
	GetLatestRelease(ctx context.Context) (*release.Release, error)
	DownloadAsset(ctx context.Context, asset *release.Asset) (*github.Download, error)
}

// Result describes an installed release.
type Result struct {
	// Release is the fetched release.
	Release *release.Release
	// Description is the parsed release description.
	Description *manifest.Description
	// ArchivePath is the downloaded archive.
	ArchivePath string
	// Dir is the installed distribution folder.
	Dir string
	// Version is read from the installed package.json.
	Version string
}

// Fetcher downloads and installs releases.
type Fetcher struct {
	source    ReleaseSource
	assetName string
	progress  io.Writer
	stopper   func(ctx context.Context, executable string) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProgress renders a download progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// WithStopRunning stops running copies of the packaged executable before installing.
func WithStopRunning() Option {
	return func(f *Fetcher) {
		f.stopper = stopProcesses
	}
}

// New returns a Fetcher reading from source. assetName is used when the
// release description does not name the archive.
func New(source ReleaseSource, assetName string, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:    source,
		assetName: assetName,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch installs the release tagged tag (or the latest one) into dest.
func (f *Fetcher) Fetch(ctx context.Context, tag, dest string) (*Result, error) {
	rel, err := f.release(ctx, tag)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "tag", rel.TagName)

	desc, err := manifest.Parse(rel.Body)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", rel.TagName, err)
	}

	if err = checkNames(desc); err != nil {
		return nil, fmt.Errorf("release %s: %w", rel.TagName, err)
	}

	asset, err := f.pickAsset(rel, desc)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Release found", "version", desc.Version, "asset", asset.Name, "size", asset.Size)

	if err = os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	archivePath := filepath.Join(dest, SafeName(asset.Name))
	if err = f.download(ctx, asset, archivePath, desc.ArchiveChecksum); err != nil {
		return nil, err
	}

	if err = archive.VerifyLayout(archivePath, desc.Distribution, slices.Sorted(maps.Keys(desc.Files))); err != nil {
		return nil, err
	}

	if f.stopper != nil && desc.Executable != "" {
		if err = f.stopper(ctx, desc.Executable); err != nil {
			return nil, fmt.Errorf("stop running executable: %w", err)
		}
	}

	dir := filepath.Join(dest, SafeName(desc.Distribution))
	if err = install(archivePath, dest, dir); err != nil {
		return nil, err
	}

	for name, checksum := range desc.Files {
		if err = manifest.VerifyFile(filepath.Join(dir, name), checksum); err != nil {
			return nil, fmt.Errorf("installed %s: %w", name, err)
		}
	}

	installed := manifest.ReadVersion(filepath.Join(dir, manifest.VersionFile))
	if installed != desc.Version {
		return nil, fmt.Errorf("%w: %s, expected %s", ErrVersionMismatch, installed, desc.Version)
	}

	logger.InfoKV(ctx, "Release installed", "dir", dir, "version", installed)

	return &Result{
		Release:     rel,
		Description: desc,
		ArchivePath: archivePath,
		Dir:         dir,
		Version:     installed,
	}, nil
}

// SafeName replaces characters that are not allowed in folder names.
func SafeName(name string) string {
	return unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
}

// checkNames rejects description entries that would escape the install folder.
func checkNames(desc *manifest.Description) error {
	if !config.IsPlainName(SafeName(desc.Distribution)) {
		return fmt.Errorf("%w: distribution %q", ErrUnsafeName, desc.Distribution)
	}

	for name := range desc.Files {
		if !config.IsPlainName(name) {
			return fmt.Errorf("%w: file %q", ErrUnsafeName, name)
		}
	}

	return nil
}

func (f *Fetcher) release(ctx context.Context, tag string) (*release.Release, error) {
	if tag == "" || strings.EqualFold(tag, LatestTag) {
		return f.source.GetLatestRelease(ctx)
	}

	return f.source.GetReleaseByTag(ctx, tag)
}

func (f *Fetcher) pickAsset(rel *release.Release, desc *manifest.Description) (*release.Asset, error) {
	for _, name := range []string{desc.Archive, f.assetName} {
		if name == "" {
			continue
		}

		if asset, ok := rel.FindAsset(name); ok {
			return asset, nil
		}
	}

	return nil, fmt.Errorf("release %s, %q: %w", rel.TagName, desc.Archive, ErrAssetMissing)
}

// download streams asset into a temporary file and moves it over target
// with go-update, which rejects the contents unless they match checksum.
func (f *Fetcher) download(ctx context.Context, asset *release.Asset, target, checksum string) error {
	sum, err := manifest.DecodeChecksum(checksum)
	if err != nil {
		return err
	}

	d, err := f.source.DownloadAsset(ctx, asset)
	if err != nil {
		return err
	}

	defer func() {
		_ = d.Body.Close()
	}()

	if err = checkContentType(d.ContentType); err != nil {
		return fmt.Errorf("%s: %w", asset.Name, err)
	}

	size := d.ContentLength
	if size <= 0 {
		size = asset.Size
	}

	var body io.Reader = d.Body
	if f.progress != nil {
		bar := newProgressReader(d.Body, size, f.progress)
		defer bar.Done()

		body = bar
	}

	// go-update moves the previous file aside, so the target has to exist.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(target, nil, archiveMode); err != nil {
			return err
		}
	}

	err = goupdate.Apply(body, goupdate.Options{
		TargetPath: target,
		TargetMode: archiveMode,
		Checksum:   sum,
		Hash:       manifest.ChecksumFunction,
	})
	if err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			logger.ErrorKV(ctx, "Failed to restore previous archive", "error", rollbackErr)
		}

		return fmt.Errorf("apply %s: %w", asset.Name, err)
	}

	if !archive.IsZip(target) {
		return fmt.Errorf("%s: %w", target, archive.ErrNotZip)
	}

	logger.InfoKV(ctx, "Archive downloaded", "path", target)

	return nil
}

func checkContentType(value string) error {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnexpectedContentType, value)
	}

	if !slices.Contains(acceptedContentTypes, strings.ToLower(mediaType)) {
		return fmt.Errorf("%w: %s", ErrUnexpectedContentType, mediaType)
	}

	return nil
}

// install extracts the archive next to dir and swaps it in, replacing any
// previous installation. dir must be a child of dest.
func install(archivePath, dest, dir string) error {
	if !within(dest, dir) {
		return fmt.Errorf("%w: %s is outside %s", ErrUnsafeName, dir, dest)
	}

	staging, err := os.MkdirTemp(filepath.Dir(dir), ".install-")
	if err != nil {
		return err
	}

	defer func() {
		_ = os.RemoveAll(staging)
	}()

	if _, err = archive.Extract(archivePath, staging, archive.StripRoot()); err != nil {
		return err
	}

	if err = os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove previous installation: %w", err)
	}

	if err = os.Rename(staging, dir); err != nil {
		return fmt.Errorf("install %s: %w", dir, err)
	}

	return nil
}

// within reports whether dir lies strictly below root.
func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return false
	}

	return true
}
