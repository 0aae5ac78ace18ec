package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	gh "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/release"
	"github.com/oshokin/release-packager/internal/version"
)

var (
	// ErrReleaseExists means a release with the tag already exists.
	ErrReleaseExists = errors.New("release already exists")
	// ErrUnauthorized means the credential is missing, invalid or lacks permission.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the repository, release or asset does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedStatus covers every other non-success response.
	ErrUnexpectedStatus = errors.New("unexpected http status")

	errBadRepository = errors.New("repository must be owner/name")
)

const (
	// PerPage is the page size used when listing releases.
	PerPage = 100

	// TransferFactor multiplies the call timeout for asset uploads and downloads.
	TransferFactor = 10

	mediaTypeBinary = "application/octet-stream"
)

// Client talks to one repository.
type Client struct {
	api *gh.Client
	// transfer follows asset download redirects without the API credential.
	transfer        *http.Client
	owner           string
	repo            string
	timeout         time.Duration
	transferTimeout time.Duration
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	base  *http.Client
	token string
}

// WithHTTPClient sets the client whose transport carries the requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.base = client
	}
}

// WithToken overrides the token from the configuration.
func WithToken(token string) Option {
	return func(o *clientOptions) {
		o.token = token
	}
}

// NewClient returns a client for cfg.Repository at cfg.APIURL. An empty token
// makes anonymous requests.
//
// cfg.Timeout bounds each API call. Uploads and downloads get TransferFactor
// times as long, the whole body transfer included.
func NewClient(ctx context.Context, cfg config.ReleaseConfig, opts ...Option) (*Client, error) {
	options := clientOptions{
		base:  new(http.Client),
		token: cfg.Token,
	}

	for _, opt := range opts {
		opt(&options)
	}

	owner, repo, found := strings.Cut(cfg.Repository, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%q: %w", cfg.Repository, errBadRepository)
	}

	httpClient := options.base
	if options.token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, options.base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: options.token}))
	}

	api := gh.NewClient(httpClient)
	api.UserAgent = version.UserAgent()

	if cfg.APIURL != "" {
		baseURL, err := endpoint(cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("parse api url: %w", err)
		}

		api.BaseURL = baseURL
	}

	if cfg.UploadURL != "" {
		uploadURL, err := endpoint(cfg.UploadURL)
		if err != nil {
			return nil, fmt.Errorf("parse upload url: %w", err)
		}

		api.UploadURL = uploadURL
	}

	return &Client{
		api:             api,
		transfer:        options.base,
		owner:           owner,
		repo:            repo,
		timeout:         cfg.Timeout,
		transferTimeout: cfg.Timeout * TransferFactor,
	}, nil
}

// Repository returns owner/name.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// CreateRelease creates a published release. An existing tag yields ErrReleaseExists.
func (c *Client) CreateRelease(ctx context.Context, req *release.CreateRequest) (*release.Release, error) {
	ctx, cancel := c.callContext(ctx, c.timeout)
	defer cancel()

	in := &gh.RepositoryRelease{
		TagName:    gh.Ptr(req.TagName),
		Name:       gh.Ptr(req.Name),
		Body:       gh.Ptr(req.Body),
		Draft:      gh.Ptr(req.Draft),
		Prerelease: gh.Ptr(req.Prerelease),
	}

	if req.TargetCommitish != "" {
		in.TargetCommitish = gh.Ptr(req.TargetCommitish)
	}

	out, _, err := c.api.Repositories.CreateRelease(ctx, c.owner, c.repo, in)
	if err != nil {
		return nil, fmt.Errorf("create release %s: %w", req.TagName, translate(err))
	}

	return toRelease(out), nil
}

// GetReleaseByTag looks a release up by tag.
func (c *Client) GetReleaseByTag(ctx context.Context, tag string) (*release.Release, error) {
	ctx, cancel := c.callContext(ctx, c.timeout)
	defer cancel()

	out, _, err := c.api.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		return nil, fmt.Errorf("get release %s: %w", tag, translate(err))
	}

	return toRelease(out), nil
}

// GetLatestRelease returns the most recent published release.
func (c *Client) GetLatestRelease(ctx context.Context) (*release.Release, error) {
	ctx, cancel := c.callContext(ctx, c.timeout)
	defer cancel()

	out, _, err := c.api.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("get latest release: %w", translate(err))
	}

	return toRelease(out), nil
}

// ListReleases returns the first page of releases, newest first.
func (c *Client) ListReleases(ctx context.Context) ([]*release.Release, error) {
	ctx, cancel := c.callContext(ctx, c.timeout)
	defer cancel()

	out, _, err := c.api.Repositories.ListReleases(ctx, c.owner, c.repo, &gh.ListOptions{PerPage: PerPage})
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", translate(err))
	}

	releases := make([]*release.Release, 0, len(out))
	for _, rel := range out {
		releases = append(releases, toRelease(rel))
	}

	return releases, nil
}

// DeleteRelease removes a release record; the tag stays.
func (c *Client) DeleteRelease(ctx context.Context, id int64) error {
	ctx, cancel := c.callContext(ctx, c.timeout)
	defer cancel()

	if _, err := c.api.Repositories.DeleteRelease(ctx, c.owner, c.repo, id); err != nil {
		return fmt.Errorf("delete release %d: %w", id, translate(err))
	}

	return nil
}

// DeleteTag removes the tag reference.
func (c *Client) DeleteTag(ctx context.Context, tag string) error {
	ctx, cancel := c.callContext(ctx, c.timeout)
	defer cancel()

	if _, err := c.api.Git.DeleteRef(ctx, c.owner, c.repo, "tags/"+tag); err != nil {
		return fmt.Errorf("delete tag %s: %w", tag, translate(err))
	}

	return nil
}

// UploadAsset attaches file to rel under name.
func (c *Client) UploadAsset(ctx context.Context, rel *release.Release, name, contentType string, file *os.File) (*release.Asset, error) {
	ctx, cancel := c.callContext(ctx, c.transferTimeout)
	defer cancel()

	options := &gh.UploadOptions{
		Name:      name,
		MediaType: contentType,
	}

	out, _, err := c.api.Repositories.UploadReleaseAsset(ctx, c.owner, c.repo, rel.ID, options, file)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, translate(err))
	}

	asset := toAsset(out)

	return &asset, nil
}

// Download is an asset body being streamed.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// DownloadAsset streams the binary contents of asset. The API answers with a
// redirect to the storage host, which is followed without the credential.
func (c *Client) DownloadAsset(ctx context.Context, asset *release.Asset) (*Download, error) {
	ctx, cancel := c.callContext(ctx, c.transferTimeout)

	d, err := c.download(ctx, asset)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}

	d.Body = &cancelOnClose{ReadCloser: d.Body, cancel: cancel}

	return d, nil
}

func (c *Client) download(ctx context.Context, asset *release.Asset) (*Download, error) {
	rc, location, err := c.api.Repositories.DownloadReleaseAsset(ctx, c.owner, c.repo, asset.ID, nil)
	if err != nil {
		return nil, translate(err)
	}

	// Served in place: the declared asset metadata stands in for the headers.
	if rc != nil {
		return &Download{
			Body:          rc,
			ContentType:   asset.ContentType,
			ContentLength: asset.Size,
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", mediaTypeBinary)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.transfer.Do(req)
	if err != nil {
		return nil, err
	}

	if err = gh.CheckResponse(resp); err != nil {
		_ = resp.Body.Close()

		return nil, translate(err)
	}

	return &Download{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

func (c *Client) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// cancelOnClose releases the transfer deadline once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	defer b.cancel()

	return b.ReadCloser.Close()
}

// translate maps release host errors to package errors.
func translate(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w", rateErr.Message, ErrUnexpectedStatus)
	}

	var respErr *gh.ErrorResponse
	if !errors.As(err, &respErr) || respErr.Response == nil {
		return err
	}

	switch status := respErr.Response.StatusCode; {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", respErr.Message, ErrUnauthorized)
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnprocessableEntity && hasCode(respErr, "already_exists"):
		return ErrReleaseExists
	case status == http.StatusUnprocessableEntity && respErr.Message == "Reference does not exist":
		return ErrNotFound
	default:
		return fmt.Errorf("%d %s: %w", status, respErr.Message, ErrUnexpectedStatus)
	}
}

func hasCode(respErr *gh.ErrorResponse, code string) bool {
	for _, e := range respErr.Errors {
		if e.Code == code {
			return true
		}
	}

	return false
}

// endpoint parses a root URL, which go-github requires to end with a slash.
func endpoint(raw string) (*url.URL, error) {
	return url.Parse(strings.TrimSuffix(raw, "/") + "/")
}

func toRelease(in *gh.RepositoryRelease) *release.Release {
	rel := &release.Release{
		ID:         in.GetID(),
		TagName:    in.GetTagName(),
		Name:       in.GetName(),
		Body:       in.GetBody(),
		Draft:      in.GetDraft(),
		Prerelease: in.GetPrerelease(),
		HTMLURL:    in.GetHTMLURL(),
		UploadURL:  in.GetUploadURL(),
		CreatedAt:  in.GetCreatedAt().Time,
		Assets:     make([]release.Asset, 0, len(in.Assets)),
	}

	for _, asset := range in.Assets {
		rel.Assets = append(rel.Assets, toAsset(asset))
	}

	return rel
}

func toAsset(in *gh.ReleaseAsset) release.Asset {
	return release.Asset{
		ID:          in.GetID(),
		Name:        in.GetName(),
		ContentType: in.GetContentType(),
		Size:        int64(in.GetSize()),
		DownloadURL: in.GetBrowserDownloadURL(),
		APIURL:      in.GetURL(),
	}
}
