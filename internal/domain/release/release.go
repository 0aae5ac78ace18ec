package release

import (
	"strings"
	"time"
)

// Asset is a binary attached to a release.
type Asset struct {
	// ID is the host-assigned asset identifier.
	ID int64
	// Name is the file name the asset is published under.
	Name string
	// ContentType is the media type declared on upload.
	ContentType string
	// Size is the asset size in bytes.
	Size int64
	// DownloadURL is the public browser download link.
	DownloadURL string
	// APIURL is the API endpoint that streams the asset bytes.
	APIURL string
}

// Release is a tagged, named entry on the release host.
type Release struct {
	// ID is the host-assigned release identifier.
	ID int64
	// TagName is the git tag the release points at.
	TagName string
	// Name is the release title.
	Name string
	// Body is the release description text.
	Body string
	// Draft releases are not publicly visible.
	Draft bool
	// Prerelease marks non-production releases.
	Prerelease bool
	// HTMLURL is the release web page.
	HTMLURL string
	// UploadURL is the endpoint (possibly an RFC 6570 template) for asset uploads.
	UploadURL string
	// CreatedAt is when the host created the record.
	CreatedAt time.Time
	// Assets lists the attached binaries.
	Assets []Asset
}

// FindAsset returns the asset named name. An empty name picks the first zip asset.
func (r *Release) FindAsset(name string) (*Asset, bool) {
	if r == nil {
		return nil, false
	}

	for i := range r.Assets {
		asset := &r.Assets[i]

		if name == "" && strings.HasSuffix(strings.ToLower(asset.Name), ".zip") {
			return asset, true
		}

		if name != "" && asset.Name == name {
			return asset, true
		}
	}

	return nil, false
}

// CreateRequest describes a release to create.
type CreateRequest struct {
	// TagName is the tag to create the release for.
	TagName string
	// Name is the release title.
	Name string
	// Body is the release description.
	Body string
	// Draft and Prerelease are the publication flags.
	Draft      bool
	Prerelease bool
	// TargetCommitish selects the commit a new tag points at; empty means the default branch.
	TargetCommitish string
}
