// Package githubtest serves an in-memory GitHub releases API for tests.
package githubtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Asset is a stored upload.
type Asset struct {
	ID          int64
	Name        string
	ContentType string
	Data        []byte
}

// Release is a stored release record.
type Release struct {
	ID              int64
	TagName         string
	Name            string
	Body            string
	Draft           bool
	Prerelease      bool
	TargetCommitish string
	CreatedAt       time.Time
	Assets          []*Asset
}

// Server imitates the releases endpoints of one repository.
type Server struct {
	*httptest.Server

	// Owner and Repo name the only repository served.
	Owner string
	Repo  string
	// Token, when set, must be presented as a bearer token on every request.
	Token string
	// FailUploads makes every asset upload answer 500.
	FailUploads bool
	// AssetContentType overrides the content type served on download.
	AssetContentType string
	// TransferDelay holds every asset upload and download before it is answered.
	TransferDelay time.Duration

	mu       sync.Mutex
	nextID   int64
	releases []*Release
	tags     map[string]struct{}
	requests []*http.Request
	bodies   []string
}

// NewServer starts a server for owner/repo and stops it with the test.
func NewServer(t *testing.T, owner, repo string) *Server {
	t.Helper()

	s := &Server{
		Owner:  owner,
		Repo:   repo,
		nextID: 1,
		tags:   make(map[string]struct{}),
	}

	prefix := "/repos/" + owner + "/" + repo

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/releases", s.createRelease)
	mux.HandleFunc("GET "+prefix+"/releases", s.listReleases)
	mux.HandleFunc("GET "+prefix+"/releases/latest", s.latestRelease)
	mux.HandleFunc("GET "+prefix+"/releases/tags/{tag}", s.releaseByTag)
	mux.HandleFunc("DELETE "+prefix+"/releases/{id}", s.deleteRelease)
	mux.HandleFunc("GET "+prefix+"/releases/assets/{id}", s.downloadAsset)
	mux.HandleFunc("DELETE "+prefix+"/git/refs/tags/{tag}", s.deleteTag)
	mux.HandleFunc("POST /uploads"+prefix+"/releases/{id}/assets", s.uploadAsset)
	mux.HandleFunc("GET /downloads/{id}", s.serveAsset)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)

	return s
}

// Repository returns owner/repo.
func (s *Server) Repository() string {
	return s.Owner + "/" + s.Repo
}

// UploadURL returns the root asset uploads are sent to.
func (s *Server) UploadURL() string {
	return s.URL + "/uploads"
}

// Releases returns a snapshot of the stored releases.
func (s *Server) Releases() []Release {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Release, 0, len(s.releases))
	for _, rel := range s.releases {
		out = append(out, *rel)
	}

	return out
}

// AddRelease stores a release with one asset, as if created earlier.
func (s *Server) AddRelease(tag, body, assetName, contentType string, data []byte) Release {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel := &Release{
		ID:        s.id(),
		TagName:   tag,
		Name:      tag,
		Body:      body,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if assetName != "" {
		rel.Assets = append(rel.Assets, &Asset{ID: s.id(), Name: assetName, ContentType: contentType, Data: data})
	}

	s.releases = append(s.releases, rel)
	s.tags[tag] = struct{}{}

	return *rel
}

// HasTag reports whether the tag reference exists.
func (s *Server) HasTag(tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tags[tag]

	return ok
}

// Requests returns every received request in order.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

// Bodies returns every received JSON request body.
func (s *Server) Bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.bodies)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		s.mu.Unlock()

		// Downloads imitate pre-signed storage URLs and carry no credential.
		if strings.HasPrefix(r.URL.Path, "/downloads/") {
			next.ServeHTTP(w, r)

			return
		}

		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) createRelease(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TagName         string `json:"tag_name"`
		Name            string `json:"name"`
		Body            string `json:"body"`
		Draft           bool   `json:"draft"`
		Prerelease      bool   `json:"prerelease"`
		TargetCommitish string `json:"target_commitish"`
	}

	raw, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.bodies = append(s.bodies, string(raw))
	s.mu.Unlock()

	if err := json.Unmarshal(raw, &req); err != nil || req.TagName == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]string{{"resource": "Release", "field": "tag_name", "code": "missing_field"}},
		})

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByTag(req.TagName) != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]string{{"resource": "Release", "field": "tag_name", "code": "already_exists"}},
		})

		return
	}

	rel := &Release{
		ID:              s.id(),
		TagName:         req.TagName,
		Name:            req.Name,
		Body:            req.Body,
		Draft:           req.Draft,
		Prerelease:      req.Prerelease,
		TargetCommitish: req.TargetCommitish,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}

	s.releases = append(s.releases, rel)
	s.tags[rel.TagName] = struct{}{}

	writeJSON(w, http.StatusCreated, s.payload(rel))
}

func (s *Server) listReleases(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.releases))
	for i := len(s.releases) - 1; i >= 0; i-- {
		out = append(out, s.payload(s.releases[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) latestRelease(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.releases) - 1; i >= 0; i-- {
		if rel := s.releases[i]; !rel.Draft && !rel.Prerelease {
			writeJSON(w, http.StatusOK, s.payload(rel))

			return
		}
	}

	notFound(w)
}

func (s *Server) releaseByTag(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel := s.findByTag(r.PathValue("tag"))
	if rel == nil {
		notFound(w)

		return
	}

	writeJSON(w, http.StatusOK, s.payload(rel))
}

func (s *Server) deleteRelease(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rel := range s.releases {
		if rel.ID == id {
			s.releases = slices.Delete(s.releases, i, i+1)
			w.WriteHeader(http.StatusNoContent)

			return
		}
	}

	notFound(w)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[tag]; !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference does not exist"})

		return
	}

	delete(s.tags, tag)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadAsset(w http.ResponseWriter, r *http.Request) {
	if s.FailUploads {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "upload failed"})

		return
	}

	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	name := r.URL.Query().Get("name")
	data, _ := io.ReadAll(r.Body)

	if !s.hold(r) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rel := range s.releases {
		if rel.ID != id {
			continue
		}

		for _, existing := range rel.Assets {
			if existing.Name == name {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"message": "Validation Failed",
					"errors":  []map[string]string{{"resource": "ReleaseAsset", "field": "name", "code": "already_exists"}},
				})

				return
			}
		}

		asset := &Asset{ID: s.id(), Name: name, ContentType: r.Header.Get("Content-Type"), Data: data}
		rel.Assets = append(rel.Assets, asset)

		writeJSON(w, http.StatusCreated, s.assetPayload(asset))

		return
	}

	notFound(w)
}

func (s *Server) downloadAsset(w http.ResponseWriter, r *http.Request) {
	asset := s.findAsset(r.PathValue("id"))
	if asset == nil {
		notFound(w)

		return
	}

	if !strings.Contains(r.Header.Get("Accept"), "application/octet-stream") {
		writeJSON(w, http.StatusOK, s.assetPayload(asset))

		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/downloads/%d", s.URL, asset.ID), http.StatusFound)
}

// serveAsset plays the storage host the API redirects downloads to.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	asset := s.findAsset(r.PathValue("id"))
	if asset == nil {
		notFound(w)

		return
	}

	if !s.hold(r) {
		return
	}

	contentType := asset.ContentType
	if s.AssetContentType != "" {
		contentType = s.AssetContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Data)))
	_, _ = w.Write(asset.Data)
}

// hold waits TransferDelay and reports whether the client is still there.
func (s *Server) hold(r *http.Request) bool {
	if s.TransferDelay <= 0 {
		return true
	}

	timer := time.NewTimer(s.TransferDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

func (s *Server) findAsset(rawID string) *Asset {
	id, _ := strconv.ParseInt(rawID, 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rel := range s.releases {
		for _, asset := range rel.Assets {
			if asset.ID == id {
				return asset
			}
		}
	}

	return nil
}

func (s *Server) findByTag(tag string) *Release {
	for _, rel := range s.releases {
		if rel.TagName == tag {
			return rel
		}
	}

	return nil
}

func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++

	return id
}

func (s *Server) payload(rel *Release) map[string]any {
	assets := make([]map[string]any, 0, len(rel.Assets))
	for _, asset := range rel.Assets {
		assets = append(assets, s.assetPayload(asset))
	}

	return map[string]any{
		"id":               rel.ID,
		"tag_name":         rel.TagName,
		"name":             rel.Name,
		"body":             rel.Body,
		"draft":            rel.Draft,
		"prerelease":       rel.Prerelease,
		"target_commitish": rel.TargetCommitish,
		"created_at":       rel.CreatedAt.Format(time.RFC3339),
		"html_url":         fmt.Sprintf("%s/%s/%s/releases/tag/%s", s.URL, s.Owner, s.Repo, rel.TagName),
		"upload_url":       fmt.Sprintf("%s/uploads/repos/%s/%s/releases/%d/assets{?name,label}", s.URL, s.Owner, s.Repo, rel.ID),
		"assets":           assets,
	}
}

func (s *Server) assetPayload(asset *Asset) map[string]any {
	return map[string]any{
		"id":                   asset.ID,
		"name":                 asset.Name,
		"content_type":         asset.ContentType,
		"size":                 len(asset.Data),
		"url":                  fmt.Sprintf("%s/repos/%s/%s/releases/assets/%d", s.URL, s.Owner, s.Repo, asset.ID),
		"browser_download_url": fmt.Sprintf("%s/%s/%s/releases/download/%d/%s", s.URL, s.Owner, s.Repo, asset.ID, asset.Name),
	}
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
