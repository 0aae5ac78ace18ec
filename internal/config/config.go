package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
)

// Config is the release pipeline definition shared by all binaries.
type Config struct {
	// Trigger selects the events that start a run.
	Trigger pipeline.TriggerRule `yaml:"trigger"`
	// Source locates the repository to package.
	Source SourceConfig `yaml:"source"`
	// Runtime pins the interpreter used for the build.
	Runtime RuntimeConfig `yaml:"runtime"`
	// Build configures dependency installation and the packaging tool.
	Build BuildConfig `yaml:"build"`
	// Distribution names the output directory and its auxiliary files.
	Distribution DistributionConfig `yaml:"distribution"`
	// Artifact configures where the archive is kept for later pipeline steps.
	Artifact ArtifactConfig `yaml:"artifact"`
	// Release configures the remote release record and its asset.
	Release ReleaseConfig `yaml:"release"`
	// Server configures the trigger agent and its clients.
	Server ServerConfig `yaml:"server"`
	// History configures where run records are kept.
	History HistoryConfig `yaml:"history"`
}

// SourceConfig locates the repository contents.
type SourceConfig struct {
	// Path is a local directory or a git URL.
	Path string `yaml:"path"`
	// Ref is the branch or tag cloned from a git URL.
	Ref string `yaml:"ref,omitempty"`
	// Exclude lists top-level names skipped when copying a local directory.
	Exclude []string `yaml:"exclude,omitempty"`
	// LockFile guards against two runs sharing one source.
	LockFile string `yaml:"lock_file"`
}

// RuntimeConfig pins the language runtime.
type RuntimeConfig struct {
	// Interpreter is the executable looked up on PATH.
	Interpreter string `yaml:"interpreter"`
	// Version is a pattern such as 3.12.x, 3.x or 3.12.4.
	Version string `yaml:"version"`
	// SkipVenv installs into the interpreter directly instead of a workspace venv.
	SkipVenv bool `yaml:"skip_venv,omitempty"`
}

// BuildConfig configures the dependency install and the packaging tool.
type BuildConfig struct {
	// Tool is the pip package of the packaging tool.
	Tool string `yaml:"tool"`
	// ToolModule is the python module invoked with -m.
	ToolModule string `yaml:"tool_module"`
	// Manifest is the dependency manifest relative to the workspace.
	Manifest string `yaml:"manifest"`
	// EntryPoint is the program compiled into the executable.
	EntryPoint string `yaml:"entry_point"`
	// OutputDir receives the executable.
	OutputDir string `yaml:"output_dir"`
	// Executable is the executable name without platform extension.
	Executable string `yaml:"executable"`
	// ExtraArgs are appended to the packaging tool invocation.
	ExtraArgs []string `yaml:"extra_args,omitempty"`
	// Timeout bounds each external command.
	Timeout time.Duration `yaml:"timeout"`
}

// DistributionConfig describes the assembled directory.
type DistributionConfig struct {
	// Name is the fixed directory and archive name.
	Name string `yaml:"name"`
	// Files are copied from the workspace root next to the executable.
	Files []string `yaml:"files"`
}

// ArtifactConfig configures the pipeline-internal artifact store.
type ArtifactConfig struct {
	// Name is the artifact name, used as the storage key prefix.
	Name string `yaml:"name"`
	// Backend is file or s3.
	Backend string `yaml:"backend"`
	// Directory is the root of the file backend.
	Directory string `yaml:"directory,omitempty"`
	// S3 configures the s3 backend.
	S3 S3Config `yaml:"s3,omitempty"`
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Bucket   string `yaml:"bucket,omitempty"`
	Region   string `yaml:"region,omitempty"`
	UseSSL   bool   `yaml:"use_ssl,omitempty"`
	// AccessKey and SecretKey come from the environment only.
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// ReleaseConfig describes the remote release record.
type ReleaseConfig struct {
	// APIURL is the release host API root.
	APIURL string `yaml:"api_url"`
	// UploadURL is the root receiving release asset uploads.
	UploadURL string `yaml:"upload_url"`
	// Repository is owner/name on the release host.
	Repository string `yaml:"repository"`
	// Tag is the fixed release tag.
	Tag string `yaml:"tag"`
	// Title is the fixed release title.
	Title string `yaml:"title"`
	// TargetCommitish is the commit a newly created tag points at.
	TargetCommitish string `yaml:"target_commitish,omitempty"`
	// AssetName is the fixed asset name.
	AssetName string `yaml:"asset_name"`
	// ContentType is the asset media type.
	ContentType string `yaml:"content_type"`
	// Timeout bounds each API call; asset uploads and downloads get ten times as long.
	Timeout time.Duration `yaml:"timeout"`
	// Token authenticates against the release host. Environment only.
	Token string `yaml:"-"`
}

// ServerConfig configures the trigger agent.
type ServerConfig struct {
	// Address is the gRPC address clients dial and the agent listens on.
	Address string `yaml:"address"`
	// Timeout bounds trigger calls from clients.
	Timeout time.Duration `yaml:"timeout"`
	// OIDCIssuer enables bearer token verification when set.
	OIDCIssuer string `yaml:"oidc_issuer,omitempty"`
	// OIDCAudience is the expected token audience.
	OIDCAudience string `yaml:"oidc_audience,omitempty"`
	// Token is the bearer token clients send. Environment only.
	Token string `yaml:"-"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	// File is the YAML history file used without a database.
	File string `yaml:"file"`
	// Limit caps the records kept in the file.
	Limit int `yaml:"limit"`
	// DatabaseURL selects the PostgreSQL backend. Environment only.
	DatabaseURL string `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default pipeline definition file.
	DefaultConfigFilename = "release-packager.yaml"

	// DefaultFilePermissions is used for the config and history files.
	DefaultFilePermissions = 0o600

	// BackendFile stores artifacts in a local directory.
	BackendFile = "file"
	// BackendS3 stores artifacts in an S3-compatible bucket.
	BackendS3 = "s3"

	// Environment variables holding secrets.
	EnvReleaseToken   = "GITHUB_TOKEN"
	EnvS3AccessKey    = "RELEASE_PACKAGER_S3_ACCESS_KEY"
	EnvS3SecretKey    = "RELEASE_PACKAGER_S3_SECRET_KEY"
	EnvDatabaseURL    = "RELEASE_PACKAGER_DATABASE_URL"
	EnvTriggerToken   = "RELEASE_TRIGGER_TOKEN"
	defaultBuildLimit = 30 * time.Minute
)

var (
	errConfigIsNotSet      = errors.New("configuration is not set")
	errSourceRequired      = errors.New("source path must be provided")
	errRepositoryFormat    = errors.New("release repository must look like owner/name")
	errBadFileName         = errors.New("distribution file must be a plain file name")
	errDuplicateFile       = errors.New("distribution file listed twice")
	errUnknownBackend      = errors.New("unknown artifact backend")
	errS3Incomplete        = errors.New("s3 backend needs endpoint and bucket")
	errBadVersionPattern   = errors.New("runtime version pattern is invalid")
	errFixedFieldsRequired = errors.New("release tag, title and asset name must be set")
)

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := new(Config)
	cfg.Source.Path = "."
	cfg.Release.Repository = "owner/repository"

	applyDefaults(cfg)

	return cfg
}

// Load reads, completes from the environment and validates the configuration at path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyEnvironment(&cfg)

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path. Secrets are never written.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// ApplyEnvironment copies secrets from the environment into cfg.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvReleaseToken); v != "" {
		cfg.Release.Token = v
	}

	if v := os.Getenv(EnvS3AccessKey); v != "" {
		cfg.Artifact.S3.AccessKey = v
	}

	if v := os.Getenv(EnvS3SecretKey); v != "" {
		cfg.Artifact.S3.SecretKey = v
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.History.DatabaseURL = v
	}

	if v := os.Getenv(EnvTriggerToken); v != "" {
		cfg.Server.Token = v
	}
}

// Validate fills defaults into cfg and checks it.
//
//nolint:cyclop // One flat list of checks reads better than several helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if strings.TrimSpace(cfg.Source.Path) == "" {
		return errSourceRequired
	}

	if _, err := ParseVersionPattern(cfg.Runtime.Version); err != nil {
		return err
	}

	if err := validateFiles(cfg.Distribution.Files); err != nil {
		return err
	}

	if owner, name, ok := strings.Cut(cfg.Release.Repository, "/"); !ok || owner == "" || name == "" ||
		strings.Contains(name, "/") {
		return fmt.Errorf("%q: %w", cfg.Release.Repository, errRepositoryFormat)
	}

	if cfg.Release.Tag == "" || cfg.Release.Title == "" || cfg.Release.AssetName == "" {
		return errFixedFieldsRequired
	}

	if _, err := url.ParseRequestURI(cfg.Release.APIURL); err != nil {
		return fmt.Errorf("invalid release API URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.Release.UploadURL); err != nil {
		return fmt.Errorf("invalid release upload URL: %w", err)
	}

	switch cfg.Artifact.Backend {
	case BackendFile:
	case BackendS3:
		if cfg.Artifact.S3.Endpoint == "" || cfg.Artifact.S3.Bucket == "" {
			return errS3Incomplete
		}
	default:
		return fmt.Errorf("%q: %w", cfg.Artifact.Backend, errUnknownBackend)
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.Server.Address); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.Server.OIDCIssuer != "" {
		if _, err := url.ParseRequestURI(cfg.Server.OIDCIssuer); err != nil {
			return fmt.Errorf("invalid OIDC issuer: %w", err)
		}
	}

	return nil
}

// applyDefaults fills every unset field.
//
//nolint:cyclop,funlen // A flat list of defaults.
func applyDefaults(cfg *Config) {
	setDefault(&cfg.Trigger.Event, pipeline.EventPullRequest)
	setDefault(&cfg.Trigger.Branch, "master")

	setDefault(&cfg.Source.LockFile, "release-packager.lock")

	if cfg.Source.Exclude == nil {
		cfg.Source.Exclude = []string{"dist", "build", "__pycache__", ".venv"}
	}

	setDefault(&cfg.Runtime.Interpreter, "python3")
	setDefault(&cfg.Runtime.Version, "3.12.x")

	setDefault(&cfg.Build.Tool, "pyinstaller")
	setDefault(&cfg.Build.ToolModule, "PyInstaller")
	setDefault(&cfg.Build.Manifest, "requirements.txt")
	setDefault(&cfg.Build.EntryPoint, "main.py")
	setDefault(&cfg.Build.OutputDir, "dist")
	setDefault(&cfg.Build.Executable, "main")

	if cfg.Build.Timeout <= 0 {
		cfg.Build.Timeout = defaultBuildLimit
	}

	setDefault(&cfg.Distribution.Name, "GameUpdater")

	if len(cfg.Distribution.Files) == 0 {
		cfg.Distribution.Files = []string{"config.json", "LICENSE", "README.md", "package.json"}
	}

	setDefault(&cfg.Artifact.Name, cfg.Distribution.Name)
	setDefault(&cfg.Artifact.Backend, BackendFile)

	if cfg.Artifact.Backend == BackendFile {
		setDefault(&cfg.Artifact.Directory, "artifacts")
	}

	setDefault(&cfg.Release.APIURL, "https://api.github.com")
	setDefault(&cfg.Release.UploadURL, "https://uploads.github.com")
	setDefault(&cfg.Release.Tag, "v1.0.0")
	setDefault(&cfg.Release.Title, "Game Updater")
	setDefault(&cfg.Release.AssetName, cfg.Distribution.Name+".zip")
	setDefault(&cfg.Release.ContentType, "application/zip")

	if cfg.Release.Timeout <= 0 {
		cfg.Release.Timeout = 30 * time.Second
	}

	setDefault(&cfg.Server.Address, "127.0.0.1:50061")

	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = time.Hour
	}

	setDefault(&cfg.History.File, "release-packager-history.yaml")

	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 100
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// IsPlainName reports whether name is a single path element that stays
// inside the folder it is joined to.
func IsPlainName(name string) bool {
	return name != "" && name == filepath.Base(name) && name != "." && name != ".."
}

func validateFiles(files []string) error {
	seen := make([]string, 0, len(files))

	for _, name := range files {
		if !IsPlainName(name) {
			return fmt.Errorf("%q: %w", name, errBadFileName)
		}

		if slices.Contains(seen, name) {
			return fmt.Errorf("%q: %w", name, errDuplicateFile)
		}

		seen = append(seen, name)
	}

	return nil
}
