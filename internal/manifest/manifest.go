package manifest

import (
	"bytes"
	"crypto"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-packager/internal/distribution"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

var (
	// ErrNoDescription means the release body carries no description block.
	ErrNoDescription = errors.New("release body has no description")
	// ErrChecksumMismatch means a file does not match its recorded checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	errHashUnavailable = errors.New("hash function unavailable")
)

const (
	// ChecksumFunction hashes archives and distributed files.
	ChecksumFunction crypto.Hash = crypto.SHA512

	// VersionFile holds the application version inside the distribution.
	VersionFile = "package.json"

	// UnknownVersion is used when the version file has no version.
	UnknownVersion = "unknown"

	fenceOpen  = "```yaml"
	fenceClose = "```"
)

// Description is the machine-readable part of a release.
type Description struct {
	// Version is the application version from package.json.
	Version string `yaml:"version"`
	// Distribution is the top-level folder name inside the archive.
	Distribution string `yaml:"distribution"`
	// Executable is the built program inside the distribution folder.
	Executable string `yaml:"executable"`
	// Archive is the archive file name.
	Archive string `yaml:"archive"`
	// ArchiveChecksum is the base64 SHA-512 of the archive.
	ArchiveChecksum string `yaml:"archive_checksum"`
	// Files maps each distributed file to its base64 SHA-512.
	Files map[string]string `yaml:"files"`
}

// Build describes dist and the archive made from it.
func Build(dist *distribution.Distribution, archivePath string) (*Description, error) {
	desc := &Description{
		Version:      ReadVersion(filepath.Join(dist.Dir, VersionFile)),
		Distribution: dist.Name,
		Executable:   dist.Executable,
		Archive:      filepath.Base(archivePath),
		Files:        make(map[string]string, len(dist.Files)+1),
	}

	sum, err := Checksum(archivePath)
	if err != nil {
		return nil, err
	}

	desc.ArchiveChecksum = base64.StdEncoding.EncodeToString(sum)

	for _, name := range dist.Entries() {
		sum, err = Checksum(filepath.Join(dist.Dir, name))
		if err != nil {
			return nil, err
		}

		desc.Files[name] = base64.StdEncoding.EncodeToString(sum)
	}

	return desc, nil
}

// ReadVersion returns the "version" field of a package.json, or UnknownVersion.
func ReadVersion(path string) string {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return UnknownVersion
	}

	var pkg struct {
		Version string `json:"version"`
	}

	if err = json.Unmarshal(contents, &pkg); err != nil || strings.TrimSpace(pkg.Version) == "" {
		return UnknownVersion
	}

	return strings.TrimSpace(pkg.Version)
}

// Render formats desc as a release body: a short heading and a fenced YAML block.
func Render(desc *Description) (string, error) {
	contents, err := yaml.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("marshal description: %w", err)
	}

	var builder strings.Builder

	builder.WriteString("## ")
	builder.WriteString(desc.Distribution)
	builder.WriteString(" ")
	builder.WriteString(desc.Version)
	builder.WriteString("\n\nDownload ")
	builder.WriteString(desc.Archive)
	builder.WriteString(", unpack it and run the executable inside the folder.\n\n")
	builder.WriteString(fenceOpen)
	builder.WriteString("\n")
	builder.Write(contents)
	builder.WriteString(fenceClose)
	builder.WriteString("\n")

	return builder.String(), nil
}

// Parse extracts the description from a release body produced by Render.
func Parse(body string) (*Description, error) {
	_, rest, found := strings.Cut(body, fenceOpen+"\n")
	if !found {
		return nil, ErrNoDescription
	}

	block, _, found := strings.Cut(rest, fenceClose)
	if !found {
		return nil, ErrNoDescription
	}

	var desc Description
	if err := yaml.Unmarshal([]byte(block), &desc); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}

	return &desc, nil
}

// Checksum returns the SHA-512 of the file at path.
func Checksum(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// DecodeChecksum decodes a base64 checksum from a description.
func DecodeChecksum(encoded string) ([]byte, error) {
	sum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}

	return sum, nil
}

// VerifyFile compares the file at path against an encoded checksum.
func VerifyFile(path, encoded string) error {
	want, err := DecodeChecksum(encoded)
	if err != nil {
		return err
	}

	got, err := Checksum(path)
	if err != nil {
		return err
	}

	if !bytes.Equal(want, got) {
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrChecksumMismatch)
	}

	return nil
}
