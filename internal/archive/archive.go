package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrUnexpectedLayout means the archive entries differ from the expected layout.
	ErrUnexpectedLayout = errors.New("unexpected archive layout")
	// ErrUnsafePath means an entry would be written outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
	// ErrNotZip means the file is not a zip archive.
	ErrNotZip = errors.New("not a zip archive")
)

// Extension is appended to the distribution name to form the archive name.
const Extension = ".zip"

// epoch is stamped on every entry so timestamps never leak into the archive.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// zipMagic starts every non-empty zip file.
var zipMagic = []byte("PK\x03\x04")

// Create zips the regular files of srcDir into dst, all under rootName/.
// Entries are sorted and carry a fixed timestamp, so the output depends only
// on file names, modes and contents.
func Create(srcDir, dst, rootName string) error {
	names, err := regularFiles(srcDir)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	writer := zip.NewWriter(out)

	for _, name := range names {
		if err = addFile(writer, filepath.Join(srcDir, name), path.Join(rootName, filepath.ToSlash(name))); err != nil {
			_ = writer.Close()
			_ = out.Close()
			_ = os.Remove(dst)

			return fmt.Errorf("add %s: %w", name, err)
		}
	}

	if err = writer.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)

		return fmt.Errorf("finish archive: %w", err)
	}

	return out.Close()
}

func addFile(writer *zip.Writer, src, name string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: epoch,
	}

	mode := fs.FileMode(0o644)
	if info.Mode().Perm()&0o111 != 0 {
		mode = 0o755
	}

	header.SetMode(mode)

	entry, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	_, err = io.Copy(entry, in)

	return err
}

// regularFiles returns the sorted relative paths of regular files under dir.
func regularFiles(dir string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		names = append(names, rel)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	slices.Sort(names)

	return names, nil
}

// List returns the names of file entries in the archive, in archive order.
func List(archivePath string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", archivePath, ErrNotZip, err)
	}

	defer func() {
		_ = reader.Close()
	}()

	names := make([]string, 0, len(reader.File))

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		names = append(names, file.Name)
	}

	return names, nil
}

// VerifyLayout checks that the archive holds exactly files, each directly
// under rootName/.
func VerifyLayout(archivePath, rootName string, files []string) error {
	names, err := List(archivePath)
	if err != nil {
		return err
	}

	want := make([]string, 0, len(files))
	for _, file := range files {
		want = append(want, rootName+"/"+file)
	}

	slices.Sort(want)
	slices.Sort(names)

	if !slices.Equal(names, want) {
		return fmt.Errorf("want %v, got %v: %w", want, names, ErrUnexpectedLayout)
	}

	return nil
}

// IsZip reports whether the file at path opens as a zip archive.
func IsZip(archivePath string) bool {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return false
	}

	defer func() {
		_ = file.Close()
	}()

	magic := make([]byte, len(zipMagic))
	if _, err = io.ReadFull(file, magic); err != nil || !bytes.Equal(magic, zipMagic) {
		return false
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return false
	}

	_ = reader.Close()

	return true
}

// ExtractOption tunes Extract.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	stripRoot bool
}

// StripRoot drops the first path element of every entry.
func StripRoot() ExtractOption {
	return func(o *extractOptions) {
		o.stripRoot = true
	}
}

// Extract unpacks the archive into dst and returns the written file paths.
func Extract(archivePath, dst string, opts ...ExtractOption) ([]string, error) {
	var options extractOptions
	for _, opt := range opts {
		opt(&options)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", archivePath, ErrNotZip, err)
	}

	defer func() {
		_ = reader.Close()
	}()

	var written []string

	for _, file := range reader.File {
		name := file.Name
		if options.stripRoot {
			_, rest, found := strings.Cut(name, "/")
			if !found || rest == "" {
				continue
			}

			name = rest
		}

		target, err := safeJoin(dst, name)
		if err != nil {
			return written, err
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return written, err
			}

			continue
		}

		if err = extractFile(file, target); err != nil {
			return written, fmt.Errorf("extract %s: %w", file.Name, err)
		}

		written = append(written, target)
	}

	return written, nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil { //nolint:gosec // Size is bounded by the release asset.
		_ = out.Close()

		return err
	}

	return out.Close()
}

// safeJoin resolves name under dst, rejecting absolute paths and parent escapes.
func safeJoin(dst, name string) (string, error) {
	if path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}

	target := filepath.Join(dst, filepath.FromSlash(name))

	rel, err := filepath.Rel(dst, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}

	return target, nil
}
