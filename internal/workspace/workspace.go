package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oshokin/release-packager/internal/logger"
	"github.com/oshokin/release-packager/internal/toolchain"
)

// ErrSourceUnreachable means the repository contents could not be obtained.
var ErrSourceUnreachable = errors.New("source unreachable")

// tempPattern names workspace directories under the system temp dir.
const tempPattern = "release-packager-"

// Workspace is an ephemeral checkout exclusively owned by one run.
type Workspace struct {
	// Dir is the checkout root.
	Dir string
	// root is the temp directory holding Dir.
	root string
}

// Checkout acquires a clean copy of source. Git URLs are cloned with runner;
// local directories are copied without .git and the excluded top-level names.
// The checkout directory is always named "source" so nothing downstream
// depends on the repository's own name.
func Checkout(ctx context.Context, runner toolchain.Runner, source, ref string, exclude []string) (*Workspace, error) {
	root, err := os.MkdirTemp("", tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	ws := &Workspace{
		Dir:  filepath.Join(root, "source"),
		root: root,
	}

	if IsRemote(source) {
		err = clone(ctx, runner, source, ref, ws.Dir)
	} else {
		err = copyTree(source, ws.Dir, exclude)
	}

	if err != nil {
		_ = ws.Discard()

		return nil, fmt.Errorf("%s: %w: %w", source, ErrSourceUnreachable, err)
	}

	logger.InfoKV(ctx, "Workspace ready", "source", source, "dir", ws.Dir)

	return ws, nil
}

// Path joins elem onto the workspace root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Discard removes the workspace and everything built inside it.
func (w *Workspace) Discard() error {
	if w == nil || w.root == "" {
		return nil
	}

	return os.RemoveAll(w.root)
}

// IsRemote reports whether source should be cloned rather than copied.
func IsRemote(source string) bool {
	return strings.Contains(source, "://") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasSuffix(source, ".git")
}

func clone(ctx context.Context, runner toolchain.Runner, source, ref, dst string) error {
	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}

	args = append(args, source, dst)

	if _, err := runner.Run(ctx, filepath.Dir(dst), "git", args...); err != nil {
		return err
	}

	return os.RemoveAll(filepath.Join(dst, ".git"))
}

// copyTree copies src into dst, skipping .git and top-level names in exclude.
func copyTree(src, dst string, exclude []string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if rel != "." && skipped(rel, entry, exclude) {
			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case entry.IsDir():
			return os.MkdirAll(target, 0o755)
		case entry.Type().IsRegular():
			return copyFile(path, target)
		default:
			// Symlinks and special files are not part of a distributable checkout.
			return nil
		}
	})
}

func skipped(rel string, entry fs.DirEntry, exclude []string) bool {
	if entry.Name() == ".git" {
		return true
	}

	// Only top-level names are excluded so nested packages named "build" survive.
	return !strings.ContainsRune(rel, filepath.Separator) && slices.Contains(exclude, rel)
}

// copyFile copies one regular file keeping its permission bits.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
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

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// CopyFile copies src to dst keeping permission bits.
func CopyFile(src, dst string) error {
	return copyFile(src, dst)
}
