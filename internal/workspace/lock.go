package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
)

// ErrLocked means another live process holds the lock.
var ErrLocked = errors.New("another pipeline run holds the lock")

const (
	// markerGrace is how long an empty marker is taken to belong to a run
	// that has created it and not yet written its PID.
	markerGrace = 5 * time.Second
	// markerReads is how many times an incomplete marker is read again.
	markerReads = 5
	// markerReadDelay separates the reads of an incomplete marker.
	markerReadDelay = 20 * time.Millisecond
)

// Lock is a PID marker file preventing two runs over the same source.
type Lock struct {
	path string
}

// AcquireLock creates the marker at path. A marker left by a process that is
// no longer running is treated as stale and replaced. A marker without a PID
// is held until it is older than markerGrace.
func AcquireLock(ctx context.Context, path string) (*Lock, error) {
	path = filepath.Clean(path)

	for range 2 {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, config.DefaultFilePermissions)
		if err == nil {
			_, err = file.WriteString(strconv.Itoa(os.Getpid()))
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}

			if err != nil {
				_ = os.Remove(path)

				return nil, fmt.Errorf("write lock: %w", err)
			}

			return &Lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		pid, alive, err := holder(ctx, path)
		if err != nil {
			return nil, err
		}

		if alive {
			return nil, fmt.Errorf("%s held by pid %d: %w", path, pid, ErrLocked)
		}

		logger.WarnKV(ctx, "Removing stale lock", "path", path, "pid", pid)

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	return nil, fmt.Errorf("%s: %w", path, ErrLocked)
}

// Release removes the marker.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// holder reads the PID in the marker and reports whether that process still
// runs. A marker still being written is read again a few times and counts as
// held while it is fresh.
func holder(ctx context.Context, path string) (int, bool, error) {
	for attempt := range markerReads {
		contents, err := os.ReadFile(path)
		if err != nil {
			return 0, false, nil
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
		if err == nil && pid > 0 {
			process, findErr := ps.FindProcess(pid)

			return pid, findErr == nil && process != nil, nil
		}

		if attempt == markerReads-1 {
			break
		}

		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-time.After(markerReadDelay):
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, false, nil
	}

	return 0, time.Since(info.ModTime()) < markerGrace, nil
}
