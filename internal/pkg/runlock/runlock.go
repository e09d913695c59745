// Package runlock keeps two runs from writing the same archive directory or
// report at once.
package runlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is a non-blocking, process-exclusive lock.
type Lock interface {
	// Acquire tries to take the lock. It reports false if another process
	// holds it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock back.
	Release(ctx context.Context) error
}

// FileLock is an advisory lock on a file next to the protected output. The
// OS drops it if the process dies.
type FileLock struct {
	path string
	lock *flock.Flock
}

// New creates a lock on path. The file is created on Acquire.
func New(path string) *FileLock {
	return &FileLock{path: path, lock: flock.New(path)}
}

// ForDir returns the lock guarding a directory.
func ForDir(dir string) *FileLock {
	return New(filepath.Join(dir, ".mcarchive.lock"))
}

// ForFile returns the lock guarding a single output file.
func ForFile(path string) *FileLock {
	return New(path + ".lock")
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire tries the lock once without blocking.
func (l *FileLock) Acquire(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("creating lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	return ok, nil
}

// Release unlocks. The lock file stays on disk.
func (l *FileLock) Release(ctx context.Context) error {
	if !l.lock.Locked() {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
