package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLockTimeout indicates the build lock could not be acquired before the
// timeout expired.
var ErrLockTimeout = errors.New("build lock acquisition timed out")

// BuildLock serializes index builds across processes using flock(2).
// Exactly one build holds write access at a time; the lock is released
// automatically if the holding process exits or crashes.
type BuildLock struct {
	path string
	file *os.File
}

// NewBuildLock creates a build lock at the given path. The lock file and
// its parent directories are created on first acquisition.
func NewBuildLock(path string) *BuildLock {
	return &BuildLock{path: path}
}

// Acquire takes the exclusive lock, blocking until it is available, the
// timeout expires, or the context is canceled.
func (l *BuildLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := l.ensureFile(); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	pollInterval := 10 * time.Millisecond
	const maxPollInterval = 500 * time.Millisecond

	for {
		err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			l.release()
			return fmt.Errorf("flock failed: %w", err)
		}

		if time.Now().After(deadline) {
			l.release()
			return ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			l.release()
			return ctx.Err()
		case <-time.After(pollInterval):
			pollInterval = min(pollInterval*2, maxPollInterval)
		}
	}
}

// Release unlocks. Safe to call on an unlocked BuildLock.
func (l *BuildLock) Release() error {
	if l.file == nil {
		return nil
	}
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}
	return nil
}

// Path returns the lock file path.
func (l *BuildLock) Path() string {
	return l.path
}

func (l *BuildLock) ensureFile() error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}

func (l *BuildLock) release() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
