// Package lock guards against two daemons claiming the same instrument.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDLock is a single-instance lock implemented via a PID file + flock(2).
// The lock stays held for as long as the file descriptor stays open.
type PIDLock struct {
	path string
	f    *os.File
}

// Acquire takes an exclusive non-blocking lock at lockPath and records the
// current PID in it. If another daemon already holds the lock, the error
// names its PID when it can be read.
func Acquire(lockPath string) (*PIDLock, error) {
	if lockPath == "" {
		return nil, fmt.Errorf("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := readHolderPID(lockPath)
		_ = f.Close()
		if holder > 0 {
			return nil, fmt.Errorf("another instance (pid %d) holds %s: %w", holder, lockPath, err)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}

	if err := stampPID(f); err != nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		return nil, err
	}

	return &PIDLock{path: lockPath, f: f}, nil
}

func stampPID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

func readHolderPID(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0
	}
	return pid
}

// Path reports where the lock file lives.
func (l *PIDLock) Path() string { return l.path }

// Release drops the lock. Safe to call on a nil or already-released lock.
func (l *PIDLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}
