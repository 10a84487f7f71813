// Package lockfile serializes mutating mdcsync commands that share a data root.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
)

// ErrLocked is wrapped by Acquire when a live process holds the lock.
var ErrLocked = errors.New("lock held by another process")

// LockFile is an exclusive PID file.
type LockFile struct {
	path string
	file *os.File
}

// Acquire creates the lock file at path. A lock left behind by a dead
// process is removed and acquisition is retried once.
func Acquire(path string) (*LockFile, error) {
	l, err := create(path)
	if err == nil || !os.IsExist(err) {
		return l, err
	}
	if err := clearStale(path); err != nil {
		return nil, err
	}
	l, err = create(path)
	if os.IsExist(err) {
		return nil, fmt.Errorf("lock file %s was recreated by another process: %w", path, ErrLocked)
	}
	return l, err
}

func create(path string) (*LockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write PID to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to sync lock file: %w", err)
	}
	return &LockFile{path: path, file: f}, nil
}

// clearStale returns nil only if the existing lock was stale and removed.
func clearStale(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("lock file exists but cannot be read: %s\nRemove it manually if no other instance is running: rm %s", path, path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("lock file contains invalid PID: %s\nRemove it manually if corrupted: rm %s", path, path)
	}
	if processExists(pid) {
		return friendlyerrors.NewFriendlyError(
			fmt.Sprintf("mdcsync is already running (PID %d)", pid),
			fmt.Sprintf("Wait for the other command to finish, or remove the lock file if it is stale: rm %s", path),
		).WithDetails(ErrLocked)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stale lock file found (PID %d not running) but cannot be removed: %w\nRemove manually: rm %s", pid, err, path)
	}
	return nil
}

func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 probes liveness.
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone) {
		return false
	}
	// EPERM: it exists but belongs to someone else
	return true
}

// Release closes and removes the lock file. Safe to call on nil.
func (l *LockFile) Release() error {
	if l == nil {
		return nil
	}
	if l.file != nil {
		_ = l.file.Close()
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (l *LockFile) Path() string {
	return l.path
}
