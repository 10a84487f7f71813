package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdcsync.lock")
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("lock file not written: %v", err)
	}
	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire should report ErrLocked, got %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("lock file should be removed")
	}
}

func TestAcquireRemovesStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdcsync.lock")
	// PIDs this large are never allocated on Linux.
	if err := os.WriteFile(path, []byte(strconv.Itoa(1<<30)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("stale lock should be replaced: %v", err)
	}
	_ = l.Release()
}

func TestAcquireRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdcsync.lock")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Acquire(path); err == nil {
		t.Fatalf("expected error for corrupt lock file")
	}
}

func TestReleaseNil(t *testing.T) {
	var l *LockFile
	if err := l.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}
