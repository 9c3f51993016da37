package instance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "daemon.lock")
	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if pid, ok := Holder(path); !ok || pid != os.Getpid() {
		t.Fatalf("expected our pid in lock file, got %d (%v)", pid, ok)
	}

	if _, err := Acquire(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("lock file should be removed, stat err = %v", err)
	}

	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	defer again.Release()
}

func TestHolderIgnoresGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")
	if err := os.WriteFile(path, []byte("not a pid"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := Holder(path); ok {
		t.Fatalf("garbage must not parse as a pid")
	}
}

func TestReleaseNil(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}

func TestDefaultPathUsesRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("USER", "me")
	if got, want := DefaultPath(), "/run/user/1000/hyprland-autoname-workspaces-me.lock"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
