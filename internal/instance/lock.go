// Package instance keeps a single daemon per user session.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	singleinstance "github.com/allan-simon/go-singleinstance"
	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is a held instance lock. Release it on shutdown.
type Lock struct {
	path string
	file *os.File
}

// DefaultPath returns the lock file location for the current user.
func DefaultPath() string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, fmt.Sprintf("hyprland-autoname-workspaces-%s.lock", os.Getenv("USER")))
}

// Acquire takes the lock at path. When another process holds it the error
// wraps ErrAlreadyRunning and names the holder's pid when known.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create lock dir")
	}
	file, err := singleinstance.CreateLockFile(path)
	if err != nil {
		if pid, ok := Holder(path); ok {
			return nil, errors.Wrapf(ErrAlreadyRunning, "pid %d holds %s", pid, path)
		}
		return nil, errors.Wrapf(ErrAlreadyRunning, "lock %s: %v", path, err)
	}
	return &Lock{path: path, file: file}, nil
}

// Holder reads the pid recorded in the lock file.
func Holder(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock and removes the file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return errors.Wrap(err, "release instance lock")
}
