package stage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/wasmdev/internal/logfields"
)

// ErrLocked indicates another dev session holds the staging lock.
var ErrLocked = errors.New("staging lock held by another session")

// Lock is a session-scoped lock file giving one dev session exclusive write
// access to the static-asset directory.
type Lock struct {
	path string
}

// AcquireLock creates the lock file exclusively. With force, an existing lock
// (for example left behind by a killed session) is broken first.
func AcquireLock(path string, force bool) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	l, err := tryLock(path)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	holder := readHolder(path)
	if !force {
		return nil, fmt.Errorf("%w (%s, holder: %s); pass --force-lock if that session is gone", ErrLocked, path, holder)
	}

	slog.Warn("Breaking existing staging lock", logfields.Path(path), "holder", holder)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("break lock: %w", err)
	}
	l, err = tryLock(path)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrLocked, path, err)
	}
	return l, nil
}

func tryLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	_, werr := fmt.Fprintf(f, "pid=%d started=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, errors.Join(werr, cerr)
	}
	return &Lock{path: path}, nil
}

func readHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(data))
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
