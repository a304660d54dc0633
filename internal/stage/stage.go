// Package stage places compiled artifacts where their consumers expect them.
//
// Staging is copy-based (never a symbolic link) and idempotent: an existing
// file or link at the destination is replaced, so a previous session's artifact
// can neither block staging nor shadow a freshly compiled one.
package stage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
)

// Copier stages a single artifact into a directory and returns the destination path.
type Copier interface {
	Stage(src, dstDir string) (string, error)
}

// Stager is the filesystem Copier.
type Stager struct{}

// New returns a filesystem stager.
func New() *Stager { return &Stager{} }

// Stage copies src into dstDir under the same base name. dstDir is created
// recursively. Failures are reported as StagingFailed.
func (s *Stager) Stage(src, dstDir string) (string, error) {
	dst := filepath.Join(dstDir, filepath.Base(src))

	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", werrors.StagingFailed(dst, fmt.Errorf("source artifact: %w", err))
	}
	if !srcInfo.Mode().IsRegular() {
		return "", werrors.StagingFailed(dst, fmt.Errorf("source artifact %s is not a regular file", src))
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", werrors.StagingFailed(dst, fmt.Errorf("create destination directory: %w", err))
	}

	tmp, err := copyToTemp(src, dstDir, srcInfo.Mode().Perm())
	if err != nil {
		return "", werrors.StagingFailed(dst, err)
	}

	if err := removeExisting(dst); err != nil {
		_ = os.Remove(tmp)
		return "", werrors.StagingFailed(dst, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", werrors.StagingFailed(dst, fmt.Errorf("promote staged copy: %w", err))
	}

	slog.Debug("Staged artifact", logfields.Path(dst), "source", src, "bytes", srcInfo.Size())
	return dst, nil
}

// removeExisting deletes a regular file or symbolic link occupying dst.
// Directories are never removed.
func removeExisting(dst string) error {
	info, err := os.Lstat(dst)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect destination: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("destination %s is a directory", dst)
	}
	if info.Mode()&os.ModeSymlink != 0 || info.Mode().IsRegular() {
		slog.Debug("Removing previously staged artifact", logfields.Path(dst), "symlink", info.Mode()&os.ModeSymlink != 0)
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("remove previous artifact: %w", err)
		}
		return nil
	}
	return fmt.Errorf("destination %s is not a regular file or symlink", dst)
}

// copyToTemp copies src into a temp file inside dir so the final rename stays
// on one filesystem.
func copyToTemp(src, dir string, perm os.FileMode) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.CreateTemp(dir, ".stage-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("preserve permissions: %w", err)
	}
	return tmp, nil
}
