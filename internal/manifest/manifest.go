// Package manifest records what a successful build produced.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	ggit "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/wasmdev/internal/artifact"
)

// FileName is the manifest file written next to the application shell.
const FileName = "build-manifest.json"

// BuildManifest describes one successful build.
type BuildManifest struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Mode      string         `json:"mode"`
	Commit    string         `json:"commit,omitempty"`
	Stages    []string       `json:"stages"`
	Duration  int64          `json:"duration_ms"`
	Artifacts []ArtifactHash `json:"artifacts"`
}

// ArtifactHash fingerprints one file of the distribution directory.
type ArtifactHash struct {
	Name string `json:"name"`
	artifact.Digest
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// AddFiles hashes the regular files in paths and records them by base name.
// Directories and missing paths are skipped.
func (m *BuildManifest) AddFiles(paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		d, err := artifact.DigestFile(p)
		if err != nil {
			return err
		}
		m.Artifacts = append(m.Artifacts, ArtifactHash{Name: filepath.Base(p), Digest: d})
	}
	sort.Slice(m.Artifacts, func(i, j int) bool { return m.Artifacts[i].Name < m.Artifacts[j].Name })
	return nil
}

// Write stores the manifest as dir/build-manifest.json via a temp file and rename.
func (m *BuildManifest) Write(dir string) (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, FileName)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return "", fmt.Errorf("create manifest: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename manifest: %w", err)
	}
	return dst, nil
}

// Read loads dir/build-manifest.json.
func Read(dir string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// ErrNoRepository means the project is not inside a git working tree.
var ErrNoRepository = errors.New("not a git repository")

// HeadCommit returns the commit checked out in the repository containing root.
// Parent directories are searched for .git.
func HeadCommit(root string) (string, error) {
	repo, err := ggit.PlainOpenWithOptions(root, &ggit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, ggit.ErrRepositoryNotExists) {
			return "", ErrNoRepository
		}
		return "", fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
