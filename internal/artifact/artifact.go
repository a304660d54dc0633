// Package artifact describes files a stage promises to leave on disk.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Artifact is a produced file (or directory) expected after a stage completes.
type Artifact struct {
	Name string
	Path string
}

// Exists reports whether the artifact is present on disk.
func (a Artifact) Exists() bool {
	_, err := os.Stat(a.Path)
	return err == nil
}

// FirstMissing returns the first declared artifact that is absent.
func FirstMissing(arts []Artifact) (Artifact, bool) {
	for _, a := range arts {
		if !a.Exists() {
			return a, true
		}
	}
	return Artifact{}, false
}

// Digest is the content fingerprint of a regular file.
type Digest struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// DigestFile hashes the file at path.
func DigestFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return Digest{SHA256: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}
