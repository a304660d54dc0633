package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.wasm")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o600))

	arts := []Artifact{
		{Name: "binary", Path: present},
		{Name: "loader", Path: filepath.Join(dir, "a.js")},
	}
	missing, ok := FirstMissing(arts)
	require.True(t, ok)
	require.Equal(t, "loader", missing.Name)

	_, ok = FirstMissing(arts[:1])
	require.False(t, ok)
}

func TestDigestFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0o600))

	d, err := DigestFile(p)
	require.NoError(t, err)
	require.Equal(t, int64(3), d.Size)
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d.SHA256)

	_, err = DigestFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
