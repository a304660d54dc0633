package module

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoader_InitOnceAndShare(t *testing.T) {
	path := writeWasm(t, fullExports()...)
	l := NewLoader(path)

	_, ok := l.Instance()
	require.False(t, ok, "no instance before Init")

	var wg sync.WaitGroup
	results := make([]*Instance, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Init(context.Background())
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.NoError(t, errs[i])
		require.Same(t, results[0], r)
	}

	// The binary changing on disk does not re-initialize.
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	again, err := l.Init(context.Background())
	require.NoError(t, err)
	require.Same(t, results[0], again)

	inst, ok := l.Instance()
	require.True(t, ok)
	require.True(t, inst.Supports(RegionWorkspace))
	require.Empty(t, inst.MissingExports())
}

func TestLoader_FailedInitCanRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module_bg.wasm")
	l := NewLoader(path)

	_, err := l.Init(context.Background())
	require.Error(t, err)
	_, ok := l.Instance()
	require.False(t, ok)

	require.NoError(t, os.WriteFile(path, buildWasm(fullExports()...), 0o644))
	inst, err := l.Init(context.Background())
	require.NoError(t, err)
	require.NotNil(t, inst)
	require.EqualValues(t, len(buildWasm(fullExports()...)), inst.Digest.Size)
}

func TestLoader_CanceledContext(t *testing.T) {
	l := NewLoader(writeWasm(t, fullExports()...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Init(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInstance_MissingExports(t *testing.T) {
	l := NewLoader(writeWasm(t,
		Export{Name: "mount_workspace", Kind: ExportFunc},
		Export{Name: "unmount_workspace", Kind: ExportGlobal},
		Export{Name: "select_layer", Kind: ExportFunc},
	))
	inst, err := l.Init(context.Background())
	require.NoError(t, err)

	require.False(t, inst.Supports(RegionWorkspace), "a global is not a callable unmount")
	require.Equal(t, []string{"bring_to_front", "send_to_back", "test_wasm", "unmount_workspace", "update_selected_position"}, inst.MissingExports())
}
