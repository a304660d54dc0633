package module

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func section(id byte, body []byte) []byte {
	return append(append([]byte{id}, uleb(uint32(len(body)))...), body...)
}

// buildWasm assembles a minimal module: a custom section followed by an export section.
func buildWasm(exports ...Export) []byte {
	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
	custom := append(uleb(4), []byte("name")...)
	custom = append(custom, 0xde, 0xad, 0xbe, 0xef)
	out = append(out, section(0, custom)...)

	body := uleb(uint32(len(exports)))
	for _, e := range exports {
		body = append(body, uleb(uint32(len(e.Name)))...)
		body = append(body, e.Name...)
		body = append(body, byte(e.Kind))
		body = append(body, uleb(e.Index)...)
	}
	return append(out, section(exportSection, body)...)
}

func writeWasm(t *testing.T, exports ...Export) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wasm_layer_system_bg.wasm")
	require.NoError(t, os.WriteFile(path, buildWasm(exports...), 0o644))
	return path
}

func fullExports() []Export {
	exports := []Export{
		{Name: "memory", Kind: ExportMemory},
		{Name: "mount_workspace", Kind: ExportFunc, Index: 1},
		{Name: "unmount_workspace", Kind: ExportFunc, Index: 2},
	}
	for i, name := range ControlExports {
		exports = append(exports, Export{Name: name, Kind: ExportFunc, Index: uint32(200 + i)})
	}
	return exports
}

func TestParseExports(t *testing.T) {
	want := fullExports()
	got, err := ParseExports(buildWasm(want...))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestParseExports_NoExportSection(t *testing.T) {
	got, err := ParseExports([]byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestParseExports_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrNotWasm},
		{"javascript", []byte("export default function init() {}"), ErrNotWasm},
		{"version 2", []byte{0x00, 'a', 's', 'm', 0x02, 0x00, 0x00, 0x00}, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExports(tt.data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseExports_Truncated(t *testing.T) {
	data := buildWasm(fullExports()...)
	_, err := ParseExports(data[:len(data)-3])
	require.Error(t, err)
}

func TestExportKindString(t *testing.T) {
	require.Equal(t, "func", ExportFunc.String())
	require.Equal(t, "memory", ExportMemory.String())
	require.Equal(t, "kind(9)", ExportKind(9).String())
}

func TestParseExports_CountLargerThanSection(t *testing.T) {
	data := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00, 0x07, 0x05, 0xff, 0xff, 0xff, 0xff, 0x0f}

	_, err := ParseExports(data)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
