package module

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotWasm means the file does not start with the WebAssembly magic number.
	ErrNotWasm = errors.New("not a WebAssembly binary")
	// ErrUnsupportedVersion means the binary format version is not 1.
	ErrUnsupportedVersion = errors.New("unsupported WebAssembly version")
)

var wasmMagic = []byte{0x00, 'a', 's', 'm'}

const (
	wasmVersion   = 1
	exportSection = 7
)

// ExportKind is the kind of an exported entity.
type ExportKind byte

const (
	ExportFunc   ExportKind = 0
	ExportTable  ExportKind = 1
	ExportMemory ExportKind = 2
	ExportGlobal ExportKind = 3
)

func (k ExportKind) String() string {
	switch k {
	case ExportFunc:
		return "func"
	case ExportTable:
		return "table"
	case ExportMemory:
		return "memory"
	case ExportGlobal:
		return "global"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Export is one entry of the binary's export section.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// ParseExports reads the export section of a WebAssembly binary. Only the
// section headers are walked; function bodies are skipped.
func ParseExports(data []byte) ([]Export, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], wasmMagic) {
		return nil, ErrNotWasm
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != wasmVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	r := bytes.NewReader(data[8:])
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		if int64(size) > int64(r.Len()) {
			return nil, fmt.Errorf("section %d: %w", id, io.ErrUnexpectedEOF)
		}
		if id != exportSection {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		return parseExportSection(bytes.NewReader(body))
	}
	return nil, nil
}

func parseExportSection(r *bytes.Reader) ([]Export, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("export count: %w", err)
	}
	// An entry is at least a name length, a kind and an index byte.
	if int64(count) > int64(r.Len())/3 {
		return nil, fmt.Errorf("export count %d exceeds section size: %w", count, io.ErrUnexpectedEOF)
	}
	exports := make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("export %d name length: %w", i, err)
		}
		if int64(n) > int64(r.Len()) {
			return nil, fmt.Errorf("export %d name: %w", i, io.ErrUnexpectedEOF)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("export %q kind: %w", name, err)
		}
		idx, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("export %q index: %w", name, err)
		}
		exports = append(exports, Export{Name: string(name), Kind: ExportKind(kind), Index: idx})
	}
	return exports, nil
}

// readU32 decodes an unsigned LEB128 value of at most 32 bits.
func readU32(r io.ByteReader) (uint32, error) {
	var result uint32
	for shift := uint(0); shift < 35; shift += 7 {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, errors.New("LEB128 value overflows u32")
}
