package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Blob layout (all integers little-endian):
//
//	magic   [4]byte  "SGIX"
//	version uint16   currently 1
//	class   uint8    1 = exact, 2 = linear
//	count   uint32   number of entries
//	entries count × (uint32 hash len, hash bytes, uint32 payload len, payload bytes)
//
// The format encodes the entry list only, never live objects, so blobs stay
// stable across releases. It is private to sigex's own read/write pair, not a
// wire contract with other systems.

var blobMagic = [4]byte{'S', 'G', 'I', 'X'}

const (
	blobVersion = 1

	classTagExact  = 1
	classTagLinear = 2

	// maxFieldLen bounds a single hash or payload so a corrupt length
	// prefix cannot drive a giant allocation.
	maxFieldLen = 1 << 20
)

func writeBlob(w io.Writer, class Class, entries []Entry) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(blobMagic[:]); err != nil {
		return err
	}
	var tag uint8
	switch class {
	case ClassExact:
		tag = classTagExact
	case ClassLinear:
		tag = classTagLinear
	default:
		return errUnknownClass(class)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(blobVersion)); err != nil {
		return err
	}
	if err := bw.WriteByte(tag); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeField(bw, e.Hash); err != nil {
			return err
		}
		if err := writeField(bw, e.Payload); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeField(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

// Deserialize reconstructs an index from a blob written by Serialize. cmp is
// bound to the result if the blob holds a linear index and is ignored
// otherwise. Malformed or foreign bytes fail with ErrCorruptIndex — a blob
// either loads completely or not at all.
func Deserialize(r io.Reader, cmp CompareFunc) (Index, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrCorruptIndex, err)
	}
	if magic != blobMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptIndex, magic[:])
	}
	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: cannot read version: %v", ErrCorruptIndex, err)
	}
	if version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, version)
	}
	tag, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read class tag: %v", ErrCorruptIndex, err)
	}
	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: cannot read entry count: %v", ErrCorruptIndex, err)
	}

	// The count is untrusted input: never pre-allocate from it, or a corrupt
	// blob could demand gigabytes before the first entry read fails.
	var entries []Entry
	for i := uint32(0); i < count; i++ {
		hash, err := readField(br)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d hash: %v", ErrCorruptIndex, i, err)
		}
		payload, err := readField(br)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d payload: %v", ErrCorruptIndex, i, err)
		}
		entries = append(entries, Entry{Hash: hash, Payload: payload})
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing bytes after %d entries", ErrCorruptIndex, count)
	}

	switch tag {
	case classTagExact:
		idx := NewExact()
		idx.Add(entries)
		return idx, nil
	case classTagLinear:
		idx := NewLinear(cmp)
		idx.Add(entries)
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown class tag %d", ErrCorruptIndex, tag)
	}
}

func readField(r *bufio.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxFieldLen {
		return "", fmt.Errorf("field length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
