package pck

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Entry is one directory record: a file's path, its location within the
// body region (relative to files_base, per spec.md §4.7 step 12's
// loader-relative scheme), its plaintext size, its plaintext MD5, and its
// flags.
type Entry struct {
	Path     string
	BodyOfs  uint64 // offset relative to files_base
	Size     uint64 // plaintext size
	MD5      [16]byte
	Flags    uint32
	OnDiskOf uint64 // bytes actually occupied on disk (IV + ciphertext when encrypted, else Size), before padding
}

// maxPathLen bounds a decoded path length field: a genuine resource path
// never approaches this, so anything larger signals a corrupt directory or
// (when the directory was encrypted) a wrong key.
const maxPathLen = 1 << 16

// Encrypted reports whether the ENCRYPTED bit is set.
func (e Entry) Encrypted() bool { return e.Flags&FlagFileEncrypted != 0 }

// sortEntries sorts entries by path_utf8 as raw bytes (I2), the ordering
// the loader's directory binary search relies on.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}

// writeEntry serializes one directory entry to w: a u32 padded path length,
// the NUL-padded path bytes, u64 offset, u64 size, 16-byte MD5, u32 flags.
func writeEntry(w io.Writer, e Entry) error {
	pathBytes := []byte(e.Path)
	padLen := pad(PathAlignment, len(pathBytes))
	totalLen := uint32(len(pathBytes) + padLen)

	if err := binary.Write(w, binary.LittleEndian, totalLen); err != nil {
		return fmt.Errorf("pck: writing path length: %w", err)
	}
	if _, err := w.Write(pathBytes); err != nil {
		return fmt.Errorf("pck: writing path: %w", err)
	}
	if padLen > 0 {
		if _, err := w.Write(make([]byte, padLen)); err != nil {
			return fmt.Errorf("pck: writing path padding: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, e.BodyOfs); err != nil {
		return fmt.Errorf("pck: writing offset: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, e.Size); err != nil {
		return fmt.Errorf("pck: writing size: %w", err)
	}
	if _, err := w.Write(e.MD5[:]); err != nil {
		return fmt.Errorf("pck: writing md5: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, e.Flags); err != nil {
		return fmt.Errorf("pck: writing flags: %w", err)
	}
	return nil
}

// readEntry deserializes one directory entry from r.
func readEntry(r io.Reader) (Entry, error) {
	var e Entry
	var pathLen uint32
	if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
		return e, fmt.Errorf("pck: reading path length: %w", err)
	}
	if pathLen > maxPathLen {
		return e, fmt.Errorf("pck: implausible path length %d", pathLen)
	}
	buf := make([]byte, pathLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return e, fmt.Errorf("pck: reading path: %w", err)
	}
	e.Path = trimNulString(buf)

	if err := binary.Read(r, binary.LittleEndian, &e.BodyOfs); err != nil {
		return e, fmt.Errorf("pck: reading offset: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &e.Size); err != nil {
		return e, fmt.Errorf("pck: reading size: %w", err)
	}
	if _, err := io.ReadFull(r, e.MD5[:]); err != nil {
		return e, fmt.Errorf("pck: reading md5: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &e.Flags); err != nil {
		return e, fmt.Errorf("pck: reading flags: %w", err)
	}
	return e, nil
}

func trimNulString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
