package pck

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"fmt"
	"io"
)

// Header is the parsed fixed-layout PCK header.
type Header struct {
	FormatVersion uint32
	EngineMajor   uint32
	EngineMinor   uint32
	EnginePatch   uint32
	PackFlags     uint32
	FilesBase     uint64
	FileCount     uint32
}

// DirEncrypted reports whether the directory block is AES-encrypted.
func (h Header) DirEncrypted() bool { return h.PackFlags&FlagDirEncrypted != 0 }

// Reader parses an on-disk (or embedded) PCK: its header, its directory, and
// on demand, individual file bodies. It is the read-side counterpart to
// PackWriter, used by inspection tooling and by the round-trip tests that
// exercise I1 and I5.
type Reader struct {
	src     io.ReaderAt
	base    int64 // absolute offset of the PCK's own header within src
	Header  Header
	entries []Entry
	byPath  map[string]int
}

// OpenPCK parses the PCK header and directory starting at base within src.
// key is only needed, and only consulted, when the directory turns out to
// be encrypted; pass a zero key when the caller doesn't expect encryption
// and is prepared for ErrWrongKey.
func OpenPCK(src io.ReaderAt, base int64, key [32]byte) (*Reader, error) {
	fixed := make([]byte, headerFixedSize)
	if _, err := src.ReadAt(fixed, base); err != nil {
		return nil, fmt.Errorf("pck: reading header: %w", err)
	}
	br := bytes.NewReader(fixed)

	var magic uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("pck: %w: bad magic", ErrCorruptPCK)
	}

	var h Header
	for _, f := range []*uint32{&h.FormatVersion, &h.EngineMajor, &h.EngineMinor, &h.EnginePatch, &h.PackFlags} {
		if err := binary.Read(br, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	if err := binary.Read(br, binary.LittleEndian, &h.FilesBase); err != nil {
		return nil, err
	}
	if _, err := br.Seek(int64(reservedWords)*4, io.SeekCurrent); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &h.FileCount); err != nil {
		return nil, err
	}

	if h.FilesBase < uint64(headerFixedSize) {
		return nil, fmt.Errorf("pck: %w: files_base precedes header", ErrCorruptPCK)
	}

	dirLen := int64(h.FilesBase) - headerFixedSize
	dirBytes := make([]byte, dirLen)
	if _, err := src.ReadAt(dirBytes, base+headerFixedSize); err != nil {
		return nil, fmt.Errorf("pck: reading directory: %w", err)
	}

	var dirStream io.Reader = bytes.NewReader(dirBytes)
	if h.DirEncrypted() {
		dr, err := newDecryptReader(bytes.NewReader(dirBytes), key)
		if err != nil {
			return nil, err
		}
		dirStream = dr
	}

	entries := make([]Entry, 0, h.FileCount)
	for i := uint32(0); i < h.FileCount; i++ {
		e, err := readEntry(dirStream)
		if err != nil {
			if h.DirEncrypted() {
				return nil, fmt.Errorf("%w: %v", ErrWrongKey, err)
			}
			return nil, fmt.Errorf("pck: %w: truncated directory: %v", ErrCorruptPCK, err)
		}
		entries = append(entries, e)
	}
	if h.DirEncrypted() && !validEntries(entries) {
		return nil, ErrWrongKey
	}

	byPath := make(map[string]int, len(entries))
	for i, e := range entries {
		byPath[e.Path] = i
	}

	return &Reader{src: src, base: base, Header: h, entries: entries, byPath: byPath}, nil
}

// validEntries applies a cheap structural sanity check used to detect a
// wrong decryption key: paths must be non-empty, printable-ish, and sorted,
// since a genuine directory always satisfies I2.
func validEntries(entries []Entry) bool {
	prev := ""
	for _, e := range entries {
		if e.Path == "" {
			return false
		}
		for _, r := range e.Path {
			if r < 0x09 || r == 0x7f {
				return false
			}
		}
		if e.Path < prev {
			return false
		}
		prev = e.Path
	}
	return true
}

// Entries returns the parsed directory, in on-disk (sorted) order.
func (r *Reader) Entries() []Entry { return r.entries }

// Lookup returns the entry for path, if present.
func (r *Reader) Lookup(path string) (Entry, bool) {
	i, ok := r.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// ReadBody returns the plaintext body for e, decrypting it with key if
// needed.
func (r *Reader) ReadBody(e Entry, key [32]byte) ([]byte, error) {
	diskLen := int64(e.Size)
	if e.Encrypted() {
		diskLen += aes.BlockSize
	}
	buf := make([]byte, diskLen)
	at := r.base + int64(r.Header.FilesBase) + int64(e.BodyOfs)
	if _, err := r.src.ReadAt(buf, at); err != nil {
		return nil, fmt.Errorf("pck: reading body for %s: %w", e.Path, err)
	}
	if !e.Encrypted() {
		return buf, nil
	}
	dr, err := newDecryptReader(bytes.NewReader(buf), key)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, e.Size)
	if _, err := io.ReadFull(dr, plain); err != nil {
		return nil, fmt.Errorf("pck: decrypting body for %s: %w", e.Path, err)
	}
	return plain, nil
}
