package pck

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// countingWriter wraps an io.Writer and tracks the number of bytes written
// through it, the same small helper the teacher uses (deb/repository.go) to
// learn a stream's current position without a seek.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// PackOptions configures a PackWriter's encryption behavior.
type PackOptions struct {
	// EncPck, when true, allows individual file bodies to be encrypted
	// per EncIncludeFilter/EncExcludeFilter.
	EncPck bool
	// EncDirectory, when true (and EncPck is also true), wraps the
	// directory block in AES-256-CFB.
	EncDirectory bool
	// Key is the AES-256 key used for both body and directory encryption.
	Key [32]byte
	// EncIncludeFilter/EncExcludeFilter decide, per spec.md §4.7 step 2,
	// which bodies get encrypted: includes are applied first, then
	// excludes, so a file matched by both ends up NOT encrypted.
	EncIncludeFilter GlobList
	EncExcludeFilter GlobList
	// PadSource supplies the random padding bytes written after each
	// body and after the directory block. It defaults to crypto/rand.
	// Tests substitute a zero-byte source to make output byte-for-byte
	// reproducible (spec.md §8 R2).
	PadSource io.Reader
}

// PackWriter implements the two-pass PCK emission described in spec.md
// §4.7: bodies are staged to a temp file while a directory is accumulated
// in memory, then the header, (optionally encrypted) directory, and bodies
// are streamed to the destination in a single forward pass.
type PackWriter struct {
	opts    PackOptions
	temp    *os.File
	tempPos int64
	entries []Entry
	closed  bool
}

// NewPackWriter creates a PackWriter backed by a fresh temp file. Finalize
// or Abort must be called to guarantee the temp file is cleaned up, per
// spec.md I7.
func NewPackWriter(opts PackOptions) (*PackWriter, error) {
	if opts.PadSource == nil {
		opts.PadSource = rand.Reader
	}
	f, err := os.CreateTemp("", "gdpack-body-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("pck: creating temp body file: %w", err)
	}
	return &PackWriter{opts: opts, temp: f}, nil
}

// Add stages one payload's body into the temp file and records its
// directory entry. Encryption is decided per step 2 of spec.md §4.7:
// include-filter match turns it on, a subsequent exclude-filter match turns
// it back off (I6).
func (pw *PackWriter) Add(path string, data []byte) error {
	encrypted := false
	if pw.opts.EncPck {
		if pw.opts.EncIncludeFilter.Match(path) {
			encrypted = true
		}
		if pw.opts.EncExcludeFilter.Match(path) {
			encrypted = false
		}
	}

	sum := md5Of(data)
	startOfs := pw.tempPos

	cw := &countingWriter{w: pw.temp}
	var dst io.Writer = cw
	var encCloser io.WriteCloser
	if encrypted {
		ew, err := newEncryptWriter(cw, pw.opts.Key)
		if err != nil {
			return fmt.Errorf("pck: setting up encryption for %s: %w", path, err)
		}
		encCloser = ew
		dst = ew
	}
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("pck: writing body for %s: %w", path, err)
	}
	if encCloser != nil {
		_ = encCloser.Close()
	}

	onDisk := cw.n
	pw.tempPos += onDisk

	if err := pw.padTemp(); err != nil {
		return err
	}

	flags := uint32(0)
	if encrypted {
		flags |= FlagFileEncrypted
	}
	pw.entries = append(pw.entries, Entry{
		Path:     path,
		BodyOfs:  uint64(startOfs),
		Size:     uint64(len(data)),
		MD5:      sum,
		Flags:    flags,
		OnDiskOf: uint64(onDisk),
	})
	return nil
}

// padTemp pads the temp file up to the next 16-byte boundary with bytes
// drawn from opts.PadSource, per spec.md §4.7 step 4.
func (pw *PackWriter) padTemp() error {
	n := pad(BodyAlignment, int(pw.tempPos))
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(pw.opts.PadSource, buf); err != nil {
		return fmt.Errorf("pck: generating body padding: %w", err)
	}
	if _, err := pw.temp.Write(buf); err != nil {
		return fmt.Errorf("pck: writing body padding: %w", err)
	}
	pw.tempPos += int64(n)
	return nil
}

// Finalize writes the complete PCK (header, directory, bodies) to dst in a
// single forward pass and removes the temp file. dst needs to be nothing
// more than an io.Writer: because the directory is built in memory first,
// files_base is known before any byte of the header is emitted, so no
// backward seek is ever required.
//
// r_embedded_start/r_embedded_size are not reported here; embedding is
// handled by embed.go, which calls Finalize with dst positioned at the
// append point and reports those out-parameters itself.
func (pw *PackWriter) Finalize(dst io.Writer) (pckSize int64, err error) {
	defer pw.cleanup()

	sortEntries(pw.entries)

	dirBuf := &bytes.Buffer{}
	if err := pw.writeDirectoryBlock(dirBuf); err != nil {
		return 0, err
	}

	dirBytes := dirBuf.Bytes()
	if pw.opts.EncPck && pw.opts.EncDirectory {
		dirBytes, err = pw.encryptDirectory(dirBytes)
		if err != nil {
			return 0, err
		}
	}

	// Pad so that files_base itself (header + directory + padding) is
	// 16-aligned, not merely the directory length.
	padAfterDir := make([]byte, pad(BodyAlignment, headerFixedSize+len(dirBytes)))
	if _, err := io.ReadFull(pw.opts.PadSource, padAfterDir); err != nil {
		return 0, fmt.Errorf("pck: generating directory padding: %w", err)
	}

	filesBase := uint64(headerFixedSize + len(dirBytes) + len(padAfterDir))

	cw := &countingWriter{w: dst}
	if err := pw.writeHeader(cw, filesBase); err != nil {
		return 0, err
	}
	if _, err := cw.Write(dirBytes); err != nil {
		return 0, fmt.Errorf("pck: writing directory: %w", err)
	}
	if _, err := cw.Write(padAfterDir); err != nil {
		return 0, fmt.Errorf("pck: writing directory padding: %w", err)
	}

	if _, err := pw.temp.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("pck: rewinding temp body file: %w", err)
	}
	buf := make([]byte, 16*1024)
	if _, err := io.CopyBuffer(cw, pw.temp, buf); err != nil {
		return 0, fmt.Errorf("pck: copying bodies: %w", err)
	}

	return cw.n, nil
}

// writeHeader writes the fixed-layout header described in spec.md §6.1.
func (pw *PackWriter) writeHeader(w io.Writer, filesBase uint64) error {
	packFlags := uint32(0)
	if pw.opts.EncPck && pw.opts.EncDirectory {
		packFlags |= FlagDirEncrypted
	}

	fields := []any{
		Magic,
		FormatVersion,
		EngineVersionMajor,
		EngineVersionMinor,
		EngineVersionPatch,
		packFlags,
		filesBase,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("pck: writing header: %w", err)
		}
	}
	reserved := make([]uint32, reservedWords)
	if err := binary.Write(w, binary.LittleEndian, reserved); err != nil {
		return fmt.Errorf("pck: writing reserved header words: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(pw.entries))); err != nil {
		return fmt.Errorf("pck: writing file count: %w", err)
	}
	return nil
}

// writeDirectoryBlock writes every directory entry, in sorted order, to w.
func (pw *PackWriter) writeDirectoryBlock(w io.Writer) error {
	for _, e := range pw.entries {
		if err := writeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

// encryptDirectory returns plain under AES-256-CFB using the pack key.
func (pw *PackWriter) encryptDirectory(plain []byte) ([]byte, error) {
	out := &bytes.Buffer{}
	ew, err := newEncryptWriter(out, pw.opts.Key)
	if err != nil {
		return nil, fmt.Errorf("pck: encrypting directory: %w", err)
	}
	if _, err := ew.Write(plain); err != nil {
		return nil, fmt.Errorf("pck: encrypting directory: %w", err)
	}
	_ = ew.Close()
	return out.Bytes(), nil
}

// Abort discards the writer without producing output, still removing the
// temp file (I7, and spec.md §5's "cancelled build leaves no artifacts").
func (pw *PackWriter) Abort() {
	pw.cleanup()
}

func (pw *PackWriter) cleanup() {
	if pw.closed {
		return
	}
	pw.closed = true
	name := pw.temp.Name()
	_ = pw.temp.Close()
	_ = os.Remove(name)
}
