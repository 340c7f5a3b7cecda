package pck

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EmbedPCK appends a finalized PCK to dst, which already holds embedPos
// bytes of an executable template, then writes the embedded-PCK trailer
// (u64 pck_size, u32 magic) after padding so the trailer lands at a
// position satisfying (pos - embed_pos + 12) % 8 == 0, matching the
// loader's expectation that the trailer's own 12 bytes bring the stream
// back to an 8-byte-aligned offset relative to embed_pos.
func EmbedPCK(dst io.Writer, embedPos uint64, pw *PackWriter) (pckSize uint64, trailerPos uint64, err error) {
	cw := &countingWriter{w: dst}

	if _, err := pw.Finalize(cw); err != nil {
		return 0, 0, err
	}

	padLen := embedTrailerPad(uint64(cw.n))
	if padLen > 0 {
		if _, err := cw.Write(make([]byte, padLen)); err != nil {
			return 0, 0, fmt.Errorf("pck: writing trailer alignment padding: %w", err)
		}
	}
	pckSize = uint64(cw.n)

	trailerPos = embedPos + uint64(cw.n)

	if err := binary.Write(cw, binary.LittleEndian, pckSize); err != nil {
		return 0, 0, fmt.Errorf("pck: writing trailer size: %w", err)
	}
	if err := binary.Write(cw, binary.LittleEndian, Magic); err != nil {
		return 0, 0, fmt.Errorf("pck: writing trailer magic: %w", err)
	}
	return pckSize, trailerPos, nil
}

// embedTrailerPad returns the number of zero bytes needed, after rel bytes
// of PCK content have been written past embed_pos, so that writing the
// 12-byte trailer afterward satisfies (pos - embed_pos + 12) % 8 == 0.
func embedTrailerPad(rel uint64) int {
	rem := (rel + embeddedTrailerSize) % 8
	if rem == 0 {
		return 0
	}
	return int(8 - rem)
}

// LocateEmbedded reads the trailing 12 bytes of an executable-with-embedded-
// PCK file (size bytes total, r must support seeking to arbitrary offsets
// via ReadAt) and returns the byte range of the embedded PCK: [embedPos,
// embedPos+pckSize). It returns ErrNotEmbedded if the trailer's magic
// doesn't match.
func LocateEmbedded(r io.ReaderAt, size int64) (embedPos uint64, pckSize uint64, err error) {
	if size < embeddedTrailerSize {
		return 0, 0, ErrNotEmbedded
	}
	trailer := make([]byte, embeddedTrailerSize)
	if _, err := r.ReadAt(trailer, size-embeddedTrailerSize); err != nil {
		return 0, 0, fmt.Errorf("pck: reading trailer: %w", err)
	}
	pckSize = binary.LittleEndian.Uint64(trailer[0:8])
	magic := binary.LittleEndian.Uint32(trailer[8:12])
	if magic != Magic {
		return 0, 0, ErrNotEmbedded
	}
	if pckSize+embeddedTrailerSize > uint64(size) {
		return 0, 0, fmt.Errorf("pck: %w: recorded size exceeds file size", ErrCorruptPCK)
	}
	embedPos = uint64(size) - embeddedTrailerSize - pckSize
	return embedPos, pckSize, nil
}
