package pck

import (
	"archive/zip"
	"fmt"
	"io"
)

// ZipWriter is the plain-ZIP alternative to PackWriter: no custom header, no
// directory encryption, no embedding, just a standard DEFLATE archive whose
// entries carry the same resource paths a PCK would use. It exists for
// presets that choose the ZIP export mode over the native PCK format.
type ZipWriter struct {
	zw *zip.Writer
}

// NewZipWriter wraps dst in a *zip.Writer.
func NewZipWriter(dst io.Writer) *ZipWriter {
	return &ZipWriter{zw: zip.NewWriter(dst)}
}

// Add writes one entry. Paths are stored exactly as given; callers are
// expected to have already stripped any "res://" prefix, the same
// normalization PackWriter's caller performs.
func (zwr *ZipWriter) Add(path string, data []byte) error {
	w, err := zwr.zw.CreateHeader(&zip.FileHeader{
		Name:   path,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("pck: creating zip entry %s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("pck: writing zip entry %s: %w", path, err)
	}
	return nil
}

// Close flushes the central directory. It must be called exactly once,
// after every Add, for the archive to be valid.
func (zwr *ZipWriter) Close() error {
	return zwr.zw.Close()
}
