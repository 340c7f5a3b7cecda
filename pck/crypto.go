package pck

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// encryptWriter streams plaintext through AES-256-CFB into an underlying
// io.Writer. It is the "black-box streaming writer" spec.md treats the
// encryption primitive as: a plain io.WriteCloser composed around the
// destination, fallible only at construction time (bad key geometry or a
// failed IV write).
type encryptWriter struct {
	stream cipher.Stream
	dst    io.Writer
}

// newEncryptWriter constructs an AES-256-CFB writer over dst using key. The
// IV is generated fresh and written as a cleartext prefix, matching the
// conventional CFB framing: readers must consume it before decrypting.
func newEncryptWriter(dst io.Writer, key [32]byte) (io.WriteCloser, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("pck: initializing AES cipher: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("pck: generating IV: %w", err)
	}
	if _, err := dst.Write(iv); err != nil {
		return nil, fmt.Errorf("pck: writing IV: %w", err)
	}
	return &encryptWriter{
		stream: cipher.NewCFBEncrypter(block, iv),
		dst:    dst,
	}, nil
}

func (w *encryptWriter) Write(p []byte) (int, error) {
	out := make([]byte, len(p))
	w.stream.XORKeyStream(out, p)
	return w.dst.Write(out)
}

// Close is a no-op: the underlying writer's lifetime is owned by the
// caller, not by this wrapper.
func (w *encryptWriter) Close() error { return nil }

// newDecryptReader mirrors newEncryptWriter for the read side: it consumes
// the leading IV from src and returns a reader that decrypts the remainder.
func newDecryptReader(src io.Reader, key [32]byte) (io.Reader, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("pck: initializing AES cipher: %w", err)
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return nil, fmt.Errorf("pck: reading IV: %w", err)
	}
	stream := cipher.NewCFBDecrypter(block, iv)
	return &cipher.StreamReader{S: stream, R: src}, nil
}
