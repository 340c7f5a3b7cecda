package pck

import "errors"

var (
	// ErrNotEmbedded is returned when a file does not end in a valid
	// embedded-PCK trailer.
	ErrNotEmbedded = errors.New("pck: no embedded PCK trailer found")
	// ErrCorruptPCK is returned when a header or directory fails a
	// structural sanity check (bad magic, truncated directory, offsets
	// that run past the declared size).
	ErrCorruptPCK = errors.New("pck: corrupt PCK data")
	// ErrWrongKey is returned when directory decryption produces a
	// structurally invalid directory, the only signal available that an
	// AES-256-CFB key was wrong (the cipher itself cannot detect this).
	ErrWrongKey = errors.New("pck: directory did not decrypt to valid structure (wrong key?)")
)
