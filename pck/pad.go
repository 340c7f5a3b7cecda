package pck

import "crypto/md5"

// pad returns the number of bytes needed to round n up to the next multiple
// of align. align must be a positive power of two for the caller's
// alignments (16 and 4); the formula holds for any positive align.
func pad(align, n int) int {
	return (align - n%align) % align
}

// md5Of returns the MD5 digest of data. Callers hash the plaintext body
// before any encryption is applied, per the directory entry's md5 field
// contract.
func md5Of(data []byte) [16]byte {
	return md5.Sum(data)
}
