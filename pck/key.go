package pck

// DecodeKey parses a (nominally) 64-character lowercase hex string into a
// 32-byte AES-256 key. It is deliberately lenient: any character outside
// 0-9/a-f contributes a zero nibble instead of causing an error, and an
// input shorter than 64 characters leaves the remaining bytes zero. This
// mirrors how the reference pipeline tolerates a corrupt or truncated key
// in a preset file rather than aborting the whole build.
func DecodeKey(s string) [32]byte {
	var key [32]byte
	for i := 0; i < 32; i++ {
		hi := nibbleAt(s, 2*i)
		lo := nibbleAt(s, 2*i+1)
		key[i] = hi<<4 | lo
	}
	return key
}

// nibbleAt decodes the hex digit at position i in s, returning 0 for any
// position past the end of s or for a character that isn't a hex digit.
func nibbleAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	c := s[i]
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}
