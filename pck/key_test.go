package pck

import "testing"

func TestDecodeKeyExact(t *testing.T) {
	hex64 := "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	key := DecodeKey(hex64)
	if key[0] != 0x01 || key[1] != 0x02 || key[31] != 0x1f {
		t.Fatalf("unexpected decode: %v", key)
	}
}

func TestDecodeKeyShortIsZeroPadded(t *testing.T) {
	key := DecodeKey("ff")
	if key[0] != 0xff {
		t.Fatalf("first byte = %x, want ff", key[0])
	}
	for i := 1; i < 32; i++ {
		if key[i] != 0 {
			t.Fatalf("byte %d = %x, want 0", i, key[i])
		}
	}
}

func TestDecodeKeyInvalidCharsZeroNibble(t *testing.T) {
	// "zz" is not valid hex; both nibbles should decode to 0.
	key := DecodeKey("zz")
	if key[0] != 0 {
		t.Fatalf("byte 0 = %x, want 0 for invalid input", key[0])
	}
}

func TestDecodeKeyNeverErrors(t *testing.T) {
	// DecodeKey has no error return; this documents that contract against
	// garbage input of any length.
	_ = DecodeKey("")
	_ = DecodeKey("not hex at all, this is a whole sentence")
}
