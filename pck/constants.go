package pck

// Magic is the four-byte magic number ("GDPC") that opens a PCK header and
// closes an embedded-PCK trailer.
const Magic uint32 = 0x43504447

// FormatVersion is the directory/header layout version this package reads
// and writes.
const FormatVersion uint32 = 2

// Engine version triple stamped into every PCK header. gdpack is not itself
// versioned against an engine release, so these identify the packer.
const (
	EngineVersionMajor uint32 = 1
	EngineVersionMinor uint32 = 0
	EngineVersionPatch uint32 = 0
)

// Pack-level flag bits (header.pack_flags).
const (
	FlagDirEncrypted uint32 = 1 << 0
)

// Per-file flag bits (directory entry flags).
const (
	FlagFileEncrypted uint32 = 1 << 0
)

// BodyAlignment is the padding granularity for file bodies within the pack.
const BodyAlignment = 16

// PathAlignment is the padding granularity for directory entry path fields.
const PathAlignment = 4

// reservedWords is the count of reserved uint32 words following files_base
// in the header.
const reservedWords = 16

// headerFixedSize is the size in bytes of the fixed-layout header, i.e.
// everything up to and including file_count, before the directory begins.
//
//	magic(4) + format_version(4) + major(4) + minor(4) + patch(4) +
//	pack_flags(4) + files_base(8) + reserved(16*4) + file_count(4)
const headerFixedSize = 4 + 4 + 4 + 4 + 4 + 4 + 8 + reservedWords*4 + 4

// md5Size is the width in bytes of a directory entry's MD5 digest.
const md5Size = 16

// embeddedTrailerSize is the width in bytes of the embedded-PCK trailer
// (u64 pck_size + u32 magic).
const embeddedTrailerSize = 8 + 4
