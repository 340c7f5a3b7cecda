// Package pck implements the on-disk container formats produced by gdpack:
// the custom PCK content-pack format (optionally embedded in an executable)
// and a plain DEFLATE ZIP alternative.
//
// The package operates on already-resolved (path, bytes) payloads; it knows
// nothing about projects, presets, or plugins. Callers stage payloads through
// a PackWriter or ZipWriter and finalize once all payloads have been written.
package pck
