package pck

import (
	"bytes"
	"testing"
)

// zeroPadSource makes PCK output deterministic for tests (spec.md R2):
// padding bytes are always zero instead of random.
type zeroPadSource struct{}

func (zeroPadSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func buildSamplePack(t *testing.T, opts PackOptions) []byte {
	t.Helper()
	opts.PadSource = zeroPadSource{}
	pw, err := NewPackWriter(opts)
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"res://scenes/main.tscn": "[gd_scene load_steps=1]",
		"res://icon.png":         "not really a png",
		"res://scripts/a.gd":     "extends Node",
	}
	for path, body := range files {
		if err := pw.Add(path, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if _, err := pw.Finalize(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPackWriterRoundTripPlain(t *testing.T) {
	data := buildSamplePack(t, PackOptions{})

	r, err := OpenPCK(bytes.NewReader(data), 0, [32]byte{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Header.FileCount != 3 {
		t.Fatalf("file count = %d, want 3", r.Header.FileCount)
	}
	entries := r.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Path >= entries[i].Path {
			t.Fatalf("entries not sorted: %s >= %s", entries[i-1].Path, entries[i].Path)
		}
	}

	e, ok := r.Lookup("res://icon.png")
	if !ok {
		t.Fatal("icon.png missing from directory")
	}
	body, err := r.ReadBody(e, [32]byte{})
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "not really a png" {
		t.Fatalf("body = %q", body)
	}
}

func TestPackWriterEncryptedBodyAndDirectory(t *testing.T) {
	key := DecodeKey("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	includeAll, err := CompileGlobList("*")
	if err != nil {
		t.Fatal(err)
	}
	data := buildSamplePack(t, PackOptions{
		EncPck:           true,
		EncDirectory:     true,
		Key:              key,
		EncIncludeFilter: includeAll,
	})

	if _, err := OpenPCK(bytes.NewReader(data), 0, [32]byte{}); err == nil {
		t.Fatal("expected wrong-key failure opening with zero key")
	}

	r, err := OpenPCK(bytes.NewReader(data), 0, key)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Header.DirEncrypted() {
		t.Fatal("expected directory-encrypted flag set")
	}
	e, ok := r.Lookup("res://scripts/a.gd")
	if !ok {
		t.Fatal("missing entry")
	}
	if !e.Encrypted() {
		t.Fatal("expected body-encrypted flag set")
	}
	body, err := r.ReadBody(e, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "extends Node" {
		t.Fatalf("body = %q", body)
	}
}

func TestPackWriterExcludeOverridesInclude(t *testing.T) {
	key := DecodeKey("ff")
	includeAll, _ := CompileGlobList("*")
	excludePng, _ := CompileGlobList("*.png")

	data := buildSamplePack(t, PackOptions{
		EncPck:           true,
		Key:              key,
		EncIncludeFilter: includeAll,
		EncExcludeFilter: excludePng,
	})

	r, err := OpenPCK(bytes.NewReader(data), 0, [32]byte{})
	if err != nil {
		t.Fatal(err)
	}
	png, ok := r.Lookup("res://icon.png")
	if !ok {
		t.Fatal("missing icon.png")
	}
	if png.Encrypted() {
		t.Fatal("icon.png should be excluded from encryption")
	}
	tscn, ok := r.Lookup("res://scenes/main.tscn")
	if !ok {
		t.Fatal("missing main.tscn")
	}
	if !tscn.Encrypted() {
		t.Fatal("main.tscn should remain encrypted")
	}
}

func TestPackWriterBodyOffsetsAreSixteenAligned(t *testing.T) {
	data := buildSamplePack(t, PackOptions{})
	r, err := OpenPCK(bytes.NewReader(data), 0, [32]byte{})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range r.Entries() {
		if e.BodyOfs%BodyAlignment != 0 {
			t.Errorf("%s: offset %d not 16-aligned", e.Path, e.BodyOfs)
		}
	}
}
