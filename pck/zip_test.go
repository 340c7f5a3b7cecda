package pck

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestZipWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := NewZipWriter(&buf)
	if err := zw.Add("res://icon.png", []byte("pixels")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Add("res://scripts/a.gd", []byte("extends Node")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("got %d entries, want 2", len(zr.File))
	}
	for _, f := range zr.File {
		if f.Method != zip.Deflate {
			t.Errorf("%s: method = %d, want Deflate", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		rc.Close()
	}
}
