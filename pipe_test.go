package box

import (
	"bytes"
	"testing"
)

func TestPipeCopiesAllBytesInSmallChunks(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghij"), 1000)
	var out bytes.Buffer
	n, err := Pipe(&out, bytes.NewReader(data), 7)
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if n != int64(len(data)) {
		t.Fatalf("expected %d bytes copied, got %d", len(data), n)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("copied bytes do not match source")
	}
}

func TestPipeEmptySource(t *testing.T) {
	var out bytes.Buffer
	n, err := Pipe(&out, bytes.NewReader(nil), 16)
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 bytes, got %d", n)
	}
}
