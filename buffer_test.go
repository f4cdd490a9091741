package box

import (
	"bytes"
	"io"
	"testing"
)

func TestBufferWriteRead(t *testing.T) {
	b := NewBuffer(16)
	if _, err := b.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if b.Len() != 5 {
		t.Fatalf("expected logical size 5, got %d", b.Len())
	}
	if _, err := b.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	out := make([]byte, 5)
	n, err := b.Read(out)
	if err != nil || n != 5 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	if !bytes.Equal(out, []byte("hello")) {
		t.Fatalf("expected hello, got %q", out)
	}
	if _, err := b.Read(out); err != io.EOF {
		t.Fatalf("expected EOF at logical end, got %v", err)
	}
}

func TestBufferReserveAndWriteAt(t *testing.T) {
	b := NewBuffer(16)
	b.Write([]byte("AAAA"))
	hole := b.ReserveFor(4)
	b.Write([]byte("BBBB"))

	if err := b.WriteAt(hole, []byte("CCCC")); err != nil {
		t.Fatalf("writeAt: %v", err)
	}
	if got := string(b.Bytes()); got != "AAAACCCCBBBB" {
		t.Fatalf("expected AAAACCCCBBBB, got %q", got)
	}
	if b.Tell() != 12 {
		t.Fatalf("expected cursor restored to 12, got %d", b.Tell())
	}
}

func TestBufferWriteAtWrongLength(t *testing.T) {
	b := NewBuffer(16)
	hole := b.ReserveFor(4)
	if err := b.WriteAt(hole, []byte("too long value")); err == nil {
		t.Fatalf("expected error writing mismatched hole length")
	}
}

func TestBufferSeekClampsNegative(t *testing.T) {
	b := NewBuffer(16)
	b.Write([]byte("hello"))
	pos, err := b.Seek(-100, io.SeekCurrent)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if pos != 0 {
		t.Fatalf("expected clamp to 0, got %d", pos)
	}
}
