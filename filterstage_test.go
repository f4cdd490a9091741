package box

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"
)

func TestXORFilterRoundTrip(t *testing.T) {
	plain := []byte("The quick brown fox jumps over the lazy dog")
	key := []byte("secret")

	builder := NewXORFilterBuilder(8, key)
	enc := builder.Apply(bytes.NewReader(plain))
	cipher, err := ioutil.ReadAll(enc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	for i := range plain {
		want := plain[i] ^ key[i%len(key)]
		if cipher[i] != want {
			t.Fatalf("byte %d: expected %x, got %x", i, want, cipher[i])
		}
	}

	dec := builder.Unapply(bytes.NewReader(cipher))
	got, err := ioutil.ReadAll(dec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plain)
	}
}

func TestXORFilterTinyBuffer(t *testing.T) {
	plain := bytes.Repeat([]byte("x"), 10000)
	builder := NewXORFilterBuilder(4, []byte{0xAA})
	enc := builder.Apply(bytes.NewReader(plain))
	out, err := ioutil.ReadAll(enc)
	if err != nil {
		t.Fatalf("encode with tiny buffer: %v", err)
	}
	if len(out) != len(plain) {
		t.Fatalf("expected %d bytes, got %d", len(plain), len(out))
	}
}

func TestSkipFilter(t *testing.T) {
	data := []byte("0123456789")
	s := NewSkipFilter(bytes.NewReader(data), 3, 4, 2)
	got, err := ioutil.ReadAll(s)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "3456" {
		t.Fatalf("expected 3456, got %q", got)
	}
}

func TestSkipFilterUnexpectedEOF(t *testing.T) {
	data := []byte("short")
	s := NewSkipFilter(bytes.NewReader(data), 100, 0, 4)
	_, err := s.Read(make([]byte, 1))
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}
