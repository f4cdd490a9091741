package box

import (
	"bytes"
	"io/ioutil"
	"testing"
)

func roundTripFilter(t *testing.T, b FilterBuilder, plain []byte) []byte {
	t.Helper()
	enc := b.Apply(bytes.NewReader(plain))
	compressed, err := ioutil.ReadAll(enc)
	if err != nil {
		t.Fatalf("%s encode: %v", b.Mnemonic(), err)
	}
	dec := b.Unapply(bytes.NewReader(compressed))
	got, err := ioutil.ReadAll(dec)
	if err != nil {
		t.Fatalf("%s decode: %v", b.Mnemonic(), err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("%s round trip mismatch: got %d bytes, want %d", b.Mnemonic(), len(got), len(plain))
	}
	return compressed
}

func TestDeflateRoundTrip(t *testing.T) {
	plain := []byte("The quick brown fox jumps over the lazy dog. " +
		"The quick brown fox jumps over the lazy dog.")
	compressed := roundTripFilter(t, NewDeflateFilterBuilder(0, 0), plain)
	if len(compressed) >= len(plain) {
		t.Fatalf("expected compression to shrink repetitive input: %d >= %d", len(compressed), len(plain))
	}
}

func TestLZMARoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("abcdefgh"), 512)
	roundTripFilter(t, NewLZMAFilterBuilder(0), plain)
}

func TestLZ4RoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("0123456789"), 256)
	roundTripFilter(t, NewLZ4FilterBuilder(0), plain)
}

func TestZSTDRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("zstandard"), 256)
	roundTripFilter(t, NewZSTDFilterBuilder(0), plain)
}

func TestXDeltaRoundTrip(t *testing.T) {
	reference := bytes.Repeat([]byte("reference-data-"), 256)
	modified := append([]byte(nil), reference...)
	copy(modified[1234:1234+64], bytes.Repeat([]byte("X"), 64))

	ref := NewMemorySource(reference)
	builder := NewXDeltaFilterBuilder(ref, 0)

	patch, err := ioutil.ReadAll(builder.Apply(bytes.NewReader(modified)))
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(patch) >= len(modified) {
		t.Fatalf("expected patch to be smaller than full data: %d >= %d", len(patch), len(modified))
	}

	got, err := ioutil.ReadAll(builder.Unapply(bytes.NewReader(patch)))
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !bytes.Equal(got, modified) {
		t.Fatalf("xdelta round trip mismatch")
	}
}
