package box

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io/ioutil"
	"math/rand"
	"testing"
)

const foxPhrase = "The quick brown fox jumps over the lazy dog"

// Scenario 1: a single uncompressed entry, checked against known CRC32/MD5
// values for the phrase.
func TestScenarioSingleEntryNoFilter(t *testing.T) {
	a := NewSingleEntry("hello.txt", bytes.NewReader([]byte(foxPhrase)))

	var out bytes.Buffer
	if err := a.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}

	e := a.Entries[0]
	if e.Digest.CRC32 != 0x414FA339 {
		t.Fatalf("expected crc32 0x414FA339, got 0x%08X", e.Digest.CRC32)
	}
	if hex.EncodeToString(e.Digest.MD5[:]) != "9e107d9d372bb6826bd81d3542a419d6" {
		t.Fatalf("expected known md5, got %x", e.Digest.MD5)
	}

	readBack, err := Read(NewMemorySource(out.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	assertRoundTrip(t, readBack, out.Bytes(), []byte(foxPhrase))
}

// Scenario 2: DEFLATE-compressed single entry.
func TestScenarioDeflateEntry(t *testing.T) {
	a := NewSingleEntry("hello.txt", bytes.NewReader([]byte(foxPhrase)), NewDeflateFilterBuilder(0, 0))

	var out bytes.Buffer
	if err := a.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}

	readBack, err := Read(NewMemorySource(out.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	assertRoundTrip(t, readBack, out.Bytes(), []byte(foxPhrase))
}

// Scenario 3: XOR-filtered entry; ciphertext should equal plaintext XOR the
// repeating key, and round trip must reproduce the plaintext exactly.
func TestScenarioXOREntry(t *testing.T) {
	key := []byte("secret")
	a := NewSingleEntry("hello.txt", bytes.NewReader([]byte(foxPhrase)), NewXORFilterBuilder(0, key))

	var out bytes.Buffer
	if err := a.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}

	readBack, err := Read(NewMemorySource(out.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := readBack.Streams[0]
	cipher := out.Bytes()[s.Offset : s.Offset+s.Length]
	if len(cipher) != len(foxPhrase) {
		t.Fatalf("expected %d ciphertext bytes, got %d", len(foxPhrase), len(cipher))
	}
	for i := range cipher {
		if want := foxPhrase[i] ^ key[i%len(key)]; cipher[i] != want {
			t.Fatalf("ciphertext byte %d: expected %x, got %x", i, want, cipher[i])
		}
	}
	assertRoundTrip(t, readBack, out.Bytes(), []byte(foxPhrase))
}

// Scenario 4: three random 64 KiB entries packed solidly into one
// LZMA-filtered stream; non-seekable random access must still recover each
// entry individually.
func TestScenarioThreeEntriesOneLZMAStream(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	payloads := make([][]byte, 3)
	for i := range payloads {
		payloads[i] = make([]byte, 64*1024)
		rng.Read(payloads[i])
	}

	layout := StreamLayout{
		Chain: NewFilterChain(NewLZMAFilterBuilder(0)),
	}
	for i, p := range payloads {
		layout.Entries = append(layout.Entries, NewEntry(entryName(i), bytes.NewReader(p), nil))
	}
	a := NewFromLayout([]StreamLayout{layout}, nil)

	var out bytes.Buffer
	if err := a.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}

	if a.Streams[0].Seekable {
		t.Fatalf("expected LZMA stream to be non-seekable")
	}

	readBack, err := Read(NewMemorySource(out.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for i, want := range payloads {
		h := NewArchiveReadHandle(NewMemorySource(out.Bytes()), readBack, readBack.Entries[i])
		src, err := h.Source(true)
		if err != nil {
			t.Fatalf("entry %d source: %v", i, err)
		}
		got, err := ioutil.ReadAll(src)
		if err != nil {
			t.Fatalf("entry %d read: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("entry %d mismatch: got %d bytes, want %d", i, len(got), len(want))
		}
	}
}

// Scenario 6: flipping a byte outside the checksum field must invalidate the
// whole-file integrity check, but Read itself must still succeed - a
// checksum mismatch is reported, not a hard read failure.
func TestScenarioIntegrityChecksum(t *testing.T) {
	a := NewSingleEntry("hello.txt", bytes.NewReader([]byte(foxPhrase)))

	var out bytes.Buffer
	if err := a.Write(&out, WithIntegrityChecksum(true)); err != nil {
		t.Fatalf("write: %v", err)
	}

	clean, err := Read(NewMemorySource(out.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	valid, err := clean.IsValidGlobalChecksum(NewMemorySource(out.Bytes()))
	if err != nil {
		t.Fatalf("checksum check: %v", err)
	}
	if !valid {
		t.Fatalf("expected valid checksum before tampering")
	}

	tampered := append([]byte(nil), out.Bytes()...)
	tampered[clean.Streams[0].Offset] ^= 0xFF

	tamperedArchive, err := Read(NewMemorySource(tampered))
	if err != nil {
		t.Fatalf("expected Read to succeed despite checksum mismatch: %v", err)
	}
	valid, err = tamperedArchive.IsValidGlobalChecksum(NewMemorySource(tampered))
	if err != nil {
		t.Fatalf("checksum check: %v", err)
	}
	if valid {
		t.Fatalf("expected checksum mismatch after tampering")
	}
}

// Scenario 5: an xdelta-filtered entry read back through the registry path,
// exercising FilterEnv.BindXDeltaReference rather than constructing the
// filter builder directly.
func TestScenarioXDeltaEntryViaRegistry(t *testing.T) {
	reference := bytes.Repeat([]byte("reference-data-"), 256)
	modified := append([]byte(nil), reference...)
	copy(modified[1234:1234+64], bytes.Repeat([]byte("X"), 64))

	ref := NewMemorySource(reference)
	a := NewSingleEntry("delta.bin", bytes.NewReader(modified), NewXDeltaFilterBuilder(ref, 0))

	var out bytes.Buffer
	if err := a.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := NewFilterEnv()
	env.BindXDeltaReference(ref)
	readBack, err := Read(NewMemorySource(out.Bytes()), WithFilterEnv(env))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	assertRoundTrip(t, readBack, out.Bytes(), modified)
}

// Unbinding the reference surfaces as ErrXDeltaReferenceUnbound rather than
// a panic or a silent pass-through.
func TestScenarioXDeltaEntryMissingReference(t *testing.T) {
	reference := bytes.Repeat([]byte("reference-data-"), 256)
	ref := NewMemorySource(reference)
	a := NewSingleEntry("delta.bin", bytes.NewReader(reference), NewXDeltaFilterBuilder(ref, 0))

	var out bytes.Buffer
	if err := a.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Read(NewMemorySource(out.Bytes())); !errors.Is(err, ErrXDeltaReferenceUnbound) {
		t.Fatalf("expected ErrXDeltaReferenceUnbound, got %v", err)
	}
}

func entryName(i int) string {
	return "entry-" + string(rune('a'+i))
}

func assertRoundTrip(t *testing.T, a *Archive, raw []byte, want []byte) {
	t.Helper()
	h := NewArchiveReadHandle(NewMemorySource(raw), a, a.Entries[0])
	src, err := h.Source(true)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	got, err := ioutil.ReadAll(src)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, want)
	}
}
