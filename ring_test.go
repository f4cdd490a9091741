package box

import "testing"

func TestRingBasicFillConsume(t *testing.T) {
	r := newRing(4, 16)
	n := copy(r.Tail(), []byte("ab"))
	r.Advance(n)
	if r.Len() != 2 {
		t.Fatalf("expected len 2, got %d", r.Len())
	}
	r.Consume(1)
	if r.Len() != 1 {
		t.Fatalf("expected len 1 after consume, got %d", r.Len())
	}
	if string(r.Head()) != "b" {
		t.Fatalf("expected head 'b', got %q", r.Head())
	}
}

func TestRingGrowRespectsCap(t *testing.T) {
	r := newRing(2, 4)
	if !r.Grow() {
		t.Fatalf("expected first grow to succeed")
	}
	if len(r.buf) != 4 {
		t.Fatalf("expected buf len 4 after grow, got %d", len(r.buf))
	}
	if r.Grow() {
		t.Fatalf("expected grow to fail once at cap")
	}
}

func TestRingConsumeCompacts(t *testing.T) {
	r := newRing(8, 8)
	n := copy(r.Tail(), []byte("abcdef"))
	r.Advance(n)
	r.Consume(5)
	if r.off != 0 {
		t.Fatalf("expected compaction to reset offset to 0, got %d", r.off)
	}
	if string(r.Head()) != "f" {
		t.Fatalf("expected head 'f' after compaction, got %q", r.Head())
	}
}
