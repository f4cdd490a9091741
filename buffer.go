package box

import (
	"fmt"
	"io"
)

// Buffer is a growable byte container with a logical size (the written
// extent) and a seek cursor, as described in the component design for the
// writer's forward-reference mechanism. It implements io.Reader, io.Writer
// and io.Seeker over an in-memory slice.
type Buffer struct {
	data []byte
	size int
	pos  int
}

// NewBuffer returns an empty Buffer pre-allocated to hold capacity bytes.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Hole is an opaque token returned by ReserveFor, naming a position to be
// patched later via WriteAt. It is the typed-hole primitive that lets the
// writer emit forward references without self-referential pointers.
type Hole struct {
	offset int
	length int
}

func (b *Buffer) grow(capacity int) {
	if cap(b.data) >= capacity {
		return
	}
	next := make([]byte, len(b.data), capacity)
	copy(next, b.data)
	b.data = next
}

// Write copies p at the cursor, growing capacity as needed, advances the
// cursor, and extends the logical size if the cursor moves past it.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	b.grow(end)
	if end > len(b.data) {
		b.data = b.data[:end]
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	if b.pos > b.size {
		b.size = b.pos
	}
	return len(p), nil
}

// Read returns at most min(len(p), size-cursor) bytes from the cursor and
// advances it. It returns io.EOF once the cursor reaches the logical size.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= b.size {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:b.size])
	b.pos += n
	return n, nil
}

// Seek repositions the cursor. Seeking past the logical size is only valid
// through Reserve, which also extends the size.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(b.pos) + offset
	case io.SeekEnd:
		target = int64(b.size) + offset
	default:
		return 0, fmt.Errorf("box: invalid seek whence %d", whence)
	}
	if target < 0 {
		target = 0
	}
	b.pos = int(target)
	return target, nil
}

// Reserve advances the cursor by n bytes after ensuring capacity, extending
// the logical size if needed, and returns the position the reservation
// started at. It is the primitive behind pre-allocated regions that get
// back-filled later.
func (b *Buffer) Reserve(n int) int64 {
	start := b.pos
	end := start + n
	b.grow(end)
	if end > len(b.data) {
		b.data = b.data[:end]
	}
	if end > b.size {
		b.size = end
	}
	b.pos = end
	return int64(start)
}

// ReserveFor reserves n bytes and returns a Hole naming that position, to be
// filled in later with WriteAt.
func (b *Buffer) ReserveFor(n int) Hole {
	pos := b.Reserve(n)
	return Hole{offset: int(pos), length: n}
}

// WriteAt saves the current cursor, seeks to the hole's position, writes
// value (which must be exactly hole.length bytes), and restores the cursor.
func (b *Buffer) WriteAt(hole Hole, value []byte) error {
	if len(value) != hole.length {
		return fmt.Errorf("box: hole expects %d bytes, got %d", hole.length, len(value))
	}
	save := b.pos
	b.pos = hole.offset
	_, err := b.Write(value)
	b.pos = save
	return err
}

// Tell returns the current cursor position.
func (b *Buffer) Tell() int64 { return int64(b.pos) }

// Len returns the logical size of the buffer.
func (b *Buffer) Len() int64 { return int64(b.size) }

// Bytes returns the written extent of the buffer. The slice is shared with
// the Buffer's internal storage and must not be retained across further
// writes.
func (b *Buffer) Bytes() []byte { return b.data[:b.size] }
