package box

import (
	"crypto/md5"
	"crypto/sha1"
	"hash"
	"hash/crc32"
	"io"
)

// Observer receives a read-through side-effect notification. Counters and
// digesters are the two built-in observers; both are driven by
// ObserverStage, the unbuffered "forward read/write one-to-one and observe"
// shape from the component design.
type Observer interface {
	Observe(p []byte)
}

// ObserverStage forwards Read one-to-one to its parent and calls Observe on
// every non-empty chunk actually read. It never buffers.
type ObserverStage struct {
	parent Source
	obs    Observer
}

// NewObserverStage wraps parent with an observer that sees every byte read
// through it, in order, exactly once.
func NewObserverStage(parent Source, obs Observer) *ObserverStage {
	return &ObserverStage{parent: parent, obs: obs}
}

func (o *ObserverStage) Read(p []byte) (int, error) {
	n, err := o.parent.Read(p)
	if n > 0 {
		o.obs.Observe(p[:n])
	}
	return n, err
}

// Counter tallies the number of bytes observed. It is used both on the raw
// entry source (original size) and on the filtered/compressed output
// (filtered size, compressed size, whole-stream size).
type Counter struct {
	n int64
}

func (c *Counter) Observe(p []byte) { c.n += int64(len(p)) }

// Count returns the running total.
func (c *Counter) Count() int64 { return c.n }

// Reset zeroes the running total. The writer uses this to attribute
// compressed bytes per entry inside a solidly-compressed stream: the shared
// compressed-byte counter is snapshotted and reset in the fan-in's on-end
// callback for each entry in turn.
func (c *Counter) Reset() { c.n = 0 }

// MultiDigester computes CRC32, MD5 and SHA1 over everything observed,
// selectively enabled per the writer's digest options. All three underlying
// algorithms share hash.Hash's common Write/Sum/Reset contract.
type MultiDigester struct {
	crc32, md5, sha1             hash.Hash
	wantCRC32, wantMD5, wantSHA1 bool
}

// NewMultiDigester constructs a digester computing only the requested
// algorithms; computing an algorithm that was not requested panics, matching
// the original's assert(enabled) contract.
func NewMultiDigester(wantCRC32, wantMD5, wantSHA1 bool) *MultiDigester {
	d := &MultiDigester{wantCRC32: wantCRC32, wantMD5: wantMD5, wantSHA1: wantSHA1}
	if wantCRC32 {
		d.crc32 = crc32.NewIEEE()
	}
	if wantMD5 {
		d.md5 = md5.New()
	}
	if wantSHA1 {
		d.sha1 = sha1.New()
	}
	return d
}

func (d *MultiDigester) Observe(p []byte) {
	if d.wantCRC32 {
		d.crc32.Write(p)
	}
	if d.wantMD5 {
		d.md5.Write(p)
	}
	if d.wantSHA1 {
		d.sha1.Write(p)
	}
}

// CRC32 returns the running CRC32 checksum. Panics if CRC32 was not enabled.
func (d *MultiDigester) CRC32() uint32 {
	if !d.wantCRC32 {
		panic("box: CRC32 digest not enabled")
	}
	return d.crc32.Sum32()
}

// MD5 returns the running MD5 digest. Panics if MD5 was not enabled.
func (d *MultiDigester) MD5() [16]byte {
	if !d.wantMD5 {
		panic("box: MD5 digest not enabled")
	}
	var out [16]byte
	copy(out[:], d.md5.Sum(nil))
	return out
}

// SHA1 returns the running SHA1 digest. Panics if SHA1 was not enabled.
func (d *MultiDigester) SHA1() [20]byte {
	if !d.wantSHA1 {
		panic("box: SHA1 digest not enabled")
	}
	var out [20]byte
	copy(out[:], d.sha1.Sum(nil))
	return out
}

// crc32Stream computes the CRC32 of everything r yields, reading it in
// bufSize chunks with no allocation per chunk. The writer and reader compute
// the header's fileChecksum with crc32.ChecksumIEEE over the whole file in
// memory instead.
func crc32Stream(r io.Reader, bufSize int) (uint32, error) {
	h := crc32.NewIEEE()
	buf := make([]byte, bufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			return h.Sum32(), nil
		}
		if err != nil {
			return 0, err
		}
	}
}
