package box

import (
	"bytes"
	"io"
)

// pushEncoder is satisfied by every push-style Go compressor: an
// io.WriteCloser that must see Close to flush its final bytes.
type pushEncoder interface {
	io.WriteCloser
}

// pushEncodeStage adapts a push-model codec (the stdlib/ecosystem encoders
// are all io.WriteCloser, not the stepwise deflate()/inflate() shape the
// original spec describes) into a pull-model Source: it drains its parent
// in small chunks, feeds each chunk synchronously into the codec, and serves
// whatever the codec wrote out of an internal buffer. This is the idiomatic
// Go equivalent of the original's process()-driven codec stepping.
type pushEncodeStage struct {
	parent  Source
	enc     pushEncoder
	out     *bytes.Buffer
	in      []byte
	closed  bool
	flushed bool
}

// newPushEncodeStage builds the encoder with makeEncoder, handing it the
// internal output buffer as its write target; whatever the codec writes
// there becomes available to Read.
func newPushEncodeStage(parent Source, bufferSize int, makeEncoder func(io.Writer) pushEncoder) *pushEncodeStage {
	if bufferSize <= 0 {
		bufferSize = defaultStageBuffer
	}
	out := new(bytes.Buffer)
	return &pushEncodeStage{
		parent: parent,
		enc:    makeEncoder(out),
		out:    out,
		in:     make([]byte, bufferSize),
	}
}

func (s *pushEncodeStage) Read(p []byte) (int, error) {
	for {
		if s.out.Len() > 0 {
			return s.out.Read(p)
		}
		if s.flushed {
			return 0, io.EOF
		}
		if s.closed {
			if err := s.enc.Close(); err != nil {
				return 0, err
			}
			s.flushed = true
			continue
		}

		n, err := s.parent.Read(s.in)
		if n > 0 {
			if _, werr := s.enc.Write(s.in[:n]); werr != nil {
				return 0, werr
			}
		}
		switch {
		case err == io.EOF:
			s.closed = true
		case err != nil:
			return 0, err
		}
	}
}

// pullDecodeStage wraps a library decoder's io.Reader directly: decoders are
// already pull-model and stepwise internally, so no adaptation is needed
// beyond exposing the underlying Reader as a Source and keeping a reference
// to anything that needs explicit closing.
type pullDecodeStage struct {
	r       io.Reader
	closers []io.Closer
}

func newPullDecodeStage(r io.Reader, closers ...io.Closer) *pullDecodeStage {
	return &pullDecodeStage{r: r, closers: closers}
}

func (s *pullDecodeStage) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *pullDecodeStage) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
