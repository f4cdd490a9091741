package box

import "io"

// skipSource discards the first skip bytes of its parent, then serves at
// most limit further bytes (0 = unlimited). Used when reading a specific
// entry out of a stream: the reader synthesizes skip = sum of sizes of
// preceding entries and limit = this entry's size. It is naturally
// pull-based in Go: Read just keeps calling the parent until the skip quota
// is consumed, with no intermediate ring buffer needed.
type skipSource struct {
	parent Source
	skip   int64
	limit  int64 // bytes still to serve; -1 when unlimited
	buf    []byte
}

// NewSkipFilter wraps parent, discarding the first skip bytes it produces
// and serving at most limit bytes after that (limit <= 0 means unlimited).
// bufferSize controls the scratch buffer used to read-and-discard.
func NewSkipFilter(parent Source, skip, limit int64, bufferSize int) Source {
	if bufferSize <= 0 {
		bufferSize = defaultStageBuffer
	}
	if skip <= 0 && limit <= 0 {
		return parent
	}
	if limit <= 0 {
		limit = -1
	}
	return &skipSource{parent: parent, skip: skip, limit: limit, buf: make([]byte, bufferSize)}
}

func (s *skipSource) Read(p []byte) (int, error) {
	for s.skip > 0 {
		n := len(s.buf)
		if int64(n) > s.skip {
			n = int(s.skip)
		}
		read, err := s.parent.Read(s.buf[:n])
		s.skip -= int64(read)
		if err != nil {
			if err == io.EOF && s.skip > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			if err != io.EOF {
				return 0, err
			}
		}
	}
	if s.limit >= 0 {
		if s.limit == 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > s.limit {
			p = p[:s.limit]
		}
		n, err := s.parent.Read(p)
		s.limit -= int64(n)
		return n, err
	}
	return s.parent.Read(p)
}
