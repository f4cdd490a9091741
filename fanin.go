package box

import "io"

// fanInPart is one entry's contribution to a solidly-packed stream.
type fanInPart struct {
	src     Source
	onBegin func()
	onEnd   func()
	begun   bool
}

// FanIn concatenates a sequence of entry sources into the single logical
// Source a stream's filter chain is built over. Before the first read from
// part i, FanIn invokes that part's onBegin callback; once part i's bytes
// are exhausted, FanIn invokes its onEnd callback exactly once, before the
// next part's first byte is pulled. The writer uses onEnd to snapshot each
// entry's raw and filtered counters and the shared compressed counter so
// each entry's contribution to a solidly-compressed stream can be
// attributed individually; it passes no onBegin callbacks.
type FanIn struct {
	parts []fanInPart
	idx   int
}

// NewFanIn builds a FanIn over the given sources; either onBegin or onEnd
// may be nil (or the whole slice nil) for parts that need no boundary
// notification.
func NewFanIn(sources []Source, onBegin []func(), onEnd []func()) *FanIn {
	parts := make([]fanInPart, len(sources))
	for i, s := range sources {
		var begin, end func()
		if onBegin != nil {
			begin = onBegin[i]
		}
		if onEnd != nil {
			end = onEnd[i]
		}
		parts[i] = fanInPart{src: s, onBegin: begin, onEnd: end}
	}
	return &FanIn{parts: parts}
}

func (f *FanIn) Read(p []byte) (int, error) {
	for f.idx < len(f.parts) {
		part := &f.parts[f.idx]
		if !part.begun {
			part.begun = true
			if part.onBegin != nil {
				part.onBegin()
			}
		}
		n, err := part.src.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if part.onEnd != nil {
				part.onEnd()
			}
			f.idx++
			continue
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, io.EOF
}
