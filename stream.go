package box

// Stream is a solidly-filtered concatenation of one or more entries. Every
// entry appears in exactly one stream, and stream.Entries[i] must equal the
// index of the entry whose (Stream, IndexInStream) is (this stream's
// index, i).
type Stream struct {
	Entries     []int
	Seekable    bool
	HasChecksum bool
	Offset      uint64
	Length      uint64
	Checksum    uint32
	Chain       *FilterChain
}

// NewStream constructs an empty stream with the given filter chain (nil for
// no stream-level filtering).
func NewStream(chain *FilterChain) *Stream {
	if chain == nil {
		chain = NewFilterChain()
	}
	return &Stream{Chain: chain}
}

func (s *Stream) flags() uint64 {
	var f uint64
	if s.Seekable {
		f |= StreamFlagSeekable
	}
	if s.HasChecksum {
		f |= StreamFlagHasChecksum
	}
	return f
}

func (s *Stream) toRecord(payloadOffset uint64, payloadLength uint32) streamRecord {
	return streamRecord{
		Flags:         s.flags(),
		Offset:        s.Offset,
		Length:        s.Length,
		Checksum:      s.Checksum,
		PayloadOffset: payloadOffset,
		PayloadLength: payloadLength,
	}
}

func streamFromRecord(r streamRecord, chain *FilterChain) *Stream {
	return &Stream{
		Seekable:    r.Flags&StreamFlagSeekable != 0,
		HasChecksum: r.Flags&StreamFlagHasChecksum != 0,
		Offset:      r.Offset,
		Length:      r.Length,
		Checksum:    r.Checksum,
		Chain:       chain,
	}
}

// seekableByChain reports whether a chain is simple enough to make its
// owning stream SEEKABLE per the writer's invariant in §4.7: identity, or
// made only of observers outside the FilterBuilder chain (counting and
// digesting never enter a FilterChain, so an empty chain is the only
// encodable "identity or counting-only" case).
func seekableByChain(chain *FilterChain) bool {
	return chain == nil || chain.IsIdentity()
}
