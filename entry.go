package box

// Entry is a named unit of user data packed into a stream. Size and digest
// fields are populated only after the owning stream has been written (on the
// write path) or parsed straight off the entry table (on the read path).
type Entry struct {
	Name string

	OriginalSize uint64
	FilteredSize uint64

	// CompressedSize is the number of bytes this entry contributed to its
	// stream's compressed data. It is not a persisted on-disk field and
	// exists here only for write-time diagnostics and for the seekable
	// random-access read path, where it equals FilteredSize by construction.
	CompressedSize uint64

	Digest DigestInfo

	Stream        int
	IndexInStream int

	Chain *FilterChain

	// source is the data-producing Source supplied when constructing the
	// entry for writing. It is nil once read back from an archive; use
	// ArchiveReadHandle.Source to retrieve entry bytes on the read path.
	source Source
}

// NewEntry constructs an entry named name, sourced from src, with an
// optional per-entry filter chain (may be nil for no entry-level filtering).
func NewEntry(name string, src Source, chain *FilterChain) *Entry {
	if chain == nil {
		chain = NewFilterChain()
	}
	return &Entry{Name: name, Chain: chain, source: src, Stream: -1, IndexInStream: -1}
}

func (e *Entry) toRecord(nameOffset uint64, payloadOffset uint64, payloadLength uint32) entryRecord {
	return entryRecord{
		FilteredSize:    e.FilteredSize,
		Digest:          e.Digest,
		Stream:          int32(e.Stream),
		IndexInStream:   int32(e.IndexInStream),
		PayloadOffset:   payloadOffset,
		PayloadLength:   payloadLength,
		EntryNameOffset: nameOffset,
	}
}

func entryFromRecord(r entryRecord, name string, chain *FilterChain) *Entry {
	e := &Entry{
		Name:          name,
		FilteredSize:  r.FilteredSize,
		Digest:        r.Digest,
		Stream:        int(r.Stream),
		IndexInStream: int(r.IndexInStream),
		Chain:         chain,
	}
	e.CompressedSize = e.FilteredSize
	return e
}
