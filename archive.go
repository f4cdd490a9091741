package box

import "fmt"

// Archive is the in-memory model of a box container: an ordered entry table,
// the streams those entries are packed into, and optional named groups.
type Archive struct {
	Entries []*Entry
	Streams []*Stream
	Groups  []*Group

	// header is only set by Read, and only so IsValidGlobalChecksum can
	// re-check the stored checksum without re-parsing the whole archive.
	header *Header
}

// NewArchive returns an empty archive, ready to have entries/streams/groups
// appended before Write, or to be populated by Read.
func NewArchive() *Archive {
	return &Archive{}
}

// NewSingleEntry builds an archive holding one entry in one stream;
// filterBuilders become the stream's filter chain, matching how the writer
// attributes compressed size to a lone entry in its own stream.
func NewSingleEntry(name string, src Source, filterBuilders ...FilterBuilder) *Archive {
	a := NewArchive()
	e := NewEntry(name, src, nil)
	s := NewStream(NewFilterChain(filterBuilders...))
	a.addEntryToStream(e, s)
	return a
}

// NamedSource pairs a name with its data source, the unit NewOneEntryPerStream
// takes one of per produced stream.
type NamedSource struct {
	Name string
	Src  Source
}

// NewOneEntryPerStream builds an archive where every named source becomes
// its own entry in its own stream, all streams sharing the same filter
// builder configuration (a fresh FilterChain instance per stream so stateful
// builders, like a per-stream codec, do not leak state across streams).
func NewOneEntryPerStream(sources []NamedSource, newChain func() *FilterChain) *Archive {
	a := NewArchive()
	for _, ns := range sources {
		e := NewEntry(ns.Name, ns.Src, nil)
		var chain *FilterChain
		if newChain != nil {
			chain = newChain()
		}
		s := NewStream(chain)
		a.addEntryToStream(e, s)
	}
	return a
}

// StreamLayout describes one stream's worth of entries for NewFromLayout:
// explicit stream groupings built from already-constructed entries.
type StreamLayout struct {
	Entries []*Entry
	Chain   *FilterChain
}

// NewFromLayout builds an archive from explicit stream groupings, each
// stream built from already-constructed Entry values plus its own filter
// chain.
func NewFromLayout(layouts []StreamLayout, groups []*Group) *Archive {
	a := NewArchive()
	for _, l := range layouts {
		s := NewStream(l.Chain)
		for _, e := range l.Entries {
			a.addEntryToStream(e, s)
		}
	}
	a.Groups = groups
	return a
}

func (a *Archive) addEntryToStream(e *Entry, s *Stream) {
	si := a.streamIndexOf(s)
	e.Stream = si
	e.IndexInStream = len(s.Entries)
	entryIdx := len(a.Entries)
	a.Entries = append(a.Entries, e)
	s.Entries = append(s.Entries, entryIdx)
}

func (a *Archive) streamIndexOf(s *Stream) int {
	for i, existing := range a.Streams {
		if existing == s {
			return i
		}
	}
	a.Streams = append(a.Streams, s)
	return len(a.Streams) - 1
}

// checkInvariants validates the cross-reference invariants linking entries,
// streams and groups. Read runs it on every parsed archive.
func (a *Archive) checkInvariants() error {
	seen := make(map[[2]int]bool)
	for i, e := range a.Entries {
		if e.Stream < 0 || e.Stream >= len(a.Streams) {
			return fmt.Errorf("%w: entry %d references stream %d out of range [0,%d)", ErrCrossReference, i, e.Stream, len(a.Streams))
		}
		s := a.Streams[e.Stream]
		if e.IndexInStream < 0 || e.IndexInStream >= len(s.Entries) {
			return fmt.Errorf("%w: entry %d has indexInStream %d out of range [0,%d)", ErrCrossReference, i, e.IndexInStream, len(s.Entries))
		}
		if s.Entries[e.IndexInStream] != i {
			return fmt.Errorf("%w: stream %d slot %d points at entry %d, not %d", ErrCrossReference, e.Stream, e.IndexInStream, s.Entries[e.IndexInStream], i)
		}
		key := [2]int{e.Stream, e.IndexInStream}
		if seen[key] {
			return fmt.Errorf("%w: duplicate (stream,indexInStream) %v", ErrCrossReference, key)
		}
		seen[key] = true
	}
	for si, s := range a.Streams {
		for _, idx := range s.Entries {
			if idx < 0 || idx >= len(a.Entries) {
				return fmt.Errorf("%w: stream %d references entry %d out of range [0,%d)", ErrCrossReference, si, idx, len(a.Entries))
			}
		}
	}
	for gi, g := range a.Groups {
		for _, idx := range g.Indices {
			if idx < 0 || idx >= len(a.Entries) {
				return fmt.Errorf("%w: group %d (%q) references entry %d out of range [0,%d)", ErrCrossReference, gi, g.Name, idx, len(a.Entries))
			}
		}
		if g.hasDuplicateIndices() {
			return fmt.Errorf("%w: group %d (%q) has duplicate entry indices", ErrCrossReference, gi, g.Name)
		}
	}
	return nil
}

// willSectionBeSerialized decides, per section type, whether the writer
// emits it into the section table. Exhaustive over the section kinds the
// writer ever produces; any other type reaching here is a programmer error.
func willSectionBeSerialized(a *Archive, sectionType uint32, entryPayloadBytes, streamPayloadBytes int) bool {
	switch sectionType {
	case SectionEntryTable:
		return len(a.Entries) > 0
	case SectionEntryPayload:
		return entryPayloadBytes > 0
	case SectionStreamTable:
		return len(a.Streams) > 0
	case SectionStreamPayload:
		return streamPayloadBytes > 0
	case SectionStreamData:
		return len(a.Streams) > 0
	case SectionFileNameTable:
		return len(a.Entries) > 0
	case SectionGroupTable:
		return len(a.Groups) > 0
	default:
		panic(fmt.Sprintf("box: unhandled section type %d", sectionType))
	}
}
