package box

import (
	"bytes"
	"hash/crc32"
)

// sectionTypeOrder is the deterministic order in which the writer considers
// variable-length sections for placement. HEADER and SECTION_TABLE are fixed
// at the start and are not listed here.
var sectionTypeOrder = []uint32{
	SectionEntryTable,
	SectionEntryPayload,
	SectionStreamTable,
	SectionStreamPayload,
	SectionStreamData,
	SectionFileNameTable,
	SectionGroupTable,
}

// Write serializes the archive to sink in the deterministic section order,
// using a two-pass reserve-then-finalize strategy built on Buffer's
// typed-hole forward references.
func (a *Archive) Write(sink Sink, opts ...WriterOption) error {
	cfg := defaultWriterConfig()
	for _, o := range opts {
		o(cfg)
	}

	env := NewFilterEnv()
	for _, s := range a.Streams {
		s.Chain.Setup(env)
	}
	for _, e := range a.Entries {
		e.Chain.Setup(env)
	}
	defer func() {
		for _, e := range a.Entries {
			e.Chain.Teardown(env)
		}
		for _, s := range a.Streams {
			s.Chain.Teardown(env)
		}
	}()

	entryPayloads := make([][]byte, len(a.Entries))
	totalEntryPayload := 0
	for i, e := range a.Entries {
		p := marshalFilterChainPayloads(e.Chain.Payloads())
		entryPayloads[i] = p
		totalEntryPayload += len(p)
	}
	streamPayloads := make([][]byte, len(a.Streams))
	totalStreamPayload := 0
	for i, s := range a.Streams {
		p := marshalFilterChainPayloads(s.Chain.Payloads())
		streamPayloads[i] = p
		totalStreamPayload += len(p)
	}

	var present []uint32
	for _, t := range sectionTypeOrder {
		if willSectionBeSerialized(a, t, totalEntryPayload, totalStreamPayload) {
			present = append(present, t)
		}
	}
	Logger.Printf("writing archive: %d entries, %d streams, %d groups, %d sections", len(a.Entries), len(a.Streams), len(a.Groups), len(present))

	buf := NewBuffer(64 * 1024)
	headerHole := buf.ReserveFor(headerSize)

	sectionTableOffset := buf.Tell()
	sectionTableHole := buf.ReserveFor(len(present) * sectionHeaderSize)
	sections := make(map[uint32]SectionHeader, len(present))

	var entryTableHole Hole
	if contains(present, SectionEntryTable) {
		off := buf.Tell()
		entryTableHole = buf.ReserveFor(len(a.Entries) * entryRecordSize)
		sections[SectionEntryTable] = SectionHeader{Offset: uint64(off), Size: uint64(len(a.Entries) * entryRecordSize), Type: SectionEntryTable, Count: uint32(len(a.Entries))}
	}

	entryPayloadOffsets := make([]uint64, len(a.Entries))
	if contains(present, SectionEntryPayload) {
		off := buf.Tell()
		for i, p := range entryPayloads {
			if len(p) == 0 {
				continue
			}
			entryPayloadOffsets[i] = uint64(buf.Tell())
			buf.Write(p)
		}
		sections[SectionEntryPayload] = SectionHeader{Offset: uint64(off), Size: uint64(totalEntryPayload), Type: SectionEntryPayload, Count: 0}
	}

	var streamTableHole Hole
	if contains(present, SectionStreamTable) {
		off := buf.Tell()
		streamTableHole = buf.ReserveFor(len(a.Streams) * streamRecordSize)
		sections[SectionStreamTable] = SectionHeader{Offset: uint64(off), Size: uint64(len(a.Streams) * streamRecordSize), Type: SectionStreamTable, Count: uint32(len(a.Streams))}
	}

	streamPayloadOffsets := make([]uint64, len(a.Streams))
	if contains(present, SectionStreamPayload) {
		off := buf.Tell()
		for i, p := range streamPayloads {
			if len(p) == 0 {
				continue
			}
			streamPayloadOffsets[i] = uint64(buf.Tell())
			buf.Write(p)
		}
		sections[SectionStreamPayload] = SectionHeader{Offset: uint64(off), Size: uint64(totalStreamPayload), Type: SectionStreamPayload, Count: 0}
	}

	if contains(present, SectionStreamData) {
		off := buf.Tell()
		for _, s := range a.Streams {
			if err := writeStream(buf, a, s, cfg); err != nil {
				return err
			}
		}
		sections[SectionStreamData] = SectionHeader{Offset: uint64(off), Size: uint64(buf.Tell() - off), Type: SectionStreamData, Count: uint32(len(a.Streams))}
	}

	entryNameOffsets := make([]uint64, len(a.Entries))
	if contains(present, SectionFileNameTable) {
		off := buf.Tell()
		for i, e := range a.Entries {
			entryNameOffsets[i] = uint64(buf.Tell())
			buf.Write(append([]byte(e.Name), 0))
		}
		sections[SectionFileNameTable] = SectionHeader{Offset: uint64(off), Size: uint64(buf.Tell() - off), Type: SectionFileNameTable, Count: uint32(len(a.Entries))}
	}

	if contains(present, SectionGroupTable) {
		off := buf.Tell()
		for _, g := range a.Groups {
			countBuf := make([]byte, 4)
			putU32(countBuf, uint32(len(g.Indices)))
			buf.Write(countBuf)
			for _, idx := range g.Indices {
				idxBuf := make([]byte, 4)
				putS32(idxBuf, int32(idx))
				buf.Write(idxBuf)
			}
			buf.Write(append([]byte(g.Name), 0))
		}
		sections[SectionGroupTable] = SectionHeader{Offset: uint64(off), Size: uint64(buf.Tell() - off), Type: SectionGroupTable, Count: uint32(len(a.Groups))}
	}

	// Finalization: fill entry/stream table slots and the section table.
	for i, e := range a.Entries {
		rec := e.toRecord(entryNameOffsets[i], entryPayloadOffsets[i], uint32(len(entryPayloads[i])))
		hole := Hole{offset: entryTableHole.offset + i*entryRecordSize, length: entryRecordSize}
		if err := buf.WriteAt(hole, rec.marshal()); err != nil {
			return err
		}
	}
	for i, s := range a.Streams {
		rec := s.toRecord(streamPayloadOffsets[i], uint32(len(streamPayloads[i])))
		hole := Hole{offset: streamTableHole.offset + i*streamRecordSize, length: streamRecordSize}
		if err := buf.WriteAt(hole, rec.marshal()); err != nil {
			return err
		}
	}
	for i, t := range present {
		sh := sections[t]
		hole := Hole{offset: sectionTableHole.offset + i*sectionHeaderSize, length: sectionHeaderSize}
		rec := make([]byte, sectionHeaderSize)
		sh.marshalInto(rec)
		if err := buf.WriteAt(hole, rec); err != nil {
			return err
		}
	}

	flags := uint64(0)
	if cfg.integrityChecksum {
		flags |= FlagIntegrityChecksumEnabled
	}
	header := Header{
		Version: 1,
		Flags:   flags,
		SectionIndex: SectionHeader{
			Offset: uint64(sectionTableOffset),
			Size:   uint64(len(present) * sectionHeaderSize),
			Type:   SectionTableType,
			Count:  uint32(len(present)),
		},
		FileLength:   uint64(buf.Len()),
		FileChecksum: 0,
	}
	headerBytes := header.marshal()
	if err := buf.WriteAt(headerHole, headerBytes); err != nil {
		return err
	}

	if cfg.integrityChecksum {
		checksum := crc32.ChecksumIEEE(buf.Bytes())
		header.FileChecksum = checksum
		if err := buf.WriteAt(headerHole, header.marshal()); err != nil {
			return err
		}
	}

	_, err := Pipe(sink, bytes.NewReader(buf.Bytes()), cfg.bufferSize)
	return err
}

func contains(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func allEntriesIdentity(a *Archive, s *Stream) bool {
	for _, idx := range s.Entries {
		if !seekableByChain(a.Entries[idx].Chain) {
			return false
		}
	}
	return true
}

// writeStream builds a per-entry pipeline entry_source -> input_counter ->
// multi_digester -> entry_filter_chain -> filtered_counter, fans those
// sources into one, applies the stream filter chain, then a compressed
// counter and a whole-stream counter, and pumps the result into buf.
func writeStream(buf *Buffer, a *Archive, s *Stream, cfg *WriterConfig) error {
	compressedCounter := &Counter{}

	sources := make([]Source, len(s.Entries))
	onEnds := make([]func(), len(s.Entries))
	for pos, entryIdx := range s.Entries {
		e := a.Entries[entryIdx]

		inputCounter := &Counter{}
		digester := NewMultiDigester(cfg.wantCRC32, cfg.wantMD5, cfg.wantSHA1)
		filteredCounter := &Counter{}

		withInput := NewObserverStage(e.source, inputCounter)
		withDigest := NewObserverStage(withInput, digester)
		filtered := e.Chain.Apply(withDigest)
		withFiltered := NewObserverStage(filtered, filteredCounter)

		sources[pos] = withFiltered
		onEnds[pos] = func() {
			e.OriginalSize = uint64(inputCounter.Count())
			e.FilteredSize = uint64(filteredCounter.Count())
			var digest DigestInfo
			digest.Size = e.OriginalSize
			if cfg.wantCRC32 {
				digest.CRC32 = digester.CRC32()
			}
			if cfg.wantMD5 {
				digest.MD5 = digester.MD5()
			}
			if cfg.wantSHA1 {
				digest.SHA1 = digester.SHA1()
			}
			e.Digest = digest
			e.CompressedSize = uint64(compressedCounter.Count())
			compressedCounter.Reset()
		}
	}

	fanin := NewFanIn(sources, nil, onEnds)
	streamed := s.Chain.Apply(fanin)
	withCompressed := NewObserverStage(streamed, compressedCounter)

	streamDigest := NewMultiDigester(true, false, false)
	withStreamDigest := NewObserverStage(withCompressed, streamDigest)

	wholeCounter := &Counter{}
	withWhole := NewObserverStage(withStreamDigest, wholeCounter)

	s.Offset = uint64(buf.Tell())
	if _, err := Pipe(buf, withWhole, cfg.bufferSize); err != nil {
		return err
	}
	s.Length = uint64(wholeCounter.Count())
	s.Checksum = streamDigest.CRC32()
	s.HasChecksum = true
	s.Seekable = s.Chain.IsIdentity() && (len(s.Entries) == 1 || allEntriesIdentity(a, s))
	return nil
}
