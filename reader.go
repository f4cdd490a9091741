package box

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Read parses an archive from source, validating its magic and the
// cross-reference invariants linking entries, streams and groups. A stored
// whole-file checksum is not verified here: it is reported but does not
// prevent the rest of the API from being used, so callers that care check
// it separately with Archive.IsValidGlobalChecksum.
func Read(source SeekableSource, opts ...ReaderOption) (*Archive, error) {
	cfg := defaultReaderConfig()
	for _, o := range opts {
		o(cfg)
	}

	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	hdrBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(source, hdrBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	header, err := unmarshalHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	if _, err := source.Seek(int64(header.SectionIndex.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	sectionBuf := make([]byte, int(header.SectionIndex.Count)*sectionHeaderSize)
	if _, err := io.ReadFull(source, sectionBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	sections := make(map[uint32]SectionHeader, header.SectionIndex.Count)
	for i := 0; i < int(header.SectionIndex.Count); i++ {
		sh, err := unmarshalSectionHeader(sectionBuf[i*sectionHeaderSize:])
		if err != nil {
			return nil, err
		}
		sections[sh.Type] = sh
	}

	a := NewArchive()
	a.header = header

	var entryRecs []entryRecord
	if sh, ok := sections[SectionEntryTable]; ok {
		entryRecs, err = readEntryRecords(source, sh)
		if err != nil {
			return nil, err
		}
	}

	var streamRecs []streamRecord
	if sh, ok := sections[SectionStreamTable]; ok {
		streamRecs, err = readStreamRecords(source, sh)
		if err != nil {
			return nil, err
		}
	}

	a.Streams = make([]*Stream, len(streamRecs))
	for i, rec := range streamRecs {
		chain, err := readChainAt(source, rec.PayloadOffset, rec.PayloadLength, cfg)
		if err != nil {
			return nil, err
		}
		a.Streams[i] = streamFromRecord(rec, chain)
	}

	a.Entries = make([]*Entry, len(entryRecs))
	for i, rec := range entryRecs {
		name, err := readCStringAt(source, rec.EntryNameOffset)
		if err != nil {
			return nil, err
		}
		chain, err := readChainAt(source, rec.PayloadOffset, rec.PayloadLength, cfg)
		if err != nil {
			return nil, err
		}
		a.Entries[i] = entryFromRecord(rec, name, chain)
	}

	if sh, ok := sections[SectionGroupTable]; ok {
		groups, err := readGroups(source, sh)
		if err != nil {
			return nil, err
		}
		a.Groups = groups
	}

	streamCounts := make([]int, len(a.Streams))
	for _, e := range a.Entries {
		if e.Stream < 0 || e.Stream >= len(a.Streams) {
			continue
		}
		if e.IndexInStream+1 > streamCounts[e.Stream] {
			streamCounts[e.Stream] = e.IndexInStream + 1
		}
	}
	for i, s := range a.Streams {
		s.Entries = make([]int, streamCounts[i])
		for j := range s.Entries {
			s.Entries[j] = -1
		}
	}
	for i, e := range a.Entries {
		if e.Stream < 0 || e.Stream >= len(a.Streams) {
			continue
		}
		s := a.Streams[e.Stream]
		if e.IndexInStream >= 0 && e.IndexInStream < len(s.Entries) {
			s.Entries[e.IndexInStream] = i
		}
	}

	if err := a.checkInvariants(); err != nil {
		return nil, err
	}
	return a, nil
}

// IsValidGlobalChecksum reports whether the archive's whole-file CRC32
// agrees with the bytes at source. If the archive was written without
// INTEGRITY_CHECKSUM_ENABLED, there is nothing to check and this reports
// true vacuously. A checksum mismatch is reported through the returned bool,
// not an error; the error return is reserved for failures to even read
// source (truncation, I/O errors). source must be the same archive Read
// parsed a (or an exact copy of it).
func (a *Archive) IsValidGlobalChecksum(source SeekableSource) (bool, error) {
	if a.header == nil || a.header.Flags&FlagIntegrityChecksumEnabled == 0 {
		return true, nil
	}
	err := verifyChecksum(source, a.header)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrChecksumMismatch) {
		Logger.Printf("global checksum mismatch: %v", err)
		return false, nil
	}
	return false, err
}

func verifyChecksum(source SeekableSource, header *Header) error {
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return err
	}
	full := make([]byte, header.FileLength)
	if _, err := io.ReadFull(source, full); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	checksumOffset := 16 + sectionHeaderSize + 8
	stored := header.FileChecksum
	putU32(full[checksumOffset:], 0)
	computed := crc32.ChecksumIEEE(full)
	if computed != stored {
		return fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, stored, computed)
	}
	return nil
}

func readEntryRecords(source SeekableSource, sh SectionHeader) ([]entryRecord, error) {
	if _, err := source.Seek(int64(sh.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, int(sh.Count)*entryRecordSize)
	if _, err := io.ReadFull(source, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	out := make([]entryRecord, sh.Count)
	for i := range out {
		rec, err := unmarshalEntryRecord(buf[i*entryRecordSize:])
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func readStreamRecords(source SeekableSource, sh SectionHeader) ([]streamRecord, error) {
	if _, err := source.Seek(int64(sh.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, int(sh.Count)*streamRecordSize)
	if _, err := io.ReadFull(source, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	out := make([]streamRecord, sh.Count)
	for i := range out {
		rec, err := unmarshalStreamRecord(buf[i*streamRecordSize:])
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func readGroups(source SeekableSource, sh SectionHeader) ([]*Group, error) {
	if _, err := source.Seek(int64(sh.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	groups := make([]*Group, 0, sh.Count)
	for i := uint32(0); i < sh.Count; i++ {
		countBuf := make([]byte, 4)
		if _, err := io.ReadFull(source, countBuf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
		}
		count := getU32(countBuf)
		indices := make([]int, count)
		idxBuf := make([]byte, 4*count)
		if _, err := io.ReadFull(source, idxBuf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
		}
		for j := uint32(0); j < count; j++ {
			indices[j] = int(getS32(idxBuf[j*4:]))
		}
		name, err := readCString(source)
		if err != nil {
			return nil, err
		}
		groups = append(groups, NewGroup(name, indices))
	}
	return groups, nil
}

func readCStringAt(source SeekableSource, offset uint64) (string, error) {
	if _, err := source.Seek(int64(offset), io.SeekStart); err != nil {
		return "", err
	}
	return readCString(source)
}

func readCString(r io.Reader) (string, error) {
	var out []byte
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTruncatedSection, err)
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
}

func readChainAt(source SeekableSource, offset uint64, length uint32, cfg *ReaderConfig) (*FilterChain, error) {
	if length == 0 {
		return NewFilterChain(), nil
	}
	if _, err := source.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(source, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	payloads, err := unmarshalFilterChainPayloads(buf)
	if err != nil {
		return nil, err
	}
	builders := make([]FilterBuilder, len(payloads))
	for i, p := range payloads {
		b, err := DecodeFilter(p.Identifier, p.Bytes, cfg.env, cfg.bufferSize)
		if err != nil {
			return nil, err
		}
		builders[i] = b
	}
	return NewFilterChain(builders...), nil
}

// ArchiveReadHandle provides random access to one entry's bytes within an
// already-parsed archive.
type ArchiveReadHandle struct {
	source  SeekableSource
	archive *Archive
	entry   *Entry
	cfg     *ReaderConfig
}

// NewArchiveReadHandle builds a handle for reading entry's bytes out of
// source, given the archive model entry belongs to.
func NewArchiveReadHandle(source SeekableSource, archive *Archive, entry *Entry, opts ...ReaderOption) *ArchiveReadHandle {
	cfg := defaultReaderConfig()
	for _, o := range opts {
		o(cfg)
	}
	return &ArchiveReadHandle{source: source, archive: archive, entry: entry, cfg: cfg}
}

// Source returns a Source yielding entry's bytes. If full is true, both the
// stream's and the entry's inverse filter chains are applied, reproducing
// the exact bytes originally offered to the writer; if false, only the
// stream's inverse chain is applied.
func (h *ArchiveReadHandle) Source(full bool) (Source, error) {
	e := h.entry
	s := h.archive.Streams[e.Stream]

	if s.Seekable {
		var prefix int64
		for _, idx := range s.Entries {
			if idx == h.entryIndex() {
				break
			}
			prefix += int64(h.archive.Entries[idx].CompressedSize)
		}
		abs := int64(s.Offset) + prefix
		if _, err := h.source.Seek(abs, io.SeekStart); err != nil {
			return nil, err
		}
		limited := io.LimitReader(h.source, int64(e.CompressedSize))
		tail := s.Chain.Unapply(limited)
		if full {
			tail = e.Chain.Unapply(tail)
		}
		return tail, nil
	}

	if _, err := h.source.Seek(int64(s.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	limited := io.LimitReader(h.source, int64(s.Length))
	tail := s.Chain.Unapply(limited)

	// Each entry's chain was applied to that entry alone before fan-in, so
	// cut this entry's filtered bytes out of the stream first and only then
	// undo its entry chain.
	var skip int64
	for _, idx := range s.Entries {
		if idx == h.entryIndex() {
			break
		}
		skip += int64(h.archive.Entries[idx].FilteredSize)
	}
	entryBytes := io.LimitReader(NewSkipFilter(tail, skip, 0, h.cfg.bufferSize), int64(e.FilteredSize))
	if full {
		return e.Chain.Unapply(entryBytes), nil
	}
	return entryBytes, nil
}

func (h *ArchiveReadHandle) entryIndex() int {
	for i, e := range h.archive.Entries {
		if e == h.entry {
			return i
		}
	}
	return -1
}
