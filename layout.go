package box

import "encoding/binary"

// On-disk layout. Every multi-byte integer is little-endian;
// structs are packed with no implicit padding. Records are serialized and
// parsed field-by-field with explicit offsets rather than via binary.Write/
// Read on the Go struct itself, since Go struct layout inserts padding the
// wire format does not.
const (
	magicB, magicO, magicX, magicBang = 'b', 'o', 'x', '!'

	sectionHeaderSize = 8 + 8 + 4 + 4 // offset, size, type, count
	headerSize        = 4 + 4 + 8 + sectionHeaderSize + 8 + 4
	entryRecordSize   = 8 + digestInfoSize + 4 + 4 + 8 + 4 + 8
	streamRecordSize  = 8 + 8 + 8 + 4 + 8 + 4
	digestInfoSize    = 8 + 4 + 16 + 20 // size, crc32, md5, sha1
)

// Section types, matching the on-disk enum exactly.
const (
	SectionHeaderType    uint32 = 1
	SectionTableType     uint32 = 2
	SectionEntryTable    uint32 = 3
	SectionCommentsTable uint32 = 4
	SectionEntryPayload  uint32 = 5
	SectionStreamTable   uint32 = 6
	SectionStreamPayload uint32 = 7
	SectionStreamData    uint32 = 8
	SectionFileNameTable uint32 = 9
	SectionGroupTable    uint32 = 10
)

// Header flag bits.
const (
	FlagIntegrityChecksumEnabled uint64 = 1 << 0
)

// Stream flag bits.
const (
	StreamFlagSeekable    uint64 = 1 << 0
	StreamFlagHasChecksum uint64 = 1 << 1
)

func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func putS32(b []byte, v int32)  { binary.LittleEndian.PutUint32(b, uint32(v)) }
func getU32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
func getU64(b []byte) uint64    { return binary.LittleEndian.Uint64(b) }
func getS32(b []byte) int32     { return int32(binary.LittleEndian.Uint32(b)) }

// DigestInfo is the fixed-size digest record embedded in every entry record.
type DigestInfo struct {
	Size  uint64
	CRC32 uint32
	MD5   [16]byte
	SHA1  [20]byte
}

func (d *DigestInfo) marshalInto(buf []byte) {
	putU64(buf[0:], d.Size)
	putU32(buf[8:], d.CRC32)
	copy(buf[12:28], d.MD5[:])
	copy(buf[28:48], d.SHA1[:])
}

func unmarshalDigestInfo(buf []byte) DigestInfo {
	var d DigestInfo
	d.Size = getU64(buf[0:])
	d.CRC32 = getU32(buf[8:])
	copy(d.MD5[:], buf[12:28])
	copy(d.SHA1[:], buf[28:48])
	return d
}

// SectionHeader describes one entry in the section table.
type SectionHeader struct {
	Offset uint64
	Size   uint64
	Type   uint32
	Count  uint32
}

func (s *SectionHeader) marshalInto(buf []byte) {
	putU64(buf[0:], s.Offset)
	putU64(buf[8:], s.Size)
	putU32(buf[16:], s.Type)
	putU32(buf[20:], s.Count)
}

func unmarshalSectionHeader(buf []byte) (SectionHeader, error) {
	if len(buf) < sectionHeaderSize {
		return SectionHeader{}, ErrTruncatedSection
	}
	return SectionHeader{
		Offset: getU64(buf[0:]),
		Size:   getU64(buf[8:]),
		Type:   getU32(buf[16:]),
		Count:  getU32(buf[20:]),
	}, nil
}

// Header is the fixed-size record at offset 0 of every archive.
type Header struct {
	Version      uint32
	Flags        uint64
	SectionIndex SectionHeader
	FileLength   uint64
	FileChecksum uint32
}

func (h *Header) marshal() []byte {
	buf := make([]byte, headerSize)
	buf[0], buf[1], buf[2], buf[3] = magicB, magicO, magicX, magicBang
	putU32(buf[4:], h.Version)
	putU64(buf[8:], h.Flags)
	h.SectionIndex.marshalInto(buf[16 : 16+sectionHeaderSize])
	off := 16 + sectionHeaderSize
	putU64(buf[off:], h.FileLength)
	putU32(buf[off+8:], h.FileChecksum)
	return buf
}

func unmarshalHeader(buf []byte) (*Header, error) {
	if len(buf) < headerSize {
		return nil, ErrTruncatedSection
	}
	if buf[0] != magicB || buf[1] != magicO || buf[2] != magicX || buf[3] != magicBang {
		return nil, ErrInvalidMagic
	}
	h := &Header{
		Version: getU32(buf[4:]),
		Flags:   getU64(buf[8:]),
	}
	sh, err := unmarshalSectionHeader(buf[16 : 16+sectionHeaderSize])
	if err != nil {
		return nil, err
	}
	h.SectionIndex = sh
	off := 16 + sectionHeaderSize
	h.FileLength = getU64(buf[off:])
	h.FileChecksum = getU32(buf[off+8:])
	return h, nil
}

// entryRecord is the fixed-size on-disk shape of Entry, minus its name
// (stored separately in the file-name table) and its filter-chain payload
// bytes (stored separately in the entry-payload section).
type entryRecord struct {
	FilteredSize    uint64
	Digest          DigestInfo
	Stream          int32
	IndexInStream   int32
	PayloadOffset   uint64
	PayloadLength   uint32
	EntryNameOffset uint64
}

func (e *entryRecord) marshal() []byte {
	buf := make([]byte, entryRecordSize)
	putU64(buf[0:], e.FilteredSize)
	e.Digest.marshalInto(buf[8 : 8+digestInfoSize])
	off := 8 + digestInfoSize
	putS32(buf[off:], e.Stream)
	putS32(buf[off+4:], e.IndexInStream)
	putU64(buf[off+8:], e.PayloadOffset)
	putU32(buf[off+16:], e.PayloadLength)
	putU64(buf[off+20:], e.EntryNameOffset)
	return buf
}

func unmarshalEntryRecord(buf []byte) (entryRecord, error) {
	if len(buf) < entryRecordSize {
		return entryRecord{}, ErrTruncatedSection
	}
	var e entryRecord
	e.FilteredSize = getU64(buf[0:])
	e.Digest = unmarshalDigestInfo(buf[8 : 8+digestInfoSize])
	off := 8 + digestInfoSize
	e.Stream = getS32(buf[off:])
	e.IndexInStream = getS32(buf[off+4:])
	e.PayloadOffset = getU64(buf[off+8:])
	e.PayloadLength = getU32(buf[off+16:])
	e.EntryNameOffset = getU64(buf[off+20:])
	return e, nil
}

// streamRecord is the fixed-size on-disk shape of Stream.
type streamRecord struct {
	Flags         uint64
	Offset        uint64
	Length        uint64
	Checksum      uint32
	PayloadOffset uint64
	PayloadLength uint32
}

func (s *streamRecord) marshal() []byte {
	buf := make([]byte, streamRecordSize)
	putU64(buf[0:], s.Flags)
	putU64(buf[8:], s.Offset)
	putU64(buf[16:], s.Length)
	putU32(buf[24:], s.Checksum)
	putU64(buf[28:], s.PayloadOffset)
	putU32(buf[36:], s.PayloadLength)
	return buf
}

func unmarshalStreamRecord(buf []byte) (streamRecord, error) {
	if len(buf) < streamRecordSize {
		return streamRecord{}, ErrTruncatedSection
	}
	return streamRecord{
		Flags:         getU64(buf[0:]),
		Offset:        getU64(buf[8:]),
		Length:        getU64(buf[16:]),
		Checksum:      getU32(buf[24:]),
		PayloadOffset: getU64(buf[28:]),
		PayloadLength: getU32(buf[36:]),
	}, nil
}

// filterPayloadRecordHeaderSize is the 16-byte header preceding each filter
// chain record's parameter bytes: identifier(4) + record_length(8) +
// has_next(4).
const filterPayloadRecordHeaderSize = 4 + 8 + 4

// marshalFilterChainPayloads serializes a chain's builder payloads as the
// repeating {identifier, record_length, has_next, parameter_bytes} records.
func marshalFilterChainPayloads(payloads []FilterPayload) []byte {
	var out []byte
	for i, p := range payloads {
		hasNext := uint32(0)
		if i < len(payloads)-1 {
			hasNext = 1
		}
		recLen := uint64(filterPayloadRecordHeaderSize + len(p.Bytes))
		rec := make([]byte, recLen)
		putU32(rec[0:], p.Identifier)
		putU64(rec[4:], recLen)
		putU32(rec[12:], hasNext)
		copy(rec[filterPayloadRecordHeaderSize:], p.Bytes)
		out = append(out, rec...)
	}
	return out
}

// unmarshalFilterChainPayloads parses the repeating filter-chain records out
// of buf until has_next == 0 or buf is exhausted.
func unmarshalFilterChainPayloads(buf []byte) ([]FilterPayload, error) {
	var out []FilterPayload
	for len(buf) > 0 {
		if len(buf) < filterPayloadRecordHeaderSize {
			return nil, ErrTruncatedSection
		}
		id := getU32(buf[0:])
		recLen := getU64(buf[4:])
		hasNext := getU32(buf[12:])
		if recLen < filterPayloadRecordHeaderSize || uint64(len(buf)) < recLen {
			return nil, ErrTruncatedSection
		}
		params := append([]byte(nil), buf[filterPayloadRecordHeaderSize:recLen]...)
		out = append(out, FilterPayload{Identifier: id, Bytes: params})
		buf = buf[recLen:]
		if hasNext == 0 {
			break
		}
	}
	return out, nil
}
