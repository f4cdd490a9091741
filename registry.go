package box

import "fmt"

// Filter identifier ranges, mirroring builders::identifier from the original
// filter repository: 1-1023 are miscellaneous filters, 1024-2047 are
// compression codecs, 2048 and up are differential codecs.
const (
	FilterXOR     uint32 = 1
	FilterSkip    uint32 = 2
	FilterDeflate uint32 = 1024
	FilterLZMA    uint32 = 1025
	FilterLZ4     uint32 = 1026
	FilterZSTD    uint32 = 1027
	FilterXDelta  uint32 = 2048
)

// FilterBuilder is a configured, serializable filter: it knows how to wrap a
// Source for either encode (Apply) or decode (Unapply) direction, and how to
// serialize itself into a chain Payload record.
type FilterBuilder interface {
	Identifier() uint32
	Apply(src Source) Source
	Unapply(src Source) Source
	Mnemonic() string
	PayloadBytes() []byte
	Setup(env *FilterEnv)
	Teardown(env *FilterEnv)
}

// FilterDecoder reconstructs a FilterBuilder from its on-disk payload bytes,
// the shared FilterEnv, and the buffer size the writer/reader is configured
// with. Every codec adapter registers one of these from an init() function,
// which satisfies the "one-time registration at process start" requirement
// without needing an explicit sync.Once.
type FilterDecoder func(payload []byte, env *FilterEnv, bufferSize int) (FilterBuilder, error)

var filterRegistry = map[uint32]FilterDecoder{}

// RegisterFilter installs the decoder for a filter identifier. Calling it
// twice for the same identifier is a programmer error and panics.
func RegisterFilter(id uint32, dec FilterDecoder) {
	if _, exists := filterRegistry[id]; exists {
		panic(fmt.Sprintf("box: filter %d already registered", id))
	}
	filterRegistry[id] = dec
}

// DecodeFilter looks up and invokes the decoder for a filter payload's
// identifier, returning ErrUnknownFilter if none was registered.
func DecodeFilter(id uint32, payload []byte, env *FilterEnv, bufferSize int) (FilterBuilder, error) {
	dec, ok := filterRegistry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFilter, id)
	}
	return dec(payload, env, bufferSize)
}
