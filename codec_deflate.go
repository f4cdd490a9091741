package box

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// DeflateFilterBuilder wraps klauspost/compress's drop-in, faster
// re-implementation of DEFLATE, used as the baseline compression filter.
type DeflateFilterBuilder struct {
	level      int
	bufferSize int
}

// NewDeflateFilterBuilder constructs a DEFLATE filter at the given
// compression level (flate.DefaultCompression if zero).
func NewDeflateFilterBuilder(level, bufferSize int) *DeflateFilterBuilder {
	if level == 0 {
		level = flate.DefaultCompression
	}
	return &DeflateFilterBuilder{level: level, bufferSize: bufferSize}
}

func (b *DeflateFilterBuilder) Identifier() uint32 { return FilterDeflate }

func (b *DeflateFilterBuilder) Apply(src Source) Source {
	return newPushEncodeStage(src, b.bufferSize, func(w io.Writer) pushEncoder {
		enc, _ := flate.NewWriter(w, b.level)
		return enc
	})
}

func (b *DeflateFilterBuilder) Unapply(src Source) Source {
	r := flate.NewReader(src)
	return newPullDecodeStage(r, r)
}

func (b *DeflateFilterBuilder) Mnemonic() string { return "deflate" }

// PayloadBytes is empty: the compression level is a local encoding choice,
// not part of the DEFLATE bitstream, so a decoder never needs it. On decode
// the filter is always reconstructed at flate.DefaultCompression.
func (b *DeflateFilterBuilder) PayloadBytes() []byte { return nil }

func (b *DeflateFilterBuilder) Setup(env *FilterEnv)    {}
func (b *DeflateFilterBuilder) Teardown(env *FilterEnv) {}

func init() {
	RegisterFilter(FilterDeflate, func(payload []byte, env *FilterEnv, bufferSize int) (FilterBuilder, error) {
		return NewDeflateFilterBuilder(flate.DefaultCompression, bufferSize), nil
	})
}
