package box

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZSTDFilterBuilder wraps klauspost/compress/zstd as an additional
// compression filter alongside DEFLATE and LZMA.
type ZSTDFilterBuilder struct {
	bufferSize int
}

// NewZSTDFilterBuilder constructs a zstd filter with default encoder options.
func NewZSTDFilterBuilder(bufferSize int) *ZSTDFilterBuilder {
	return &ZSTDFilterBuilder{bufferSize: bufferSize}
}

func (b *ZSTDFilterBuilder) Identifier() uint32 { return FilterZSTD }

func (b *ZSTDFilterBuilder) Apply(src Source) Source {
	return newPushEncodeStage(src, b.bufferSize, func(w io.Writer) pushEncoder {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return failingEncoder{err}
		}
		return enc
	})
}

func (b *ZSTDFilterBuilder) Unapply(src Source) Source {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return &errorSource{err: err}
	}
	return &zstdDecodeStage{dec: dec}
}

// zstdDecodeStage adapts zstd.Decoder, whose Close has no error return and
// must be called to release the decoder's worker goroutines even though the
// decode stream itself is a plain io.Reader.
type zstdDecodeStage struct {
	dec *zstd.Decoder
}

func (s *zstdDecodeStage) Read(p []byte) (int, error) { return s.dec.Read(p) }
func (s *zstdDecodeStage) Close() error {
	s.dec.Close()
	return nil
}

func (b *ZSTDFilterBuilder) Mnemonic() string { return "zstd" }

func (b *ZSTDFilterBuilder) PayloadBytes() []byte { return nil }

func (b *ZSTDFilterBuilder) Setup(env *FilterEnv)    {}
func (b *ZSTDFilterBuilder) Teardown(env *FilterEnv) {}

func init() {
	RegisterFilter(FilterZSTD, func(payload []byte, env *FilterEnv, bufferSize int) (FilterBuilder, error) {
		return NewZSTDFilterBuilder(bufferSize), nil
	})
}
