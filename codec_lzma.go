package box

import (
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMAFilterBuilder frames a raw LZMA1 stream (lzma.Writer/lzma.Reader, not
// the .xz container format xz.Writer/xz.Reader produce). The lower-level
// lzma subpackage is used directly since the archive already has its own
// stream/section framing and does not need the .xz container's own header,
// index and footer.
type LZMAFilterBuilder struct {
	bufferSize int
}

// NewLZMAFilterBuilder constructs a raw-LZMA1 filter.
func NewLZMAFilterBuilder(bufferSize int) *LZMAFilterBuilder {
	return &LZMAFilterBuilder{bufferSize: bufferSize}
}

func (b *LZMAFilterBuilder) Identifier() uint32 { return FilterLZMA }

func (b *LZMAFilterBuilder) Apply(src Source) Source {
	return newPushEncodeStage(src, b.bufferSize, func(w io.Writer) pushEncoder {
		enc, err := lzma.NewWriter(w)
		if err != nil {
			return failingEncoder{err}
		}
		return enc
	})
}

func (b *LZMAFilterBuilder) Unapply(src Source) Source {
	r, err := lzma.NewReader(src)
	if err != nil {
		return &errorSource{err: err}
	}
	return newPullDecodeStage(r)
}

func (b *LZMAFilterBuilder) Mnemonic() string { return "lzma" }

func (b *LZMAFilterBuilder) PayloadBytes() []byte { return nil }

func (b *LZMAFilterBuilder) Setup(env *FilterEnv)    {}
func (b *LZMAFilterBuilder) Teardown(env *FilterEnv) {}

// failingEncoder stands in for a codec whose constructor failed, so the
// error surfaces on first Write rather than from Apply itself, keeping
// FilterBuilder.Apply's signature panic-free.
type failingEncoder struct{ err error }

func (f failingEncoder) Write(p []byte) (int, error) { return 0, f.err }
func (f failingEncoder) Close() error                { return f.err }

// errorSource is a Source that always fails, used when a decoder's
// constructor errors before any bytes have been requested.
type errorSource struct{ err error }

func (e *errorSource) Read(p []byte) (int, error) { return 0, e.err }

func init() {
	RegisterFilter(FilterLZMA, func(payload []byte, env *FilterEnv, bufferSize int) (FilterBuilder, error) {
		return NewLZMAFilterBuilder(bufferSize), nil
	})
}
