package box

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrInvalidMagic is returned when the file does not start with the "box!" signature.
	ErrInvalidMagic = errors.New("box: invalid magic, not a box archive")

	// ErrTruncatedSection is returned when a section header or filter-chain
	// record references bytes beyond what the underlying source holds.
	ErrTruncatedSection = errors.New("box: truncated section")

	// ErrUnknownFilter is returned when a filter-chain record references an
	// identifier that is not present in the registry.
	ErrUnknownFilter = errors.New("box: unknown filter identifier")

	// ErrCrossReference is returned when the invariants linking entries,
	// streams and groups do not hold.
	ErrCrossReference = errors.New("box: cross-reference invariant violation")

	// ErrChecksumMismatch is wrapped internally when the stored whole-file
	// CRC32 disagrees with the computed one. It never surfaces from Read,
	// which does not verify the checksum; Archive.IsValidGlobalChecksum
	// reports the mismatch as a bool instead, since a caller may choose to
	// tolerate it.
	ErrChecksumMismatch = errors.New("box: integrity checksum mismatch")

	// ErrCodec is the sentinel for a codec-reported error. The codec
	// adapters in this package return their library's errors unwrapped, so
	// errors.Is(err, ErrCodec) does not match those errors.
	ErrCodec = errors.New("box: upstream codec error")

	// ErrStageStalled is returned by a filter stage when process() makes no
	// progress after growing its output buffer to the implementation cap -
	// this indicates a codec bug, not a data error.
	ErrStageStalled = errors.New("box: filter stage made no progress")

	// ErrNotSeekable names the failure of an operation that needs a
	// SeekableSource but has a plain Source. No function in this package
	// returns it: the operations that need random access take a
	// SeekableSource parameter.
	ErrNotSeekable = errors.New("box: source is not seekable")

	// ErrXDeltaReferenceUnbound is returned when decoding an xdelta filter
	// chain record and no reference source has been bound on the FilterEnv
	// via FilterEnv.BindXDeltaReference.
	ErrXDeltaReferenceUnbound = errors.New("box: xdelta filter reference source not bound on FilterEnv")
)
