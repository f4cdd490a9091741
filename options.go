package box

// WriterConfig holds the tunables a WriterOption may set, following the
// teacher's functional-options pattern (writer.go's WriterOption over a
// private config struct).
type WriterConfig struct {
	bufferSize        int
	integrityChecksum bool
	wantCRC32         bool
	wantMD5           bool
	wantSHA1          bool
}

// WriterOption configures Archive.Write.
type WriterOption func(*WriterConfig)

func defaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		bufferSize: defaultStageBuffer,
		wantCRC32:  true,
		wantMD5:    true,
		wantSHA1:   true,
	}
}

// WithBufferSize sets the chunk size used to pump each stream's filtered
// data into the archive buffer and the finished archive into the sink.
// Filter stages use the buffer size of their own builders.
func WithBufferSize(n int) WriterOption {
	return func(c *WriterConfig) { c.bufferSize = n }
}

// WithIntegrityChecksum enables the whole-file CRC32 checksum flag.
func WithIntegrityChecksum(enabled bool) WriterOption {
	return func(c *WriterConfig) { c.integrityChecksum = enabled }
}

// WithDigests selects which per-entry digests to compute. All three default
// to enabled.
func WithDigests(crc32, md5, sha1 bool) WriterOption {
	return func(c *WriterConfig) { c.wantCRC32, c.wantMD5, c.wantSHA1 = crc32, md5, sha1 }
}

// ReaderConfig holds the tunables a ReaderOption may set.
type ReaderConfig struct {
	bufferSize int
	env        *FilterEnv
}

// ReaderOption configures Read and NewArchiveReadHandle.
type ReaderOption func(*ReaderConfig)

func defaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{bufferSize: defaultStageBuffer, env: NewFilterEnv()}
}

// WithReaderBufferSize sets the scratch buffer size used when reconstructing
// filter chains on read.
func WithReaderBufferSize(n int) ReaderOption {
	return func(c *ReaderConfig) { c.bufferSize = n }
}

// WithFilterEnv supplies a pre-built FilterEnv, e.g. one already primed with
// a reference source for xdelta decode.
func WithFilterEnv(env *FilterEnv) ReaderOption {
	return func(c *ReaderConfig) { c.env = env }
}
