package box

// FilterChain is an ordered list of FilterBuilders applied outermost-last on
// encode and outermost-first on decode: Apply walks the chain in order,
// each stage wrapping the previous stage's output, so the last builder in
// the chain is the one whose output actually reaches the stream; Unapply
// walks it in reverse so the last-applied filter is the first undone.
type FilterChain struct {
	builders []FilterBuilder
}

// NewFilterChain builds a chain from builders, applied in the given order.
func NewFilterChain(builders ...FilterBuilder) *FilterChain {
	return &FilterChain{builders: builders}
}

// Apply wraps raw with every builder's encode stage, in chain order.
func (c *FilterChain) Apply(raw Source) Source {
	cur := raw
	for _, b := range c.builders {
		cur = b.Apply(cur)
	}
	return cur
}

// Unapply wraps compressed with every builder's decode stage, in reverse
// chain order.
func (c *FilterChain) Unapply(compressed Source) Source {
	cur := compressed
	for i := len(c.builders) - 1; i >= 0; i-- {
		cur = c.builders[i].Unapply(cur)
	}
	return cur
}

// Setup runs every builder's Setup, chain order, typically scanning
// reference sources and priming the shared FilterEnv.
func (c *FilterChain) Setup(env *FilterEnv) {
	for _, b := range c.builders {
		b.Setup(env)
	}
}

// Teardown runs every builder's Teardown in reverse chain order.
func (c *FilterChain) Teardown(env *FilterEnv) {
	for i := len(c.builders) - 1; i >= 0; i-- {
		c.builders[i].Teardown(env)
	}
}

// IsIdentity reports whether the chain has no stages: an entry or stream
// whose chain is empty (or made only of counting/digest observers, which are
// not FilterBuilders and never enter a chain) is seekable, per the
// seekability invariant in §4.7 of the component design.
func (c *FilterChain) IsIdentity() bool { return len(c.builders) == 0 }

// Payloads returns each builder's identifier and serialized payload, in
// chain order, for the on-disk Payload records.
func (c *FilterChain) Payloads() []FilterPayload {
	out := make([]FilterPayload, len(c.builders))
	for i, b := range c.builders {
		out[i] = FilterPayload{Identifier: b.Identifier(), Bytes: b.PayloadBytes()}
	}
	return out
}

// FilterPayload is one filter's serialized identifier and configuration
// bytes, as stored in a chain's Payload records.
type FilterPayload struct {
	Identifier uint32
	Bytes      []byte
}
