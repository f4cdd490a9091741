package box

import "io"

// StageProcessor is the chunk-wise transform driven by BufferedStage. It may
// only consume from in and produce into out, must tolerate being called with
// an empty in (flush-only, once the parent has reached EOS) and a full out
// (the caller drains before calling again), and reports completion once it
// has nothing left to flush.
type StageProcessor interface {
	// Process moves bytes from in to out. It is not told whether the parent
	// has ended: once the parent returns io.EOF, BufferedStage keeps calling
	// Process until in is drained, then asks Done.
	Process(in, out *ring) error

	// Done reports whether this processor has nothing further to flush.
	// BufferedStage consults it only after the parent has returned io.EOF
	// and once in and out are both empty.
	Done() bool

	// Close releases any codec state. Safe to call more than once.
	Close() error
}

const (
	defaultStageBuffer = 32 * 1024
	maxStageBuffer     = 4 * 1024 * 1024
)

// BufferedStage is a Source wrapping a parent Source plus a StageProcessor,
// implementing the filter-stage contract: pull from the parent into an "in"
// ring, call Process to move bytes into "out", then serve "out" to the
// caller. See the state machine in the component design (§4.9): READY ->
// FILLING -> PROCESS -> DRAINING, transitioning to ENDING once the parent
// returns io.EOF and to ENDED once the processor reports Done with both
// rings empty.
type BufferedStage struct {
	parent  Source
	proc    StageProcessor
	in, out *ring
	ending  bool
	ended   bool
}

// NewBufferedStage constructs a stage around parent with the given
// processor and initial buffer size; both rings grow up to maxStageBuffer
// when a single codec step needs more room than is currently available.
func NewBufferedStage(parent Source, proc StageProcessor, bufferSize int) *BufferedStage {
	if bufferSize <= 0 {
		bufferSize = defaultStageBuffer
	}
	return &BufferedStage{
		parent: parent,
		proc:   proc,
		in:     newRing(bufferSize, maxStageBuffer),
		out:    newRing(bufferSize, maxStageBuffer),
	}
}

func (s *BufferedStage) Read(p []byte) (int, error) {
	for {
		if s.out.Len() > 0 {
			n := copy(p, s.out.Head())
			s.out.Consume(n)
			return n, nil
		}
		if s.ended {
			return 0, io.EOF
		}

		progressed := false

		if !s.ending && s.in.Avail() > 0 {
			n, err := s.parent.Read(s.in.Tail())
			if n > 0 {
				s.in.Advance(n)
				progressed = true
			}
			switch {
			case err == io.EOF:
				s.ending = true
			case err != nil:
				return 0, err
			}
		}

		inLen, outLen := s.in.Len(), s.out.Len()
		if err := s.proc.Process(s.in, s.out); err != nil {
			return 0, err
		}
		if s.in.Len() != inLen || s.out.Len() != outLen {
			progressed = true
		}

		if s.ending && s.in.Empty() && s.out.Empty() && s.proc.Done() {
			s.ended = true
			continue
		}

		if !progressed {
			// process() found out too small for a single codec step, or
			// in too small to hand the codec a useful chunk: grow
			// whichever ring is saturated and retry, up to the cap.
			grew := false
			if s.out.Avail() == 0 {
				grew = s.out.Grow() || grew
			}
			if !s.ending && s.in.Avail() == 0 {
				grew = s.in.Grow() || grew
			}
			if !grew {
				if s.ending && s.in.Empty() && s.out.Empty() {
					// processor never reports Done though there is
					// nothing left to give it - a codec bug.
					return 0, ErrStageStalled
				}
				if !s.ending {
					// needs more input than the parent has given so far
					// and nothing to drain: loop back to read more.
					continue
				}
				return 0, ErrStageStalled
			}
		}
	}
}

// Close releases the underlying processor's codec state.
func (s *BufferedStage) Close() error { return s.proc.Close() }
