package box

import "io"

// Pipe drains src into dst in bufferSize chunks until src is exhausted,
// returning the number of bytes copied. It is the glue between a filter
// chain's terminal Source and the writer's underlying archive Sink; unlike
// io.Copy it lets the caller control the buffer size, matching the rest of
// the pipeline's explicit buffer sizing.
func Pipe(dst Sink, src Source, bufferSize int) (int64, error) {
	if bufferSize <= 0 {
		bufferSize = defaultStageBuffer
	}
	buf := make([]byte, bufferSize)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, werr
			}
			if w < n {
				return total, io.ErrShortWrite
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
