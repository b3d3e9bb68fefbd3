package wire

import (
	"context"
	"io"
)

// StreamWriter wraps a Writer and commits its buffered bytes to a downstream
// sink once the pending-byte count crosses a configurable threshold. This is
// the only suspension point on the writing path (spec's "asynchronous
// writer"); Go has no separate async/await surface, so the suspension point
// is simply the point at which FlushIfAppropriate performs (and may block
// on) the underlying io.Writer.
type StreamWriter struct {
	*Writer
	sink      io.Writer
	threshold int
}

// DefaultFlushThreshold is used when NewStreamWriter is given threshold <= 0.
const DefaultFlushThreshold = 16 * 1024

// NewStreamWriter returns a StreamWriter committing to sink whenever the
// buffered byte count exceeds threshold.
func NewStreamWriter(sink io.Writer, threshold int) *StreamWriter {
	if threshold <= 0 {
		threshold = DefaultFlushThreshold
	}
	return &StreamWriter{
		Writer:    NewWriter(),
		sink:      sink,
		threshold: threshold,
	}
}

// FlushIfAppropriate commits the buffer to the sink if it has grown past the
// configured threshold, checking ctx for cancellation first. It is the
// caller's responsibility to call this only at msgpack token boundaries
// (never mid-token), so that a partial flush never splits a token across
// two writes to the sink.
func (w *StreamWriter) FlushIfAppropriate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Writer.Len() <= w.threshold {
		return nil
	}
	return w.Flush()
}

// Flush commits all buffered bytes to the sink unconditionally.
func (w *StreamWriter) Flush() error {
	if w.Writer.Len() == 0 {
		return nil
	}
	if _, err := w.sink.Write(w.Writer.Bytes()); err != nil {
		return err
	}
	w.Writer.Reset()
	return nil
}
