package wire

import (
	"errors"
	"io"
)

// SyncReader adapts Reader to a synchronous io.Reader source: any decode
// operation that fails with ErrShortBuffer is retried after pulling more
// bytes from the underlying stream, and a short read at end-of-stream is
// promoted to io.ErrUnexpectedEOF, matching spec's "synchronous reader
// throws EndOfStream" contract. All other errors (token mismatch, overflow,
// depth) propagate unchanged and are fatal to the call.
type SyncReader struct {
	src   io.Reader
	inner *Reader
	chunk []byte
}

// NewSyncReader returns a SyncReader pulling from src, using chunkSize as
// the read-ahead granularity (a reasonable default is used if chunkSize <= 0).
func NewSyncReader(src io.Reader, chunkSize int) *SyncReader {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &SyncReader{
		src:   src,
		inner: NewReader(nil),
		chunk: make([]byte, chunkSize),
	}
}

// Do runs op against the underlying Reader, automatically pulling more
// bytes and retrying as long as op reports ErrShortBuffer.
func (s *SyncReader) Do(op func(r *Reader) error) error {
	for {
		err := op(s.inner)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrShortBuffer) {
			return err
		}
		if fillErr := s.fill(); fillErr != nil {
			return fillErr
		}
	}
}

func (s *SyncReader) fill() error {
	n, err := s.src.Read(s.chunk)
	if n > 0 {
		s.inner.Fill(s.chunk[:n])
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			if n > 0 {
				// Bytes arrived alongside EOF; give the caller a chance to
				// make progress with them before surfacing end-of-stream.
				return nil
			}
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if n == 0 {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// Reader exposes the underlying Reader for operations that don't need the
// auto-retry wrapper (e.g. Clone for lookahead within an already-buffered
// region).
func (s *SyncReader) Reader() *Reader {
	return s.inner
}
