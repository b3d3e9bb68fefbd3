package wire

import (
	"bytes"
	"context"
	"testing"
)

func TestStreamWriter_FlushesPastThreshold(t *testing.T) {
	var sink bytes.Buffer
	sw := NewStreamWriter(&sink, 4)

	sw.WriteString("ab") // 3 bytes, under threshold
	if err := sw.FlushIfAppropriate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sink.Len() != 0 {
		t.Fatalf("flushed early: sink has %d bytes", sink.Len())
	}

	sw.WriteString("cdef") // pushes buffered bytes over threshold
	if err := sw.FlushIfAppropriate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sink.Len() == 0 {
		t.Fatal("expected flush to have committed bytes")
	}
	if sw.Writer.Len() != 0 {
		t.Fatalf("writer buffer not reset after flush, len = %d", sw.Writer.Len())
	}
}

func TestStreamWriter_RespectsCancellation(t *testing.T) {
	var sink bytes.Buffer
	sw := NewStreamWriter(&sink, 1)
	sw.WriteString("x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sw.FlushIfAppropriate(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
