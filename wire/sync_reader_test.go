package wire

import (
	"bytes"
	"io"
	"testing"
)

func TestSyncReader_PullsMoreBytesOnShortBuffer(t *testing.T) {
	w := NewWriter()
	w.WriteString("hello world")

	src := bytes.NewReader(w.Bytes())
	sr := NewSyncReader(src, 1) // force many small pulls

	var got []byte
	err := sr.Do(func(r *Reader) error {
		s, err := r.ReadStringHeader()
		if err != nil {
			return err
		}
		got = append([]byte{}, s...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestSyncReader_UnexpectedEOF(t *testing.T) {
	// A Str8 header claiming 5 bytes but only 2 are ever available.
	src := bytes.NewReader([]byte{byte(Str8), 0x05, 'h', 'i'})
	sr := NewSyncReader(src, 64)

	err := sr.Do(func(r *Reader) error {
		_, err := r.ReadStringHeader()
		return err
	})
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}
