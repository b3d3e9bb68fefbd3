package wire

import (
	"bytes"
	"testing"
)

func TestWriteInt_Shortest(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{byte(Uint8), 0x80}},
		{255, []byte{byte(Uint8), 0xff}},
		{256, []byte{byte(Uint16), 0x01, 0x00}},
		{65535, []byte{byte(Uint16), 0xff, 0xff}},
		{65536, []byte{byte(Uint32), 0x00, 0x01, 0x00, 0x00}},
		{1<<31 - 1, []byte{byte(Uint32), 0x7f, 0xff, 0xff, 0xff}},
		{1 << 32, []byte{byte(Uint64), 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{-1, []byte{0xff}},
		{-32, []byte{0xe0}},
		{-33, []byte{byte(Int8), 0xdf}},
		{-128, []byte{byte(Int8), 0x80}},
		{-129, []byte{byte(Int16), 0xff, 0x7f}},
		{-32768, []byte{byte(Int16), 0x80, 0x00}},
		{-32769, []byte{byte(Int32), 0xff, 0xff, 0x7f, 0xff}},
		{-(1 << 31), []byte{byte(Int32), 0x80, 0x00, 0x00, 0x00}},
		{-(1<<31) - 1, []byte{byte(Int64), 0xff, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}},
	}

	for _, c := range cases {
		w := NewWriter()
		w.WriteInt(c.v)
		if !bytes.Equal(w.Bytes(), c.want) {
			t.Errorf("WriteInt(%d) = % x, want % x", c.v, w.Bytes(), c.want)
		}
	}
}

func TestWriteUint_Shortest(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{byte(Uint8), 0x80}},
		{255, []byte{byte(Uint8), 0xff}},
		{256, []byte{byte(Uint16), 0x01, 0x00}},
		{65535, []byte{byte(Uint16), 0xff, 0xff}},
		{65536, []byte{byte(Uint32), 0x00, 0x01, 0x00, 0x00}},
		{1<<32 - 1, []byte{byte(Uint32), 0xff, 0xff, 0xff, 0xff}},
		{1 << 32, []byte{byte(Uint64), 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
		{1<<64 - 1, []byte{byte(Uint64), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, c := range cases {
		w := NewWriter()
		w.WriteUint(c.v)
		if !bytes.Equal(w.Bytes(), c.want) {
			t.Errorf("WriteUint(%d) = % x, want % x", c.v, w.Bytes(), c.want)
		}
	}
}

func TestWriteArrayMapHeader_FixForm(t *testing.T) {
	w := NewWriter()
	w.WriteArrayHeader(0)
	if !bytes.Equal(w.Bytes(), []byte{0x90}) {
		t.Errorf("empty array = % x, want 0x90", w.Bytes())
	}

	w.Reset()
	w.WriteMapHeader(0)
	if !bytes.Equal(w.Bytes(), []byte{0x80}) {
		t.Errorf("empty map = % x, want 0x80", w.Bytes())
	}
}

func TestWriteString_FixForm(t *testing.T) {
	w := NewWriter()
	w.WriteString("Ada")
	want := []byte{0xa3, 'A', 'd', 'a'}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("WriteString(Ada) = % x, want % x", w.Bytes(), want)
	}
}

func TestWriteExtension_Timestamp32(t *testing.T) {
	w := NewWriter()
	// 2020-01-01T00:00:00Z is 1577836800 seconds since epoch.
	w.WriteExtension(ExtTimestamp, []byte{0x5e, 0x0b, 0xe1, 0x00})
	want := []byte{byte(FixExt4), 0xff, 0x5e, 0x0b, 0xe1, 0x00}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("WriteExtension(timestamp) = % x, want % x", w.Bytes(), want)
	}
}
