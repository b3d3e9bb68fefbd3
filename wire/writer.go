package wire

import (
	"encoding/binary"
	"math"
)

// Writer appends msgpack tokens to a growable byte buffer, always choosing
// the shortest legal encoding for the value it is given (fix-forms first,
// then the 8/16/32/64-bit variants in ascending order). Writing is strictly
// forward-only: once bytes are appended they are never rewritten.
//
// Writer is not safe for concurrent use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer that appends to an internally managed buffer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize returns a Writer with buf pre-allocated to at least size
// bytes, used by callers that migrate from thread-local scratch into a
// pooled buffer sized to the scratch contents already written.
func NewWriterSize(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// NewWriterFrom returns a Writer that appends to buf's backing array,
// starting from length zero. Used to drive the writer directly off a
// rented thread-local scratch slice without an extra allocation.
func NewWriterFrom(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// Reset clears the buffer for reuse, retaining its capacity.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Bytes returns the bytes written so far. The slice is invalidated by the
// next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteRaw appends already-encoded msgpack bytes verbatim, bypassing
// encoding entirely.
func (w *Writer) WriteRaw(p []byte) {
	w.buf = append(w.buf, p...)
}

// WriteNil appends a Nil token.
func (w *Writer) WriteNil() {
	w.buf = append(w.buf, byte(Nil))
}

// WriteBool appends a Bool token.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, byte(True))
	} else {
		w.buf = append(w.buf, byte(False))
	}
}

// WriteInt appends the shortest legal encoding of a signed integer.
func (w *Writer) WriteInt(v int64) {
	switch {
	case v >= 0:
		w.WriteUint(uint64(v))
	case v >= -32:
		w.buf = append(w.buf, byte(int8(v)))
	case v >= math.MinInt8:
		w.buf = append(w.buf, byte(Int8), byte(int8(v)))
	case v >= math.MinInt16:
		w.buf = append(w.buf, byte(Int16))
		w.putUint16(uint16(int16(v)))
	case v >= math.MinInt32:
		w.buf = append(w.buf, byte(Int32))
		w.putUint32(uint32(int32(v)))
	default:
		w.buf = append(w.buf, byte(Int64))
		w.putUint64(uint64(v))
	}
}

// WriteUint appends the shortest legal encoding of an unsigned integer.
func (w *Writer) WriteUint(v uint64) {
	switch {
	case v <= uint64(PosFixIntMax):
		w.buf = append(w.buf, byte(v))
	case v <= math.MaxUint8:
		w.buf = append(w.buf, byte(Uint8), byte(v))
	case v <= math.MaxUint16:
		w.buf = append(w.buf, byte(Uint16))
		w.putUint16(uint16(v))
	case v <= math.MaxUint32:
		w.buf = append(w.buf, byte(Uint32))
		w.putUint32(uint32(v))
	default:
		w.buf = append(w.buf, byte(Uint64))
		w.putUint64(v)
	}
}

// WriteFloat32 appends a Float32 token.
func (w *Writer) WriteFloat32(v float32) {
	w.buf = append(w.buf, byte(Float32))
	w.putUint32(math.Float32bits(v))
}

// WriteFloat64 appends a Float64 token.
func (w *Writer) WriteFloat64(v float64) {
	w.buf = append(w.buf, byte(Float64))
	w.putUint64(math.Float64bits(v))
}

// WriteString appends a Str-family token carrying the given UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.writeHeaderAndBytes(FixStrMin, FixStrMax, Str8, Str16, Str32, len(s))
	w.buf = append(w.buf, s...)
}

// WriteBinary appends a Bin-family token carrying the given bytes.
func (w *Writer) WriteBinary(p []byte) {
	n := len(p)
	switch {
	case n <= math.MaxUint8:
		w.buf = append(w.buf, byte(Bin8), byte(n))
	case n <= math.MaxUint16:
		w.buf = append(w.buf, byte(Bin16))
		w.putUint16(uint16(n))
	default:
		w.buf = append(w.buf, byte(Bin32))
		w.putUint32(uint32(n))
	}
	w.buf = append(w.buf, p...)
}

// WriteArrayHeader appends an array header of the given length; the caller
// is responsible for then writing exactly n element encodings.
func (w *Writer) WriteArrayHeader(n int) {
	w.writeContainerHeader(FixArrayMin, FixArrayMax, Array16, Array32, n)
}

// WriteMapHeader appends a map header of the given pair count; the caller
// is responsible for then writing exactly 2n encodings (key, value, ...).
func (w *Writer) WriteMapHeader(n int) {
	w.writeContainerHeader(FixMapMin, FixMapMax, Map16, Map32, n)
}

// WriteExtensionHeader appends an extension token's type code and length
// prefix; the caller must follow with exactly length bytes of payload.
func (w *Writer) WriteExtensionHeader(typeCode int8, length int) {
	switch length {
	case 1:
		w.buf = append(w.buf, byte(FixExt1), byte(typeCode))
		return
	case 2:
		w.buf = append(w.buf, byte(FixExt2), byte(typeCode))
		return
	case 4:
		w.buf = append(w.buf, byte(FixExt4), byte(typeCode))
		return
	case 8:
		w.buf = append(w.buf, byte(FixExt8), byte(typeCode))
		return
	case 16:
		w.buf = append(w.buf, byte(FixExt16), byte(typeCode))
		return
	}

	switch {
	case length <= math.MaxUint8:
		w.buf = append(w.buf, byte(Ext8), byte(length), byte(typeCode))
	case length <= math.MaxUint16:
		w.buf = append(w.buf, byte(Ext16))
		w.putUint16(uint16(length))
		w.buf = append(w.buf, byte(typeCode))
	default:
		w.buf = append(w.buf, byte(Ext32))
		w.putUint32(uint32(length))
		w.buf = append(w.buf, byte(typeCode))
	}
}

// WriteExtension appends a complete extension token.
func (w *Writer) WriteExtension(typeCode int8, payload []byte) {
	w.WriteExtensionHeader(typeCode, len(payload))
	w.buf = append(w.buf, payload...)
}

func (w *Writer) writeHeaderAndBytes(fixMin, fixMax, c8, c16, c32 Code, n int) {
	switch {
	case n <= int(fixMax-fixMin):
		w.buf = append(w.buf, compose(fixMin, n))
	case n <= math.MaxUint8:
		w.buf = append(w.buf, byte(c8), byte(n))
	case n <= math.MaxUint16:
		w.buf = append(w.buf, byte(c16))
		w.putUint16(uint16(n))
	default:
		w.buf = append(w.buf, byte(c32))
		w.putUint32(uint32(n))
	}
}

func (w *Writer) writeContainerHeader(fixMin, fixMax, c16, c32 Code, n int) {
	switch {
	case n <= int(fixMax-fixMin):
		w.buf = append(w.buf, compose(fixMin, n))
	case n <= math.MaxUint16:
		w.buf = append(w.buf, byte(c16))
		w.putUint16(uint16(n))
	default:
		w.buf = append(w.buf, byte(c32))
		w.putUint32(uint32(n))
	}
}

func (w *Writer) putUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) putUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) putUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}
