package wire

import (
	"encoding/binary"
	"math"
)

// Reader decodes msgpack tokens from a byte slice. It never consumes bytes
// on a failed operation, so the same call can be safely retried once more
// bytes are appended with Fill, as SyncReader does, or treated as fatal.
//
// Reader is not safe for concurrent use; each decode operation should own
// one, per the context ownership rules the parent package documents.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over p. The returned Reader does not copy p;
// the caller must not mutate p while the Reader (or any value it returns)
// is in use.
func NewReader(p []byte) *Reader {
	return &Reader{buf: p}
}

// Len returns the number of unread bytes remaining in the buffer.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Pos returns the current read offset, for tests that verify Skip advances
// exactly as far as a value's encoded length.
func (r *Reader) Pos() int {
	return r.pos
}

// Clone returns an independent cursor over the same underlying bytes,
// positioned where r currently is. Mutating the clone's position does not
// affect r. Used by union resolution and shape-based duck typing to look
// ahead without consuming.
func (r *Reader) Clone() *Reader {
	return &Reader{buf: r.buf, pos: r.pos}
}

// Fill appends more bytes to the buffer, used by SyncReader to extend the
// window after ErrShortBuffer.
func (r *Reader) Fill(p []byte) {
	r.buf = append(r.buf, p...)
}

func (r *Reader) byteAt(i int) byte {
	return r.buf[r.pos+i]
}

func (r *Reader) peekCode() (Code, error) {
	if r.Len() < 1 {
		return 0, shortBuffer(1, r.Len())
	}
	return Code(r.byteAt(0)), nil
}

// PeekCode returns the next lead byte without consuming it.
func (r *Reader) PeekCode() (Code, error) {
	return r.peekCode()
}

// PeekIsString reports whether the next token is a string (any fix-str,
// Str8, Str16 or Str32 form), without consuming it. Used by converters that
// accept either an enum's name or its ordinal on the wire.
func (r *Reader) PeekIsString() (bool, error) {
	c, err := r.peekCode()
	if err != nil {
		return false, err
	}
	return isFixStr(c) || c == Str8 || c == Str16 || c == Str32, nil
}

// TryReadNil consumes a Nil token if present. It reports ok=true if a Nil
// token was consumed; ok=false (with a nil error) if the next token is not
// Nil, in which case nothing is consumed. An error is returned only when the
// buffer is too short to contain a lead byte at all.
func (r *Reader) TryReadNil() (ok bool, err error) {
	c, err := r.peekCode()
	if err != nil {
		return false, err
	}
	if c != Nil {
		return false, nil
	}
	r.pos++
	return true, nil
}

// ReadBool decodes a boolean token.
func (r *Reader) ReadBool() (bool, error) {
	c, err := r.peekCode()
	if err != nil {
		return false, err
	}
	switch c {
	case True:
		r.pos++
		return true, nil
	case False:
		r.pos++
		return false, nil
	default:
		return false, mismatch(c)
	}
}

// readRawSigned decodes any integer-family token and widens it to int64,
// failing with an OverflowError if an unsigned encoding exceeds math.MaxInt64.
func (r *Reader) readRawSigned() (int64, error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, err
	}

	switch {
	case isPosFixInt(c):
		r.pos++
		return int64(c), nil
	case isNegFixInt(c):
		r.pos++
		return int64(int8(c)), nil
	}

	switch c {
	case Uint8:
		v, err := r.readTail(1)
		if err != nil {
			return 0, err
		}
		return int64(v[0]), nil
	case Uint16:
		v, err := r.readTail(2)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint16(v)), nil
	case Uint32:
		v, err := r.readTail(4)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint32(v)), nil
	case Uint64:
		v, err := r.readTail(8)
		if err != nil {
			return 0, err
		}
		u := binary.BigEndian.Uint64(v)
		if u > math.MaxInt64 {
			return 0, &OverflowError{Value: int64(u), Bits: 64, Signed: true}
		}
		return int64(u), nil
	case Int8:
		v, err := r.readTail(1)
		if err != nil {
			return 0, err
		}
		return int64(int8(v[0])), nil
	case Int16:
		v, err := r.readTail(2)
		if err != nil {
			return 0, err
		}
		return int64(int16(binary.BigEndian.Uint16(v))), nil
	case Int32:
		v, err := r.readTail(4)
		if err != nil {
			return 0, err
		}
		return int64(int32(binary.BigEndian.Uint32(v))), nil
	case Int64:
		v, err := r.readTail(8)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(v)), nil
	default:
		return 0, mismatch(c)
	}
}

// readRawUnsigned decodes any integer-family token as an unsigned value,
// failing with an OverflowError if a signed encoding is negative.
func (r *Reader) readRawUnsigned() (uint64, error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, err
	}

	if isNegFixInt(c) {
		return 0, &OverflowError{Value: int64(int8(c)), Bits: 64, Signed: false}
	}

	sv, err := r.readRawSigned()
	if err != nil {
		// Uint64 is the one encoding readRawSigned can't represent; handle
		// it directly here so large unsigned values round-trip.
		if ofl, ok := err.(*OverflowError); ok && c == Uint64 {
			return uint64(ofl.Value), nil
		}
		return 0, err
	}
	if sv < 0 {
		return 0, &OverflowError{Value: sv, Bits: 64, Signed: false}
	}
	return uint64(sv), nil
}

func (r *Reader) readTail(n int) ([]byte, error) {
	if r.Len() < 1+n {
		return nil, shortBuffer(1+n, r.Len())
	}
	v := r.buf[r.pos+1 : r.pos+1+n]
	r.pos += 1 + n
	return v, nil
}

// ReadInt8 decodes any integer token into an int8, failing with
// OverflowError if the value does not fit.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.readRawSigned()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, &OverflowError{Value: v, Bits: 8, Signed: true}
	}
	return int8(v), nil
}

// ReadInt16 decodes any integer token into an int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.readRawSigned()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, &OverflowError{Value: v, Bits: 16, Signed: true}
	}
	return int16(v), nil
}

// ReadInt32 decodes any integer token into an int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.readRawSigned()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, &OverflowError{Value: v, Bits: 32, Signed: true}
	}
	return int32(v), nil
}

// ReadInt64 decodes any integer token into an int64.
func (r *Reader) ReadInt64() (int64, error) {
	return r.readRawSigned()
}

// ReadUint8 decodes any integer token into a uint8.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.readRawUnsigned()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, &OverflowError{Value: int64(v), Bits: 8, Signed: false}
	}
	return uint8(v), nil
}

// ReadUint16 decodes any integer token into a uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.readRawUnsigned()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, &OverflowError{Value: int64(v), Bits: 16, Signed: false}
	}
	return uint16(v), nil
}

// ReadUint32 decodes any integer token into a uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.readRawUnsigned()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, &OverflowError{Value: int64(v), Bits: 32, Signed: false}
	}
	return uint32(v), nil
}

// ReadUint64 decodes any integer token into a uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.readRawUnsigned()
}

// ReadFloat32 decodes a Float32 token, or widens a Float64/integer token.
func (r *Reader) ReadFloat32() (float32, error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, err
	}
	switch c {
	case Float32:
		v, err := r.readTail(4)
		if err != nil {
			return 0, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(v)), nil
	case Float64:
		f, err := r.ReadFloat64()
		return float32(f), err
	default:
		i, err := r.readRawSigned()
		if err != nil {
			return 0, err
		}
		return float32(i), nil
	}
}

// ReadFloat64 decodes a Float64 token, or widens a Float32/integer token.
func (r *Reader) ReadFloat64() (float64, error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, err
	}
	switch c {
	case Float64:
		v, err := r.readTail(8)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(v)), nil
	case Float32:
		f, err := r.ReadFloat32()
		return float64(f), err
	default:
		i, err := r.readRawSigned()
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}
}

// ReadArrayHeader decodes an array header and returns the element count.
func (r *Reader) ReadArrayHeader() (int, error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, err
	}
	start := r.pos

	var n int
	switch {
	case isFixArray(c):
		r.pos++
		n = int(c &^ FixArrayMin)
	default:
		switch c {
		case Array16:
			v, err := r.readTail(2)
			if err != nil {
				return 0, err
			}
			n = int(binary.BigEndian.Uint16(v))
		case Array32:
			v, err := r.readTail(4)
			if err != nil {
				return 0, err
			}
			n = int(binary.BigEndian.Uint32(v))
		default:
			return 0, mismatch(c)
		}
	}

	if r.Len() < n {
		// Over-allocation guard: an array of n elements can never encode in
		// fewer than n remaining bytes (each element is at least 1 byte).
		r.pos = start
		return 0, shortBuffer(n, r.Len())
	}
	return n, nil
}

// ReadMapHeader decodes a map header and returns the pair count.
func (r *Reader) ReadMapHeader() (int, error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, err
	}
	start := r.pos

	var n int
	switch {
	case isFixMap(c):
		r.pos++
		n = int(c &^ FixMapMin)
	default:
		switch c {
		case Map16:
			v, err := r.readTail(2)
			if err != nil {
				return 0, err
			}
			n = int(binary.BigEndian.Uint16(v))
		case Map32:
			v, err := r.readTail(4)
			if err != nil {
				return 0, err
			}
			n = int(binary.BigEndian.Uint32(v))
		default:
			return 0, mismatch(c)
		}
	}

	if r.Len() < 2*n {
		r.pos = start
		return 0, shortBuffer(2*n, r.Len())
	}
	return n, nil
}

// ReadStringHeader decodes a Str-family token and returns the UTF-8 payload
// as a slice borrowed from the input buffer.
func (r *Reader) ReadStringHeader() ([]byte, error) {
	c, err := r.peekCode()
	if err != nil {
		return nil, err
	}
	start := r.pos

	var slen int
	switch {
	case isFixStr(c):
		r.pos++
		slen = int(c &^ FixStrMin)
	default:
		switch c {
		case Str8:
			v, err := r.readTail(1)
			if err != nil {
				return nil, err
			}
			slen = int(v[0])
		case Str16:
			v, err := r.readTail(2)
			if err != nil {
				return nil, err
			}
			slen = int(binary.BigEndian.Uint16(v))
		case Str32:
			v, err := r.readTail(4)
			if err != nil {
				return nil, err
			}
			slen = int(binary.BigEndian.Uint32(v))
		default:
			return nil, mismatch(c)
		}
	}

	if r.Len() < slen {
		r.pos = start
		return nil, shortBuffer(slen, r.Len())
	}
	s := r.buf[r.pos : r.pos+slen]
	r.pos += slen
	return s, nil
}

// ReadBinaryHeader decodes a Bin-family token (or, for interop with the
// legacy msgpack v4 format, a Str-family token used to carry binary data)
// and returns the payload as a slice borrowed from the input buffer.
func (r *Reader) ReadBinaryHeader() ([]byte, error) {
	c, err := r.peekCode()
	if err != nil {
		return nil, err
	}

	if isFixStr(c) || c == Str8 || c == Str16 || c == Str32 {
		return r.ReadStringHeader()
	}
	start := r.pos

	var blen int
	switch c {
	case Bin8:
		v, err := r.readTail(1)
		if err != nil {
			return nil, err
		}
		blen = int(v[0])
	case Bin16:
		v, err := r.readTail(2)
		if err != nil {
			return nil, err
		}
		blen = int(binary.BigEndian.Uint16(v))
	case Bin32:
		v, err := r.readTail(4)
		if err != nil {
			return nil, err
		}
		blen = int(binary.BigEndian.Uint32(v))
	default:
		return nil, mismatch(c)
	}

	if r.Len() < blen {
		r.pos = start
		return nil, shortBuffer(blen, r.Len())
	}
	b := r.buf[r.pos : r.pos+blen]
	r.pos += blen
	return b, nil
}

// ReadExtensionHeader decodes an extension token's type code and payload
// length without consuming the payload itself.
func (r *Reader) ReadExtensionHeader() (typeCode int8, length int, err error) {
	c, err := r.peekCode()
	if err != nil {
		return 0, 0, err
	}
	start := r.pos

	switch c {
	case FixExt1:
		length = 1
	case FixExt2:
		length = 2
	case FixExt4:
		length = 4
	case FixExt8:
		length = 8
	case FixExt16:
		length = 16
	case Ext8:
		v, err := r.readTail(1)
		if err != nil {
			return 0, 0, err
		}
		length = int(v[0])
		tc, err := r.readTypeCode()
		if err != nil {
			r.pos = start
		}
		return tc, length, err
	case Ext16:
		v, err := r.readTail(2)
		if err != nil {
			return 0, 0, err
		}
		length = int(binary.BigEndian.Uint16(v))
		tc, err := r.readTypeCode()
		if err != nil {
			r.pos = start
		}
		return tc, length, err
	case Ext32:
		v, err := r.readTail(4)
		if err != nil {
			return 0, 0, err
		}
		length = int(binary.BigEndian.Uint32(v))
		tc, err := r.readTypeCode()
		if err != nil {
			r.pos = start
		}
		return tc, length, err
	default:
		return 0, 0, mismatch(c)
	}

	// FixExt*: the type code byte immediately follows the lead byte.
	if r.Len() < 2 {
		return 0, 0, shortBuffer(2, r.Len())
	}
	tc := int8(r.buf[r.pos+1])
	r.pos += 2
	return tc, length, nil
}

// readTypeCode reads the single type-code byte that follows the length
// field in Ext8/16/32 headers (the lead byte and length have already been
// consumed by readTail).
func (r *Reader) readTypeCode() (int8, error) {
	if r.Len() < 1 {
		return 0, shortBuffer(1, r.Len())
	}
	tc := int8(r.buf[r.pos])
	r.pos++
	return tc, nil
}

// ReadExtensionPayload consumes and returns length bytes of extension
// payload, as previously reported by ReadExtensionHeader.
func (r *Reader) ReadExtensionPayload(length int) ([]byte, error) {
	if r.Len() < length {
		return nil, shortBuffer(length, r.Len())
	}
	p := r.buf[r.pos : r.pos+length]
	r.pos += length
	return p, nil
}

// Skip advances past one complete token, including the nested contents of
// arrays, maps and extensions. depth is the current recursion depth and
// maxDepth the configured ceiling; Skip fails with ErrDepthExceeded if
// descending into a container would exceed it.
func (r *Reader) Skip(depth, maxDepth int) error {
	if depth > maxDepth {
		return ErrDepthExceeded
	}

	c, err := r.peekCode()
	if err != nil {
		return err
	}

	switch {
	case isPosFixInt(c), isNegFixInt(c):
		r.pos++
		return nil
	case isFixStr(c):
		_, err := r.ReadStringHeader()
		return err
	}

	switch c {
	case Nil, False, True:
		r.pos++
		return nil
	case Bin8, Bin16, Bin32:
		_, err := r.ReadBinaryHeader()
		return err
	case Str8, Str16, Str32:
		_, err := r.ReadStringHeader()
		return err
	case Float32:
		_, err := r.readTail(4)
		return err
	case Float64:
		_, err := r.readTail(8)
		return err
	case Uint8, Int8:
		_, err := r.readTail(1)
		return err
	case Uint16, Int16:
		_, err := r.readTail(2)
		return err
	case Uint32, Int32:
		_, err := r.readTail(4)
		return err
	case Uint64, Int64:
		_, err := r.readTail(8)
		return err
	case FixExt1, FixExt2, FixExt4, FixExt8, FixExt16, Ext8, Ext16, Ext32:
		_, length, err := r.ReadExtensionHeader()
		if err != nil {
			return err
		}
		_, err = r.ReadExtensionPayload(length)
		return err
	case Array16, Array32:
		return r.skipArray(depth, maxDepth)
	case Map16, Map32:
		return r.skipMap(depth, maxDepth)
	}

	if isFixArray(c) {
		return r.skipArray(depth, maxDepth)
	}
	if isFixMap(c) {
		return r.skipMap(depth, maxDepth)
	}

	return mismatch(c)
}

func (r *Reader) skipArray(depth, maxDepth int) error {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := r.Skip(depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) skipMap(depth, maxDepth int) error {
	n, err := r.ReadMapHeader()
	if err != nil {
		return err
	}
	for i := 0; i < 2*n; i++ {
		if err := r.Skip(depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
