package testing

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/mpkcore/msgpack/wire"
)

// T provides the testing interface for capturing failures with testing assert
// utilities.
type T interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Helper()
}

// MsgpackEqual compares two encoded msgpack documents structurally rather
// than byte-for-byte: map key order and integer width never affect the
// result, only the decoded value tree does. This is what makes it suitable
// for asserting on object-map output, where property order is an encoding
// detail and not a code guarantee.
func MsgpackEqual(expectBytes, actualBytes []byte) error {
	expect, err := decodeAny(wire.NewReader(expectBytes))
	if err != nil {
		return fmt.Errorf("failed to decode expected bytes, %v", err)
	}

	actual, err := decodeAny(wire.NewReader(actualBytes))
	if err != nil {
		return fmt.Errorf("failed to decode actual bytes, %v", err)
	}

	if diff := cmp.Diff(expect, actual); len(diff) != 0 {
		return fmt.Errorf("msgpack mismatch (-expect +actual):\n%s", diff)
	}

	return nil
}

// AssertMsgpackEqual compares two encoded msgpack documents and reports a
// testing error if they differ. Returns false if the documents are not
// equal.
func AssertMsgpackEqual(t T, expect, actual []byte) bool {
	t.Helper()

	if err := MsgpackEqual(expect, actual); err != nil {
		t.Errorf("expect msgpack equal, %v", err)
		return false
	}

	return true
}

// decodeAny reads one complete msgpack value into the generic Go shape
// encoding/json.Unmarshal would use for an untyped interface{}: nil, bool,
// int64/uint64, float64, string, []byte, []interface{} or
// map[string]interface{}. It knows nothing about any particular schema —
// it exists purely to give test assertions a value to cmp.Diff against.
func decodeAny(r *wire.Reader) (interface{}, error) {
	code, err := r.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case code == wire.Nil:
		_, err := r.TryReadNil()
		return nil, err
	case code == wire.True || code == wire.False:
		return r.ReadBool()
	case code == wire.Float32:
		v, err := r.ReadFloat32()
		return float64(v), err
	case code == wire.Float64:
		return r.ReadFloat64()
	case code == wire.Uint64:
		return r.ReadUint64()
	case isIntCode(code):
		return r.ReadInt64()
	case isStrCode(code):
		b, err := r.ReadStringHeader()
		return string(b), err
	case code == wire.Bin8 || code == wire.Bin16 || code == wire.Bin32:
		return r.ReadBinaryHeader()
	case isArrayCode(code):
		return decodeArray(r)
	case isMapCode(code):
		return decodeMap(r)
	case isExtCode(code):
		typeCode, length, err := r.ReadExtensionHeader()
		if err != nil {
			return nil, err
		}
		payload, err := r.ReadExtensionPayload(length)
		if err != nil {
			return nil, err
		}
		return extValue{Type: typeCode, Payload: append([]byte(nil), payload...)}, nil
	default:
		return nil, fmt.Errorf("msgpack testing: unrecognized lead byte 0x%02x", code)
	}
}

// extValue is the comparable stand-in decodeAny produces for any extension
// token it doesn't otherwise special-case (timestamps and UUIDs included;
// those are decoded through the root package's own converters in any test
// that cares about their Go-native form).
type extValue struct {
	Type    int8
	Payload []byte
}

func decodeArray(r *wire.Reader) ([]interface{}, error) {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		out[i], err = decodeAny(r)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeMap(r *wire.Reader) (map[string]interface{}, error) {
	n, err := r.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, n)
	for i := 0; i < n; i++ {
		keyBytes, err := r.ReadStringHeader()
		if err != nil {
			return nil, err
		}
		val, err := decodeAny(r)
		if err != nil {
			return nil, err
		}
		out[string(keyBytes)] = val
	}
	return out, nil
}

func isIntCode(c wire.Code) bool {
	return (c >= wire.PosFixIntMin && c <= wire.PosFixIntMax) ||
		(c >= wire.NegFixIntMin && c <= wire.NegFixIntMax) ||
		c == wire.Uint8 || c == wire.Uint16 || c == wire.Uint32 ||
		c == wire.Int8 || c == wire.Int16 || c == wire.Int32 || c == wire.Int64
}

func isStrCode(c wire.Code) bool {
	return (c >= wire.FixStrMin && c <= wire.FixStrMax) ||
		c == wire.Str8 || c == wire.Str16 || c == wire.Str32
}

func isArrayCode(c wire.Code) bool {
	return (c >= wire.FixArrayMin && c <= wire.FixArrayMax) || c == wire.Array16 || c == wire.Array32
}

func isMapCode(c wire.Code) bool {
	return (c >= wire.FixMapMin && c <= wire.FixMapMax) || c == wire.Map16 || c == wire.Map32
}

func isExtCode(c wire.Code) bool {
	switch c {
	case wire.FixExt1, wire.FixExt2, wire.FixExt4, wire.FixExt8, wire.FixExt16,
		wire.Ext8, wire.Ext16, wire.Ext32:
		return true
	}
	return false
}
