package msgpack

import (
	"fmt"
	"reflect"
)

// unexpectedTypeError reports a converter having produced a value whose Go
// type doesn't match the type parameter the caller asked to decode into —
// only reachable if a ShapeProvider hands back a Shape whose Type()
// disagrees with what its Converter actually constructs.
func unexpectedTypeError(got reflect.Value, want reflect.Type) error {
	gotType := "<invalid>"
	if got.IsValid() {
		gotType = got.Type().String()
	}
	return fmt.Errorf("msgpack: converter produced %s, want %s", gotType, want)
}

// isZero reports whether v holds its type's zero value, used by the
// default-value-elision policies when a property declares no explicit
// Default.
func isZero(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return v.IsZero()
}

// valuesEqual reports whether a and b hold equal values, used to compare a
// property's current value against its declared default.
func valuesEqual(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// shouldWriteProperty applies Policies.SerializeDefaults to decide whether
// val, the current value of property p, is written on the wire or elided.
// Shared by the map-shaped and array-shaped object converters; the
// array-shaped converter still Nil-fills an elided slot rather than
// omitting it, to keep every other property's position stable.
func shouldWriteProperty(ctx *Context, p Property, val reflect.Value) bool {
	switch ctx.Policies().SerializeDefaults {
	case SerializeDefaultsAlways:
		return true
	case SerializeDefaultsNever:
		if def, ok := p.Default(); ok {
			return !valuesEqual(val, def)
		}
		return !isZero(val)
	default: // SerializeDefaultsRequired
		if p.Required {
			return true
		}
		if def, ok := p.Default(); ok {
			return !valuesEqual(val, def)
		}
		return !isZero(val)
	}
}
