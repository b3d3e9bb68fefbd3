package msgpack

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mpkcore/msgpack/internal/datetime"
	"github.com/mpkcore/msgpack/internal/uuid"
	"github.com/mpkcore/msgpack/wire"
)

// UUID is the well-known 16-byte GUID representation, encoded on the wire
// as a FixExt16 extension, per spec.md §3 "Well-known types". Unlike
// ordinary object shapes, UUID and time.Time are recognized by Go type
// identity directly rather than through the external ShapeProvider — the
// same special-casing aws-smithy-go's own internal/uuid and time packages
// exist to serve for its own wire formats.
type UUID [16]byte

// String returns the canonical 36-character text form.
func (u UUID) String() string { return uuid.Format(u) }

// ParseUUID parses any of the five canonical textual forms (N, D, B, P, X)
// into a UUID; see internal/uuid.Parse.
func ParseUUID(s string) (UUID, error) {
	b, err := uuid.Parse(s)
	return UUID(b), err
}

// ParseUUIDBinary validates and copies the 16-byte binary form of a UUID.
func ParseUUIDBinary(b []byte) (UUID, error) {
	raw, err := uuid.ParseBinary(b)
	return UUID(raw), err
}

const uuidExtensionType int8 = 0x01

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(UUID{})
)

// registerWellKnownTypes installs the built-in time.Time and UUID
// converters as the first factory on cache. Since the first matching
// factory wins, they take precedence: a factory a caller registers after
// NewSerializer is never consulted for time.Time or UUID.
func registerWellKnownTypes(cache *Cache) {
	cache.RegisterFactory(func(t reflect.Type) (Converter, bool) {
		switch t {
		case timeType:
			return timestampConverter{}, true
		case uuidType:
			return uuidConverter{}, true
		}
		return nil, false
	})
}

// timestampConverter implements the msgpack timestamp extension (type -1)
// for time.Time, per spec.md §8 scenario 5.
type timestampConverter struct{}

func (timestampConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	t := rv.Interface().(time.Time)
	w.WriteExtension(wire.ExtTimestamp, datetime.Encode(t))
	return nil
}

func (timestampConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	typeCode, length, err := r.ReadExtensionHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	if typeCode != wire.ExtTimestamp {
		return reflect.Value{}, newError(KindTokenMismatch,
			fmt.Errorf("msgpack: expected timestamp extension (type %d), got type %d", wire.ExtTimestamp, typeCode))
	}
	payload, err := r.ReadExtensionPayload(length)
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	t, err := datetime.Decode(payload)
	if err != nil {
		return reflect.Value{}, newError(KindUnspecified, err)
	}
	return reflect.ValueOf(t), nil
}

// uuidConverter implements the FixExt16 GUID representation for UUID.
type uuidConverter struct{}

func (uuidConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	u := rv.Interface().(UUID)
	w.WriteExtension(uuidExtensionType, u[:])
	return nil
}

func (uuidConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	typeCode, length, err := r.ReadExtensionHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	if typeCode != uuidExtensionType || length != 16 {
		return reflect.Value{}, newError(KindTokenMismatch,
			fmt.Errorf("msgpack: expected uuid extension (type %d, length 16)", uuidExtensionType))
	}
	payload, err := r.ReadExtensionPayload(length)
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	var out UUID
	copy(out[:], payload)
	return reflect.ValueOf(out), nil
}
