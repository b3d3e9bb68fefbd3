package msgpack

import (
	"fmt"
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// primitiveConverter handles the scalar kinds spec.md §3 lists directly
// against wire.Reader/wire.Writer: no shape-driven recursion, no reference
// tracking, no depth accounting — these are leaves. typ is the shape's own
// declared type (which may be a named type, e.g. type UserID int64, not
// just its builtin kind), so Read must convert back to it before returning:
// a bare builtin-kind reflect.Value is not assignable to a named-type field
// and fails a same-type assertion at the top-level Deserialize[T].
type primitiveConverter struct {
	typ  reflect.Type
	kind reflect.Kind
}

func buildPrimitiveConverter(shape Shape) (Converter, error) {
	k := shape.Type().Kind()
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return primitiveConverter{typ: shape.Type(), kind: k}, nil
	case reflect.Slice:
		if shape.Type().Elem().Kind() == reflect.Uint8 {
			return byteSliceConverter{typ: shape.Type()}, nil
		}
	}
	return nil, fmt.Errorf("msgpack: %s is not a supported primitive kind", shape.Type())
}

func (p primitiveConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	switch p.kind {
	case reflect.Bool:
		w.WriteBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.WriteInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		w.WriteUint(rv.Uint())
	case reflect.Float32:
		w.WriteFloat32(float32(rv.Float()))
	case reflect.Float64:
		w.WriteFloat64(rv.Float())
	case reflect.String:
		w.WriteString(rv.String())
	default:
		return fmt.Errorf("msgpack: unreachable primitive kind %s", p.kind)
	}
	return nil
}

func (p primitiveConverter) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	v, err := p.readBuiltin(ctx, r)
	if err != nil {
		return reflect.Value{}, err
	}
	return v.Convert(p.typ), nil
}

func (p primitiveConverter) readBuiltin(ctx *Context, r *wire.Reader) (reflect.Value, error) {
	switch p.kind {
	case reflect.Bool:
		v, err := r.ReadBool()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		return reflect.ValueOf(v), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return readInt(r, p.kind)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return readUint(r, p.kind)
	case reflect.Float32:
		v, err := r.ReadFloat32()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		return reflect.ValueOf(v), nil
	case reflect.Float64:
		v, err := r.ReadFloat64()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		return reflect.ValueOf(v), nil
	case reflect.String:
		s, err := r.ReadStringHeader()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		return reflect.ValueOf(ctx.Intern(string(s))), nil
	default:
		return reflect.Value{}, fmt.Errorf("msgpack: unreachable primitive kind %s", p.kind)
	}
}

func readInt(r *wire.Reader, kind reflect.Kind) (reflect.Value, error) {
	switch kind {
	case reflect.Int8:
		v, err := r.ReadInt8()
		return wrapOrErr(reflect.ValueOf(v), err)
	case reflect.Int16:
		v, err := r.ReadInt16()
		return wrapOrErr(reflect.ValueOf(v), err)
	case reflect.Int32:
		v, err := r.ReadInt32()
		return wrapOrErr(reflect.ValueOf(v), err)
	case reflect.Int, reflect.Int64:
		v, err := r.ReadInt64()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		if kind == reflect.Int {
			return reflect.ValueOf(int(v)), nil
		}
		return reflect.ValueOf(v), nil
	default:
		return reflect.Value{}, fmt.Errorf("msgpack: unreachable int kind %s", kind)
	}
}

func readUint(r *wire.Reader, kind reflect.Kind) (reflect.Value, error) {
	switch kind {
	case reflect.Uint8:
		v, err := r.ReadUint8()
		return wrapOrErr(reflect.ValueOf(v), err)
	case reflect.Uint16:
		v, err := r.ReadUint16()
		return wrapOrErr(reflect.ValueOf(v), err)
	case reflect.Uint32:
		v, err := r.ReadUint32()
		return wrapOrErr(reflect.ValueOf(v), err)
	case reflect.Uint, reflect.Uint64:
		v, err := r.ReadUint64()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		if kind == reflect.Uint {
			return reflect.ValueOf(uint(v)), nil
		}
		return reflect.ValueOf(v), nil
	default:
		return reflect.Value{}, fmt.Errorf("msgpack: unreachable uint kind %s", kind)
	}
}

func wrapOrErr(v reflect.Value, err error) (reflect.Value, error) {
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	return v, nil
}

// byteSliceConverter writes/reads []byte as msgpack bin, the canonical
// representation for raw byte payloads (spec.md §3 "Data model"). typ is
// the shape's declared type, which may be a named byte-slice type.
type byteSliceConverter struct {
	typ reflect.Type
}

func (c byteSliceConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	w.WriteBinary(rv.Bytes())
	return nil
}

func (c byteSliceConverter) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	b, err := r.ReadBinaryHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	out := reflect.MakeSlice(c.typ, len(b), len(b))
	reflect.Copy(out, reflect.ValueOf(b))
	return out, nil
}
