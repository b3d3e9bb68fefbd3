package msgpack

import (
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// nullableConverter implements spec.md §4.E "Nullable": pointers and any
// other type with an explicit null representation, written as msgpack nil
// or the wrapped element's own wire form.
type nullableConverter struct {
	element Shape
	shape   NullableShape
}

func newNullableConverter(ctx *Context, shape Shape, n NullableShape) (Converter, error) {
	return &nullableConverter{element: n.Element(), shape: n}, nil
}

func (c *nullableConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	if c.shape.IsNull(rv) {
		w.WriteNil()
		return nil
	}
	conv, err := resolveConverter(ctx, c.element)
	if err != nil {
		return err
	}
	return conv.Write(ctx, w, c.shape.Unwrap(rv))
}

func (c *nullableConverter) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	isNil, err := r.TryReadNil()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	if isNil {
		return c.shape.Null(), nil
	}
	conv, err := resolveConverter(ctx, c.element)
	if err != nil {
		return reflect.Value{}, err
	}

	// rv, when supplied, is a pointer already published to the reference
	// tracker by refPreservingConverter's early-publish path (§4.I allow
	// cycles); populate its pointee in place so a cycle back into it
	// resolves to the same identity, rather than wrapping a second,
	// disconnected value.
	if rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
		if _, err := conv.Read(ctx, r, rv.Elem()); err != nil {
			return reflect.Value{}, err
		}
		return rv, nil
	}

	v, err := conv.Read(ctx, r, reflect.Value{})
	if err != nil {
		return reflect.Value{}, err
	}
	return c.shape.Wrap(v), nil
}
