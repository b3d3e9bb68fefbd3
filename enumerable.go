package msgpack

import (
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// enumerableConverter implements spec.md §4.E "Enumerable": ordered
// sequences written as msgpack arrays. Nested shapes (the Element() of an
// outer sequence itself being an EnumerableShape) already produce the
// array-of-arrays wire form for rank > 1 without special-casing here; only
// Policies.MultiDimArrayFormat == MultiDimArrayFlat would need extent
// metadata this package's Shape does not model, so that format is not
// implemented — see DESIGN.md.
type enumerableConverter struct {
	element Shape
	shape   EnumerableShape
}

func newEnumerableConverter(ctx *Context, shape Shape, en EnumerableShape) (Converter, error) {
	return &enumerableConverter{element: en.Element(), shape: en}, nil
}

func (c *enumerableConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	if err := ctx.Enter(); err != nil {
		return err
	}
	defer ctx.Leave()

	n := c.shape.Len(rv)
	w.WriteArrayHeader(n)

	conv, err := resolveConverter(ctx, c.element)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return err
		}
		if err := conv.Write(ctx, w, c.shape.Index(rv, i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *enumerableConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	if err := ctx.Enter(); err != nil {
		return reflect.Value{}, err
	}
	defer ctx.Leave()

	n, err := r.ReadArrayHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}

	conv, err := resolveConverter(ctx, c.element)
	if err != nil {
		return reflect.Value{}, err
	}

	builder := c.shape.NewBuilder(n)
	for i := 0; i < n; i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return reflect.Value{}, err
		}
		v, err := conv.Read(ctx, r, reflect.Value{})
		if err != nil {
			return reflect.Value{}, err
		}
		builder.Append(v)
	}
	return builder.Build(), nil
}
