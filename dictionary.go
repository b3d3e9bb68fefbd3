package msgpack

import (
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// dictionaryConverter implements spec.md §4.E "Dictionary": associative
// containers written as msgpack maps.
type dictionaryConverter struct {
	key   Shape
	value Shape
	shape DictionaryShape
}

func newDictionaryConverter(ctx *Context, shape Shape, d DictionaryShape) (Converter, error) {
	return &dictionaryConverter{key: d.KeyShape(), value: d.ValueShape(), shape: d}, nil
}

func (c *dictionaryConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	if err := ctx.Enter(); err != nil {
		return err
	}
	defer ctx.Leave()

	keyConv, err := resolveConverter(ctx, c.key)
	if err != nil {
		return err
	}
	valConv, err := resolveConverter(ctx, c.value)
	if err != nil {
		return err
	}

	w.WriteMapHeader(c.shape.Len(rv))
	var writeErr error
	c.shape.Iterate(rv, func(k, v reflect.Value) bool {
		if writeErr = ctx.CheckCancelled(); writeErr != nil {
			return false
		}
		if writeErr = keyConv.Write(ctx, w, k); writeErr != nil {
			return false
		}
		if writeErr = valConv.Write(ctx, w, v); writeErr != nil {
			return false
		}
		return true
	})
	return writeErr
}

func (c *dictionaryConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	if err := ctx.Enter(); err != nil {
		return reflect.Value{}, err
	}
	defer ctx.Leave()

	n, err := r.ReadMapHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}

	keyConv, err := resolveConverter(ctx, c.key)
	if err != nil {
		return reflect.Value{}, err
	}
	valConv, err := resolveConverter(ctx, c.value)
	if err != nil {
		return reflect.Value{}, err
	}

	builder := c.shape.NewBuilder(n)
	for i := 0; i < n; i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return reflect.Value{}, err
		}
		k, err := keyConv.Read(ctx, r, reflect.Value{})
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := valConv.Read(ctx, r, reflect.Value{})
		if err != nil {
			return reflect.Value{}, err
		}
		builder.Put(k, v)
	}
	return builder.Build(), nil
}
