package msgpack

import (
	"fmt"
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// objectArrayConverter implements the array-shaped, index-keyed object
// layout: spec.md §4.E "Object (array shape, index-keyed)". Properties
// occupy stable positional slots instead of named map entries, trading
// forward/backward name-based compatibility for a smaller, position-only
// wire form. The wire array always has maxArrayIndex+1 slots; a slot with
// no declared property, or an elided default-valued property, is Nil rather
// than shifting every later slot's position.
type objectArrayConverter struct {
	typ    reflect.Type
	props  []Property // by ArrayIndex, may contain gaps
	propAt map[int]Property
	slots  int
	ctor   *Constructor
}

func newObjectArrayConverter(ctx *Context, shape Shape, obj ObjectShape) (Converter, error) {
	props := obj.Properties()
	propAt := make(map[int]Property, len(props))
	maxIndex := -1
	for _, p := range props {
		propAt[p.ArrayIndex] = p
		if p.ArrayIndex > maxIndex {
			maxIndex = p.ArrayIndex
		}
	}
	var ctor *Constructor
	if c, ok := obj.Constructor(); ok {
		ctor = &c
	}
	return &objectArrayConverter{
		typ:    shape.Type(),
		props:  props,
		propAt: propAt,
		slots:  maxIndex + 1,
		ctor:   ctor,
	}, nil
}

func (c *objectArrayConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	if err := ctx.Enter(); err != nil {
		return err
	}
	defer ctx.Leave()

	w.WriteArrayHeader(c.slots)
	for i := 0; i < c.slots; i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return err
		}
		p, ok := c.propAt[i]
		if !ok {
			w.WriteNil()
			continue
		}
		val := p.Get(rv)
		if !shouldWriteProperty(ctx, p, val) {
			w.WriteNil()
			continue
		}
		conv, err := resolveConverter(ctx, p.Shape)
		if err != nil {
			return withPath(err, p.Name)
		}
		if err := conv.Write(ctx, w, val); err != nil {
			return withPath(err, p.Name)
		}
	}
	return nil
}

func (c *objectArrayConverter) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	if err := ctx.Enter(); err != nil {
		return reflect.Value{}, err
	}
	defer ctx.Leave()

	n, err := r.ReadArrayHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}

	var args []reflect.Value
	var target reflect.Value
	if c.ctor != nil {
		args = make([]reflect.Value, len(c.ctor.Params))
	} else if rv.IsValid() {
		target = rv
	} else {
		target = reflect.New(c.typ).Elem()
	}
	seen := make([]bool, c.slots)

	for i := 0; i < n; i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return reflect.Value{}, err
		}
		p, ok := c.propAt[i]
		if !ok {
			// Either a gap slot this shape never declared, or a
			// forward-compatible trailing slot added by a newer writer.
			if err := r.Skip(ctx.Depth(), ctx.Policies().MaxDepth); err != nil {
				return reflect.Value{}, liftWireError(err)
			}
			continue
		}

		isNil, err := r.TryReadNil()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		if isNil {
			// An elided default-valued property, or a genuine null slot;
			// either way the target already holds the zero/default value.
			continue
		}

		conv, err := resolveConverter(ctx, p.Shape)
		if err != nil {
			return reflect.Value{}, withPath(err, p.Name)
		}
		v, err := conv.Read(ctx, r, reflect.Value{})
		if err != nil {
			return reflect.Value{}, withPath(err, p.Name)
		}
		seen[i] = true
		if c.ctor != nil && p.ParamIndex >= 0 {
			args[p.ParamIndex] = v
		} else {
			p.Set(target, v)
		}
	}

	for _, p := range c.props {
		if seen[p.ArrayIndex] {
			continue
		}
		if p.Required {
			return reflect.Value{}, newError(KindMissingRequiredProperty,
				fmt.Errorf("missing required property %q", p.Name))
		}
		if c.ctor != nil && p.ParamIndex >= 0 {
			if def, ok := p.Default(); ok {
				args[p.ParamIndex] = def
			} else {
				args[p.ParamIndex] = reflect.Zero(p.Shape.Type())
			}
		}
	}

	if c.ctor != nil {
		return c.ctor.New(args)
	}
	return target, nil
}
