package msgpack

import (
	"fmt"
	"reflect"

	"github.com/mpkcore/msgpack/logging"
	"github.com/mpkcore/msgpack/wire"
)

// objectMapConverter implements the default, string-keyed object layout:
// spec.md §4.E "Object (map shape)". Wire names are pre-resolved once at
// build time (Property.WireName), so a Write/Read pass never consults the
// naming policy.
type objectMapConverter struct {
	typ        reflect.Type
	props      []Property
	byWireName map[string]int
	ctor       *Constructor
}

func newObjectMapConverter(ctx *Context, shape Shape, obj ObjectShape) (Converter, error) {
	props := obj.Properties()
	byName := make(map[string]int, len(props))
	for i, p := range props {
		byName[p.WireName] = i
	}
	var ctor *Constructor
	if c, ok := obj.Constructor(); ok {
		ctor = &c
	}
	return &objectMapConverter{
		typ:        shape.Type(),
		props:      props,
		byWireName: byName,
		ctor:       ctor,
	}, nil
}

type pendingProperty struct {
	prop Property
	val  reflect.Value
}

func (c *objectMapConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	if err := ctx.Enter(); err != nil {
		return err
	}
	defer ctx.Leave()

	included := make([]pendingProperty, 0, len(c.props))
	for _, p := range c.props {
		val := p.Get(rv)
		if shouldWriteProperty(ctx, p, val) {
			included = append(included, pendingProperty{p, val})
		}
	}

	w.WriteMapHeader(len(included))
	for _, item := range included {
		if err := ctx.CheckCancelled(); err != nil {
			return err
		}
		w.WriteString(item.prop.WireName)
		conv, err := resolveConverter(ctx, item.prop.Shape)
		if err != nil {
			return withPath(err, item.prop.Name)
		}
		if err := conv.Write(ctx, w, item.val); err != nil {
			return withPath(err, item.prop.Name)
		}
	}
	return nil
}

func (c *objectMapConverter) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	if err := ctx.Enter(); err != nil {
		return reflect.Value{}, err
	}
	defer ctx.Leave()

	n, err := r.ReadMapHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}

	var args []reflect.Value
	var target reflect.Value
	if c.ctor != nil {
		args = make([]reflect.Value, len(c.ctor.Params))
	} else if rv.IsValid() {
		// A reference-preserving wrapper has already published this
		// value's identity and wants fields set in place so a cycle
		// back-reference reached mid-read resolves to it.
		target = rv
	} else {
		target = reflect.New(c.typ).Elem()
	}
	seen := make([]bool, len(c.props))

	for i := 0; i < n; i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return reflect.Value{}, err
		}
		keyBytes, err := r.ReadStringHeader()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		key := ctx.Intern(string(keyBytes))
		idx, ok := c.byWireName[key]
		if !ok {
			ctx.Policies().Logger.Logf(logging.Debug, "msgpack: skipping unknown property %q for %s", key, c.typ)
			if err := r.Skip(ctx.Depth(), ctx.Policies().MaxDepth); err != nil {
				return reflect.Value{}, liftWireError(err)
			}
			continue
		}
		prop := c.props[idx]
		conv, err := resolveConverter(ctx, prop.Shape)
		if err != nil {
			return reflect.Value{}, withPath(err, prop.Name)
		}
		v, err := conv.Read(ctx, r, reflect.Value{})
		if err != nil {
			return reflect.Value{}, withPath(err, prop.Name)
		}
		seen[idx] = true
		if c.ctor != nil && prop.ParamIndex >= 0 {
			args[prop.ParamIndex] = v
		} else {
			prop.Set(target, v)
		}
	}

	for i, p := range c.props {
		if seen[i] {
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
