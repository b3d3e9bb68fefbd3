package msgpack

import (
	"fmt"
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// unionAliasConverter implements spec.md §4.E "Union (alias-based)": each
// case carries an explicit string or integer discriminator, independent of
// the payload's own shape. Written as a 2-element array: [discriminator,
// payload]. Policies.PerfOverStability selects an integer discriminator
// over the default string alias; the reader accepts either form regardless
// of its own policy, since the two ends of a wire exchange do not
// necessarily share Policies.
type unionAliasConverter struct {
	typ        reflect.Type
	shape      UnionShape
	byAlias    map[string]UnionCase
	byAliasInt map[int64]UnionCase
}

func newUnionAliasConverter(ctx *Context, shape Shape, u UnionShape) (Converter, error) {
	byAlias := make(map[string]UnionCase)
	byAliasInt := make(map[int64]UnionCase)
	for _, c := range u.Cases() {
		byAlias[c.Alias] = c
		byAliasInt[c.AliasInt] = c
	}
	return &unionAliasConverter{typ: shape.Type(), shape: u, byAlias: byAlias, byAliasInt: byAliasInt}, nil
}

func (c *unionAliasConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	if err := ctx.Enter(); err != nil {
		return err
	}
	defer ctx.Leave()

	uc, ok := c.discriminate(rv)
	if !ok {
		return newError(KindAmbiguousOrUnknownSubtype,
			fmt.Errorf("msgpack: %s does not match any declared case of %s", rv.Type(), c.typ))
	}

	w.WriteArrayHeader(2)
	if ctx.Policies().PerfOverStability {
		w.WriteInt(uc.AliasInt)
	} else {
		w.WriteString(uc.Alias)
	}

	conv, err := resolveConverter(ctx, uc.Shape)
	if err != nil {
		return err
	}
	return conv.Write(ctx, w, rv)
}

func (c *unionAliasConverter) discriminate(rv reflect.Value) (UnionCase, bool) {
	return c.shape.Discriminate(rv)
}

func (c *unionAliasConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	if err := ctx.Enter(); err != nil {
		return reflect.Value{}, err
	}
	defer ctx.Leave()

	n, err := r.ReadArrayHeader()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	if n != 2 {
		return reflect.Value{}, newError(KindTokenMismatch,
			fmt.Errorf("msgpack: union wire form expects a 2-element array, got %d elements", n))
	}

	isStr, err := r.PeekIsString()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}

	var uc UnionCase
	var ok bool
	if isStr {
		alias, err := r.ReadStringHeader()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		uc, ok = c.byAlias[string(alias)]
	} else {
		id, err := r.ReadInt64()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		uc, ok = c.byAliasInt[id]
	}
	if !ok {
		return reflect.Value{}, newError(KindAmbiguousOrUnknownSubtype,
			fmt.Errorf("msgpack: unrecognized union discriminator for %s", c.typ))
	}

	conv, err := resolveConverter(ctx, uc.Shape)
	if err != nil {
		return reflect.Value{}, err
	}
	return conv.Read(ctx, r, reflect.Value{})
}
