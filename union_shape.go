package msgpack

import (
	"fmt"
	"reflect"

	"github.com/mpkcore/msgpack/logging"
	"github.com/mpkcore/msgpack/wire"
)

// unionShapeConverter implements spec.md §4.E/§4.H "Union (shape-based,
// duck-typed)": cases carry no wire discriminator at all. The payload is
// written exactly as its own object shape would write it, and on read the
// converter probes the map's keys against every declared case's required
// properties to pick the one that fits, the same duck-typing the spec
// describes for union resolution without an alias.
type unionShapeConverter struct {
	typ   reflect.Type
	cases []UnionCase
}

func newUnionShapeConverter(ctx *Context, shape Shape, u UnionShape) (Converter, error) {
	return &unionShapeConverter{typ: shape.Type(), cases: u.Cases()}, nil
}

func (c *unionShapeConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	for _, uc := range c.cases {
		if uc.Shape.Type() == rv.Type() {
			conv, err := resolveConverter(ctx, uc.Shape)
			if err != nil {
				return err
			}
			return conv.Write(ctx, w, rv)
		}
	}
	return newError(KindAmbiguousOrUnknownSubtype,
		fmt.Errorf("msgpack: %s does not match any declared case of %s", rv.Type(), c.typ))
}

func (c *unionShapeConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	keys, err := probeMapKeys(r)
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}

	var best *UnionCase
	bestScore := -1
	tied := false
	for i := range c.cases {
		uc := &c.cases[i]
		obj, ok := uc.Shape.(ObjectShape)
		if !ok {
			continue
		}
		fits, score := fitsKeys(obj, keys)
		if !fits {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = uc, score, false
		case score == bestScore:
			tied = true
		}
	}
	if best == nil {
		return reflect.Value{}, newError(KindAmbiguousOrUnknownSubtype,
			fmt.Errorf("msgpack: no declared case of %s matches the observed wire shape", c.typ))
	}
	if tied {
		return reflect.Value{}, newError(KindAmbiguousOrUnknownSubtype,
			fmt.Errorf("msgpack: more than one declared case of %s matches the observed wire shape with equal coverage (score %d); implementers must not guess", c.typ, bestScore))
	}
	ctx.Policies().Logger.Logf(logging.Debug, "msgpack: duck-typed union %s resolved to case %s (score %d)", c.typ, best.Shape.Type(), bestScore)

	conv, err := resolveConverter(ctx, best.Shape)
	if err != nil {
		return reflect.Value{}, err
	}
	return conv.Read(ctx, r, reflect.Value{})
}

// fitsKeys reports whether every required property of obj is present
// among keys, and how many of obj's declared properties (required or not)
// keys covers — used to break ties when more than one case's required set
// is satisfied by the same payload.
func fitsKeys(obj ObjectShape, keys map[string]bool) (fits bool, score int) {
	for _, p := range obj.Properties() {
		if p.Required && !keys[p.WireName] {
			return false, 0
		}
		if keys[p.WireName] {
			score++
		}
	}
	return true, score
}

// probeMapKeys reads the top-level keys of the next map token without
// disturbing r's position, by walking an independent clone.
func probeMapKeys(r *wire.Reader) (map[string]bool, error) {
	clone := r.Clone()
	n, err := clone.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, n)
	const unboundedDepth = 1 << 30
	for i := 0; i < n; i++ {
		k, err := clone.ReadStringHeader()
		if err != nil {
			return nil, err
		}
		keys[string(k)] = true
		if err := clone.Skip(0, unboundedDepth); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
