package msgpack_test

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mpkcore/msgpack"
)

// reflectProvider is a minimal, reflection-driven ShapeProvider used only
// by this package's own tests — spec.md says a Shape is "consumed, never
// implemented by this module outside of tests", so the real-world
// counterpart (code-generated or hand-written) lives entirely outside this
// package.
type reflectProvider struct {
	mu     sync.Mutex
	shapes map[reflect.Type]msgpack.Shape
}

func newReflectProvider() *reflectProvider {
	return &reflectProvider{shapes: make(map[reflect.Type]msgpack.Shape)}
}

func (p *reflectProvider) GetShape(t reflect.Type) (msgpack.Shape, bool) {
	p.mu.Lock()
	if s, ok := p.shapes[t]; ok {
		p.mu.Unlock()
		return s, true
	}
	p.mu.Unlock()

	shape, ok := p.buildShape(t)
	if !ok {
		return nil, false
	}
	p.mu.Lock()
	p.shapes[t] = shape
	p.mu.Unlock()
	return shape, true
}

func (p *reflectProvider) GetAssociatedShape(t reflect.Type) (msgpack.Shape, bool) {
	return p.GetShape(t)
}

func (p *reflectProvider) buildShape(t reflect.Type) (msgpack.Shape, bool) {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return primitiveShape{t: t}, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return primitiveShape{t: t}, true
		}
		return &enumerableTestShape{t: t, elem: must(p, t.Elem())}, true
	case reflect.Map:
		return &dictionaryTestShape{t: t, key: must(p, t.Key()), val: must(p, t.Elem())}, true
	case reflect.Ptr:
		return &nullableTestShape{t: t, elem: must(p, t.Elem())}, true
	case reflect.Struct:
		return p.buildObjectShape(t)
	default:
		return nil, false
	}
}

func must(p *reflectProvider, t reflect.Type) msgpack.Shape {
	s, ok := p.GetShape(t)
	if !ok {
		panic(fmt.Sprintf("reflectProvider: no shape for %s", t))
	}
	return s
}

func (p *reflectProvider) buildObjectShape(t reflect.Type) (msgpack.Shape, bool) {
	obj := &objectTestShape{t: t}
	// Registered before its properties are built, so a field whose type
	// refers back to t (directly or through a pointer) resolves to obj.
	p.mu.Lock()
	p.shapes[t] = obj
	p.mu.Unlock()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		idx := i
		obj.props = append(obj.props, msgpack.Property{
			Name:       f.Name,
			WireName:   f.Name,
			Shape:      must(p, f.Type),
			Required:   false,
			ArrayIndex: idx,
			ParamIndex: -1,
			Get: func(v reflect.Value) reflect.Value {
				return v.Field(idx)
			},
			Set: func(v reflect.Value, val reflect.Value) {
				v.Field(idx).Set(val)
			},
			Default: func() (reflect.Value, bool) {
				return reflect.Value{}, false
			},
		})
	}
	return obj, true
}

// primitiveShape wraps one of the scalar kinds KindPrimitive covers.
type primitiveShape struct{ t reflect.Type }

func (s primitiveShape) Kind() msgpack.Kind   { return msgpack.KindPrimitive }
func (s primitiveShape) Type() reflect.Type   { return s.t }

// objectTestShape is a map-shaped object with no constructor: the
// converter allocates a zero value and calls each Property.Set.
type objectTestShape struct {
	t     reflect.Type
	props []msgpack.Property
}

func (s *objectTestShape) Kind() msgpack.Kind                  { return msgpack.KindObject }
func (s *objectTestShape) Type() reflect.Type                  { return s.t }
func (s *objectTestShape) Properties() []msgpack.Property      { return s.props }
func (s *objectTestShape) Constructor() (msgpack.Constructor, bool) { return msgpack.Constructor{}, false }
func (s *objectTestShape) IndexKeyed() bool                    { return false }

// enumerableTestShape backs a Go slice with ConstructAppend semantics.
type enumerableTestShape struct {
	t    reflect.Type
	elem msgpack.Shape
}

func (s *enumerableTestShape) Kind() msgpack.Kind                     { return msgpack.KindEnumerable }
func (s *enumerableTestShape) Type() reflect.Type                     { return s.t }
func (s *enumerableTestShape) Element() msgpack.Shape                 { return s.elem }
func (s *enumerableTestShape) Construction() msgpack.ConstructionStrategy {
	return msgpack.ConstructAppend
}
func (s *enumerableTestShape) Rank() int { return 1 }
func (s *enumerableTestShape) Len(v reflect.Value) int {
	return v.Len()
}
func (s *enumerableTestShape) Index(v reflect.Value, i int) reflect.Value {
	return v.Index(i)
}
func (s *enumerableTestShape) NewBuilder(n int) msgpack.EnumerableBuilder {
	return &sliceBuilder{slice: reflect.MakeSlice(s.t, 0, n)}
}

type sliceBuilder struct{ slice reflect.Value }

func (b *sliceBuilder) Append(v reflect.Value) {
	b.slice = reflect.Append(b.slice, v)
}
func (b *sliceBuilder) Build() reflect.Value { return b.slice }

// dictionaryTestShape backs a Go map.
type dictionaryTestShape struct {
	t        reflect.Type
	key, val msgpack.Shape
}

func (s *dictionaryTestShape) Kind() msgpack.Kind     { return msgpack.KindDictionary }
func (s *dictionaryTestShape) Type() reflect.Type     { return s.t }
func (s *dictionaryTestShape) KeyShape() msgpack.Shape   { return s.key }
func (s *dictionaryTestShape) ValueShape() msgpack.Shape { return s.val }
func (s *dictionaryTestShape) Construction() msgpack.ConstructionStrategy {
	return msgpack.ConstructAppend
}
func (s *dictionaryTestShape) Len(v reflect.Value) int { return v.Len() }
func (s *dictionaryTestShape) Iterate(v reflect.Value, fn func(k, val reflect.Value) bool) {
	iter := v.MapRange()
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			return
		}
	}
}
func (s *dictionaryTestShape) NewBuilder(n int) msgpack.DictionaryBuilder {
	return &mapBuilder{m: reflect.MakeMapWithSize(s.t, n)}
}

type mapBuilder struct{ m reflect.Value }

func (b *mapBuilder) Put(k, v reflect.Value) { b.m.SetMapIndex(k, v) }
func (b *mapBuilder) Build() reflect.Value    { return b.m }

// nullableTestShape backs a Go pointer.
type nullableTestShape struct {
	t    reflect.Type
	elem msgpack.Shape
}

func (s *nullableTestShape) Kind() msgpack.Kind   { return msgpack.KindNullable }
func (s *nullableTestShape) Type() reflect.Type   { return s.t }
func (s *nullableTestShape) Element() msgpack.Shape { return s.elem }
func (s *nullableTestShape) IsNull(v reflect.Value) bool {
	return v.IsNil()
}
func (s *nullableTestShape) Null() reflect.Value {
	return reflect.Zero(s.t)
}
func (s *nullableTestShape) Unwrap(v reflect.Value) reflect.Value {
	return v.Elem()
}
func (s *nullableTestShape) Wrap(v reflect.Value) reflect.Value {
	p := reflect.New(s.elem.Type())
	p.Elem().Set(v)
	return p
}
