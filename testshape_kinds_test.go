package msgpack_test

import (
	"reflect"

	"github.com/mpkcore/msgpack"
)

// enumTestShape backs a named integer type with a declared name/value set,
// used to exercise enumConverter's name-based and case-folded decoding.
type enumTestShape struct {
	t          reflect.Type
	underlying reflect.Kind
	values     []msgpack.EnumValue
}

func (s *enumTestShape) Kind() msgpack.Kind          { return msgpack.KindEnum }
func (s *enumTestShape) Type() reflect.Type          { return s.t }
func (s *enumTestShape) Underlying() reflect.Kind    { return s.underlying }
func (s *enumTestShape) Values() []msgpack.EnumValue { return s.values }

// objectShapeOf builds a plain string-keyed ObjectShape for a struct type
// with no constructor, reusing p's field-reflection so union cases and
// surrogate payloads can be described without a dedicated shape per case.
func objectShapeOf(p *reflectProvider, t reflect.Type) msgpack.Shape {
	return must(p, t)
}

// unionAliasTestShape backs an interface type whose cases carry explicit
// string/integer discriminators, used to exercise unionAliasConverter.
type unionAliasTestShape struct {
	t     reflect.Type
	cases []msgpack.UnionCase
}

func (s *unionAliasTestShape) Kind() msgpack.Kind          { return msgpack.KindUnion }
func (s *unionAliasTestShape) Type() reflect.Type          { return s.t }
func (s *unionAliasTestShape) Cases() []msgpack.UnionCase  { return s.cases }
func (s *unionAliasTestShape) HasAliases() bool            { return true }
func (s *unionAliasTestShape) Discriminate(v reflect.Value) (msgpack.UnionCase, bool) {
	for _, c := range s.cases {
		if c.Shape.Type() == v.Type() {
			return c, true
		}
	}
	return msgpack.UnionCase{}, false
}

// unionDuckTestShape backs an interface type with no discriminator at all;
// cases are told apart solely by which required properties the wire map
// carries, used to exercise unionShapeConverter's fitsKeys scoring.
type unionDuckTestShape struct {
	t     reflect.Type
	cases []msgpack.UnionCase
}

func (s *unionDuckTestShape) Kind() msgpack.Kind         { return msgpack.KindUnion }
func (s *unionDuckTestShape) Type() reflect.Type         { return s.t }
func (s *unionDuckTestShape) Cases() []msgpack.UnionCase { return s.cases }
func (s *unionDuckTestShape) HasAliases() bool           { return false }
func (s *unionDuckTestShape) Discriminate(v reflect.Value) (msgpack.UnionCase, bool) {
	for _, c := range s.cases {
		if c.Shape.Type() == v.Type() {
			return c, true
		}
	}
	return msgpack.UnionCase{}, false
}

// surrogateTestShape converts a T to an intermediate U via caller-supplied
// functions, used to exercise surrogateConverter.
type surrogateTestShape struct {
	t         reflect.Type
	surrogate msgpack.Shape
	to        func(reflect.Value) (reflect.Value, error)
	from      func(reflect.Value) (reflect.Value, error)
}

func (s *surrogateTestShape) Kind() msgpack.Kind   { return msgpack.KindSurrogate }
func (s *surrogateTestShape) Type() reflect.Type   { return s.t }
func (s *surrogateTestShape) Surrogate() msgpack.Shape { return s.surrogate }
func (s *surrogateTestShape) ToSurrogate(v reflect.Value) (reflect.Value, error) {
	return s.to(v)
}
func (s *surrogateTestShape) FromSurrogate(v reflect.Value) (reflect.Value, error) {
	return s.from(v)
}

// indexKeyedTestShape backs a struct using the array-shaped, index-keyed
// object layout, with a deliberate gap between declared ArrayIndex values
// to exercise objectArrayConverter's Nil-filling of undeclared slots.
type indexKeyedTestShape struct {
	t     reflect.Type
	props []msgpack.Property
}

func (s *indexKeyedTestShape) Kind() msgpack.Kind                       { return msgpack.KindObject }
func (s *indexKeyedTestShape) Type() reflect.Type                       { return s.t }
func (s *indexKeyedTestShape) Properties() []msgpack.Property           { return s.props }
func (s *indexKeyedTestShape) Constructor() (msgpack.Constructor, bool) { return msgpack.Constructor{}, false }
func (s *indexKeyedTestShape) IndexKeyed() bool                         { return true }

// fixedShapeProvider wraps a reflectProvider, answering a set of
// Go-interface or otherwise non-reflectable types with pre-built shapes
// while delegating everything else to reflection.
type fixedShapeProvider struct {
	*reflectProvider
	fixed map[reflect.Type]msgpack.Shape
}

func newFixedShapeProvider() *fixedShapeProvider {
	return &fixedShapeProvider{
		reflectProvider: newReflectProvider(),
		fixed:           make(map[reflect.Type]msgpack.Shape),
	}
}

func (p *fixedShapeProvider) register(t reflect.Type, shape msgpack.Shape) {
	p.fixed[t] = shape
}

func (p *fixedShapeProvider) GetShape(t reflect.Type) (msgpack.Shape, bool) {
	if s, ok := p.fixed[t]; ok {
		return s, true
	}
	return p.reflectProvider.GetShape(t)
}

func (p *fixedShapeProvider) GetAssociatedShape(t reflect.Type) (msgpack.Shape, bool) {
	return p.GetShape(t)
}
