package msgpack

import "reflect"

// Kind discriminates the structural category of a type shape, per spec.md
// §3 "Type shape". The cache and converter builders switch on Kind to
// decide which builder in §4.E to invoke.
type Kind int

// Enumerates the Kind values a Shape may report.
const (
	KindInvalid Kind = iota
	KindPrimitive
	KindObject
	KindEnumerable
	KindDictionary
	KindNullable
	KindEnum
	KindUnion
	KindSurrogate
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindEnumerable:
		return "enumerable"
	case KindDictionary:
		return "dictionary"
	case KindNullable:
		return "nullable"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	case KindSurrogate:
		return "surrogate"
	default:
		return "invalid"
	}
}

// Shape is a structural description of a user type, supplied by an external
// shape provider (reflection-based or source-generated) and consumed, never
// produced, by this package. This is the minimal common surface every shape
// exposes; kind-specific navigation lives in the parallel ObjectShape,
// EnumerableShape, DictionaryShape, NullableShape, EnumShape, UnionShape and
// SurrogateShape interfaces, which a concrete Shape additionally implements
// according to its Kind() — the same "answer only what your kind needs"
// split the teacher draws between its base Schema struct and the optional
// per-trait accessors layered on top via SchemaTrait.
type Shape interface {
	// Kind reports the structural category this shape describes.
	Kind() Kind

	// Type returns the Go type this shape describes.
	Type() reflect.Type
}

// ShapeProvider resolves shapes for Go types, keyed by the provider's own
// identity plus the requested type (spec.md §3 "Converter cache": "a
// mapping {type-identity, shape-provider-identity} -> converter"). A single
// process may have multiple providers in play (e.g. one per naming
// convention), so the provider's identity is part of the cache key.
type ShapeProvider interface {
	// GetShape returns the shape describing t, if the provider knows one.
	GetShape(t reflect.Type) (Shape, bool)

	// GetAssociatedShape returns the shape for a type related to t (for
	// instance, a surrogate's wire type, or a constructor parameter's
	// declared type), used when converter-factory resolution needs to
	// recurse into a type the cache hasn't seen directly yet.
	GetAssociatedShape(t reflect.Type) (Shape, bool)
}

// ObjectShape is implemented by shapes with Kind() == KindObject: map-shaped
// (string-keyed) or array-shaped (index-keyed) user objects.
type ObjectShape interface {
	// Properties lists the object's serializable members in declaration
	// order (spec.md: "Msgpack map entries have no defined wire order; the
	// writer chooses an implementation-defined order (typically declaration
	// order)").
	Properties() []Property

	// Constructor returns the object's parameterized constructor, if it
	// requires one to be built (as opposed to a default instance plus
	// field setters).
	Constructor() (Constructor, bool)

	// IndexKeyed reports whether this object uses the array-shaped,
	// index-keyed layout (spec.md §4.E "Object (array shape, index-keyed)")
	// rather than the default string-keyed map layout.
	IndexKeyed() bool
}

// Property describes one serializable member of an object shape.
type Property struct {
	// Name is the declared Go-side property name.
	Name string

	// WireName is the name to encode on the wire, after the active naming
	// policy and any explicit per-property override have been applied. It
	// is precomputed once by the shape provider, per spec.md §4.E: "The
	// encoded name bytes are pre-computed once per property at build time."
	WireName string

	// Shape describes the property's value type.
	Shape Shape

	// Required marks a property that participates in serialize_defaults
	// policy's Required inclusion rule, and in constructor-parameter
	// completeness checks.
	Required bool

	// ArrayIndex is this property's stable slot in the array-shaped,
	// index-keyed layout. Ignored unless the owning ObjectShape reports
	// IndexKeyed().
	ArrayIndex int

	// ParamIndex is this property's index into the owning Constructor's
	// Params, or -1 if the property is set via Set after construction
	// rather than passed to the constructor.
	ParamIndex int

	// Get reads the property's current value off obj.
	Get func(obj reflect.Value) reflect.Value

	// Set assigns v onto the property of obj. Only used for properties
	// that are not constructor parameters (ParamIndex == -1).
	Set func(obj reflect.Value, v reflect.Value)

	// Default returns the property's declared default value, used by the
	// Required serialize_defaults policy to detect whether a value differs
	// from its default. ok is false if the shape does not declare one.
	Default func() (v reflect.Value, ok bool)
}

// Constructor describes an object shape's parameterized constructor.
type Constructor struct {
	// Params lists the constructor's parameters in call order.
	Params []ConstructorParam

	// New invokes the constructor with args positioned per Params, args[i]
	// may be the zero Value for an omitted non-required parameter.
	New func(args []reflect.Value) (reflect.Value, error)
}

// ConstructorParam describes one parameter of an object's constructor.
type ConstructorParam struct {
	Name     string
	Shape    Shape
	Required bool
}

// ConstructionStrategy selects how a shape's read-side container value is
// assembled, per spec.md §3 "Type shape".
type ConstructionStrategy int

const (
	// ConstructNone indicates the shape has no reader-side construction
	// (e.g. it is read element-by-element into a caller-owned value).
	ConstructNone ConstructionStrategy = iota

	// ConstructAppend builds a default instance and appends each decoded
	// element/pair as it is read.
	ConstructAppend

	// ConstructSpan allocates a fixed-length span up front, fills it, and
	// passes it to a span constructor in one call.
	ConstructSpan

	// ConstructEnumerable streams decoded elements through a lazy iterator
	// into a constructor that consumes it directly.
	ConstructEnumerable
)

// EnumerableShape is implemented by shapes with Kind() == KindEnumerable:
// ordered sequences (slices, arrays, lists).
type EnumerableShape interface {
	// Element describes the sequence's element type.
	Element() Shape

	// Construction selects the read-side assembly strategy.
	Construction() ConstructionStrategy

	// Rank is the array rank (1 for ordinary sequences; >1 for
	// multi-dimensional arrays, see spec.md §4.E "Enumerable").
	Rank() int

	// Len returns the number of elements in v, for writing.
	Len(v reflect.Value) int

	// Index returns the element at i in v, for writing.
	Index(v reflect.Value, i int) reflect.Value

	// NewBuilder returns a builder for the read side, sized to the
	// declared element count n when that is known up front (ConstructSpan);
	// ignored otherwise.
	NewBuilder(n int) EnumerableBuilder
}

// EnumerableBuilder accumulates decoded elements into a finished container.
type EnumerableBuilder interface {
	Append(v reflect.Value)
	Build() reflect.Value
}

// DictionaryShape is implemented by shapes with Kind() == KindDictionary:
// string/scalar-keyed associative containers.
type DictionaryShape interface {
	KeyShape() Shape
	ValueShape() Shape
	Construction() ConstructionStrategy

	// Len returns the number of pairs in v, for writing.
	Len(v reflect.Value) int

	// Iterate calls fn once per (key, value) pair in v, for writing. fn
	// returns false to stop iteration early.
	Iterate(v reflect.Value, fn func(k, val reflect.Value) bool)

	// NewBuilder returns a builder for the read side.
	NewBuilder(n int) DictionaryBuilder
}

// DictionaryBuilder accumulates decoded pairs into a finished container.
type DictionaryBuilder interface {
	Put(k, v reflect.Value)
	Build() reflect.Value
}

// NullableShape is implemented by shapes with Kind() == KindNullable:
// pointers, or any type with an explicit null representation.
type NullableShape interface {
	// Element describes the non-null payload's shape.
	Element() Shape

	// IsNull reports whether v represents the null case.
	IsNull(v reflect.Value) bool

	// Null returns the shape's null-representation value.
	Null() reflect.Value

	// Unwrap returns the non-null payload carried by v.
	Unwrap(v reflect.Value) reflect.Value

	// Wrap constructs a non-null value of this shape's type from a decoded
	// element value.
	Wrap(v reflect.Value) reflect.Value
}

// EnumShape is implemented by shapes with Kind() == KindEnum.
type EnumShape interface {
	// Underlying is the enum's underlying integer kind.
	Underlying() reflect.Kind

	// Values lists the enum's declared name/value pairs. A value with no
	// declared name (e.g. an undeclared flag combination) is absent here
	// and falls back to ordinal encoding, per spec.md §4.E "Enum".
	Values() []EnumValue
}

// EnumValue pairs a declared enum member's name with its ordinal value.
type EnumValue struct {
	Name  string
	Value int64
}

// UnionShape is implemented by shapes with Kind() == KindUnion.
type UnionShape interface {
	// Cases lists the union's declared subtypes.
	Cases() []UnionCase

	// Discriminate returns the case matching v's runtime type, for writing.
	Discriminate(v reflect.Value) (UnionCase, bool)

	// HasAliases reports whether this union has a statically or
	// dynamically declared alias mapping. When false, the shape-based
	// (duck-typed) resolver in §4.E/§4.H is used instead.
	HasAliases() bool
}

// UnionCase describes one subtype of a union shape.
type UnionCase struct {
	// Alias is the string discriminator written/read when
	// Policies.PerfOverStability is false.
	Alias string

	// AliasInt is the integer discriminator written/read when
	// Policies.PerfOverStability is true.
	AliasInt int64

	// Shape describes the subtype's own structure.
	Shape Shape
}

// SurrogateShape is implemented by shapes with Kind() == KindSurrogate: an
// intermediate type U interposed between the wire form and user type T.
type SurrogateShape interface {
	// Surrogate describes the intermediate type U that is actually
	// (de)serialized.
	Surrogate() Shape

	// ToSurrogate converts a T value to its U surrogate for writing.
	ToSurrogate(v reflect.Value) (reflect.Value, error)

	// FromSurrogate converts a decoded U surrogate back to T.
	FromSurrogate(v reflect.Value) (reflect.Value, error)
}
