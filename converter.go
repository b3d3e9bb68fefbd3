package msgpack

import (
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// Converter is the common interface every per-type codec implements,
// modeled as a sum type over the builder kinds in §4.E rather than as a
// single struct with a kind-switch body — each builder owns its own write
// and read strategy, and the cache hands callers back a plain Converter
// without exposing which concrete builder produced it.
//
// Converters operate on reflect.Value rather than a generic type parameter
// because the shapes that drive construction are supplied at runtime by an
// external ShapeProvider: the set of concrete Go types a program serializes
// is not known to this package at compile time, so there is no type T a
// generic Converter[T] could close over. See SPEC_FULL.md §9 for the full
// rationale against the alternative (teacher-style compile-time-generated
// marshal methods).
type Converter interface {
	// Write encodes rv (of the type this converter was built for) to w.
	Write(ctx *Context, w *wire.Writer, rv reflect.Value) error

	// Read decodes a value of this converter's type from r into rv, which
	// is addressable and of the correct type, or returns a freshly
	// constructed reflect.Value of that type via the returned Value when rv
	// is the zero Value (used for immutable/constructor-built types).
	Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error)
}

// ConverterFunc adapts a pair of plain functions to the Converter interface.
// The well-known converters in wellknown.go are struct types and do not use
// it.
type ConverterFunc struct {
	WriteFunc func(ctx *Context, w *wire.Writer, rv reflect.Value) error
	ReadFunc  func(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error)
}

func (f ConverterFunc) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	return f.WriteFunc(ctx, w, rv)
}

func (f ConverterFunc) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	return f.ReadFunc(ctx, r, rv)
}
