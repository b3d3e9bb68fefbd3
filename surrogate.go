package msgpack

import (
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// surrogateConverter implements spec.md §4.E "Surrogate": a type T that is
// never written directly, instead being converted to an intermediate type
// U (which may itself be any other shape kind, including a well-known
// extension type) for writing, and reconstructed from a decoded U on read.
type surrogateConverter struct {
	surrogate Shape
	shape     SurrogateShape
}

func newSurrogateConverter(ctx *Context, shape Shape, s SurrogateShape) (Converter, error) {
	return &surrogateConverter{surrogate: s.Surrogate(), shape: s}, nil
}

func (c *surrogateConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	u, err := c.shape.ToSurrogate(rv)
	if err != nil {
		return err
	}
	conv, err := resolveConverter(ctx, c.surrogate)
	if err != nil {
		return err
	}
	return conv.Write(ctx, w, u)
}

func (c *surrogateConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	conv, err := resolveConverter(ctx, c.surrogate)
	if err != nil {
		return reflect.Value{}, err
	}
	u, err := conv.Read(ctx, r, reflect.Value{})
	if err != nil {
		return reflect.Value{}, err
	}
	return c.shape.FromSurrogate(u)
}
