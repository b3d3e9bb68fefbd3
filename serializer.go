package msgpack

import (
	"context"
	"reflect"

	"github.com/mpkcore/msgpack/internal/bufpool"
	"github.com/mpkcore/msgpack/wire"
)

// Serializer bundles a shape provider, its converter cache, and a policy
// set into one reusable, immutable value — the construction point every
// Serialize/Deserialize call goes through (spec.md §6.3, §6.4).
type Serializer struct {
	provider ShapeProvider
	cache    *Cache
	policies Policies
}

// NewSerializer returns a Serializer resolving shapes against provider,
// with DefaultPolicies() overridden by opts. The returned Serializer's
// converter cache is private to it: two Serializers over the same provider
// build and cache converters independently.
func NewSerializer(provider ShapeProvider, opts ...Option) *Serializer {
	cache := NewCache()
	registerWellKnownTypes(cache)
	return &Serializer{
		provider: provider,
		cache:    cache,
		policies: DefaultPolicies().apply(opts),
	}
}

// RegisterFactory adds a ConverterFactory consulted before shape-driven
// dispatch, for every type this Serializer resolves from then on.
func (s *Serializer) RegisterFactory(f ConverterFactory) {
	s.cache.RegisterFactory(f)
}

// With returns a new Serializer sharing this one's provider, with additional
// policy overrides layered on top of the current ones and a fresh converter
// cache that starts with the receiver's registered factories — a
// copy-on-write configuration change that never mutates the receiver, so a
// Serializer handed to concurrent callers stays stable while each caller
// can still derive its own overrides, and no converter built under the old
// policies is reused under the new ones.
func (s *Serializer) With(opts ...Option) *Serializer {
	cache := NewCache()
	cache.factories = append([]ConverterFactory(nil), s.cache.factories...)
	return &Serializer{
		provider: s.provider,
		cache:    cache,
		policies: s.policies.apply(opts),
	}
}

func (s *Serializer) newCallContext(ctx context.Context, opts []Option) *Context {
	policies := s.policies
	if len(opts) > 0 {
		policies = policies.apply(opts)
	}
	return newContext(ctx, policies, s.provider, s.cache)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Serialize encodes v to a freshly allocated byte slice, per spec.md §6.3.
func Serialize[T any](ctx context.Context, s *Serializer, v T, opts ...Option) ([]byte, error) {
	scratch := bufpool.GetScratch()
	defer bufpool.PutScratch(scratch)

	w := wire.NewWriterFrom(*scratch)
	if err := SerializeTo(ctx, s, w, v, opts...); err != nil {
		return nil, err
	}

	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	*scratch = w.Bytes()
	return out, nil
}

// SerializeTo encodes v directly into w, appending to whatever w already
// holds, per spec.md §6.3.
func SerializeTo[T any](ctx context.Context, s *Serializer, w *wire.Writer, v T, opts ...Option) error {
	callCtx := s.newCallContext(ctx, opts)
	if err := callCtx.CheckCancelled(); err != nil {
		return err
	}
	conv, err := resolveConverterForType(callCtx, typeOf[T]())
	if err != nil {
		return err
	}
	return conv.Write(callCtx, w, reflect.ValueOf(v))
}

// Deserialize decodes a T from p, per spec.md §6.3. p must contain exactly
// one complete top-level value; trailing bytes are ignored.
func Deserialize[T any](ctx context.Context, s *Serializer, p []byte, opts ...Option) (T, error) {
	var zero T
	callCtx := s.newCallContext(ctx, opts)
	if err := callCtx.CheckCancelled(); err != nil {
		return zero, err
	}
	conv, err := resolveConverterForType(callCtx, typeOf[T]())
	if err != nil {
		return zero, err
	}
	r := wire.NewReader(p)
	v, err := conv.Read(callCtx, r, reflect.Value{})
	if err != nil {
		return zero, err
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, newError(KindUnspecified, unexpectedTypeError(v, typeOf[T]()))
	}
	return out, nil
}

// DeserializeFrom decodes a T by pulling bytes from src as needed, for
// callers that have a stream rather than a complete in-memory buffer.
func DeserializeFrom[T any](ctx context.Context, s *Serializer, src *wire.SyncReader, opts ...Option) (T, error) {
	var zero T
	callCtx := s.newCallContext(ctx, opts)
	if err := callCtx.CheckCancelled(); err != nil {
		return zero, err
	}
	conv, err := resolveConverterForType(callCtx, typeOf[T]())
	if err != nil {
		return zero, err
	}

	var result reflect.Value
	err = src.Do(func(r *wire.Reader) error {
		v, err := conv.Read(callCtx, r, reflect.Value{})
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return zero, err
	}
	out, ok := result.Interface().(T)
	if !ok {
		return zero, newError(KindUnspecified, unexpectedTypeError(result, typeOf[T]()))
	}
	return out, nil
}
