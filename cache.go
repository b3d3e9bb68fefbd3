package msgpack

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/mpkcore/msgpack/wire"
)

var errConverterNotYetBuilt = errors.New("msgpack: converter not yet built")

// ConverterFactory is a user-supplied override consulted before the
// shape-driven builders, in registration order, letting a caller plug in a
// hand-written Converter for a type the generic builders would otherwise
// handle (or handle less precisely). The first factory that returns ok ==
// true wins, grounded on the ordered lookup in
// aws-smithy-go/document/internal/serde's field cache, generalized from
// "one cache, exactly one outcome" to "first matching factory, in the
// order registered."
type ConverterFactory func(t reflect.Type) (Converter, bool)

// cacheKey identifies a converter by the Go type it was built for and the
// identity of the shape provider that described it — two providers can
// disagree about the same Go type (e.g. different naming policies), so the
// provider is part of the key, per spec.md §3 "Converter cache".
type cacheKey struct {
	typ      reflect.Type
	provider ShapeProvider
}

type cacheEntry struct {
	mu        sync.Mutex
	building  bool
	delayed   *delayedConverter
	converter Converter
	err       error
}

// Cache is a Serializer's converter cache: a type-identity-keyed map from
// (type, shape provider) to Converter, built lazily and shared across every
// Serialize/Deserialize call made through that Serializer. Grounded on
// aws-smithy-go/document/internal/serde/field_cache.go's sync.Map-backed
// fieldCacher, generalized from Load/LoadOrStore-only (single-shot,
// recursion-free caches) to per-entry building state plus a delayed
// placeholder, because converter shapes here can be mutually or directly
// recursive in a way struct field lists never are.
//
// last is a one-slot fast path for the extremely common case of repeatedly
// (de)serializing the same type in a row: an atomic.Pointer load and a
// cacheKey comparison, skipping the sync.Map lookup's hashing entirely.
type Cache struct {
	entries   sync.Map // cacheKey -> *cacheEntry
	factories []ConverterFactory
	last      atomic.Pointer[lastConverter]
}

type lastConverter struct {
	key   cacheKey
	entry *cacheEntry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// RegisterFactory appends a ConverterFactory, consulted before shape-driven
// dispatch for every type this Cache resolves from then on.
func (c *Cache) RegisterFactory(f ConverterFactory) {
	c.factories = append(c.factories, f)
}

func (c *Cache) tryUserDefined(t reflect.Type) (Converter, bool) {
	for _, f := range c.factories {
		if conv, ok := f(t); ok {
			return conv, true
		}
	}
	return nil, false
}

// getOrBuild resolves the converter for (provider, t), invoking build at
// most once per key even under concurrent callers. A builder that
// recurses into getOrBuild for the same key (a self-referential or
// mutually-referential shape) receives a delayedConverter thunk instead of
// blocking or re-entering build — the thunk forwards Write/Read to the
// real converter once this call finishes and resolves it.
func (c *Cache) getOrBuild(key cacheKey, build func() (Converter, error)) (Converter, error) {
	if lc := c.last.Load(); lc != nil && lc.key == key {
		return loadEntry(lc.entry)
	}

	if v, ok := c.entries.Load(key); ok {
		entry := v.(*cacheEntry)
		c.last.Store(&lastConverter{key: key, entry: entry})
		return loadEntry(entry)
	}

	entry := &cacheEntry{building: true, delayed: newDelayedConverter()}
	actual, loaded := c.entries.LoadOrStore(key, entry)
	entry = actual.(*cacheEntry)
	if loaded {
		// Another call already owns this key's build (or finished it);
		// defer to whatever state it's actually in.
		return loadEntry(entry)
	}

	conv, err := build()

	entry.mu.Lock()
	entry.converter, entry.err, entry.building = conv, err, false
	entry.mu.Unlock()
	entry.delayed.resolve(conv, err)
	c.last.Store(&lastConverter{key: key, entry: entry})

	return conv, err
}

func loadEntry(e *cacheEntry) (Converter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.building {
		return e.delayed, nil
	}
	return e.converter, e.err
}

// delayedConverter is the recursion thunk described in spec.md §3
// "Converter cache": a placeholder handed to a builder that recurses into
// its own still-building shape, which becomes usable once the outer build
// completes. Write/Read block until resolution, which is safe for genuine
// cross-goroutine concurrent builds (the other goroutine's build
// eventually completes) and a no-op wait for the recursive case, since the
// thunk is only ever invoked at actual serialize/deserialize time, after
// every converter in the shape graph has finished building.
type delayedConverter struct {
	done   chan struct{}
	target Converter
	err    error
}

func newDelayedConverter() *delayedConverter {
	return &delayedConverter{done: make(chan struct{})}
}

func (d *delayedConverter) resolve(target Converter, err error) {
	d.target, d.err = target, err
	close(d.done)
}

func (d *delayedConverter) await() (Converter, error) {
	<-d.done
	if d.err != nil {
		return nil, d.err
	}
	if d.target == nil {
		return nil, newError(KindConverterNotYetBuilt, errConverterNotYetBuilt)
	}
	return d.target, nil
}

func (d *delayedConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	target, err := d.await()
	if err != nil {
		return err
	}
	return target.Write(ctx, w, rv)
}

func (d *delayedConverter) Read(ctx *Context, r *wire.Reader, rv reflect.Value) (reflect.Value, error) {
	target, err := d.await()
	if err != nil {
		return reflect.Value{}, err
	}
	return target.Read(ctx, r, rv)
}

// resolveConverter is the dispatch point every recursive converter call
// goes through once it already holds a Shape (a property's Shape, an
// element shape, ...): check for a user-defined override, then fall back
// to the shape-driven builder selected by the shape's Kind. Shapes form a
// self-contained graph — a property already carries its value's Shape, an
// enumerable already carries its Element() Shape — so recursion never
// needs to ask the provider again; only the top-level entry point does,
// via resolveConverterForType.
func resolveConverter(ctx *Context, shape Shape) (Converter, error) {
	t := shape.Type()
	if conv, ok := ctx.cache.tryUserDefined(t); ok {
		return conv, nil
	}

	key := cacheKey{typ: t, provider: ctx.provider}
	return ctx.cache.getOrBuild(key, func() (Converter, error) {
		return buildConverter(ctx, shape)
	})
}

// resolveConverterForType is the top-level entry point: it asks the active
// shape provider for t's Shape, then resolves that shape's converter.
func resolveConverterForType(ctx *Context, t reflect.Type) (Converter, error) {
	if conv, ok := ctx.cache.tryUserDefined(t); ok {
		return conv, nil
	}
	shape, ok := ctx.provider.GetShape(t)
	if !ok {
		return nil, newError(KindUnspecified, fmt.Errorf("msgpack: no shape registered for %s", t))
	}
	return resolveConverter(ctx, shape)
}

// buildConverter dispatches to the §4.E builder matching shape.Kind(). Each
// builder may itself call resolveConverter for nested shapes (property
// types, element types, surrogate types), which is what makes recursive
// shapes resolve correctly through the delayedConverter mechanism above.
func buildConverter(ctx *Context, shape Shape) (Converter, error) {
	conv, err := dispatchConverter(ctx, shape)
	if err != nil {
		return nil, err
	}
	if ctx.Policies().PreserveReferences {
		switch shape.Type().Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice:
			return wrapReferencePreserving(conv, shape), nil
		}
	}
	return conv, nil
}

func dispatchConverter(ctx *Context, shape Shape) (Converter, error) {
	switch shape.Kind() {
	case KindPrimitive:
		return buildPrimitiveConverter(shape)
	case KindObject:
		obj, ok := shape.(ObjectShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindObject but does not implement ObjectShape", shape.Type())
		}
		if obj.IndexKeyed() {
			return newObjectArrayConverter(ctx, shape, obj)
		}
		return newObjectMapConverter(ctx, shape, obj)
	case KindEnumerable:
		en, ok := shape.(EnumerableShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindEnumerable but does not implement EnumerableShape", shape.Type())
		}
		return newEnumerableConverter(ctx, shape, en)
	case KindDictionary:
		d, ok := shape.(DictionaryShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindDictionary but does not implement DictionaryShape", shape.Type())
		}
		return newDictionaryConverter(ctx, shape, d)
	case KindNullable:
		n, ok := shape.(NullableShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindNullable but does not implement NullableShape", shape.Type())
		}
		return newNullableConverter(ctx, shape, n)
	case KindEnum:
		e, ok := shape.(EnumShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindEnum but does not implement EnumShape", shape.Type())
		}
		return newEnumConverter(shape, e)
	case KindUnion:
		u, ok := shape.(UnionShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindUnion but does not implement UnionShape", shape.Type())
		}
		if u.HasAliases() {
			return newUnionAliasConverter(ctx, shape, u)
		}
		return newUnionShapeConverter(ctx, shape, u)
	case KindSurrogate:
		s, ok := shape.(SurrogateShape)
		if !ok {
			return nil, fmt.Errorf("msgpack: shape for %s reports KindSurrogate but does not implement SurrogateShape", shape.Type())
		}
		return newSurrogateConverter(ctx, shape, s)
	default:
		return nil, fmt.Errorf("msgpack: shape for %s reports unrecognized kind %s", shape.Type(), shape.Kind())
	}
}
