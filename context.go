package msgpack

import (
	"context"

	"github.com/mpkcore/msgpack/wire"
)

// Context threads the state a single top-level Serialize/Deserialize call
// shares across every recursive converter invocation: the caller's
// cancellation context, the active policies, the shape provider and
// converter cache to resolve against, the current nesting depth, and (when
// PreserveReferences is on) the reference tracker. A Context is created
// fresh per top-level call and is not safe for concurrent use — spec.md §3
// "Serialization context" describes exactly this per-operation, not
// per-process, lifetime.
type Context struct {
	ctx      context.Context
	policies Policies
	provider ShapeProvider
	cache    *Cache
	depth    int
	refs     *referenceTracker
	interned map[string]string
}

func newContext(ctx context.Context, policies Policies, provider ShapeProvider, cache *Cache) *Context {
	c := &Context{
		ctx:      ctx,
		policies: policies,
		provider: provider,
		cache:    cache,
	}
	if policies.PreserveReferences {
		c.refs = newReferenceTracker()
	}
	if policies.InternStrings {
		c.interned = make(map[string]string)
	}
	return c
}

// Policies returns the active policy set for this call.
func (c *Context) Policies() Policies { return c.policies }

// Provider returns the shape provider this call resolves shapes against.
func (c *Context) Provider() ShapeProvider { return c.provider }

// Cache returns the converter cache this call resolves converters against.
func (c *Context) Cache() *Cache { return c.cache }

// Depth returns the current nesting depth.
func (c *Context) Depth() int { return c.depth }

// Enter increments the nesting depth, failing with KindDepthLimitExceeded
// if doing so would exceed the active MaxDepth policy. Every converter that
// recurses into a child value must call Enter before recursing and Leave
// when it returns, typically via:
//
//	if err := ctx.Enter(); err != nil {
//		return err
//	}
//	defer ctx.Leave()
func (c *Context) Enter() error {
	c.depth++
	if c.depth > c.policies.MaxDepth {
		c.depth--
		return newError(KindDepthLimitExceeded, wire.ErrDepthExceeded)
	}
	return nil
}

// Leave decrements the nesting depth. Must be paired with a prior
// successful Enter.
func (c *Context) Leave() {
	c.depth--
}

// CheckCancelled returns a KindOperationCancelled error if the call's
// context has been cancelled or has exceeded its deadline. Converters for
// container shapes call this once per element/property so cancellation is
// observed promptly on large payloads without checking on every primitive
// read.
func (c *Context) CheckCancelled() error {
	if err := c.ctx.Err(); err != nil {
		return errCancelled(err)
	}
	return nil
}

// Context returns the underlying cancellation context, for converters that
// need to pass it to something outside this package (e.g. a surrogate
// conversion that itself performs I/O).
func (c *Context) Context() context.Context { return c.ctx }

// References returns the active reference tracker, or nil when
// PreserveReferences is off.
func (c *Context) References() *referenceTracker { return c.refs }

// Intern deduplicates a decoded string against this call's intern table
// when InternStrings is enabled; otherwise it returns s unchanged.
func (c *Context) Intern(s string) string {
	if c.interned == nil {
		return s
	}
	if existing, ok := c.interned[s]; ok {
		return existing
	}
	c.interned[s] = s
	return s
}
