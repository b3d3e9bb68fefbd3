package msgpack

import "github.com/mpkcore/msgpack/logging"

// SerializeDefaultsPolicy controls whether a property whose value equals
// its declared default is still written to the wire.
type SerializeDefaultsPolicy int

const (
	// SerializeDefaultsRequired writes a property only if it is marked
	// Required or its current value differs from its declared default.
	// This is the default policy: it keeps payloads compact while never
	// dropping data a reader needs to reconstruct a required field.
	SerializeDefaultsRequired SerializeDefaultsPolicy = iota

	// SerializeDefaultsAlways writes every property regardless of whether
	// its value matches the default.
	SerializeDefaultsAlways

	// SerializeDefaultsNever omits every property whose value matches its
	// declared default, required or not.
	SerializeDefaultsNever
)

// MultiDimArrayFormat selects the wire layout for rank > 1 enumerable
// shapes (spec.md §4.E "Enumerable").
type MultiDimArrayFormat int

const (
	// MultiDimArrayNested writes an array of arrays, mirroring the shape's
	// Go representation exactly.
	MultiDimArrayNested MultiDimArrayFormat = iota

	// MultiDimArrayFlat names the flat layout (one array of extent-product
	// length preceded by a dimensions header). The enumerable converter does
	// not implement it: whichever format is selected, enumerables are written
	// and read as nested arrays.
	MultiDimArrayFlat
)

// NamingPolicy rewrites a shape-declared property name into the name
// written on the wire. The zero value (nil) is the identity policy.
type NamingPolicy func(name string) string

// Predefined naming policies, applied once per property at shape-build
// time and cached on Property.WireName — never recomputed per call.
var (
	// IdentityNaming passes declared names through unchanged.
	IdentityNaming NamingPolicy = func(name string) string { return name }

	// CamelCaseNaming lowercases the leading rune of the declared name,
	// e.g. "UserId" -> "userId".
	CamelCaseNaming NamingPolicy = camelCase

	// SnakeCaseNaming rewrites "UserId" -> "user_id".
	SnakeCaseNaming NamingPolicy = snakeCase
)

func camelCase(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] = r[0] - 'A' + 'a'
	}
	return string(r)
}

func snakeCase(name string) string {
	if name == "" {
		return name
	}
	out := make([]rune, 0, len(name)+4)
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			out = append(out, r-'A'+'a')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Policies bundles every tunable that affects wire representation or
// converter behavior without changing the data model itself. Policies are
// immutable once attached to a Serializer; With* options produce a new
// Serializer sharing the unmodified fields, per spec.md §6.4 "copy on
// write" configuration.
type Policies struct {
	// PreserveReferences enables the identity map described in §4.I: equal
	// pointers serialize once with back-references to later occurrences.
	// Off by default — most payloads are trees, not graphs, and the
	// identity bookkeeping has a real per-object cost.
	PreserveReferences bool

	// AllowCycles changes how PreserveReferences handles a reference
	// reached again while its first occurrence is still being written: by
	// default (false) this is rejected as KindReferenceCycleDetected /
	// KindCycleNotReconstructible. When true, the writer still emits a
	// back-reference marker for the in-progress value, and the reader
	// publishes a pointer to a zero-valued struct before populating its
	// fields, so a field that cycles back to its own enclosing value
	// resolves to that (not yet fully populated) pointer instead of
	// failing. Early publication only applies to a pointer-to-object shape
	// built without a constructor (ordinary field assignment); a
	// constructor-built or container (map/slice) cycle is still rejected,
	// since there is no way to hand out its identity before it exists.
	// Ignored when PreserveReferences is false.
	AllowCycles bool

	// SerializeDefaults controls default-value elision.
	SerializeDefaults SerializeDefaultsPolicy

	// EnumByName writes enum values as their declared name (a msgpack
	// string) rather than their ordinal (a msgpack integer). Ordinal
	// encoding is smaller and is the default; name encoding is more
	// tolerant of enum member renumbering across versions.
	EnumByName bool

	// MultiDimArrayFormat records a wire layout for rank > 1 arrays. No
	// converter reads it; see MultiDimArrayFlat.
	MultiDimArrayFormat MultiDimArrayFormat

	// Naming holds a property naming policy; nil means IdentityNaming. No
	// converter reads it: property names are written and matched as
	// Property.WireName, exactly as the shape provider set it.
	Naming NamingPolicy

	// PerfOverStability trades a more compact, less self-describing wire
	// form (integer union discriminators instead of string aliases) for
	// reduced payload size and faster dispatch. Off by default: string
	// aliases survive case renumbering across independently versioned
	// readers and writers.
	PerfOverStability bool

	// DisableHWAcceleration is carried on Policies, but no code path in this
	// package reads it: primitives have a single portable code path whether
	// it is set or not.
	DisableHWAcceleration bool

	// InternStrings deduplicates decoded strings against a per-Context
	// table, trading a lookup per string for reduced allocation when
	// payloads repeat the same short strings (map keys, enum names) many
	// times.
	InternStrings bool

	// MaxDepth bounds container nesting depth on both the read and skip
	// paths. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives diagnostic events that aren't errors — an unknown
	// property skipped on read, a duck-typed union match chosen among
	// several candidates — so a caller can see them without every such
	// event becoming part of the error return. Nil means logging.Noop{}.
	Logger logging.Logger
}

// DefaultMaxDepth is the nesting limit applied when Policies.MaxDepth is
// left at zero.
const DefaultMaxDepth = 64

// DefaultPolicies returns the policy set a Serializer starts from absent
// any Option.
func DefaultPolicies() Policies {
	return Policies{
		SerializeDefaults: SerializeDefaultsRequired,
		MaxDepth:          DefaultMaxDepth,
		Logger:            logging.Noop{},
	}
}

// Option mutates a Policies value; functional options let callers compose
// only the overrides they care about without naming every field, the same
// pattern the teacher's client constructors use for per-call overrides.
type Option func(*Policies)

// WithPreserveReferences toggles reference-cycle-safe serialization.
func WithPreserveReferences(enabled bool) Option {
	return func(p *Policies) { p.PreserveReferences = enabled }
}

// WithAllowCycles toggles the early-publish cycle policy described on
// Policies.AllowCycles. Has no effect unless PreserveReferences is also on.
func WithAllowCycles(enabled bool) Option {
	return func(p *Policies) { p.AllowCycles = enabled }
}

// WithSerializeDefaults sets the default-value elision policy.
func WithSerializeDefaults(policy SerializeDefaultsPolicy) Option {
	return func(p *Policies) { p.SerializeDefaults = policy }
}

// WithEnumByName toggles enum name-vs-ordinal encoding.
func WithEnumByName(enabled bool) Option {
	return func(p *Policies) { p.EnumByName = enabled }
}

// WithMultiDimArrayFormat sets Policies.MultiDimArrayFormat, which no
// converter reads.
func WithMultiDimArrayFormat(format MultiDimArrayFormat) Option {
	return func(p *Policies) { p.MultiDimArrayFormat = format }
}

// WithNaming sets Policies.Naming, which no converter reads.
func WithNaming(policy NamingPolicy) Option {
	return func(p *Policies) { p.Naming = policy }
}

// WithPerfOverStability toggles compact-but-fragile encodings.
func WithPerfOverStability(enabled bool) Option {
	return func(p *Policies) { p.PerfOverStability = enabled }
}

// WithHWAccelerationDisabled sets Policies.DisableHWAcceleration, which no
// code path reads.
func WithHWAccelerationDisabled(disabled bool) Option {
	return func(p *Policies) { p.DisableHWAcceleration = disabled }
}

// WithInternStrings toggles decoded-string deduplication.
func WithInternStrings(enabled bool) Option {
	return func(p *Policies) { p.InternStrings = enabled }
}

// WithMaxDepth overrides the nesting depth limit.
func WithMaxDepth(depth int) Option {
	return func(p *Policies) { p.MaxDepth = depth }
}

// WithLogger sets the Logger diagnostic events are reported to.
func WithLogger(logger logging.Logger) Option {
	return func(p *Policies) { p.Logger = logger }
}

func (p Policies) apply(opts []Option) Policies {
	for _, opt := range opts {
		opt(&p)
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = DefaultMaxDepth
	}
	if p.Logger == nil {
		p.Logger = logging.Noop{}
	}
	return p
}
