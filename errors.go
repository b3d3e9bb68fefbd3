package msgpack

import (
	"errors"
	"fmt"

	"github.com/mpkcore/msgpack/wire"
)

// SerializationErrorKind classifies a *SerializationError, letting callers
// branch on failure category without string-matching Error(), per spec.md
// §7 "Errors are unified into a single taxonomy with a kind discriminator."
type SerializationErrorKind int

const (
	KindUnspecified SerializationErrorKind = iota

	// KindInsufficientBuffer indicates the wire reader ran out of input
	// mid-token and the caller should Fill and retry.
	KindInsufficientBuffer

	// KindEndOfStream indicates a SyncReader's source returned EOF with no
	// further bytes available, mid-token.
	KindEndOfStream

	// KindTokenMismatch indicates the next wire token's lead byte did not
	// match what the converter expected.
	KindTokenMismatch

	// KindOverflow indicates a decoded numeric value did not fit in the
	// target type.
	KindOverflow

	// KindDepthLimitExceeded indicates nesting exceeded the configured
	// maximum depth.
	KindDepthLimitExceeded

	// KindReferenceCycleDetected indicates a reference cycle was found
	// while the active policy forbids cycles.
	KindReferenceCycleDetected

	// KindCycleNotReconstructible indicates a reference cycle was
	// encountered on the read side in a position construction cannot
	// patch after the fact (e.g. inside a span constructor argument).
	KindCycleNotReconstructible

	// KindAmbiguousOrUnknownSubtype indicates a union discriminator that
	// resolved to more than one case, or to none.
	KindAmbiguousOrUnknownSubtype

	// KindMissingRequiredProperty indicates an object shape's required
	// property, or required constructor parameter, was absent on the wire.
	KindMissingRequiredProperty

	// KindConverterNotYetBuilt indicates a cyclic shape's converter was
	// dispatched before its recursive build finished.
	KindConverterNotYetBuilt

	// KindOperationCancelled indicates the caller's context was cancelled
	// mid-operation.
	KindOperationCancelled
)

func (k SerializationErrorKind) String() string {
	switch k {
	case KindInsufficientBuffer:
		return "insufficient buffer"
	case KindEndOfStream:
		return "end of stream"
	case KindTokenMismatch:
		return "token mismatch"
	case KindOverflow:
		return "overflow"
	case KindDepthLimitExceeded:
		return "depth limit exceeded"
	case KindReferenceCycleDetected:
		return "reference cycle detected"
	case KindCycleNotReconstructible:
		return "cycle not reconstructible"
	case KindAmbiguousOrUnknownSubtype:
		return "ambiguous or unknown subtype"
	case KindMissingRequiredProperty:
		return "missing required property"
	case KindConverterNotYetBuilt:
		return "converter not yet built"
	case KindOperationCancelled:
		return "operation cancelled"
	default:
		return "unspecified"
	}
}

// SerializationError is the single error type this package returns for
// every serialize/deserialize failure. Path records the property names,
// array indices, or map keys traversed to reach the failure, innermost
// last, for diagnostics.
type SerializationError struct {
	Kind SerializationErrorKind
	Path []string
	Err  error
}

func (e *SerializationError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("msgpack: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("msgpack: %s at %s: %v", e.Kind, pathString(e.Path), e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func pathString(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// withPath returns a copy of err with elem prepended to its Path, building
// the path innermost-call-first as the error unwinds through recursive
// converter calls.
func withPath(err error, elem string) error {
	var se *SerializationError
	if errors.As(err, &se) {
		path := make([]string, 0, len(se.Path)+1)
		path = append(path, elem)
		path = append(path, se.Path...)
		return &SerializationError{Kind: se.Kind, Path: path, Err: se.Err}
	}
	return err
}

func newError(kind SerializationErrorKind, err error) *SerializationError {
	return &SerializationError{Kind: kind, Err: err}
}

// liftWireError maps a wire-package sentinel error onto this package's
// unified taxonomy. Errors not recognized as wire sentinels are returned
// wrapped under KindUnspecified so callers still get a *SerializationError.
func liftWireError(err error) *SerializationError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, wire.ErrShortBuffer):
		return newError(KindInsufficientBuffer, err)
	case errors.Is(err, wire.ErrTokenMismatch):
		return newError(KindTokenMismatch, err)
	case errors.Is(err, wire.ErrDepthExceeded):
		return newError(KindDepthLimitExceeded, err)
	}
	var overflow *wire.OverflowError
	if errors.As(err, &overflow) {
		return newError(KindOverflow, err)
	}
	return newError(KindUnspecified, err)
}

// errCancelled wraps ctx.Err() into the unified taxonomy at the
// points this package checks for cancellation.
func errCancelled(ctxErr error) *SerializationError {
	return newError(KindOperationCancelled, ctxErr)
}
