package msgpack

import (
	"fmt"
	"reflect"

	"github.com/mpkcore/msgpack/wire"
)

// refMarkerType is the extension type code used for a back-reference
// marker, per spec.md §4.I "Reference preservation". The payload is the
// referenced value's id, itself encoded as a plain msgpack unsigned
// integer — an extension wrapping an ordinary token, rather than a raw
// integer field, so a reader can always tell a back-reference apart from
// a first occurrence by lead byte alone.
const refMarkerType int8 = 0x00

// refPreservingConverter wraps a reference-kind shape's ordinary converter
// with the identity map described in spec.md §4.I: the first time a given
// pointer/map/slice value is written, it is written in full and its id is
// implicit (both ends assign ids in lockstep, by traversal order); every
// later occurrence of the same identity is written as a back-reference
// marker instead. A reference reached again while its first write is still
// in progress is a cycle, rejected unless Policies.AllowCycles is set.
//
// earlyPublishElem is non-nil when this converter wraps a pointer to an
// object shape with no constructor: in that case AllowCycles can publish
// the pointer's identity before its fields are populated, letting a cycle
// through one of those fields resolve to the (still being built) pointer.
type refPreservingConverter struct {
	inner            Converter
	earlyPublishElem reflect.Type
}

func wrapReferencePreserving(conv Converter, shape Shape) Converter {
	rpc := &refPreservingConverter{inner: conv}
	if shape.Type().Kind() == reflect.Ptr {
		if n, ok := shape.(NullableShape); ok {
			if obj, ok := n.Element().(ObjectShape); ok {
				if _, hasCtor := obj.Constructor(); !hasCtor {
					rpc.earlyPublishElem = n.Element().Type()
				}
			}
		}
	}
	return rpc
}

func (c *refPreservingConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	refs := ctx.References()
	if refs == nil {
		return c.inner.Write(ctx, w, rv)
	}

	id, isRef, alreadySeen, cycle := refs.BeginWrite(rv)
	if !isRef {
		// A nil reference still takes an id: Read allocates one for every
		// token that is not a back-reference marker, nil included.
		refs.nextID++
		return c.inner.Write(ctx, w, rv)
	}
	if cycle {
		if !ctx.Policies().AllowCycles {
			return newError(KindReferenceCycleDetected,
				fmt.Errorf("msgpack: reference cycle detected writing %s", rv.Type()))
		}
		// The in-progress occurrence further up the call stack will still
		// finish and its id is already reserved; the reader's early-publish
		// path resolves this marker before that write completes.
		return writeRefMarker(w, id)
	}
	if alreadySeen {
		return writeRefMarker(w, id)
	}

	if err := c.inner.Write(ctx, w, rv); err != nil {
		return err
	}
	refs.FinishWrite(rv)
	return nil
}

func (c *refPreservingConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	refs := ctx.References()
	if refs == nil {
		return c.inner.Read(ctx, r, reflect.Value{})
	}

	if id, ok, err := tryReadRefMarker(r); err != nil {
		return reflect.Value{}, liftWireError(err)
	} else if ok {
		v, known, reconstructible := refs.ResolveRead(id)
		if !known {
			return reflect.Value{}, newError(KindCycleNotReconstructible,
				fmt.Errorf("msgpack: back-reference to unknown id %d", id))
		}
		if !reconstructible {
			return reflect.Value{}, newError(KindCycleNotReconstructible,
				fmt.Errorf("msgpack: reference cycle to id %d cannot be reconstructed at this position", id))
		}
		return v, nil
	}

	id := refs.AllocateReadID()

	if ctx.Policies().AllowCycles && c.earlyPublishElem != nil {
		ptr := reflect.New(c.earlyPublishElem)
		refs.CompleteRead(id, ptr)
		v, err := c.inner.Read(ctx, r, ptr)
		if err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	}

	refs.ReserveRead(id)
	v, err := c.inner.Read(ctx, r, reflect.Value{})
	if err != nil {
		return reflect.Value{}, err
	}
	refs.CompleteRead(id, v)
	return v, nil
}

func writeRefMarker(w *wire.Writer, id int) error {
	idw := wire.NewWriter()
	idw.WriteUint(uint64(id))
	w.WriteExtension(refMarkerType, idw.Bytes())
	return nil
}

// tryReadRefMarker peeks at the next token on an independent cursor; if it
// is a back-reference marker, it consumes it for real from r and returns
// the referenced id.
func tryReadRefMarker(r *wire.Reader) (id int, ok bool, err error) {
	probe := r.Clone()
	typeCode, length, perr := probe.ReadExtensionHeader()
	if perr != nil || typeCode != refMarkerType {
		return 0, false, nil
	}

	if _, _, err := r.ReadExtensionHeader(); err != nil {
		return 0, false, err
	}
	payload, err := r.ReadExtensionPayload(length)
	if err != nil {
		return 0, false, err
	}
	idReader := wire.NewReader(payload)
	v, err := idReader.ReadUint64()
	if err != nil {
		return 0, false, err
	}
	return int(v), true, nil
}
