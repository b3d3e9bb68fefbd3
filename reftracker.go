package msgpack

import "reflect"

// refState tracks where a given referenced value is in its write cycle.
type refState int

const (
	refInProgress refState = iota
	refDone
)

type writeRefEntry struct {
	id    int
	state refState
}

// referenceTracker implements the identity map described in spec.md §4.I:
// on the write side it assigns each distinct reference-typed value a
// stable id the first time it is seen and emits a back-reference on every
// later occurrence; on the read side it resolves a back-reference id to
// the value built for the corresponding first occurrence. A value whose id
// is requested while it is still being written (state == refInProgress)
// is a reference cycle.
//
// Identity is taken from reflect.Value.Pointer(), valid for the reference
// kinds this applies to (pointer, map, slice, chan, func); value-typed
// shapes never go through the tracker.
type referenceTracker struct {
	nextID int

	writeIndex map[uintptr]*writeRefEntry

	// readByID holds, for each id assigned on decode, the value
	// constructed for that id's first occurrence. A reserved id with a
	// zero Value means construction is still in progress (cycle).
	readByID map[int]reflect.Value

	// nextReadID mirrors nextID on the read side. Both counters advance in
	// lockstep because the write and read converter trees visit
	// reference-typed values in the same traversal order, which is what
	// lets a back-reference be transmitted as a bare id with no separate
	// "here is a new id" marker for first occurrences.
	nextReadID int
}

func newReferenceTracker() *referenceTracker {
	return &referenceTracker{
		writeIndex: make(map[uintptr]*writeRefEntry),
		readByID:   make(map[int]reflect.Value),
	}
}

func identity(rv reflect.Value) (uintptr, bool) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

// BeginWrite registers rv as about to be written. ok is false when rv is
// not a reference kind or is nil, meaning the caller should write it
// normally without reference framing. When ok is true: if cycle is true,
// rv is currently being written further up the call stack (a cycle);
// if alreadySeen is true, id identifies a prior occurrence and the caller
// should emit a back-reference instead of the full value.
func (t *referenceTracker) BeginWrite(rv reflect.Value) (id int, ok, alreadySeen, cycle bool) {
	ptr, isRef := identity(rv)
	if !isRef {
		return 0, false, false, false
	}
	if entry, seen := t.writeIndex[ptr]; seen {
		if entry.state == refInProgress {
			return entry.id, true, false, true
		}
		return entry.id, true, true, false
	}
	id = t.nextID
	t.nextID++
	t.writeIndex[ptr] = &writeRefEntry{id: id, state: refInProgress}
	return id, true, false, false
}

// FinishWrite marks rv's entry complete, allowing later occurrences to
// resolve to a back-reference rather than a cycle.
func (t *referenceTracker) FinishWrite(rv reflect.Value) {
	ptr, isRef := identity(rv)
	if !isRef {
		return
	}
	if entry, ok := t.writeIndex[ptr]; ok {
		entry.state = refDone
	}
}

// AllocateReadID returns the next sequential read-side id, advancing the
// counter that mirrors the writer's BeginWrite counter.
func (t *referenceTracker) AllocateReadID() int {
	id := t.nextReadID
	t.nextReadID++
	return id
}

// ReserveRead allocates an id for a value about to be decoded, so a nested
// back-reference encountered while decoding it can be recognized as a
// cycle (the reservation has no value yet).
func (t *referenceTracker) ReserveRead(id int) {
	t.readByID[id] = reflect.Value{}
}

// CompleteRead records the finished value for a previously reserved id.
func (t *referenceTracker) CompleteRead(id int, v reflect.Value) {
	t.readByID[id] = v
}

// ResolveRead returns the value registered for id. reconstructible is
// false if id was reserved but not yet completed (a cycle reached through
// a position, such as a constructor argument, that cannot be patched once
// the enclosing value exists).
func (t *referenceTracker) ResolveRead(id int) (v reflect.Value, known, reconstructible bool) {
	v, known = t.readByID[id]
	if !known {
		return reflect.Value{}, false, false
	}
	return v, true, v.IsValid()
}
