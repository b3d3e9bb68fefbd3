package msgpack

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mpkcore/msgpack/wire"
)

// enumConverter implements spec.md §4.E "Enum": named integer constants,
// written either as their declared name (Policies.EnumByName) or as their
// raw ordinal. A value with no declared name — an enum variable holding a
// value outside its declared set — always falls back to ordinal encoding,
// since there is no name to write.
//
// Name decoding is case-insensitive unless two declared names differ only
// in case, in which case the colliding fold is dropped from valByNameFold
// and only an exact match resolves either of them.
type enumConverter struct {
	typ           reflect.Type
	unsigned      bool
	nameByVal     map[int64]string
	valByName     map[string]int64
	valByNameFold map[string]int64
}

func newEnumConverter(shape Shape, e EnumShape) (Converter, error) {
	unsigned := false
	switch e.Underlying() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		unsigned = true
	}
	nameByVal := make(map[int64]string)
	valByName := make(map[string]int64)
	valByNameFold := make(map[string]int64)
	foldCollision := make(map[string]bool)
	for _, v := range e.Values() {
		nameByVal[v.Value] = v.Name
		valByName[v.Name] = v.Value

		fold := strings.ToLower(v.Name)
		if prior, ok := valByNameFold[fold]; ok && prior != v.Value {
			foldCollision[fold] = true
			continue
		}
		valByNameFold[fold] = v.Value
	}
	for fold := range foldCollision {
		delete(valByNameFold, fold)
	}
	return &enumConverter{
		typ:           shape.Type(),
		unsigned:      unsigned,
		nameByVal:     nameByVal,
		valByName:     valByName,
		valByNameFold: valByNameFold,
	}, nil
}

func (c *enumConverter) ordinal(rv reflect.Value) int64 {
	if c.unsigned {
		return int64(rv.Uint())
	}
	return rv.Int()
}

func (c *enumConverter) Write(ctx *Context, w *wire.Writer, rv reflect.Value) error {
	val := c.ordinal(rv)
	if ctx.Policies().EnumByName {
		if name, ok := c.nameByVal[val]; ok {
			w.WriteString(name)
			return nil
		}
	}
	if c.unsigned {
		w.WriteUint(rv.Uint())
	} else {
		w.WriteInt(val)
	}
	return nil
}

func (c *enumConverter) Read(ctx *Context, r *wire.Reader, _ reflect.Value) (reflect.Value, error) {
	isStr, err := r.PeekIsString()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	out := reflect.New(c.typ).Elem()
	if isStr {
		name, err := r.ReadStringHeader()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		val, ok := c.valByName[string(name)]
		if !ok {
			val, ok = c.valByNameFold[strings.ToLower(string(name))]
		}
		if !ok {
			return reflect.Value{}, newError(KindAmbiguousOrUnknownSubtype,
				fmt.Errorf("msgpack: unknown enum member %q for %s", name, c.typ))
		}
		setOrdinal(out, val, c.unsigned)
		return out, nil
	}
	if c.unsigned {
		v, err := r.ReadUint64()
		if err != nil {
			return reflect.Value{}, liftWireError(err)
		}
		setOrdinal(out, int64(v), true)
		return out, nil
	}
	v, err := r.ReadInt64()
	if err != nil {
		return reflect.Value{}, liftWireError(err)
	}
	setOrdinal(out, v, false)
	return out, nil
}

func setOrdinal(out reflect.Value, val int64, unsigned bool) {
	if unsigned {
		out.SetUint(uint64(val))
		return
	}
	out.SetInt(val)
}
