package msgpack_test

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/mpkcore/msgpack"
	"github.com/mpkcore/msgpack/wire"
)

// --- enum ---------------------------------------------------------------

type trafficLight int

func trafficLightShape() *enumTestShape {
	return &enumTestShape{
		t:          reflect.TypeOf(trafficLight(0)),
		underlying: reflect.Int,
		values: []msgpack.EnumValue{
			{Name: "Red", Value: 0},
			{Name: "RED", Value: 9},
			{Name: "Green", Value: 2},
		},
	}
}

func TestEnumRoundTripByName(t *testing.T) {
	p := newFixedShapeProvider()
	p.register(reflect.TypeOf(trafficLight(0)), trafficLightShape())
	s := msgpack.NewSerializer(p, msgpack.WithEnumByName(true))

	out := roundTrip(t, s, trafficLight(2))
	if out != trafficLight(2) {
		t.Fatalf("got %d want 2", out)
	}
}

func TestEnumDecodeCaseFolded(t *testing.T) {
	p := newFixedShapeProvider()
	p.register(reflect.TypeOf(trafficLight(0)), trafficLightShape())
	s := msgpack.NewSerializer(p)

	w := wire.NewWriter()
	w.WriteString("green") // lowercase; only "Green" is declared
	out, err := msgpack.Deserialize[trafficLight](context.Background(), s, w.Bytes())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out != trafficLight(2) {
		t.Fatalf("got %d want 2 (Green via case fold)", out)
	}
}

func TestEnumDecodeFoldCollisionRejected(t *testing.T) {
	p := newFixedShapeProvider()
	p.register(reflect.TypeOf(trafficLight(0)), trafficLightShape())
	s := msgpack.NewSerializer(p)

	w := wire.NewWriter()
	w.WriteString("red") // "Red" and "RED" both fold to "red" with different values
	if _, err := msgpack.Deserialize[trafficLight](context.Background(), s, w.Bytes()); err == nil {
		t.Fatal("expected fold collision to reject a non-exact match, got nil error")
	}
}

func TestEnumDecodeExactCollidingNamesStillResolve(t *testing.T) {
	p := newFixedShapeProvider()
	p.register(reflect.TypeOf(trafficLight(0)), trafficLightShape())
	s := msgpack.NewSerializer(p)

	for name, want := range map[string]trafficLight{"Red": 0, "RED": 9} {
		w := wire.NewWriter()
		w.WriteString(name)
		out, err := msgpack.Deserialize[trafficLight](context.Background(), s, w.Bytes())
		if err != nil {
			t.Fatalf("Deserialize(%q): %v", name, err)
		}
		if out != want {
			t.Fatalf("Deserialize(%q) = %d, want %d", name, out, want)
		}
	}
}

// --- union (alias-based) -------------------------------------------------

type aliasDrawing interface{ isAliasDrawing() }

type circleShape struct{ Radius float64 }
type squareShape struct{ Side float64 }

func (circleShape) isAliasDrawing() {}
func (squareShape) isAliasDrawing() {}
func (circleShape) isDuckDrawing()  {}
func (squareShape) isDuckDrawing()  {}

type duckDrawing interface{ isDuckDrawing() }

func requiredObjectShape(t reflect.Type, p *reflectProvider) *objectTestShape {
	obj := &objectTestShape{t: t}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		idx := i
		obj.props = append(obj.props, msgpack.Property{
			Name:       f.Name,
			WireName:   f.Name,
			Shape:      must(p, f.Type),
			Required:   true,
			ArrayIndex: idx,
			ParamIndex: -1,
			Get: func(v reflect.Value) reflect.Value { return v.Field(idx) },
			Set: func(v reflect.Value, val reflect.Value) { v.Field(idx).Set(val) },
		})
	}
	return obj
}

func newAliasUnionProvider() *fixedShapeProvider {
	p := newFixedShapeProvider()
	circleType := reflect.TypeOf(circleShape{})
	squareType := reflect.TypeOf(squareShape{})
	ifaceType := reflect.TypeOf((*aliasDrawing)(nil)).Elem()

	p.register(ifaceType, &unionAliasTestShape{
		t: ifaceType,
		cases: []msgpack.UnionCase{
			{Alias: "circle", AliasInt: 1, Shape: objectShapeOf(p.reflectProvider, circleType)},
			{Alias: "square", AliasInt: 2, Shape: objectShapeOf(p.reflectProvider, squareType)},
		},
	})
	return p
}

func TestUnionAliasRoundTripByString(t *testing.T) {
	p := newAliasUnionProvider()
	s := msgpack.NewSerializer(p)

	out := roundTrip(t, s, aliasDrawing(circleShape{Radius: 2.5}))
	got, ok := out.(circleShape)
	if !ok {
		t.Fatalf("got %T, want circleShape", out)
	}
	if got.Radius != 2.5 {
		t.Fatalf("got Radius %v, want 2.5", got.Radius)
	}
}

func TestUnionAliasRoundTripByInt(t *testing.T) {
	p := newAliasUnionProvider()
	s := msgpack.NewSerializer(p, msgpack.WithPerfOverStability(true))

	out := roundTrip(t, s, aliasDrawing(squareShape{Side: 4}))
	got, ok := out.(squareShape)
	if !ok {
		t.Fatalf("got %T, want squareShape", out)
	}
	if got.Side != 4 {
		t.Fatalf("got Side %v, want 4", got.Side)
	}
}

// --- union (shape-based, duck-typed) -------------------------------------

func newDuckUnionProvider() *fixedShapeProvider {
	p := newFixedShapeProvider()
	circleType := reflect.TypeOf(circleShape{})
	squareType := reflect.TypeOf(squareShape{})
	ifaceType := reflect.TypeOf((*duckDrawing)(nil)).Elem()

	p.register(ifaceType, &unionDuckTestShape{
		t: ifaceType,
		cases: []msgpack.UnionCase{
			{Shape: requiredObjectShape(circleType, p.reflectProvider)},
			{Shape: requiredObjectShape(squareType, p.reflectProvider)},
		},
	})
	return p
}

func TestUnionDuckTypedRoundTrip(t *testing.T) {
	p := newDuckUnionProvider()
	s := msgpack.NewSerializer(p)

	out := roundTrip(t, s, duckDrawing(squareShape{Side: 7}))
	got, ok := out.(squareShape)
	if !ok {
		t.Fatalf("got %T, want squareShape", out)
	}
	if got.Side != 7 {
		t.Fatalf("got Side %v, want 7", got.Side)
	}
}

func TestUnionDuckTypedAmbiguousTieRejected(t *testing.T) {
	type leftCase struct{ Value int64 }
	type rightCase struct{ Value int64 }

	p := newFixedShapeProvider()
	leftType := reflect.TypeOf(leftCase{})
	rightType := reflect.TypeOf(rightCase{})
	type either interface{ isEither() }
	ifaceType := reflect.TypeOf((*either)(nil)).Elem()

	p.register(ifaceType, &unionDuckTestShape{
		t: ifaceType,
		cases: []msgpack.UnionCase{
			{Shape: requiredObjectShape(leftType, p.reflectProvider)},
			{Shape: requiredObjectShape(rightType, p.reflectProvider)},
		},
	})
	s := msgpack.NewSerializer(p)

	w := wire.NewWriter()
	w.WriteMapHeader(1)
	w.WriteString("Value")
	w.WriteInt(42)

	if _, err := msgpack.Deserialize[either](context.Background(), s, w.Bytes()); err == nil {
		t.Fatal("expected ambiguous tie between equally-matching cases to be rejected, got nil error")
	}
}

// --- surrogate ------------------------------------------------------------

type money struct{ Cents int64 }

func newMoneyProvider() *fixedShapeProvider {
	p := newFixedShapeProvider()
	moneyType := reflect.TypeOf(money{})
	dollarsType := reflect.TypeOf(float64(0))

	p.register(moneyType, &surrogateTestShape{
		t:         moneyType,
		surrogate: must(p.reflectProvider, dollarsType),
		to: func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(float64(v.Interface().(money).Cents) / 100), nil
		},
		from: func(v reflect.Value) (reflect.Value, error) {
			cents := int64(math.Round(v.Float() * 100))
			return reflect.ValueOf(money{Cents: cents}), nil
		},
	})
	return p
}

func TestSurrogateRoundTrip(t *testing.T) {
	p := newMoneyProvider()
	s := msgpack.NewSerializer(p)

	out := roundTrip(t, s, money{Cents: 12345})
	if out.Cents != 12345 {
		t.Fatalf("got %d cents, want 12345", out.Cents)
	}
}

// --- object (array shape, index-keyed) ------------------------------------

type point3 struct {
	X, Y, Z int64
}

func newPoint3Provider() *fixedShapeProvider {
	p := newFixedShapeProvider()
	t := reflect.TypeOf(point3{})
	int64Shape := must(p.reflectProvider, reflect.TypeOf(int64(0)))

	p.register(t, &indexKeyedTestShape{
		t: t,
		props: []msgpack.Property{
			{
				Name: "X", WireName: "X", Shape: int64Shape, Required: true,
				ArrayIndex: 0, ParamIndex: -1,
				Get: func(v reflect.Value) reflect.Value { return v.Field(0) },
				Set: func(v reflect.Value, val reflect.Value) { v.Field(0).Set(val) },
			},
			{
				Name: "Y", WireName: "Y", Shape: int64Shape, Required: true,
				ArrayIndex: 1, ParamIndex: -1,
				Get: func(v reflect.Value) reflect.Value { return v.Field(1) },
				Set: func(v reflect.Value, val reflect.Value) { v.Field(1).Set(val) },
			},
			// ArrayIndex 2 and 3 intentionally undeclared: a gap the writer
			// must Nil-fill and the reader must skip/tolerate.
			{
				Name: "Z", WireName: "Z", Shape: int64Shape, Required: true,
				ArrayIndex: 4, ParamIndex: -1,
				Get: func(v reflect.Value) reflect.Value { return v.Field(2) },
				Set: func(v reflect.Value, val reflect.Value) { v.Field(2).Set(val) },
			},
		},
	})
	return p
}

func TestIndexKeyedObjectRoundTripWithGap(t *testing.T) {
	p := newPoint3Provider()
	s := msgpack.NewSerializer(p)

	in := point3{X: 1, Y: 2, Z: 3}
	buf, err := msgpack.Serialize(context.Background(), s, in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	r := wire.NewReader(buf)
	n, err := r.ReadArrayHeader()
	if err != nil {
		t.Fatalf("ReadArrayHeader: %v", err)
	}
	if n != 5 {
		t.Fatalf("got %d wire slots, want 5 (maxArrayIndex+1)", n)
	}

	out, err := msgpack.Deserialize[point3](context.Background(), s, buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}
