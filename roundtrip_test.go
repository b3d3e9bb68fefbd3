package msgpack_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mpkcore/msgpack"
)

type Address struct {
	City string
	Zip  string
}

type Person struct {
	Name    string
	Age     int64
	Tags    []string
	Aliases map[string]string
	Home    *Address
}

func roundTrip[T any](t *testing.T, s *msgpack.Serializer, v T) T {
	t.Helper()
	buf, err := msgpack.Serialize(context.Background(), s, v)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	out, err := msgpack.Deserialize[T](context.Background(), s, buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	return out
}

func TestRoundTripStruct(t *testing.T) {
	s := msgpack.NewSerializer(newReflectProvider())
	in := Person{
		Name: "Ada",
		Age:  36,
		Tags: []string{"math", "computing"},
		Aliases: map[string]string{
			"first": "Augusta",
		},
		Home: &Address{City: "London", Zip: "W1"},
	}
	out := roundTrip(t, s, in)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripNilPointer(t *testing.T) {
	s := msgpack.NewSerializer(newReflectProvider())
	in := Person{Name: "Grace", Tags: nil, Aliases: nil, Home: nil}
	out := roundTrip(t, s, in)
	if out.Home != nil {
		t.Fatalf("expected nil Home, got %+v", out.Home)
	}
	if out.Name != in.Name {
		t.Fatalf("Name mismatch: got %q want %q", out.Name, in.Name)
	}
}

func TestRoundTripSlicesAndMapsEmptyVsNil(t *testing.T) {
	s := msgpack.NewSerializer(newReflectProvider())
	in := Person{Name: "Euler", Tags: []string{}, Aliases: map[string]string{}}
	out := roundTrip(t, s, in)
	if len(out.Tags) != 0 || len(out.Aliases) != 0 {
		t.Fatalf("expected empty collections, got %+v", out)
	}
}

func TestRoundTripWellKnownTypes(t *testing.T) {
	s := msgpack.NewSerializer(newReflectProvider())

	u, err := msgpack.ParseUUID("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	if err != nil {
		t.Fatalf("ParseUUID: %v", err)
	}
	outU := roundTrip(t, s, u)
	if outU != u {
		t.Fatalf("UUID mismatch: got %s want %s", outU, u)
	}

	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	outT := roundTrip(t, s, now)
	if !outT.Equal(now) {
		t.Fatalf("time mismatch: got %s want %s", outT, now)
	}
}

func TestSerializeDefaultsElision(t *testing.T) {
	s := msgpack.NewSerializer(newReflectProvider())
	in := Person{Name: "Default", Age: 0}

	buf, err := msgpack.Serialize(context.Background(), s, in, msgpack.WithSerializeDefaults(msgpack.SerializeDefaultsNever))
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	out, err := msgpack.Deserialize[Person](context.Background(), s, buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out.Age != 0 {
		t.Fatalf("expected zero Age to survive round trip via struct zero value, got %d", out.Age)
	}
}

func TestDepthLimitExceeded(t *testing.T) {
	type Node struct {
		Next *Node
	}
	s := msgpack.NewSerializer(newReflectProvider(), msgpack.WithMaxDepth(4))

	var head *Node
	for i := 0; i < 10; i++ {
		head = &Node{Next: head}
	}

	_, err := msgpack.Serialize(context.Background(), s, head)
	if err == nil {
		t.Fatal("expected depth limit error, got nil")
	}
}

func TestCancellation(t *testing.T) {
	s := msgpack.NewSerializer(newReflectProvider())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := msgpack.Serialize(ctx, s, Person{Name: "x"})
	if err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
}

func TestReferencePreservationSharedPointer(t *testing.T) {
	type Pair struct {
		A *Address
		B *Address
	}
	shared := &Address{City: "Paris", Zip: "75001"}
	s := msgpack.NewSerializer(newReflectProvider(), msgpack.WithPreserveReferences(true))

	out := roundTrip(t, s, Pair{A: shared, B: shared})
	if out.A != out.B {
		t.Fatalf("expected shared pointer identity to survive round trip, got distinct pointers %p != %p", out.A, out.B)
	}
	if *out.A != *shared {
		t.Fatalf("shared value mismatch: got %+v want %+v", out.A, shared)
	}
}

func TestReferenceCycleRejected(t *testing.T) {
	type Node struct {
		Next *Node
	}
	n := &Node{}
	n.Next = n

	s := msgpack.NewSerializer(newReflectProvider(), msgpack.WithPreserveReferences(true))
	_, err := msgpack.Serialize(context.Background(), s, n)
	if err == nil {
		t.Fatal("expected reference cycle to be rejected, got nil error")
	}
}
