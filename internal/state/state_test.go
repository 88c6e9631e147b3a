package state

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/san-kum/aerosim/internal/dynamo"
)

func declaredUnknowns(t *testing.T, rows int) *State {
	t.Helper()
	s := New()
	s.Unknowns().Put("throttle_0", Scalar(0.5))
	s.Unknowns().Put("body_angle", Scalar(0.05))
	s.Unknowns().Put("elevator_0", Scalar(0))
	if err := s.ExpandRows(rows); err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if err := s.Declare(Unknowns); err != nil {
		t.Fatalf("declare failed: %v", err)
	}
	return s
}

func TestPackUnpackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, rows := range []int{1, 4, 16} {
		s := declaredUnknowns(t, rows)
		n, _ := s.Declared(Unknowns)
		if n != 3*rows {
			t.Fatalf("declared size = %d, want %d", n, 3*rows)
		}

		for trial := 0; trial < 20; trial++ {
			v := make(dynamo.Vector, n)
			for i := range v {
				v[i] = rng.NormFloat64() * 100
			}
			if err := s.Unpack(Unknowns, v); err != nil {
				t.Fatalf("unpack failed: %v", err)
			}
			got, err := s.Pack(Unknowns)
			if err != nil {
				t.Fatalf("pack failed: %v", err)
			}
			if !reflect.DeepEqual([]float64(got), []float64(v)) {
				t.Fatalf("round trip mismatch: got %v, want %v", got, v)
			}
		}
	}
}

func TestPackOrderIsInsertionOrder(t *testing.T) {
	s := New()
	s.Unknowns().Put("zeta", Column(1, 2))
	s.Unknowns().Put("alpha", Column(3, 4))
	s.Unknowns().Put("mid", Column(5, 6))

	got, err := s.Pack(Unknowns)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	want := dynamo.Vector{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pack = %v, want %v", got, want)
	}
}

func TestUnpackDoesNotAlias(t *testing.T) {
	s := declaredUnknowns(t, 2)
	v := dynamo.Vector{1, 2, 3, 4, 5, 6}
	if err := s.Unpack(Unknowns, v); err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	v[0] = 99
	a, _ := s.Get("unknowns.throttle_0")
	if a.At(0, 0) != 1 {
		t.Errorf("state aliased the trial vector: %v", a.At(0, 0))
	}
}

func TestUnpackLengthMismatch(t *testing.T) {
	s := declaredUnknowns(t, 4)
	err := s.Unpack(Unknowns, make(dynamo.Vector, 11))
	var se *dynamo.ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if se.Want != 12 || se.Got != 11 {
		t.Errorf("unexpected shape error %+v", se)
	}
}

func TestDeclaredSizeChangeFailsFast(t *testing.T) {
	s := declaredUnknowns(t, 4)
	s.Unknowns().Put("rpm_0", Full(4, 1, 2000))

	if _, err := s.Pack(Unknowns); !errors.Is(err, dynamo.ErrShape) {
		t.Errorf("expected shape error after growing declared subtree, got %v", err)
	}
	if err := s.Unpack(Unknowns, make(dynamo.Vector, 16)); !errors.Is(err, dynamo.ErrShape) {
		t.Errorf("expected shape error on unpack, got %v", err)
	}
}

func TestExpandRows(t *testing.T) {
	s := New()
	s.SetCondition("freestream.altitude", Scalar(1000))
	s.SetCondition("frames.inertial.velocity_vector", Row(100, 0, -5))
	s.SetCondition("weights.total_mass", Column(1, 2, 3))
	s.Conditions().Ensure("meta").PutStatic("reference_area", Scalar(30))

	if err := s.ExpandRows(5); err != nil {
		t.Fatalf("expand failed: %v", err)
	}

	alt, _ := s.Condition("freestream.altitude")
	if alt.Rows() != 5 || alt.At(4, 0) != 1000 {
		t.Errorf("altitude not broadcast: rows=%d last=%v", alt.Rows(), alt.Last())
	}

	vel, _ := s.Condition("frames.inertial.velocity_vector")
	if vel.Rows() != 5 || vel.Cols() != 3 || vel.At(3, 2) != -5 {
		t.Errorf("velocity not broadcast: %dx%d", vel.Rows(), vel.Cols())
	}

	mass, _ := s.Condition("weights.total_mass")
	if got := mass.Col(0); !reflect.DeepEqual(got, []float64{1, 2, 3, 3, 3}) {
		t.Errorf("mass padded incorrectly: %v", got)
	}

	area, _ := s.Condition("meta.reference_area")
	if area.Rows() != 1 {
		t.Errorf("static slot expanded to %d rows", area.Rows())
	}
}

func TestExpandRowsIdempotent(t *testing.T) {
	s := declaredUnknowns(t, 6)
	s.SetCondition("freestream.altitude", Scalar(1000))

	if err := s.ExpandRows(6); err != nil {
		t.Fatalf("first expand failed: %v", err)
	}
	before := s.Root().String()
	if err := s.ExpandRows(6); err != nil {
		t.Fatalf("second expand failed: %v", err)
	}
	if after := s.Root().String(); after != before {
		t.Errorf("shapes changed:\n%s\nvs\n%s", before, after)
	}
}

func TestExpandFixedIncompatible(t *testing.T) {
	s := declaredUnknowns(t, 4)
	err := s.ExpandRows(8)
	var se *dynamo.ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if se.Path != "unknowns.throttle_0" || se.Want != 8 || se.Got != 4 {
		t.Errorf("unexpected shape error %+v", se)
	}
}

func TestGetMissingPath(t *testing.T) {
	s := New()
	if _, err := s.Get("conditions.freestream.altitude"); !errors.Is(err, dynamo.ErrLookup) {
		t.Errorf("expected lookup error, got %v", err)
	}
	if _, err := s.Node("conditions.nothing"); !errors.Is(err, dynamo.ErrLookup) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestInitialsViewIsReadOnly(t *testing.T) {
	prev := New()
	prev.SetCondition("freestream.altitude", Column(0, 500, 1000))
	prev.Numerics.Converged = true

	next := New()
	if next.Initials() != nil {
		t.Fatal("expected nil initials before linking")
	}
	next.SetInitials(prev)

	view := next.Initials()
	alt, ok := view.LastScalar("freestream.altitude")
	if !ok || alt != 1000 {
		t.Fatalf("LastScalar = %v, %v", alt, ok)
	}
	if !view.Converged() {
		t.Error("expected converged flag through view")
	}

	row, _ := view.Last("freestream.altitude")
	row[0] = -1
	a, _ := view.Get("conditions.freestream.altitude")
	a.Set(2, 0, -1)

	orig, _ := prev.Condition("freestream.altitude")
	if orig.At(2, 0) != 1000 {
		t.Error("view mutated the previous segment's state")
	}

	if _, ok := view.LastScalar("weights.total_mass"); ok {
		t.Error("expected missing path to report ok=false")
	}
}

func TestNodeRemoveReindexes(t *testing.T) {
	n := NewNode()
	n.Put("a", Scalar(1))
	n.Put("b", Scalar(2))
	n.Put("c", Scalar(3))

	if !n.Remove("b") {
		t.Fatal("expected b removed")
	}
	if n.Remove("b") {
		t.Error("second removal should report false")
	}
	if got := n.Keys(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("keys = %v", got)
	}
	c, ok := n.Array("c")
	if !ok || c.At(0, 0) != 3 {
		t.Error("index not rebuilt after removal")
	}

	n.Put("a", Scalar(10))
	if got := n.Keys(); got[0] != "a" {
		t.Errorf("replacement moved key: %v", got)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := New()
	s.SetCondition("weights.total_mass", Column(1000, 990))
	snap := s.Snapshot()

	m, _ := s.Condition("weights.total_mass")
	m.Set(0, 0, 0)

	sm, _ := snap.Condition("weights.total_mass")
	if sm.At(0, 0) != 1000 {
		t.Error("snapshot shares storage with state")
	}
}
