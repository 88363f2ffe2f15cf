package order

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDomainContains(t *testing.T) {
	cases := []struct {
		name  string
		dom   *Domain
		value int64
		want  bool
	}{
		{"inside single range", NewDomain(1, 10), 5, true},
		{"below range", NewDomain(1, 10), 0, false},
		{"above range", NewDomain(1, 10), 11, false},
		{"in hole between ranges", NewDomainFromRanges([]Range{{1, 3}, {7, 9}}), 5, false},
		{"in second range", NewDomainFromRanges([]Range{{1, 3}, {7, 9}}), 8, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.dom.Contains(tc.value); got != tc.want {
				t.Errorf("Contains(%d) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestDomainIntersect(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 5}, {10, 15}})
	ok := d.Intersect(3, 12)
	if !ok {
		t.Fatalf("Intersect unexpectedly emptied the domain")
	}
	want := []Range{{3, 5}, {10, 12}}
	assertRanges(t, d.Ranges(), want)
}

func TestDomainIntersectEmpties(t *testing.T) {
	d := NewDomain(1, 5)
	if d.Intersect(10, 20) {
		t.Fatalf("expected Intersect to report empty result")
	}
	if !d.Empty() {
		t.Fatalf("expected domain to be empty after disjoint intersect")
	}
}

func TestDomainRemoveRangeSplits(t *testing.T) {
	d := NewDomain(1, 10)
	d.RemoveRange(4, 6)
	assertRanges(t, d.Ranges(), []Range{{1, 3}, {7, 10}})
}

func TestDomainUnifyMergesAdjacent(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 3}, {8, 10}})
	d.Unify(4, 7)
	assertRanges(t, d.Ranges(), []Range{{1, 10}})
}

func TestDomainUnifyNoOverlapStaysSplit(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 3}, {10, 12}})
	d.Unify(5, 6)
	assertRanges(t, d.Ranges(), []Range{{1, 3}, {5, 6}, {10, 12}})
}

func TestDomainInplaceTimesPointwise(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 2}, {4, 4}})
	if ok := d.InplaceTimes(3, 100); !ok {
		t.Fatalf("InplaceTimes failed unexpectedly")
	}
	assertRanges(t, d.Ranges(), []Range{{3, 3}, {6, 6}, {12, 12}})
}

func TestDomainInplaceTimesEndpointsOnlyWhenOverBudget(t *testing.T) {
	d := NewDomain(1, 1000)
	if ok := d.InplaceTimes(2, 10); !ok {
		t.Fatalf("InplaceTimes failed unexpectedly")
	}
	assertRanges(t, d.Ranges(), []Range{{2, 2000}})
}

func TestDomainInplaceTimesOverflow(t *testing.T) {
	d := NewDomain(SafeMax-1, SafeMax)
	if ok := d.InplaceTimes(SafeMax, 10); ok {
		t.Fatalf("expected overflow")
	}
	if !d.Overflow() {
		t.Fatalf("expected overflow flag set")
	}
}

func TestDomainConstrainMod(t *testing.T) {
	// keep x with 2x mod 4 == 0, i.e. even x, over [0,9].
	d := NewDomain(0, 9)
	if ok := d.ConstrainMod(2, 0, 4); !ok {
		t.Fatalf("ConstrainMod unexpectedly emptied the domain")
	}
	want := []Range{{0, 0}, {2, 2}, {4, 4}, {6, 6}, {8, 8}}
	assertRanges(t, d.Ranges(), want)
}

func TestDomainConstrainModNoSolution(t *testing.T) {
	d := NewDomain(0, 3)
	if ok := d.ConstrainMod(2, 1, 4); ok {
		t.Fatalf("expected no values to satisfy 2x+1 mod 4 == 0")
	}
}

func TestIteratorForwardBackward(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 2}, {5, 6}})
	it := d.Begin()
	var got []int64
	for !it.Done() {
		got = append(got, it.Value())
		it = it.Next()
	}
	want := []int64{1, 2, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	last := d.At(3)
	prev := last.Prev()
	if prev.Value() != 5 {
		t.Errorf("Prev() = %d, want 5", prev.Value())
	}
}

func TestDomainInplaceDivide(t *testing.T) {
	d := NewDomainFromRanges([]Range{{4, 7}, {10, 11}})
	if ok := d.InplaceDivide(2); !ok {
		t.Fatalf("InplaceDivide failed unexpectedly")
	}
	// floor(4/2)..floor(7/2) = [2,3], floor(10/2)..floor(11/2) = [5,5]
	assertRanges(t, d.Ranges(), []Range{{2, 3}, {5, 5}})
}

func TestIteratorAdvanceCrossesRanges(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 2}, {5, 8}})
	it := d.Begin().Advance(3) // values 1,2,5,6: index 3 is 6
	if it.Value() != 6 {
		t.Errorf("Advance(3).Value() = %d, want 6", it.Value())
	}
	back := it.Advance(-2)
	if back.Value() != 2 {
		t.Errorf("Advance(-2).Value() = %d, want 2", back.Value())
	}
}

func TestIteratorSub(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 2}, {5, 8}})
	a := d.At(1) // value 2
	b := d.At(4) // value 7
	if diff := b.Sub(a); diff != 3 {
		t.Errorf("Sub = %d, want 3", diff)
	}
}

func TestViewEvalDomainReversesOnNegativeCoefficient(t *testing.T) {
	v := NewView(0, -2, 5)
	d := NewDomain(1, 3)
	got := v.EvalDomain(d)
	// the range [1,3] maps to endpoints 3 and -1, swapped into [-1,3]
	assertRanges(t, got.Ranges(), []Range{{-1, 3}})
}

func TestViewReversedNegatesCoefficientAndConstant(t *testing.T) {
	v := NewView(2, 3, -4)
	r := v.Reversed()
	if r.A != -3 || r.C != 4 || r.Var != 2 {
		t.Errorf("Reversed() = %+v, want A=-3 C=4 Var=2", r)
	}
}

func TestDomainFloorCeilValue(t *testing.T) {
	d := NewDomainFromRanges([]Range{{1, 3}, {7, 9}})
	cases := []struct {
		x       int64
		floor   int64
		floorOK bool
		ceil    int64
		ceilOK  bool
	}{
		{0, 0, false, 1, true},
		{1, 1, true, 1, true},
		{3, 3, true, 3, true},
		{5, 3, true, 7, true},
		{9, 9, true, 9, true},
		{12, 9, true, 0, false},
	}
	for _, tc := range cases {
		got, ok := d.FloorValue(tc.x)
		if ok != tc.floorOK || (ok && got != tc.floor) {
			t.Errorf("FloorValue(%d) = (%d,%v), want (%d,%v)", tc.x, got, ok, tc.floor, tc.floorOK)
		}
		got, ok = d.CeilValue(tc.x)
		if ok != tc.ceilOK || (ok && got != tc.ceil) {
			t.Errorf("CeilValue(%d) = (%d,%v), want (%d,%v)", tc.x, got, ok, tc.ceil, tc.ceilOK)
		}
	}
}

func TestFloorCeilDiv(t *testing.T) {
	cases := []struct {
		a, b, floor, ceil int64
	}{
		{7, 2, 3, 4},
		{-7, 2, -4, -3},
		{7, -2, -4, -3},
		{-7, -2, 3, 4},
		{6, 3, 2, 2},
		{-6, 3, -2, -2},
	}
	for _, tc := range cases {
		if got := FloorDiv(tc.a, tc.b); got != tc.floor {
			t.Errorf("FloorDiv(%d,%d) = %d, want %d", tc.a, tc.b, got, tc.floor)
		}
		if got := CeilDiv(tc.a, tc.b); got != tc.ceil {
			t.Errorf("CeilDiv(%d,%d) = %d, want %d", tc.a, tc.b, got, tc.ceil)
		}
	}
}

// TestDomainAlgebraRandomized cross-checks the range-set operations
// against a naive value-set model on small random domains.
func TestDomainAlgebraRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomDomain := func() (*Domain, map[int64]bool) {
		d := &Domain{}
		set := make(map[int64]bool)
		for i := 0; i < 4; i++ {
			lo := int64(rng.Intn(30))
			hi := lo + int64(rng.Intn(5))
			d.Unify(lo, hi)
			for x := lo; x <= hi; x++ {
				set[x] = true
			}
		}
		return d, set
	}
	checkInvariants := func(d *Domain) {
		rs := d.Ranges()
		for i, r := range rs {
			if r.Lo > r.Hi {
				t.Fatalf("inverted range %v", r)
			}
			if i > 0 && rs[i-1].Hi+1 >= r.Lo {
				t.Fatalf("overlapping or adjacent ranges %v", rs)
			}
		}
	}
	toSet := func(d *Domain) map[int64]bool {
		set := make(map[int64]bool)
		for it := d.Begin(); !it.Done(); it = it.Next() {
			set[it.Value()] = true
		}
		return set
	}

	for trial := 0; trial < 200; trial++ {
		a, aSet := randomDomain()
		b, bSet := randomDomain()

		inter := a.Clone()
		inter.IntersectDomain(b)
		checkInvariants(inter)
		want := make(map[int64]bool)
		for x := range aSet {
			if bSet[x] {
				want[x] = true
			}
		}
		if diff := cmp.Diff(want, toSet(inter)); diff != "" {
			t.Fatalf("IntersectDomain mismatch (-want +got):\n%s", diff)
		}

		rem := a.Clone()
		rem.RemoveDomain(b)
		checkInvariants(rem)
		want = make(map[int64]bool)
		for x := range aSet {
			if !bSet[x] {
				want[x] = true
			}
		}
		if diff := cmp.Diff(want, toSet(rem)); diff != "" {
			t.Fatalf("RemoveDomain mismatch (-want +got):\n%s", diff)
		}

		// removed plus intersection reassembles the original.
		rem.Unify(0, -1) // no-op keeps rem usable when empty
		union := rem.Clone()
		for _, r := range inter.Ranges() {
			union.Unify(r.Lo, r.Hi)
		}
		checkInvariants(union)
		if diff := cmp.Diff(aSet, toSet(union)); diff != "" {
			t.Fatalf("remove/intersect partition mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestViewCompositionLaws(t *testing.T) {
	v := NewView(3, 4, -2)
	for _, x := range []int64{-3, 0, 5} {
		if got, want := v.Multiply(6).Eval(x), 6*v.Eval(x); got != want {
			t.Errorf("Multiply(6).Eval(%d) = %d, want %d", x, got, want)
		}
	}
	m := v.Multiply(5)
	if m.A != 20 || m.C != -10 {
		t.Errorf("Multiply(5) = %+v, want A=20 C=-10", m)
	}
	if d := m.Divide(5); d != v {
		t.Errorf("Divide(5) = %+v, want the original view back", d)
	}
	for _, x := range []int64{-3, 0, 5} {
		if got := v.Invert(v.Eval(x)); got != x {
			t.Errorf("Invert(Eval(%d)) = %d", x, got)
		}
	}
}

func assertRanges(t *testing.T, got []Range, want []Range) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v ranges, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
