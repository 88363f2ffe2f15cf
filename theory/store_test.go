package theory

import (
	"testing"

	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/order"
)

func fakeLitGen() func() z.Lit {
	n := 2
	return func() z.Lit {
		l := z.Dimacs2Lit(n)
		n++
		return l
	}
}

func TestStoreCreateAndRestrict(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 10))
	if s.NumVariables() != 1 {
		t.Fatalf("NumVariables = %d, want 1", s.NumVariables())
	}
	if !s.IntersectLE(v, 5) {
		t.Fatalf("IntersectLE unexpectedly emptied the domain")
	}
	if got := s.Domain(v).Upper(); got != 5 {
		t.Errorf("Upper() = %d, want 5", got)
	}
	if got := s.BaseDomain(v).Upper(); got != 10 {
		t.Errorf("BaseDomain().Upper() = %d, want 10 (base never tightens)", got)
	}
}

func TestStorePushPopLevelRoundtrip(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 10))
	s.PushLevel()
	s.IntersectLE(v, 5)
	s.IntersectGE(v, 3)
	if s.Domain(v).Lower() != 3 || s.Domain(v).Upper() != 5 {
		t.Fatalf("domain after restriction = [%d,%d], want [3,5]", s.Domain(v).Lower(), s.Domain(v).Upper())
	}
	s.PopLevel()
	if s.Domain(v).Lower() != 1 || s.Domain(v).Upper() != 10 {
		t.Fatalf("domain after pop = [%d,%d], want [1,10]", s.Domain(v).Lower(), s.Domain(v).Upper())
	}
}

func TestStoreOrderLiteralCreatedOnce(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 10))
	gen := fakeLitGen()
	l1, existed1 := s.OrderLiteral(v, 5, gen)
	if existed1 {
		t.Fatalf("first lookup should report not existed")
	}
	l2, existed2 := s.OrderLiteral(v, 5, gen)
	if !existed2 {
		t.Fatalf("second lookup should report existed")
	}
	if l1 != l2 {
		t.Errorf("got different literals for the same bound: %v vs %v", l1, l2)
	}
}

func TestStoreGELiteralIsNegationOfLEMinusOne(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 10))
	gen := fakeLitGen()
	le4, _ := s.OrderLiteral(v, 4, gen)
	ge5, _ := s.GELiteral(v, 5, gen)
	if ge5 != le4.Not() {
		t.Errorf("GELiteral(5) = %v, want negation of LE(4) = %v", ge5, le4.Not())
	}
}

func TestStoreGELiteralSnapsAcrossHoles(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomainFromRanges([]order.Range{{Lo: 1, Hi: 3}, {Lo: 7, Hi: 9}}))
	gen := fakeLitGen()
	// v >= 7 is the negation of v <= 6, which snaps to the domain
	// value 3.
	le3, _ := s.OrderLiteral(v, 3, gen)
	ge7, _ := s.GELiteral(v, 7, gen)
	if ge7 != le3.Not() {
		t.Errorf("GELiteral(7) = %v, want negation of LE(3) = %v", ge7, le3.Not())
	}
}

func TestStoreSetLELiteralEmitsEquivalence(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 10))
	gen := fakeLitGen()
	existing, _ := s.OrderLiteral(v, 5, gen)
	ext := gen()
	var clauses [][]z.Lit
	s.SetLELiteral(v, 5, ext, func(cl []z.Lit) { clauses = append(clauses, cl) })
	if len(clauses) != 2 {
		t.Fatalf("got %d clauses, want the two implication halves", len(clauses))
	}
	got, _ := s.ExistingOrderLiteral(v, 5)
	if got != existing {
		t.Errorf("position must keep the original literal")
	}

	var again [][]z.Lit
	s.SetLELiteral(v, 7, ext, func(cl []z.Lit) { again = append(again, cl) })
	if len(again) != 0 {
		t.Errorf("binding a free position must not emit clauses")
	}
	got, ok := s.ExistingOrderLiteral(v, 7)
	if !ok || got != ext {
		t.Errorf("free position should adopt the provided literal")
	}
}

func TestStoreEqualLiteralEndpointsCollapseToOrderLiterals(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 5))
	gen := fakeLitGen()
	emitted := 0
	emit := func(eq, le, ge z.Lit) { emitted++ }

	eqLow := s.EqualLiteral(v, 1, gen, emit)
	le1, _ := s.ExistingOrderLiteral(v, 1)
	if eqLow != le1 {
		t.Errorf("equality at the lower endpoint must be the le literal")
	}
	eqHigh := s.EqualLiteral(v, 5, gen, emit)
	le4, _ := s.ExistingOrderLiteral(v, 4)
	if eqHigh != le4.Not() {
		t.Errorf("equality at the upper endpoint must be the ge literal")
	}
	if emitted != 0 {
		t.Errorf("endpoint equalities must not allocate auxiliaries, emitted %d", emitted)
	}

	mid := s.EqualLiteral(v, 3, gen, emit)
	if emitted != 1 {
		t.Errorf("interior equality must emit its equivalence once, emitted %d", emitted)
	}
	if again := s.EqualLiteral(v, 3, gen, emit); again != mid || emitted != 1 {
		t.Errorf("interior equality must be cached")
	}
}

func TestStoreCreateOrderLiteralsAllValues(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(1, 4))
	gen := fakeLitGen()
	var keys []int64
	s.CreateOrderLiterals(v, -1, gen, func(k int64, _ z.Lit) { keys = append(keys, k) })
	want := []int64{1, 2, 3}
	if len(keys) != len(want) {
		t.Fatalf("created %v, want %v (one per value except the last)", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("created %v, want %v", keys, want)
		}
	}
}

func TestStoreCreateOrderLiteralsEvenlySpaced(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(0, 99))
	gen := fakeLitGen()
	count := 0
	s.CreateOrderLiterals(v, 4, gen, func(int64, z.Lit) { count++ })
	if count != 4 {
		t.Errorf("created %d literals, want 4", count)
	}
}

func TestStoreViewLELiteralReversedDuality(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(0, 9))
	gen := fakeLitGen()
	// -x <= -4 is x >= 4, the negation of x <= 3.
	l, kind := s.ViewLELiteral(order.NewView(v, -1, 0), -4, gen)
	if kind != LitNormal {
		t.Fatalf("kind = %v, want LitNormal", kind)
	}
	le3, _ := s.ExistingOrderLiteral(v, 3)
	if l != le3.Not() {
		t.Errorf("reversed view literal = %v, want negation of le(3)", l)
	}

	if _, kind := s.ViewLELiteral(order.NewView(v, 1, 0), 20, gen); kind != LitAlwaysTrue {
		t.Errorf("bound above the domain must be LitAlwaysTrue")
	}
	if _, kind := s.ViewLELiteral(order.NewView(v, 1, 0), -1, gen); kind != LitAlwaysFalse {
		t.Errorf("bound below the domain must be LitAlwaysFalse")
	}
}

func TestStoreIntersectViewKeepsHoles(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(0, 10))
	dom := order.NewDomainFromRanges([]order.Range{{Lo: 2, Hi: 3}, {Lo: 8, Hi: 9}})
	if !s.IntersectView(order.Identity(v), dom) {
		t.Fatalf("IntersectView unexpectedly emptied the domain")
	}
	got := s.Domain(v)
	if got.Contains(5) || !got.Contains(2) || !got.Contains(9) {
		t.Errorf("domain after IntersectView = %v ranges, holes lost", got.Ranges())
	}
}

func TestStoreViewGELiteralDuality(t *testing.T) {
	s := NewStore()
	v := s.CreateVariable(order.NewDomain(0, 9))
	gen := fakeLitGen()
	// x >= 4 is the negation of x <= 3.
	l, kind := s.ViewGELiteral(order.Identity(v), 4, gen)
	if kind != LitNormal {
		t.Fatalf("kind = %v, want LitNormal", kind)
	}
	le3, _ := s.ExistingOrderLiteral(v, 3)
	if l != le3.Not() {
		t.Errorf("ViewGELiteral(4) = %v, want negation of le(3)", l)
	}
	if _, kind := s.ViewGELiteral(order.Identity(v), 0, gen); kind != LitAlwaysTrue {
		t.Errorf("x >= 0 over [0,9] must be LitAlwaysTrue")
	}
	if _, kind := s.ViewGELiteral(order.Identity(v), 10, gen); kind != LitAlwaysFalse {
		t.Errorf("x >= 10 over [0,9] must be LitAlwaysFalse")
	}
}

func TestStoreRestrictorsFollowViewOrder(t *testing.T) {
	s := NewStore()
	view := s.CreateView(order.NewDomain(1, 4))
	scaled := order.NewView(view.Var, -2, 0)

	var base []int64
	for it := s.Restrictor(scaled); !it.Done(); it = it.Next() {
		base = append(base, it.Value())
	}
	want := []int64{-8, -6, -4, -2}
	if len(base) != len(want) {
		t.Fatalf("Restrictor values = %v, want %v", base, want)
	}
	for i := range want {
		if base[i] != want[i] {
			t.Fatalf("Restrictor values = %v, want %v", base, want)
		}
	}

	s.PushLevel()
	s.IntersectLE(view.Var, 2)
	var current []int64
	for it := s.CurrentRestrictor(scaled); !it.Done(); it = it.Next() {
		current = append(current, it.Value())
	}
	if len(current) != 2 || current[0] != -4 || current[1] != -2 {
		t.Fatalf("CurrentRestrictor values = %v, want [-4 -2]", current)
	}
}

func TestOrderLitMapAscendIsSorted(t *testing.T) {
	m := newOrderLitMap()
	gen := fakeLitGen()
	for _, k := range []int64{5, 1, 3} {
		m.getOrCreate(k, gen)
	}
	var seen []int64
	m.ascend(func(k int64, _ z.Lit) bool {
		seen = append(seen, k)
		return true
	})
	want := []int64{1, 3, 5}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("ascend order = %v, want %v", seen, want)
		}
	}
}
