package theory

import (
	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/order"
)

// GELiteral returns the host literal for "v >= k", derived as the
// negation of "v <= k-1" rather than stored separately, matching
// storage.cpp's convention that only LE literals are primary and GE
// is always the complement.
func (s *Store) GELiteral(v order.VarID, k int64, newLit func() z.Lit) (z.Lit, bool) {
	canon, ok := s.base[v].FloorValue(k - 1)
	if !ok {
		canon = k - 1
	}
	l, existed := s.OrderLiteral(v, canon, newLit)
	return l.Not(), existed
}

// EqualLiteral returns the literal for "v == value". At the current
// domain's endpoints no auxiliary is needed: v == lower is exactly
// "v <= lower" and v == upper exactly "v >= upper". Anywhere else a
// fresh literal is created once, cached, and related to the two
// enclosing order literals through emit (the three-clause equivalence
// eq <-> le && ge from storage.cpp); emit is only invoked on creation.
func (s *Store) EqualLiteral(v order.VarID, value int64, newLit func() z.Lit, emit func(eq, le, ge z.Lit)) z.Lit {
	if m := s.eqLits[v]; m != nil {
		if l, ok := m[value]; ok {
			return l
		}
	}
	dom := s.domains[v]
	var eq z.Lit
	switch {
	case value == dom.Lower():
		// v >= lower holds; v == lower collapses to "v <= lower".
		eq, _ = s.OrderLiteral(v, value, newLit)
	case value == dom.Upper():
		// v <= upper holds; v == upper collapses to "v >= upper".
		eq, _ = s.GELiteral(v, value, newLit)
	default:
		le, _ := s.OrderLiteral(v, value, newLit)
		ge, _ := s.GELiteral(v, value, newLit)
		eq = newLit()
		emit(eq, le, ge)
	}
	if s.eqLits[v] == nil {
		s.eqLits[v] = make(map[int64]z.Lit)
	}
	s.eqLits[v][value] = eq
	return eq
}
