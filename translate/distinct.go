package translate

import (
	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theory"
)

// Distinct is the &distinct{} theory atom's constraint set: every
// listed variable must take a pairwise-different value.
type Distinct struct {
	Vars []order.VarID
}

// EncodePairwise emits, for every value common to two variables'
// domains, the clause forbidding both from taking it: a direct
// pairwise all-different encoding, quadratic in the number of
// variables but with no auxiliary literals beyond the equality
// literals themselves.
func EncodePairwise(d Distinct, s *theory.Store, newLit func() z.Lit, emit func([]z.Lit)) {
	for i := 0; i < len(d.Vars); i++ {
		for j := i + 1; j < len(d.Vars); j++ {
			vi, vj := d.Vars[i], d.Vars[j]
			lo := maxI64(s.Domain(vi).Lower(), s.Domain(vj).Lower())
			hi := minI64(s.Domain(vi).Upper(), s.Domain(vj).Upper())
			for k := lo; k <= hi; k++ {
				if !s.Domain(vi).Contains(k) || !s.Domain(vj).Contains(k) {
					continue
				}
				eqI := s.EqualLiteral(vi, k, newLit, emitEquivClauses(emit))
				eqJ := s.EqualLiteral(vj, k, newLit, emitEquivClauses(emit))
				emit([]z.Lit{eqI.Not(), eqJ.Not()})
			}
		}
	}
}

// EncodeCardinality emits, for every value shared by at least two
// variables' domains, a sequential at-most-one encoding over that
// value's equality literals (the commander/sequential-counter
// encoding), trading auxiliary literals for a linear instead of
// quadratic clause count when many variables share wide domains.
func EncodeCardinality(d Distinct, s *theory.Store, newLit func() z.Lit, emit func([]z.Lit)) {
	valueVars := make(map[int64][]order.VarID)
	for _, v := range d.Vars {
		dom := s.Domain(v)
		for it := dom.Begin(); !it.Done(); it = it.Next() {
			valueVars[it.Value()] = append(valueVars[it.Value()], v)
		}
	}
	for k, vars := range valueVars {
		if len(vars) < 2 {
			continue
		}
		eqs := make([]z.Lit, len(vars))
		for i, v := range vars {
			eqs[i] = s.EqualLiteral(v, k, newLit, emitEquivClauses(emit))
		}
		sequentialAtMostOne(eqs, newLit, emit)
	}
}

// sequentialAtMostOne encodes "at most one of lits is true" with
// O(n) auxiliary literals and clauses via a running prefix-or chain.
func sequentialAtMostOne(lits []z.Lit, newLit func() z.Lit, emit func([]z.Lit)) {
	if len(lits) < 2 {
		return
	}
	prefix := make([]z.Lit, len(lits))
	prefix[0] = lits[0]
	for i := 1; i < len(lits); i++ {
		s := newLit()
		prefix[i] = s
		emit([]z.Lit{lits[i].Not(), s})
		emit([]z.Lit{prefix[i-1].Not(), s})
		emit([]z.Lit{prefix[i-1].Not(), lits[i].Not()})
	}
}

func emitEquivClauses(emit func([]z.Lit)) func(eq, le, ge z.Lit) {
	return func(eq, le, ge z.Lit) {
		emit([]z.Lit{eq.Not(), le})
		emit([]z.Lit{eq.Not(), ge})
		emit([]z.Lit{le.Not(), ge.Not(), eq})
	}
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
