// Package constraint implements the reified linear constraint type
// (C3), the per-constraint watch/requeue index (C4), and the
// bound-consistency propagator that derives order-literal
// implications from a linear constraint's current bounds (C5).
package constraint

import (
	"sort"

	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theory"
)

// Direction records how the controlling literal relates to the
// inequality Σ terms <= Bound, matching clingcon's three reification
// modes for a linear constraint.
type Direction int

const (
	// FWD: Literal true implies the sum inequality holds; the
	// inequality's violation need not force Literal false.
	FWD Direction = iota
	// BWD: the sum inequality holding implies Literal true; Literal
	// false need not prevent the inequality from holding.
	BWD
	// EQ: Literal is true exactly when the sum inequality holds.
	EQ
)

// Linear is a normalized reified linear constraint: Σ Terms <= Bound,
// controlled by Literal under Dir. Terms are merged so that no two
// share the same underlying variable (clingcon's ConstraintBuilder
// normalization step in constraint.cpp).
type Linear struct {
	Terms   []order.View
	Bound   int64
	Literal z.Lit
	Dir     Direction

	// raw keeps the merged terms before the GCD was divided out:
	// representability is judged against what the input actually
	// wrote, so 8*x over a 2^30 domain stays an overflow even though
	// the normalized x is harmless.
	raw []order.View
	id  int
}

// NewLinear normalizes terms (merging duplicate variables, dropping
// zero-coefficient terms) and returns the constraint Σ terms <= bound
// under lit/dir. Returns ok=false if an intermediate sum of merged
// coefficients overflows the safe range.
func NewLinear(terms []order.View, bound int64, lit z.Lit, dir Direction) (Linear, bool) {
	byVar := make(map[order.VarID]order.View)
	order_ := make([]order.VarID, 0, len(terms))
	for _, t := range terms {
		if t.A == 0 {
			bound -= t.C
			continue
		}
		if existing, ok := byVar[t.Var]; ok {
			a := existing.A + t.A
			c := existing.C + t.C
			if a < order.SafeMin || a > order.SafeMax {
				return Linear{}, false
			}
			byVar[t.Var] = order.View{Var: t.Var, A: a, C: c}
		} else {
			byVar[t.Var] = t
			order_ = append(order_, t.Var)
		}
	}
	sort.Slice(order_, func(i, j int) bool { return order_[i] < order_[j] })
	merged := make([]order.View, 0, len(order_))
	for _, v := range order_ {
		t := byVar[v]
		if t.A == 0 {
			bound -= t.C
			continue
		}
		bound -= t.C
		merged = append(merged, order.View{Var: t.Var, A: t.A, C: 0})
	}
	raw := append([]order.View(nil), merged...)
	if g := coefficientGCD(merged); g > 1 {
		for i := range merged {
			merged[i].A /= g
		}
		bound = order.FloorDiv(bound, g)
	}
	return Linear{Terms: merged, Bound: bound, Literal: lit, Dir: dir, raw: raw}, true
}

// coefficientGCD returns the greatest common divisor of the term
// coefficients; dividing it out (flooring the bound) preserves the
// integer solution set exactly.
func coefficientGCD(terms []order.View) int64 {
	var g int64
	for _, t := range terms {
		a := t.A
		if a < 0 {
			a = -a
		}
		for a != 0 {
			g, a = a, g%a
		}
	}
	return g
}

// Negate returns the complement constraint not-C: Σ terms <= Bound
// fails exactly when Σ -terms <= -Bound-1 holds. The controlling
// literal flips with it, so a BWD or EQ constraint whose literal went
// false propagates as the negation under FWD.
func (c Linear) Negate() Linear {
	terms := make([]order.View, len(c.Terms))
	for i, t := range c.Terms {
		terms[i] = order.View{Var: t.Var, A: -t.A}
	}
	return Linear{Terms: terms, Bound: -c.Bound - 1, Literal: c.Literal.Not(), Dir: FWD, id: c.id}
}

// Bounds returns the minimum and maximum possible value of the
// constraint's sum given the current domains in s, computed term by
// term via each view's affine image (clingcon's
// LinearPropagator::computeMinMax).
func (c Linear) Bounds(s *theory.Store) (min, max int64) {
	for _, t := range c.Terms {
		d := t.EvalDomain(s.Domain(t.Var))
		if d.Empty() {
			continue
		}
		min += d.Lower()
		max += d.Upper()
	}
	return min, max
}

// Overflowed reports whether evaluating any written term against the
// current domains in s leaves the signed-32-bit safe range: a
// constraint in this state can never be soundly propagated and is
// reported as unsatisfiable instead.
func (c Linear) Overflowed(s *theory.Store) bool {
	terms := c.raw
	if terms == nil {
		terms = c.Terms
	}
	for _, t := range terms {
		if t.EvalDomain(s.Domain(t.Var)).Overflow() {
			return true
		}
	}
	return false
}

// Vars returns the distinct variables the constraint touches.
func (c Linear) Vars() []order.VarID {
	out := make([]order.VarID, len(c.Terms))
	for i, t := range c.Terms {
		out[i] = t.Var
	}
	return out
}
