package order

import "fmt"

// VarID identifies a base finite-domain variable inside a Store; views
// are always expressed relative to one of these, never to another
// view, which keeps composition a single multiply/add instead of a
// chain.
type VarID uint32

// View is the affine expression a*Var + c used everywhere a linear
// constraint or a theory atom refers to a term instead of a bare
// variable. A coefficient of zero is never constructed by this
// package's callers. The zero View refers to variable 0; Invalid, the
// largest VarID, is the sentinel for a variable that is not set.
type View struct {
	Var VarID
	A   int64
	C   int64
}

// Invalid is the largest VarID, a sentinel distinct from every
// allocated variable, mirroring clingcon's InvalidVar marker for
// Variable.
const Invalid VarID = ^VarID(0)

// NewView returns the view a*v + c.
func NewView(v VarID, a, c int64) View { return View{Var: v, A: a, C: c} }

// Identity returns the trivial view 1*v + 0.
func Identity(v VarID) View { return View{Var: v, A: 1, C: 0} }

func (v View) String() string {
	switch {
	case v.A == 1 && v.C == 0:
		return fmt.Sprintf("v%d", v.Var)
	case v.C == 0:
		return fmt.Sprintf("%d*v%d", v.A, v.Var)
	case v.A == 1:
		return fmt.Sprintf("v%d+%d", v.Var, v.C)
	default:
		return fmt.Sprintf("%d*v%d+%d", v.A, v.Var, v.C)
	}
}

// Reversed negates the view's coefficient, folding the sign into the
// constant so that (-a)*v + (-c) is expressed as a view whose
// coefficient keeps the same magnitude — used when a linear
// constraint is restated with an opposite-signed coefficient and the
// two should still share one underlying order-literal map per value
// (clingcon's View::reversed / the "reversal duality" of §3).
func (v View) Reversed() View { return View{Var: v.Var, A: -v.A, C: -v.C} }

// Multiply composes this view with an outer scale factor: the result
// maps x to n*(a*x+c) = (n*a)*x + (n*c).
func (v View) Multiply(n int64) View { return View{Var: v.Var, A: v.A * n, C: v.C * n} }

// Divide composes this view with an outer integer division, used when
// folding a constant factor out of a linear term; both A and C must
// be exactly divisible by n or the caller has built an ill-formed
// term (checked by the constraint normalizer, not here).
func (v View) Divide(n int64) View { return View{Var: v.Var, A: v.A / n, C: v.C / n} }

// Eval maps a base-variable value through the view.
func (v View) Eval(x int64) int64 { return v.A*x + v.C }

// EvalDomain maps a base variable's domain through the view by
// mapping each range's two endpoints. With |A| > 1 each resulting
// range is the hull of that range's image, not the exact strided set
// of view values (ViewIterator yields those). Negative coefficients
// flip the order of the range endpoints, which is exactly the
// "reversal duality" that lets a single variable back both v <= k and
// v >= k order literals depending only on the sign of A.
func (v View) EvalDomain(d *Domain) *Domain {
	if v.A == 0 {
		return NewDomain(v.C, v.C)
	}
	out := d.Clone()
	for i, r := range out.ranges {
		lo, hi := v.Eval(r.Lo), v.Eval(r.Hi)
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo < SafeMin || hi > SafeMax {
			out.overflow = true
		}
		out.ranges[i] = Range{lo, hi}
	}
	if v.A < 0 {
		reverseRanges(out.ranges)
	}
	return out
}

// Invert maps a value of the view back to the base variable's value.
// When y-C is not divisible by A the quotient is truncated toward
// zero; callers restrict along view boundaries computed from
// EvalDomain so this divides evenly in practice.
func (v View) Invert(y int64) int64 {
	if v.A == 0 {
		return 0
	}
	return (y - v.C) / v.A
}

func reverseRanges(rs []Range) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
