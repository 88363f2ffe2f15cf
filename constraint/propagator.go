package constraint

import (
	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theory"
)

// Derivation is one literal the propagator can assert, together with
// the clause that justifies it to the host. When HasBound is set the
// literal is an order literal and the driver must also apply the
// matching domain restriction before returning to the host, so the
// store never lags behind the Boolean trail.
type Derivation struct {
	Lit    z.Lit
	Reason []z.Lit // full clause: negated antecedents followed by Lit

	Var      order.VarID
	Bound    int64
	IsUpper  bool
	HasBound bool
}

// Assignment reports the current host truth value of a literal, with
// assigned=false meaning it is unassigned at the present decision
// level. The driver supplies this by querying the host trail.
type Assignment func(l z.Lit) (value bool, assigned bool)

// LitSource resolves a canonical "v <= k" bound to a host literal,
// creating the literal and registering its watch when absent. The
// driver implements this; tests use a map.
type LitSource interface {
	LE(v order.VarID, k int64) z.Lit
}

// Propagator runs bound-consistency propagation over Linear
// constraints (C5), grounded on LinearPropagator::propagate_impl and
// computeMinMax in linearpropagator.cpp. Strength selects how much
// work each call does: 1 detects conflicts only, 2 also forces
// reification literals, 3 narrows variable bounds with default
// reasons, 4 additionally re-picks the weakest sufficient antecedent
// bounds to shrink each reason clause.
type Propagator struct {
	strength int
	domSize  int // max derivations per call, -1 unbounded
}

// NewPropagator returns a propagator running at the given strength
// with the given per-call derivation cap.
func NewPropagator(strength, domSize int) *Propagator {
	if strength < 1 {
		strength = 1
	}
	if strength > 4 {
		strength = 4
	}
	return &Propagator{strength: strength, domSize: domSize}
}

// Propagate inspects constraint c against the domains in s and the
// current host assignment of c.Literal, returning any derivable
// literals and whether an outright conflict was found. On conflict the
// single returned Derivation carries the conflict clause in Reason.
func (p *Propagator) Propagate(c Linear, s *theory.Store, assign Assignment, lits LitSource) ([]Derivation, bool) {
	min, max := c.Bounds(s)
	val, assigned := assign(c.Literal)

	if min > c.Bound { // Violated
		if assigned && val && (c.Dir == FWD || c.Dir == EQ) {
			clause := append(p.minAntecedents(c, s, lits), c.Literal.Not())
			return []Derivation{{Lit: z.LitNull, Reason: clause}}, true
		}
		if !assigned && p.strength >= 2 && (c.Dir == FWD || c.Dir == EQ) {
			clause := append(p.minAntecedents(c, s, lits), c.Literal.Not())
			return []Derivation{{Lit: c.Literal.Not(), Reason: clause}}, false
		}
		return nil, false
	}
	if max <= c.Bound { // Entailed
		if c.Dir == BWD || c.Dir == EQ {
			if assigned && !val {
				clause := append(p.maxAntecedents(c, s, lits), c.Literal)
				return []Derivation{{Lit: z.LitNull, Reason: clause}}, true
			}
			if !assigned && p.strength >= 2 {
				clause := append(p.maxAntecedents(c, s, lits), c.Literal)
				return []Derivation{{Lit: c.Literal, Reason: clause}}, false
			}
		}
		return nil, false
	}

	if !assigned || p.strength < 3 {
		return nil, false
	}
	if val {
		if c.Dir == FWD || c.Dir == EQ {
			return p.narrow(c, s, lits, min), false
		}
		return nil, false
	}
	if c.Dir == BWD || c.Dir == EQ {
		nc := c.Negate()
		nmin, _ := nc.Bounds(s)
		return p.narrow(nc, s, lits, nmin), false
	}
	return nil, false
}

// narrow derives, for a constraint whose controlling literal is true,
// the tightened endpoint of every term whose current bound admits
// values the remaining slack cannot cover.
func (p *Propagator) narrow(c Linear, s *theory.Store, lits LitSource, min int64) []Derivation {
	var out []Derivation
	for i, t := range c.Terms {
		if p.domSize >= 0 && len(out) >= p.domSize {
			break
		}
		d := s.Domain(t.Var)
		base := s.BaseDomain(t.Var)
		slack := c.Bound - (min - termMinContribution(t, d))
		if t.A > 0 {
			ub := order.FloorDiv(slack, t.A)
			if ub >= d.Upper() {
				continue
			}
			nb, ok := d.FloorValue(ub)
			if !ok {
				continue
			}
			canon, _ := base.FloorValue(nb)
			lit := lits.LE(t.Var, canon)
			out = append(out, Derivation{
				Lit:      lit,
				Reason:   p.tighteningReason(c, s, lits, i, min, lit),
				Var:      t.Var,
				Bound:    canon,
				IsUpper:  true,
				HasBound: true,
			})
		} else {
			lb := order.CeilDiv(slack, t.A)
			if lb <= d.Lower() {
				continue
			}
			nb, ok := d.CeilValue(lb)
			if !ok {
				continue
			}
			prev, ok := base.FloorValue(nb - 1)
			if !ok {
				continue
			}
			lit := lits.LE(t.Var, prev).Not()
			out = append(out, Derivation{
				Lit:      lit,
				Reason:   p.tighteningReason(c, s, lits, i, min, lit),
				Var:      t.Var,
				Bound:    nb,
				IsUpper:  false,
				HasBound: true,
			})
		}
	}
	return out
}

// termMinContribution is t's share of the constraint's minimum under
// the current domain: the coefficient sign selects which endpoint
// contributes.
func termMinContribution(t order.View, d *order.Domain) int64 {
	if t.A > 0 {
		return t.A * d.Lower()
	}
	return t.A * d.Upper()
}

// minAntecedents negates, for every term, the order literal asserting
// its current contribution to the sum's minimum. Antecedents entailed
// by the base domain alone are dropped.
func (p *Propagator) minAntecedents(c Linear, s *theory.Store, lits LitSource) []z.Lit {
	var clause []z.Lit
	for _, t := range c.Terms {
		if l, ok := negatedMinAntecedent(t, s, lits, currentMinBound(t, s.Domain(t.Var))); ok {
			clause = append(clause, l)
		}
	}
	return clause
}

// maxAntecedents is the dual for the sum's maximum.
func (p *Propagator) maxAntecedents(c Linear, s *theory.Store, lits LitSource) []z.Lit {
	var clause []z.Lit
	for _, t := range c.Terms {
		d := s.Domain(t.Var)
		base := s.BaseDomain(t.Var)
		if t.A > 0 {
			// antecedent: v <= hi; negation is its complement.
			if d.Upper() >= base.Upper() {
				continue
			}
			canon, _ := base.FloorValue(d.Upper())
			clause = append(clause, lits.LE(t.Var, canon).Not())
		} else {
			// antecedent: v >= lo; negation is "v <= lo-1".
			if d.Lower() <= base.Lower() {
				continue
			}
			prev, ok := base.FloorValue(d.Lower() - 1)
			if !ok {
				continue
			}
			clause = append(clause, lits.LE(t.Var, prev))
		}
	}
	return clause
}

// currentMinBound is the endpoint value of t's variable that produces
// t's minimum contribution.
func currentMinBound(t order.View, d *order.Domain) int64 {
	if t.A > 0 {
		return d.Lower()
	}
	return d.Upper()
}

// negatedMinAntecedent resolves the negation of "t contributes at
// least its share from bound w": for a positive coefficient the
// antecedent is v >= w and its negation "v <= w-1"; for a negative
// one the antecedent is v <= w and its negation the complement
// literal. ok is false when the antecedent is entailed by the base
// domain and must be dropped from the clause.
func negatedMinAntecedent(t order.View, s *theory.Store, lits LitSource, w int64) (z.Lit, bool) {
	base := s.BaseDomain(t.Var)
	if t.A > 0 {
		if w <= base.Lower() {
			return z.LitNull, false
		}
		prev, ok := base.FloorValue(w - 1)
		if !ok {
			return z.LitNull, false
		}
		return lits.LE(t.Var, prev), true
	}
	if w >= base.Upper() {
		return z.LitNull, false
	}
	canon, ok := base.FloorValue(w)
	if !ok {
		return z.LitNull, false
	}
	return lits.LE(t.Var, canon).Not(), true
}

// tighteningReason builds the reason clause for the tightened literal
// derived on Terms[idx]: the controlling literal's negation, the
// negated order literals justifying every other term's contribution,
// then the consequent. At strength 4 each antecedent is weakened to
// the loosest bound that still forces the same consequent, following
// the reason-minimization pass of propagate_impl.
func (p *Propagator) tighteningReason(c Linear, s *theory.Store, lits LitSource, idx int, min int64, consequent z.Lit) []z.Lit {
	clause := []z.Lit{c.Literal.Not()}
	t := c.Terms[idx]
	otherMin := min - termMinContribution(t, s.Domain(t.Var))

	var needTotal int64
	minimize := p.strength >= 4
	if minimize {
		base := s.BaseDomain(t.Var)
		if t.A > 0 {
			ub := order.FloorDiv(c.Bound-otherMin, t.A)
			nb, _ := base.FloorValue(ub)
			next, ok := base.CeilValue(nb + 1)
			if !ok {
				minimize = false
			} else {
				needTotal = c.Bound - t.A*next + 1
			}
		} else {
			lb := order.CeilDiv(c.Bound-otherMin, t.A)
			nb, _ := base.CeilValue(lb)
			prev, ok := base.FloorValue(nb - 1)
			if !ok {
				minimize = false
			} else {
				needTotal = c.Bound - t.A*prev + 1
			}
		}
	}

	for j, u := range c.Terms {
		if j == idx {
			continue
		}
		d := s.Domain(u.Var)
		w := currentMinBound(u, d)
		if minimize {
			contrib := termMinContribution(u, d)
			needed := needTotal - (otherMin - contrib)
			if u.A > 0 {
				weak := order.CeilDiv(needed, u.A)
				if weak < w {
					w = weak
				}
			} else {
				weak := order.FloorDiv(needed, u.A)
				if weak > w {
					w = weak
				}
			}
		}
		if l, ok := negatedMinAntecedent(u, s, lits, w); ok {
			clause = append(clause, l)
		}
	}
	return append(clause, consequent)
}

// TightenRoot applies c's bound restrictions directly to the store at
// decision level zero, where no reason clauses are needed because the
// host can never backtrack past them. The caller has already
// established that c's controlling literal forces the inequality.
// Returns whether any domain changed and whether the root state is
// conflicting.
func (p *Propagator) TightenRoot(c Linear, s *theory.Store) (changed, conflict bool) {
	min, _ := c.Bounds(s)
	if min > c.Bound {
		return false, true
	}
	for _, t := range c.Terms {
		d := s.Domain(t.Var)
		slack := c.Bound - (min - termMinContribution(t, d))
		// Narrowing a term's far endpoint never moves the sum's
		// minimum, so min stays valid across the loop.
		if t.A > 0 {
			ub := order.FloorDiv(slack, t.A)
			if ub >= d.Upper() {
				continue
			}
			if !s.IntersectLE(t.Var, ub) {
				return true, true
			}
			changed = true
		} else {
			lb := order.CeilDiv(slack, t.A)
			if lb <= d.Lower() {
				continue
			}
			if !s.IntersectGE(t.Var, lb) {
				return true, true
			}
			changed = true
		}
	}
	return changed, false
}
