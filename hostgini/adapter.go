// Package hostgini is the only package in this module that touches a
// concrete SAT solver. It wires a github.com/go-air/gini solver,
// consumed through the inter.S interface the way
// operator-lifecycle-manager's resolver does, onto the driver
// package's PropagateInit/PropagateControl surfaces. Every literal the
// theory allocates comes from one shared logic.C circuit so that the
// cardinality sorting network used for minimization shares the
// solver's variable numbering.
package hostgini

import (
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Objective is one weighted literal of a &minimize{} directive.
type Objective struct {
	Lit      z.Lit
	Weight   int64
	Priority int
}

// Adapter binds an inter.S onto the driver's callback interfaces.
// gini is a plain CDCL solver with no theory-propagator hooks, so
// watches are no-ops and the Assignment view covers only root-level
// facts from unit clauses (assumptions are not recorded there);
// everything the theory derives
// must reach the solver as clauses during Init.
type Adapter struct {
	s          inter.S
	c          *logic.C
	level      int
	root       map[z.Lit]bool
	objectives []Objective
}

// New wraps s for use as a driver.PropagateInit/PropagateControl.
func New(s inter.S) *Adapter {
	return &Adapter{
		s:    s,
		c:    logic.NewCCap(128),
		root: make(map[z.Lit]bool),
	}
}

// NumThreads reports the (single-threaded, for this adapter) solving
// parallelism.
func (a *Adapter) NumThreads() int { return 1 }

// NewLit allocates a fresh free literal from the shared circuit.
func (a *Adapter) NewLit() z.Lit { return a.c.Lit() }

// AddWatch is a no-op: gini never calls back into a propagator, so
// there is nothing to watch. Kept to satisfy the driver interfaces.
func (a *Adapter) AddWatch(z.Lit) {}

// RemoveWatch mirrors AddWatch.
func (a *Adapter) RemoveWatch(z.Lit) {}

// AddClause adds one clause, terminated by the null literal the way
// gini's Add API is driven. Unit clauses are also recorded as
// root-level assignments so the driver's init-time narrowing sees
// them.
func (a *Adapter) AddClause(lits ...z.Lit) bool {
	if len(lits) == 1 {
		a.recordRoot(lits[0], true)
	}
	for _, l := range lits {
		a.s.Add(l)
	}
	a.s.Add(z.LitNull)
	return true
}

func (a *Adapter) recordRoot(l z.Lit, v bool) {
	a.root[l] = v
	a.root[l.Not()] = !v
}

// Assignment reports the root-level value recorded for l; assigned is
// false for any literal that no unit clause asserted, including
// assumed ones.
func (a *Adapter) Assignment(l z.Lit) (value, assigned bool) {
	v, ok := a.root[l]
	return v, ok
}

// Level reports the decision level the driver last announced; gini
// does not expose one.
func (a *Adapter) Level() int { return a.level }

// SetLevel updates the tracked decision level.
func (a *Adapter) SetLevel(level int) { a.level = level }

// AddMinimizeLiteral collects one weighted objective literal; the
// whole objective is materialized once by Minimize.
func (a *Adapter) AddMinimizeLiteral(lit z.Lit, weight int64, priority int) {
	if weight == 0 {
		return
	}
	a.objectives = append(a.objectives, Objective{Lit: lit, Weight: weight, Priority: priority})
}

// Objectives returns the collected minimize entries.
func (a *Adapter) Objectives() []Objective { return a.objectives }

// Solve runs the search, returning true if satisfiable.
func (a *Adapter) Solve() bool { return a.s.Solve() == 1 }

// ModelValue reads l's value from the model after a satisfiable
// Solve.
func (a *Adapter) ModelValue(l z.Lit) bool { return a.s.Value(l) }

// Assume pushes assumption literals for the next Solve call.
func (a *Adapter) Assume(lits ...z.Lit) { a.s.Assume(lits...) }

// CardSort builds a sorting network over ms inside the shared
// circuit, teaches its CNF to the solver, and returns it; cs.Leq(k)
// is then a literal usable as an assumption or in clauses. This is
// the CardinalityConstrainer pattern from operator-lifecycle-manager's
// litMapping, used here by Minimize. The cardinality encoding of
// distinct lives in package translate and does not use it.
func (a *Adapter) CardSort(ms []z.Lit) *logic.CardSort {
	clen := a.c.Len()
	cs := a.c.CardSort(ms)
	marks := make([]int8, clen, a.c.Len())
	for i := range marks {
		marks[i] = 1
	}
	for w := 0; w <= cs.N(); w++ {
		marks, _ = a.c.CnfSince(a.s, marks, cs.Leq(w))
	}
	return cs
}

// Minimize lowers the number of true literals among ms by repeated
// solving under a tightening cardinality assumption, returning the
// optimum and whether the formula is satisfiable at all. Every entry
// of ms counts once; weights and priorities are not consulted. The
// solver is left with the optimum still only
// assumed, so callers re-Assume cs.Leq(best) before reading a model.
func (a *Adapter) Minimize(ms []z.Lit) (best int, cs *logic.CardSort, sat bool) {
	if !a.Solve() {
		return 0, nil, false
	}
	count := 0
	for _, m := range ms {
		if a.s.Value(m) {
			count++
		}
	}
	cs = a.CardSort(ms)
	best = count
	for best > 0 {
		a.s.Assume(cs.Leq(best - 1))
		if a.s.Solve() != 1 {
			break
		}
		best = 0
		for _, m := range ms {
			if a.s.Value(m) {
				best++
			}
		}
	}
	return best, cs, true
}
