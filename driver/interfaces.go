// Package driver implements the host-facing propagator (C7): the
// init/propagate/check/undo state machine that keeps this module's
// finite-domain theory consistent with the host CDCL solver's trail,
// generalized from the teacher's single-threaded Boolean
// constraint-propagation loop in sat/cdcl.go to order-literal and
// reified-constraint dispatch over github.com/go-air/gini's z.Lit.
package driver

import "github.com/go-air/gini/z"

// PropagateInit is the callback surface a host solver exposes before
// solving starts: literal allocation, watch registration, and adding
// clauses produced by static unfolding (C6). Concrete hosts implement
// this against their own solver; package hostgini supplies the
// github.com/go-air/gini binding.
type PropagateInit interface {
	NewLit() z.Lit
	AddWatch(lit z.Lit)
	AddClause(lits ...z.Lit) bool
	Assignment(lit z.Lit) (value bool, assigned bool)
	NumThreads() int
}

// PropagateControl is the callback surface available during solving:
// adding reason clauses, inspecting the current assignment, and
// adjusting watches as the theory's order-literal map grows lazily.
type PropagateControl interface {
	NewLit() z.Lit
	AddClause(lits ...z.Lit) bool
	AddWatch(lit z.Lit)
	RemoveWatch(lit z.Lit)
	Assignment(lit z.Lit) (value bool, assigned bool)
	Level() int
}

// MinimizeHost is an optional capability a concrete PropagateInit may
// implement to receive &minimize{} objectives (C8/§4.5): a weighted
// literal at a priority level, forwarded once at grounding time with
// no further in-loop work required. hostgini.Adapter implements it.
// Hosts that do not implement this simply never see objectives; the
// theory still solves, it just cannot optimize.
type MinimizeHost interface {
	AddMinimizeLiteral(lit z.Lit, weight int64, priority int)
}
