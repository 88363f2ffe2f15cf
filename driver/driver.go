package driver

import (
	"github.com/go-air/gini/z"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xDarkicex/fdprop/constraint"
	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theory"
	"github.com/xDarkicex/fdprop/theoryerr"
	"github.com/xDarkicex/fdprop/translate"
)

// boundLit records what a host literal means for the variable store:
// the positive polarity of an order literal carries "v <= k", its
// negation "v >= k'" for the next domain value above k. One host
// literal can carry several meanings once SetLELiteral has aliased
// positions together, so the reverse index holds a slice.
type boundLit struct {
	v    order.VarID
	k    int64
	isLE bool
}

// Driver is the concrete theory propagator: it owns the variable
// store, the constraint index, and the reverse maps from host
// literals to order-literal bounds and reified constraints needed to
// translate PropagateControl's assignment notifications into domain
// restrictions and re-queued constraints (clingconorderpropagator.cpp's
// role, generalized over the propagate/backtrack loop shape of a CDCL
// solver's watch lists).
type Driver struct {
	Store   *theory.Store
	Storage *constraint.Storage
	Config  theory.Config
	Stats   Stats

	prop           *constraint.Propagator
	litInfo        map[z.Lit][]boundLit
	registered     map[z.Lit]bool
	reifWatch      map[z.Lit][]int
	reasons        map[z.Lit][]z.Lit
	log            *logrus.Logger
	id             uuid.UUID
	hostSide       int
	conflictAtRoot bool
}

// New returns a driver over a fresh variable store configured by cfg.
func New(cfg theory.Config) *Driver {
	lg := logrus.New()
	lg.SetLevel(logrus.WarnLevel)
	return &Driver{
		Store:      theory.NewStore(),
		Storage:    constraint.NewStorage(),
		Config:     cfg,
		prop:       constraint.NewPropagator(cfg.PropStrength, cfg.DomSize),
		litInfo:    make(map[z.Lit][]boundLit),
		registered: make(map[z.Lit]bool),
		reifWatch:  make(map[z.Lit][]int),
		reasons:    make(map[z.Lit][]z.Lit),
		log:        lg,
		id:         uuid.New(),
	}
}

// SetLogger replaces the driver's diagnostic logger; tests silence it
// this way and applications route it into their own output.
func (d *Driver) SetLogger(lg *logrus.Logger) { d.log = lg }

func (d *Driver) warnf(format string, args ...interface{}) {
	d.log.WithField("driver", d.id).Warnf(format, args...)
}

// CreateVariable allocates a new finite-domain variable with domain
// dom and returns its id.
func (d *Driver) CreateVariable(dom *order.Domain) order.VarID {
	d.Stats.NumIntVariables++
	return d.Store.CreateVariable(dom)
}

// AddConstraint normalizes terms<=bound under lit/dir and registers
// it with the constraint index, returning its storage index.
func (d *Driver) AddConstraint(terms []order.View, bound int64, lit z.Lit, dir constraint.Direction) (int, error) {
	c, ok := constraint.NewLinear(terms, bound, lit, dir)
	if !ok {
		return 0, theoryerr.New(theoryerr.KindOverflow, "driver", "AddConstraint", "merged coefficient out of safe range")
	}
	idx := d.Storage.Add(c)
	d.Stats.NumConstraints++
	return idx, nil
}

// registerOrderLit records both polarities of an order literal in the
// reverse index so Propagate can translate its assignment back into a
// bound restriction. Idempotent: literals reaching the driver through
// more than one path register once.
func (d *Driver) registerOrderLit(v order.VarID, k int64, l z.Lit) {
	if d.registered[l] {
		return
	}
	d.registered[l] = true
	d.litInfo[l] = append(d.litInfo[l], boundLit{v: v, k: k, isLE: true})
	if next, ok := d.Store.BaseDomain(v).CeilValue(k + 1); ok {
		d.litInfo[l.Not()] = append(d.litInfo[l.Not()], boundLit{v: v, k: next, isLE: false})
	}
	d.Stats.NumLits++
}

// litSource adapts a host callback surface into the LitSource the
// propagator and translator create order literals through. Watches
// for literals created mid-propagation are registered at the current
// decision level only, which the host guarantees to keep alive for
// the rest of the step.
type litSource struct {
	d      *Driver
	newLit func() z.Lit
	watch  func(z.Lit)
}

func (s litSource) LE(v order.VarID, k int64) z.Lit {
	l, existed := s.d.Store.OrderLiteral(v, k, s.newLit)
	if !existed {
		s.d.registerOrderLit(v, k, l)
		if s.watch != nil {
			s.watch(l)
			s.watch(l.Not())
		}
	}
	return l
}

// Init runs the compile-time half of the theory: root-level bound
// narrowing to a fixpoint, bulk order-literal precreation, the
// translate-or-watch split per constraint (C6), and the binary order
// clauses relating every materialized order literal to its
// neighbours.
func (d *Driver) Init(init PropagateInit) error {
	timer := StartTimer(&d.Stats.TimeInit)
	defer timer.Stop()

	if err := d.narrowRoot(init); err != nil {
		return err
	}
	if d.conflictAtRoot {
		return nil
	}

	d.warnUnrestricted()
	d.precreateOrderLiterals(init)
	d.registerExistingOrderLits()

	for i := 0; i < d.Storage.Len(); i++ {
		c := d.Storage.Constraint(i)
		est, ok := translate.EstimateCombinations(c, d.Store)
		if d.Config.TranslateConstraints < 0 || (ok && est <= int64(d.Config.TranslateConstraints)) {
			d.unfoldStatic(init, c)
			d.Stats.NumTranslated++
			continue
		}
		d.watchConstraint(init, c, i)
		d.Stats.NumLazy++
	}

	d.emitOrderClauses(init)
	return nil
}

// narrowRoot runs bound tightening over every constraint whose
// controlling literal the host has already fixed, to a fixpoint,
// applying restrictions directly to the store: at level zero no
// reasons are needed because the host can never backtrack past them.
func (d *Driver) narrowRoot(init PropagateInit) error {
	for changed := true; changed; {
		changed = false
		for i := 0; i < d.Storage.Len(); i++ {
			c := d.Storage.Constraint(i)
			val, assigned := init.Assignment(c.Literal)
			var ch, conflict bool
			if assigned {
				switch {
				case val && (c.Dir == constraint.FWD || c.Dir == constraint.EQ):
					ch, conflict = d.prop.TightenRoot(c, d.Store)
				case !val && (c.Dir == constraint.BWD || c.Dir == constraint.EQ):
					ch, conflict = d.prop.TightenRoot(c.Negate(), d.Store)
				}
			}
			if conflict {
				init.AddClause()
				d.conflictAtRoot = true
				d.Stats.NumConflicts++
				return nil
			}
			if ch {
				changed = true
			}
			if c.Overflowed(d.Store) {
				// §7: a term leaving the signed-32-bit safe range after
				// the constraint's own root narrowing is not a conflict
				// to recover from locally; the empty clause makes the
				// whole program unsatisfiable rather than risk a
				// wrapped bound computation.
				d.warnf("constraint %d overflows the safe 32-bit range", i)
				init.AddClause()
				d.conflictAtRoot = true
				d.Stats.NumConflicts++
				return theoryerr.New(theoryerr.KindOverflow, "driver", "Init", "constraint term leaves the safe 32-bit range")
			}
		}
	}
	return nil
}

// warnUnrestricted reports variables no &dom{} or root constraint ever
// bounded, which stay clamped to the full safe range.
func (d *Driver) warnUnrestricted() {
	for v := order.VarID(0); int(v) < d.Store.NumVariables(); v++ {
		dom := d.Store.Domain(v)
		if dom.Lower() <= order.SafeMin && dom.Upper() >= order.SafeMax {
			d.warnf("variable %d is unrestricted, clamped to [%d,%d]", v, order.SafeMin, order.SafeMax)
		}
	}
}

// precreateOrderLiterals bulk-creates order literals per variable per
// the min_lits_per_var configuration. Watches are skipped for fully
// covered variables when the explicit binary order clauses alone
// carry their bound information.
func (d *Driver) precreateOrderLiterals(init PropagateInit) {
	if d.Config.MinLitsPerVar == 0 {
		return
	}
	// one literal per value is only sane on small domains; a variable
	// still spanning millions of values after root narrowing keeps its
	// literals lazy no matter what the configuration asks for.
	const maxPrecreate = 1 << 16
	for v := order.VarID(0); int(v) < d.Store.NumVariables(); v++ {
		v := v
		if d.Config.MinLitsPerVar < 0 && d.Store.Domain(v).Size() > maxPrecreate {
			d.warnf("variable %d spans %d values, skipping full order-literal precreation", v, d.Store.Domain(v).Size())
			continue
		}
		d.Store.CreateOrderLiterals(v, d.Config.MinLitsPerVar, init.NewLit, func(k int64, l z.Lit) {
			if d.Config.ExplicitBinaryOrderClauses && d.Config.MinLitsPerVar < 0 {
				return
			}
			init.AddWatch(l)
			init.AddWatch(l.Not())
		})
	}
}

// registerExistingOrderLits sweeps every materialized order literal
// into the reverse index; the front-end creates some directly on the
// store (equality scaffolding) without passing through the driver's
// literal source.
func (d *Driver) registerExistingOrderLits() {
	for v := order.VarID(0); int(v) < d.Store.NumVariables(); v++ {
		v := v
		d.Store.AscendOrderLiterals(v, func(k int64, l z.Lit) bool {
			d.registerOrderLit(v, k, l)
			return true
		})
	}
}

// unfoldStatic compiles c into plain clauses through init, covering
// both reification directions.
func (d *Driver) unfoldStatic(init PropagateInit, c constraint.Linear) {
	src := litSource{d: d, newLit: init.NewLit, watch: nil}
	emit := func(cl []z.Lit) { init.AddClause(cl...) }
	if c.Dir == constraint.FWD || c.Dir == constraint.EQ {
		translate.Unfold(c, d.Store, src, emit)
	}
	if c.Dir == constraint.BWD || c.Dir == constraint.EQ {
		translate.Unfold(c.Negate(), d.Store, src, emit)
	}
}

// watchConstraint registers the watches a lazily propagated
// constraint needs: both polarities of its reification literal, and
// both polarities of every order literal its variables have
// materialized so far (later ones are watched at creation).
func (d *Driver) watchConstraint(init PropagateInit, c constraint.Linear, idx int) {
	init.AddWatch(c.Literal)
	init.AddWatch(c.Literal.Not())
	d.reifWatch[c.Literal] = append(d.reifWatch[c.Literal], idx)
	d.reifWatch[c.Literal.Not()] = append(d.reifWatch[c.Literal.Not()], idx)
	for _, t := range c.Terms {
		if d.Config.ExplicitBinaryOrderClauses && d.Store.FullyCovered(t.Var) {
			continue
		}
		d.Store.AscendOrderLiterals(t.Var, func(k int64, l z.Lit) bool {
			init.AddWatch(l)
			init.AddWatch(l.Not())
			return true
		})
	}
}

// emitOrderClauses pins every materialized order literal to the
// root-narrowed domain (units outside the current bounds) and chains
// consecutive in-range literals with the binary monotonicity clause
// le(v,k) -> le(v,k') for k < k'.
func (d *Driver) emitOrderClauses(init PropagateInit) {
	for v := order.VarID(0); int(v) < d.Store.NumVariables(); v++ {
		dom := d.Store.Domain(v)
		var prev z.Lit
		havePrev := false
		d.Store.AscendOrderLiterals(v, func(k int64, l z.Lit) bool {
			switch {
			case k < dom.Lower():
				init.AddClause(l.Not())
				d.Stats.NumOrderClauses++
			case k >= dom.Upper():
				init.AddClause(l)
				d.Stats.NumOrderClauses++
			default:
				if havePrev {
					init.AddClause(prev.Not(), l)
					d.Stats.NumOrderClauses++
				}
				prev, havePrev = l, true
			}
			return true
		})
	}
}

// Propagate applies every newly assigned literal in changes to the
// matching variable's domain or constraint queue, then drains the
// queue, handing derived clauses to ctrl. A conflict is reported to
// the host as a falsified clause, never as a Go error.
func (d *Driver) Propagate(ctrl PropagateControl, changes []z.Lit) error {
	timer := StartTimer(&d.Stats.TimePropagate)
	defer timer.Stop()

	if lvl := ctrl.Level(); lvl > d.hostSide {
		for d.Store.Level() < lvl {
			d.Store.PushLevel()
		}
		d.hostSide = lvl
	}
	src := litSource{d: d, newLit: ctrl.NewLit, watch: ctrl.AddWatch}

	for _, l := range changes {
		for _, idx := range d.reifWatch[l] {
			d.Storage.Queue(idx)
		}
		for _, info := range d.litInfo[l] {
			dom := d.Store.Domain(info.v)
			prevLower, prevUpper := dom.Lower(), dom.Upper()
			var ok bool
			if info.isLE {
				ok = d.Store.IntersectLE(info.v, info.k)
				d.Storage.NotifyUpperChanged(info.v)
			} else {
				ok = d.Store.IntersectGE(info.v, info.k)
				d.Storage.NotifyLowerChanged(info.v)
			}
			if !ok {
				d.conflict(ctrl, d.boundConflictClause(src, l, info, prevLower, prevUpper))
				return nil
			}
		}
	}

	assign := func(l z.Lit) (bool, bool) { return ctrl.Assignment(l) }
	for {
		idx, ok := d.Storage.PopConstraint()
		if !ok {
			break
		}
		c := d.Storage.Constraint(idx)
		derivations, conflict := d.prop.Propagate(c, d.Store, assign, src)
		if conflict {
			d.conflict(ctrl, derivations[0].Reason)
			return nil
		}
		for _, dv := range derivations {
			d.Stats.NumDerivations++
			if d.Config.LearnClauses {
				ctrl.AddClause(dv.Reason...)
			} else {
				// keep the justification private; the host asks for it
				// through Reason when it analyzes a conflict involving
				// the asserted literal.
				d.reasons[dv.Lit] = dv.Reason
			}
			if !dv.HasBound {
				continue
			}
			var ok bool
			if dv.IsUpper {
				ok = d.Store.IntersectLE(dv.Var, dv.Bound)
				d.Storage.NotifyUpperChanged(dv.Var)
			} else {
				ok = d.Store.IntersectGE(dv.Var, dv.Bound)
				d.Storage.NotifyLowerChanged(dv.Var)
			}
			if !ok {
				// the derivation empties the restrictor: its reason
				// clause together with the opposite bound's trail
				// assignment is the conflict the host resolves.
				d.Stats.NumConflicts++
				d.Storage.Clear()
				return nil
			}
		}
	}
	return nil
}

func (d *Driver) conflict(ctrl PropagateControl, clause []z.Lit) {
	d.Stats.NumConflicts++
	d.Storage.Clear()
	ctrl.AddClause(clause...)
}

// boundConflictClause justifies why assigning l emptied info's
// domain: the new bound contradicts the opposite endpoint's bound as
// it stood before the failed restriction, so the clause negates both.
func (d *Driver) boundConflictClause(src litSource, l z.Lit, info boundLit, prevLower, prevUpper int64) []z.Lit {
	base := d.Store.BaseDomain(info.v)
	clause := []z.Lit{l.Not()}
	if info.isLE {
		// conflicts with v >= lower: add its negation "v <= lower-1".
		if prev, ok := base.FloorValue(prevLower - 1); ok {
			clause = append(clause, src.LE(info.v, prev))
		}
	} else {
		// conflicts with v <= upper.
		if canon, ok := base.FloorValue(prevUpper); ok && canon < base.Upper() {
			clause = append(clause, src.LE(info.v, canon).Not())
		}
	}
	return clause
}

// Check is invoked on total Boolean assignments: if some variable's
// restrictor still spans more than one value, a fresh order literal
// at its midpoint is materialized and watched, forcing the host to
// branch on it; once every variable is a singleton the assignment
// decodes to an integer model.
func (d *Driver) Check(ctrl PropagateControl) error {
	timer := StartTimer(&d.Stats.TimeCheck)
	defer timer.Stop()

	var widest order.VarID
	span := int64(1)
	for v := order.VarID(0); int(v) < d.Store.NumVariables(); v++ {
		if s := d.Store.Domain(v).Size(); s > span {
			widest, span = v, s
		}
	}
	if span <= 1 {
		return nil
	}
	dom := d.Store.Domain(widest)
	mid := dom.At((dom.Size() - 1) / 2).Value()
	canon, ok := d.Store.CanonicalLE(widest, mid)
	if !ok {
		return theoryerr.New(theoryerr.KindInvariant, "driver", "Check", "midpoint below the base domain")
	}
	src := litSource{d: d, newLit: ctrl.NewLit, watch: ctrl.AddWatch}
	src.LE(widest, canon)
	return nil
}

// Reason returns the private justification recorded for a literal the
// theory asserted while learn_clauses was off, or nil when the
// literal was never asserted this step.
func (d *Driver) Reason(l z.Lit) []z.Lit { return d.reasons[l] }

// Undo rewinds the variable store to level and drops pending queue
// work and the private reasons of the abandoned branch; it never
// emits clauses.
func (d *Driver) Undo(ctrl PropagateControl, level int) {
	timer := StartTimer(&d.Stats.TimeUndo)
	defer timer.Stop()
	for d.Store.Level() > level {
		d.Store.PopLevel()
	}
	d.hostSide = level
	d.Storage.Clear()
	for l := range d.reasons {
		delete(d.reasons, l)
	}
}
