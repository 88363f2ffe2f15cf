// Package theory implements the variable storage (C2): creation of
// finite-domain variables and views over them, the order-literal map
// that associates a host Boolean literal with each "v <= k" truth
// value, and the trail of domain restrictions that must be undone in
// lock-step with the host solver's backtracking.
package theory

import (
	"github.com/go-air/gini/z"
	"github.com/google/btree"

	"github.com/xDarkicex/fdprop/order"
)

// Store owns every finite-domain variable's base and current domain
// plus the order-literal map and restriction trail needed to keep the
// theory consistent with the host's decision trail. It is not safe
// for concurrent use; a Driver serializes all access from the host's
// single propagation thread (see §5).
type Store struct {
	domains []*order.Domain // index = VarID, current domain
	base    []*order.Domain // domain at variable creation
	lits    []*orderLitMap  // index = VarID
	eqLits  []map[int64]z.Lit
	trail   []trailEntry
	levelAt []int // level -> index into trail marking that level's start
}

type trailEntry struct {
	v    order.VarID
	prev *order.Domain
}

// NewStore returns an empty variable store.
func NewStore() *Store {
	return &Store{levelAt: []int{0}}
}

// CreateVariable allocates a new finite-domain variable with the
// given initial domain and returns its id, mirroring clingcon's
// VariableCreator::createVariable.
func (s *Store) CreateVariable(dom *order.Domain) order.VarID {
	id := order.VarID(len(s.domains))
	s.domains = append(s.domains, dom)
	s.base = append(s.base, dom.Clone())
	s.lits = append(s.lits, newOrderLitMap())
	s.eqLits = append(s.eqLits, nil)
	return id
}

// CreateView allocates a fresh variable with the given domain and
// returns the identity view over it.
func (s *Store) CreateView(dom *order.Domain) order.View {
	return order.Identity(s.CreateVariable(dom))
}

// Domain returns the variable's current domain. The caller must treat
// the result as read-only; restriction goes through Intersect*.
func (s *Store) Domain(v order.VarID) *order.Domain { return s.domains[v] }

// BaseDomain returns the variable's domain as declared at creation
// time (after any level-0 &dom{} intersections applied through
// ApplyDomain). Order-literal keys are canonicalized against it.
func (s *Store) BaseDomain(v order.VarID) *order.Domain { return s.base[v] }

// NumVariables reports how many variables have been created.
func (s *Store) NumVariables() int { return len(s.domains) }

// Level returns the current decision level, one less than the number
// of recorded level starts.
func (s *Store) Level() int { return len(s.levelAt) - 1 }

// PushLevel opens a new decision level; restrictions recorded after
// this call are undone together by a matching PopLevel.
func (s *Store) PushLevel() {
	s.levelAt = append(s.levelAt, len(s.trail))
}

// PopLevel undoes every restriction recorded since the last PushLevel,
// mirroring DecisionTrailImpl.Backtrack's level-indexed rewind but
// operating on whole domains instead of single Boolean assignments.
func (s *Store) PopLevel() {
	if len(s.levelAt) <= 1 {
		return
	}
	start := s.levelAt[len(s.levelAt)-1]
	for i := len(s.trail) - 1; i >= start; i-- {
		e := s.trail[i]
		s.domains[e.v] = e.prev
	}
	s.trail = s.trail[:start]
	s.levelAt = s.levelAt[:len(s.levelAt)-1]
}

// Restrict replaces v's domain with nd, recording the previous domain
// on the trail at the current level so PopLevel can restore it. It
// returns false if nd is empty (a conflict).
func (s *Store) Restrict(v order.VarID, nd *order.Domain) bool {
	s.trail = append(s.trail, trailEntry{v: v, prev: s.domains[v]})
	s.domains[v] = nd
	return !nd.Empty()
}

// IntersectLE restricts v's domain to values <= k.
func (s *Store) IntersectLE(v order.VarID, k int64) bool {
	if s.domains[v].Upper() <= k {
		return true
	}
	nd := s.domains[v].Clone()
	nd.Intersect(order.SafeMin, k)
	return s.Restrict(v, nd)
}

// IntersectGE restricts v's domain to values >= k.
func (s *Store) IntersectGE(v order.VarID, k int64) bool {
	if s.domains[v].Lower() >= k {
		return true
	}
	nd := s.domains[v].Clone()
	nd.Intersect(k, order.SafeMax)
	return s.Restrict(v, nd)
}

// IntersectView restricts the underlying variable of view so that the
// view's value lies in dom: each of dom's ranges is translated by -C
// and integer-divided by A (endpoints swapped for reversed views) into
// the interval of underlying values whose image falls inside it.
// Returns false on an empty result.
func (s *Store) IntersectView(view order.View, dom *order.Domain) bool {
	preimage := &order.Domain{}
	for _, r := range dom.Ranges() {
		var lo, hi int64
		if view.A > 0 {
			lo = order.CeilDiv(r.Lo-view.C, view.A)
			hi = order.FloorDiv(r.Hi-view.C, view.A)
		} else {
			lo = order.CeilDiv(r.Hi-view.C, view.A)
			hi = order.FloorDiv(r.Lo-view.C, view.A)
		}
		preimage.Unify(lo, hi)
	}
	nd := s.domains[view.Var].Clone()
	nd.IntersectDomain(preimage)
	return s.Restrict(view.Var, nd)
}

// ApplyDomain intersects v's declared domain with dom before solving
// starts: both the base and the current domain narrow, since &dom{}
// atoms refine what the variable may ever hold, not a search-time
// restriction.
func (s *Store) ApplyDomain(v order.VarID, dom *order.Domain) bool {
	if !s.base[v].IntersectDomain(dom) {
		s.domains[v] = s.base[v].Clone()
		return false
	}
	s.domains[v] = s.base[v].Clone()
	return true
}

// Restrictor returns an iterator over the values the view ranges over
// given v's base domain, in view order.
func (s *Store) Restrictor(view order.View) order.ViewIterator {
	return view.Values(s.base[view.Var])
}

// CurrentRestrictor is Restrictor truncated to the current domain.
func (s *Store) CurrentRestrictor(view order.View) order.ViewIterator {
	return view.Values(s.domains[view.Var])
}

// CanonicalLE snaps k to the largest base-domain value <= k, the
// canonical key every order literal of v is stored under. ok is false
// when k lies below the whole domain ("v <= k" is unconditionally
// false and has no literal).
func (s *Store) CanonicalLE(v order.VarID, k int64) (int64, bool) {
	return s.base[v].FloorValue(k)
}

// OrderLiteral returns the host literal representing "v <= k" with k
// already canonical (see CanonicalLE), creating it through newLit when
// absent. The boolean result reports whether it already existed; a
// fresh literal still has to be related to its neighbours by the
// binary order clauses the driver emits.
func (s *Store) OrderLiteral(v order.VarID, k int64, newLit func() z.Lit) (z.Lit, bool) {
	return s.lits[v].getOrCreate(k, newLit)
}

// ExistingOrderLiteral looks up "v <= k" without creating it.
func (s *Store) ExistingOrderLiteral(v order.VarID, k int64) (z.Lit, bool) {
	return s.lits[v].get(k)
}

// SetLELiteral binds lit to the position "v <= k". If a different
// literal is already bound there the two are made equivalent through
// emit (two binary clauses), matching storage.cpp's setLELit.
func (s *Store) SetLELiteral(v order.VarID, k int64, lit z.Lit, emit func([]z.Lit)) {
	existing, ok := s.lits[v].get(k)
	if ok {
		if existing != lit {
			emit([]z.Lit{existing.Not(), lit})
			emit([]z.Lit{lit.Not(), existing})
		}
		return
	}
	s.lits[v].put(k, lit)
}

// NumOrderLiterals reports how many order literals exist for v.
func (s *Store) NumOrderLiterals(v order.VarID) int { return s.lits[v].len() }

// FullyCovered reports whether v has an order literal for every
// current-domain value below the upper bound, i.e. the precreated
// literals plus binary order clauses fully determine v's bounds
// without the driver watching anything.
func (s *Store) FullyCovered(v order.VarID) bool {
	return int64(s.lits[v].len()) >= s.domains[v].Size()-1
}

// AscendOrderLiterals calls fn for every (bound, literal) pair of v in
// increasing bound order, stopping early if fn returns false.
func (s *Store) AscendOrderLiterals(v order.VarID, fn func(k int64, l z.Lit) bool) {
	s.lits[v].ascend(fn)
}

// CreateOrderLiterals precreates order literals for v: all of them
// (one per current-domain value except the last, whose literal is the
// solver's unconditional truth) when n < 0, otherwise at least n
// evenly spaced over the current domain. Each freshly created literal
// is reported through created so the caller can register watches and
// reverse lookups.
func (s *Store) CreateOrderLiterals(v order.VarID, n int, newLit func() z.Lit, created func(k int64, l z.Lit)) {
	dom := s.domains[v]
	size := dom.Size()
	if size <= 1 {
		return
	}
	count := int64(n)
	if n < 0 || count > size-1 {
		count = size - 1
	}
	for j := int64(1); j <= count; j++ {
		idx := j*size/(count+1) - 1
		if idx < 0 {
			idx = 0
		}
		if idx > size-2 {
			idx = size - 2
		}
		k := dom.At(idx).Value()
		if _, ok := s.lits[v].get(k); ok {
			continue
		}
		l, _ := s.lits[v].getOrCreate(k, newLit)
		created(k, l)
	}
}

// LitKind classifies the result of resolving a view bound to a host
// literal.
type LitKind int

const (
	// LitNormal: the returned literal carries the bound.
	LitNormal LitKind = iota
	// LitAlwaysTrue: the bound is entailed by the base domain alone.
	LitAlwaysTrue
	// LitAlwaysFalse: the bound contradicts the base domain.
	LitAlwaysFalse
)

// ResolveViewLE maps "view <= w" onto the canonical order-literal
// position carrying it. A reversed view (negative coefficient) routes
// through the mirrored operation: the position belongs to the
// complementary bound and neg reports that the literal must be
// negated — the "duality via reversed views" collapse of the two
// bound code paths into one.
func (s *Store) ResolveViewLE(view order.View, w int64) (k int64, neg bool, kind LitKind) {
	dom := s.base[view.Var]
	if view.A > 0 {
		b := order.FloorDiv(w-view.C, view.A)
		if b >= dom.Upper() {
			return 0, false, LitAlwaysTrue
		}
		canon, ok := dom.FloorValue(b)
		if !ok {
			return 0, false, LitAlwaysFalse
		}
		return canon, false, LitNormal
	}
	// view <= w with A < 0 is v >= ceil((w-C)/A), i.e. the negation
	// of "v <= that-1".
	b := order.CeilDiv(w-view.C, view.A)
	if b <= dom.Lower() {
		return 0, false, LitAlwaysTrue
	}
	if b > dom.Upper() {
		return 0, false, LitAlwaysFalse
	}
	canon, _ := dom.FloorValue(b - 1)
	return canon, true, LitNormal
}

// ViewLELiteral resolves "view <= w" to a host literal, creating the
// underlying order literal through newLit when absent.
func (s *Store) ViewLELiteral(view order.View, w int64, newLit func() z.Lit) (z.Lit, LitKind) {
	k, neg, kind := s.ResolveViewLE(view, w)
	if kind != LitNormal {
		return z.LitNull, kind
	}
	l, _ := s.OrderLiteral(view.Var, k, newLit)
	if neg {
		return l.Not(), LitNormal
	}
	return l, LitNormal
}

// ViewGELiteral resolves "view >= w" by duality: it is the negation
// of "view <= w-1".
func (s *Store) ViewGELiteral(view order.View, w int64, newLit func() z.Lit) (z.Lit, LitKind) {
	l, kind := s.ViewLELiteral(view, w-1, newLit)
	switch kind {
	case LitAlwaysTrue:
		return z.LitNull, LitAlwaysFalse
	case LitAlwaysFalse:
		return z.LitNull, LitAlwaysTrue
	default:
		return l.Not(), LitNormal
	}
}

// orderLitMap is the dual backing described in the Design Notes: a
// hash map for point lookups and an ordered B-tree for in-order
// iteration over the filled bounds. Callers never see which side
// answers; get/getOrCreate/ascend behave as one capability.
type orderLitMap struct {
	byKey map[int64]z.Lit
	tree  *btree.BTreeG[idxLit]
}

type idxLit struct {
	k int64
	l z.Lit
}

func idxLitLess(a, b idxLit) bool { return a.k < b.k }

func newOrderLitMap() *orderLitMap {
	return &orderLitMap{
		byKey: make(map[int64]z.Lit),
		tree:  btree.NewG[idxLit](32, idxLitLess),
	}
}

func (m *orderLitMap) len() int { return len(m.byKey) }

func (m *orderLitMap) get(k int64) (z.Lit, bool) {
	l, ok := m.byKey[k]
	return l, ok
}

func (m *orderLitMap) put(k int64, l z.Lit) {
	m.byKey[k] = l
	m.tree.ReplaceOrInsert(idxLit{k: k, l: l})
}

func (m *orderLitMap) getOrCreate(k int64, newLit func() z.Lit) (z.Lit, bool) {
	if l, ok := m.byKey[k]; ok {
		return l, true
	}
	l := newLit()
	m.put(k, l)
	return l, false
}

func (m *orderLitMap) ascend(fn func(k int64, l z.Lit) bool) {
	m.tree.Ascend(func(item idxLit) bool {
		return fn(item.k, item.l)
	})
}
