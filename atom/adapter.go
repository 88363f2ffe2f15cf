package atom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/constraint"
	"github.com/xDarkicex/fdprop/driver"
	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theoryerr"
	"github.com/xDarkicex/fdprop/translate"
)

// Adapter is the C8 front-end: it owns the symbol table mapping
// ground-program variable names to order.VarID and turns parsed theory
// atoms into the driver's constraints, domain restrictions, distinct
// encodings and minimize objectives. It mirrors clingcon's
// TheoryParser, minus the grounder: this module receives already
// ground atom text (one sum/dom/distinct/minimize/show per call) the
// way TheoryParser::readAtomOccurrences receives already-ground
// theory-atom occurrences.
type Adapter struct {
	Driver *driver.Driver
	Shows  []ShowSelector

	vars           map[string]order.VarID
	names          []string // index = VarID, for Show resolution and model printing
	minimizeTuples map[string]bool
	errs           theoryerr.Collector
}

// NewAdapter returns an adapter wired onto d.
func NewAdapter(d *driver.Driver) *Adapter {
	return &Adapter{Driver: d, vars: make(map[string]order.VarID)}
}

// Errors returns the accumulated model-input errors, or nil if every
// atom loaded cleanly. Per spec.md §7 these surface to the user before
// solving begins; the caller must check this before calling Driver.Init.
func (a *Adapter) Errors() error { return a.errs.Err() }

// VarID resolves name to a variable, creating one with the full safe
// range domain on first use (§7's "unrestricted bound" default,
// narrowed later by any &dom{} atom naming it).
func (a *Adapter) VarID(name string) order.VarID {
	if id, ok := a.vars[name]; ok {
		return id
	}
	id := a.Driver.CreateVariable(order.Full())
	a.vars[name] = id
	a.names = append(a.names, name)
	return id
}

// Name returns the ground-program name of v, or "" if v was never
// named through this adapter.
func (a *Adapter) Name(v order.VarID) string {
	if int(v) >= len(a.names) {
		return ""
	}
	return a.names[v]
}

// Load parses src as one theory atom and applies it under the given
// reification literal and direction (pass the host's true literal and
// constraint.FWD for an unconditional ground fact). init is required
// because sum/distinct/minimize atoms may need fresh literals and
// clauses at adapter time, mirroring how clingcon's theory parser runs
// inside PropagateInit rather than before it.
func (a *Adapter) Load(src string, lit z.Lit, dir constraint.Direction, init driver.PropagateInit) error {
	parsed, err := ParseAtom(src)
	if err != nil {
		a.errs.Add(err)
		return err
	}
	switch v := parsed.(type) {
	case *SumAtom:
		return a.applySum(v, lit, dir, init)
	case *DomAtom:
		return a.applyDom(v)
	case *DistinctAtom:
		return a.applyDistinct(v, init)
	case *MinimizeAtom:
		return a.applyMinimize(v, init)
	case *ShowAtom:
		a.Shows = append(a.Shows, v.Selectors...)
		return nil
	default:
		err := theoryerr.New(theoryerr.KindModelInput, "atom", "Load", "unrecognized atom AST node")
		a.errs.Add(err)
		return err
	}
}

func (a *Adapter) split(terms []Term) (views []order.View, constSum int64) {
	for _, t := range terms {
		if t.Var == "" {
			constSum += t.Coeff
			continue
		}
		views = append(views, order.View{Var: a.VarID(t.Var), A: t.Coeff})
	}
	return views, constSum
}

func negateViews(views []order.View) []order.View {
	out := make([]order.View, len(views))
	for i, v := range views {
		out[i] = v.Reversed()
	}
	return out
}

// leForm returns the term list and bound for "Lhs <= Rhs".
func leForm(lhsViews, rhsViews []order.View, lhsConst, rhsConst int64) ([]order.View, int64) {
	terms := append(append([]order.View{}, lhsViews...), negateViews(rhsViews)...)
	return terms, rhsConst - lhsConst
}

// geForm returns the term list and bound for "Lhs >= Rhs" expressed as
// "-Lhs <= -Rhs".
func geForm(lhsViews, rhsViews []order.View, lhsConst, rhsConst int64) ([]order.View, int64) {
	terms := append(negateViews(lhsViews), rhsViews...)
	return terms, lhsConst - rhsConst
}

func (a *Adapter) applySum(s *SumAtom, lit z.Lit, dir constraint.Direction, init driver.PropagateInit) error {
	lhsViews, lhsConst := a.split(s.Lhs)
	var rhsViews []order.View
	rhsConst := s.RhsConst
	if s.Rhs != nil {
		rhsViews, rhsConst = a.split(s.Rhs)
	}

	addLinear := func(terms []order.View, bound int64, l z.Lit, d constraint.Direction) error {
		_, err := a.Driver.AddConstraint(terms, bound, l, d)
		if err != nil {
			a.errs.Add(err)
		}
		return err
	}

	switch s.Rel {
	case RelLe:
		terms, bound := leForm(lhsViews, rhsViews, lhsConst, rhsConst)
		return addLinear(terms, bound, lit, dir)
	case RelGe:
		terms, bound := geForm(lhsViews, rhsViews, lhsConst, rhsConst)
		return addLinear(terms, bound, lit, dir)
	case RelLt:
		terms, bound := leForm(lhsViews, rhsViews, lhsConst, rhsConst)
		return addLinear(terms, bound-1, lit, dir)
	case RelGt:
		terms, bound := geForm(lhsViews, rhsViews, lhsConst, rhsConst)
		return addLinear(terms, bound-1, lit, dir)
	case RelEq:
		leTerms, leBound := leForm(lhsViews, rhsViews, lhsConst, rhsConst)
		geTerms, geBound := geForm(lhsViews, rhsViews, lhsConst, rhsConst)
		if dir == constraint.FWD {
			// lit true forces both halves; no auxiliary literals
			// needed since neither half need imply lit back.
			if err := addLinear(leTerms, leBound, lit, constraint.FWD); err != nil {
				return err
			}
			return addLinear(geTerms, geBound, lit, constraint.FWD)
		}
		// BWD/EQ: lit becomes true only when BOTH halves hold, which
		// needs the conjunction built from two auxiliary reified
		// literals rather than two independently-reified halves.
		b1 := init.NewLit()
		b2 := init.NewLit()
		if err := addLinear(leTerms, leBound, b1, constraint.EQ); err != nil {
			return err
		}
		if err := addLinear(geTerms, geBound, b2, constraint.EQ); err != nil {
			return err
		}
		init.AddClause(b1.Not(), b2.Not(), lit) // b1 & b2 -> lit
		if dir == constraint.EQ {
			init.AddClause(lit.Not(), b1) // lit -> b1
			init.AddClause(lit.Not(), b2) // lit -> b2
		}
		return nil
	case RelNe:
		// Lhs != Rhs  <=>  (Lhs <= Rhs-1) OR (Lhs >= Rhs+1), the
		// complement of RelEq; same auxiliary-literal shape with the
		// clause polarities flipped.
		leTerms, leBound := leForm(lhsViews, rhsViews, lhsConst, rhsConst)
		geTerms, geBound := geForm(lhsViews, rhsViews, lhsConst, rhsConst)
		b1 := init.NewLit() // Lhs <= Rhs-1
		b2 := init.NewLit() // Lhs >= Rhs+1
		if err := addLinear(leTerms, leBound-1, b1, constraint.EQ); err != nil {
			return err
		}
		if err := addLinear(geTerms, geBound-1, b2, constraint.EQ); err != nil {
			return err
		}
		if dir == constraint.FWD || dir == constraint.EQ {
			init.AddClause(lit.Not(), b1, b2) // lit -> b1 | b2
		}
		if dir == constraint.BWD || dir == constraint.EQ {
			init.AddClause(b1.Not(), lit) // b1 -> lit
			init.AddClause(b2.Not(), lit) // b2 -> lit
		}
		return nil
	default:
		err := theoryerr.New(theoryerr.KindModelInput, "atom", "applySum", "unknown relation")
		a.errs.Add(err)
		return err
	}
}

func (a *Adapter) applyDom(d *DomAtom) error {
	v := a.VarID(d.Var)
	nd := order.NewDomain(d.Elements[0].Lo, d.Elements[0].Hi)
	for _, e := range d.Elements[1:] {
		nd.Unify(e.Lo, e.Hi)
	}
	if !a.Driver.Store.ApplyDomain(v, nd) {
		err := theoryerr.New(theoryerr.KindConflict, "atom", "applyDom", "dom atom leaves an empty domain for "+d.Var)
		a.errs.Add(err)
		return err
	}
	return nil
}

func (a *Adapter) applyDistinct(d *DistinctAtom, init driver.PropagateInit) error {
	vars := make([]order.VarID, 0, len(d.Terms))
	for _, t := range d.Terms {
		if t.Var == "" {
			continue
		}
		vars = append(vars, a.VarID(t.Var))
	}
	dist := translate.Distinct{Vars: vars}
	emit := func(cl []z.Lit) { init.AddClause(cl...) }
	if a.Driver.Config.DistinctToCard {
		translate.EncodeCardinality(dist, a.Driver.Store, init.NewLit, emit)
	} else {
		translate.EncodePairwise(dist, a.Driver.Store, init.NewLit, emit)
	}
	return nil
}

func (a *Adapter) applyMinimize(m *MinimizeAtom, init driver.PropagateInit) error {
	for _, t := range m.Terms {
		key := fmt.Sprintf("%d@%s", t.Prio, t.TupleID)
		if t.TupleID != "" && a.minimizeTuples[key] {
			err := theoryerr.New(theoryerr.KindModelInput, "atom", "applyMinimize", "duplicate minimize tuple "+t.TupleID)
			a.errs.Add(err)
			return err
		}
		if a.minimizeTuples == nil {
			a.minimizeTuples = make(map[string]bool)
		}
		a.minimizeTuples[key] = true
	}
	host, ok := init.(driver.MinimizeHost)
	if !ok {
		// Minimize is forwarded to the host's optimization interface
		// once at grounding time; a host that does not implement one
		// simply never receives objectives.
		return nil
	}
	for _, t := range m.Terms {
		if t.Term.Var == "" {
			continue
		}
		v := a.VarID(t.Term.Var)
		dom := a.Driver.Store.Domain(v)
		for it := dom.Begin(); !it.Done(); it = it.Next() {
			val := it.Value()
			lit := a.Driver.Store.EqualLiteral(v, val, init.NewLit, func(eq, le, ge z.Lit) {
				init.AddClause(eq.Not(), le)
				init.AddClause(eq.Not(), ge)
				init.AddClause(le.Not(), ge.Not(), eq)
			})
			host.AddMinimizeLiteral(lit, val*t.Term.Coeff, int(t.Prio))
		}
	}
	return nil
}

// ResolveShows expands every &show{} selector into concrete variable
// ids: a bare name resolves directly; a "sym/arity" selector matches
// every named variable whose ground-program name has that functor and
// argument count (e.g. "packed/2" matches "packed(1,1)").
func (a *Adapter) ResolveShows() []order.VarID {
	var out []order.VarID
	seen := make(map[order.VarID]bool)
	add := func(v order.VarID) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, sel := range a.Shows {
		if !sel.IsArity {
			if id, ok := a.vars[sel.VarName]; ok {
				add(id)
			}
			continue
		}
		for name, id := range a.vars {
			sym, arity := functorArity(name)
			if sym == sel.Sym && arity == sel.Arity {
				add(id)
			}
		}
	}
	return out
}

// functorArity splits a ground term like "packed(1,1)" into its
// functor name and top-level argument count ("packed", 2); a name
// with no parentheses has arity 0.
func functorArity(name string) (string, int) {
	open := strings.IndexByte(name, '(')
	if open < 0 || !strings.HasSuffix(name, ")") {
		return name, 0
	}
	sym := name[:open]
	inner := name[open+1 : len(name)-1]
	if inner == "" {
		return sym, 0
	}
	depth := 0
	arity := 1
	for _, c := range inner {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				arity++
			}
		}
	}
	return sym, arity
}

// FormatValue is a small helper for the CLI's model printer: it
// renders a decoded integer value the way ground terms are usually
// shown, falling back to plain decimal.
func FormatValue(x int64) string { return strconv.FormatInt(x, 10) }
