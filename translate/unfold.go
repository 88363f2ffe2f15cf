// Package translate implements the static clausal unfolding of small
// constraints (C6): when enumerating a constraint's assignments stays
// within the configured budget, it is compiled once into clauses over
// order literals instead of being propagated lazily on every solver
// call, following the translator/dynamic-propagation split of
// translator.cpp.
package translate

import (
	"sort"

	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/constraint"
	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theory"
)

// EstimateCombinations returns the number of assignment prefixes a
// full unfolding of c would enumerate: the product of each term's
// domain size except the smallest, which the enumeration keeps last
// and never branches on. A result larger than the caller's budget
// means the constraint should stay lazily propagated. ok is false on
// overflow of the running product, which itself means "too big."
func EstimateCombinations(c constraint.Linear, s *theory.Store) (n int64, ok bool) {
	sizes := make([]int64, 0, len(c.Terms))
	skip := -1
	for i, t := range c.Terms {
		size := s.Domain(t.Var).Size()
		if size == 0 {
			return 0, true
		}
		sizes = append(sizes, size)
		if skip < 0 || size < sizes[skip] {
			skip = i
		}
	}
	n = 1
	for i, size := range sizes {
		if i == skip {
			continue
		}
		next := n * size
		if next/size != n || next <= 0 {
			return 0, false
		}
		n = next
	}
	return n, true
}

// Unfold compiles the implication "c.Literal -> Σ terms <= Bound"
// into clauses over order literals: views are sorted with the
// smallest domain last, every value prefix over the other views is
// enumerated, and for each prefix the clause
//
//	-lit  OR  (view_j <= prev(val_j) for each prefix view)  OR  (last <= u)
//
// is emitted, where u is the largest value the remaining slack allows
// the last view. Prefix subtrees whose partial sum can no longer
// violate the constraint are pruned, and subtrees that violate it
// under every completion emit their clause early without descending.
// Callers wanting the converse direction unfold c.Negate() as well.
func Unfold(c constraint.Linear, s *theory.Store, lits constraint.LitSource, emit func([]z.Lit)) {
	n := len(c.Terms)
	if n == 0 {
		if 0 > c.Bound {
			emit([]z.Lit{c.Literal.Not()})
		}
		return
	}

	views := make([]order.View, n)
	copy(views, c.Terms)
	sort.SliceStable(views, func(i, j int) bool {
		return s.Domain(views[i].Var).Size() > s.Domain(views[j].Var).Size()
	})

	values := make([][]int64, n)
	sufMin := make([]int64, n+1)
	sufMax := make([]int64, n+1)
	for i, v := range views {
		for it := s.CurrentRestrictor(v); !it.Done(); it = it.Next() {
			values[i] = append(values[i], it.Value())
		}
		if len(values[i]) == 0 {
			// an empty domain is a conflict the driver reports
			// separately; there is nothing to enumerate.
			return
		}
	}
	for i := n - 1; i >= 0; i-- {
		sufMin[i] = sufMin[i+1] + values[i][0]
		sufMax[i] = sufMax[i+1] + values[i][len(values[i])-1]
	}

	// resolve appends the disjunct "view <= w" to clause, reporting
	// whether the clause stays meaningful (false: trivially true,
	// drop the whole clause).
	resolve := func(clause []z.Lit, view order.View, w int64) ([]z.Lit, bool) {
		k, neg, kind := s.ResolveViewLE(view, w)
		switch kind {
		case theory.LitAlwaysTrue:
			return clause, false
		case theory.LitAlwaysFalse:
			return clause, true
		}
		l := lits.LE(view.Var, k)
		if neg {
			l = l.Not()
		}
		return append(clause, l), true
	}

	prefix := make([]int64, 0, n-1)
	emitClause := func(sum int64, withLast bool) {
		clause := []z.Lit{c.Literal.Not()}
		ok := true
		for j, val := range prefix {
			clause, ok = resolve(clause, views[j], val-1)
			if !ok {
				return
			}
		}
		if withLast {
			clause, ok = resolve(clause, views[n-1], c.Bound-sum)
			if !ok {
				return
			}
		}
		emit(clause)
	}

	var walk func(i int, sum int64)
	walk = func(i int, sum int64) {
		if i == n-1 {
			emitClause(sum, true)
			return
		}
		for _, val := range values[i] {
			next := sum + val
			if next+sufMax[i+1] <= c.Bound {
				// every completion satisfies the inequality.
				continue
			}
			prefix = append(prefix, val)
			if next+sufMin[i+1] > c.Bound {
				// every completion violates it: the prefix alone is
				// the reason, no need to descend.
				emitClause(next, false)
			} else {
				walk(i+1, next)
			}
			prefix = prefix[:len(prefix)-1]
		}
	}
	walk(0, 0)
}
