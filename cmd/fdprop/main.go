// Command fdprop runs the reference end-to-end scenarios against a
// concrete github.com/go-air/gini instance, using package atom to
// parse ground theory-atom text into the core packages and package
// hostgini to bind the result onto the host solver. The theory
// front-end, grounder and application skeleton are out of scope for
// the core, so this command is a minimal stand-in for all three.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xDarkicex/fdprop/atom"
	"github.com/xDarkicex/fdprop/constraint"
	"github.com/xDarkicex/fdprop/driver"
	"github.com/xDarkicex/fdprop/hostgini"
	"github.com/xDarkicex/fdprop/order"
	"github.com/xDarkicex/fdprop/theory"
)

var log = logrus.New()

var (
	flagTranslate int
	flagMinLits   int
	flagPropStr   int
	flagDistinct  bool
	flagLearn     bool
	flagDomSize   int
)

func main() {
	root := &cobra.Command{
		Use:   "fdprop",
		Short: "runs the fdprop theory-bridge reference scenarios",
	}
	root.PersistentFlags().IntVar(&flagTranslate, "translate", -1, "translate budget (-1 = unfold all)")
	root.PersistentFlags().IntVar(&flagMinLits, "min-lits-per-var", -1, "precreated order literals per variable (-1 = all)")
	root.PersistentFlags().IntVar(&flagPropStr, "prop-strength", 3, "propagation strength (1-4)")
	root.PersistentFlags().BoolVar(&flagDistinct, "distinct-to-card", false, "encode distinct via cardinality instead of pairwise")
	root.PersistentFlags().BoolVar(&flagLearn, "learn-clauses", true, "emit derived clauses to the host")
	root.PersistentFlags().IntVar(&flagDomSize, "dom-size", -1, "per-call derivation cap (-1 = unrestricted)")

	scenarios := []struct {
		use, short string
		run        func(cfg theory.Config) (string, error)
	}{
		{"send-more-money", "SEND+MORE=MONEY cryptarithm", runSendMoreMoney},
		{"range", "0 < x < 3 over an unrestricted variable", runRange},
		{"distinct", "all permutations of three distinct variables", runDistinct},
		{"overflow", "8*x <= 2^33 over a 2^30 domain", runOverflow},
		{"packing", "3-bin packing, minimize bins used", runPacking},
		{"flowshop", "two-machine three-job flow shop", runFlowshop},
	}

	for _, sc := range scenarios {
		sc := sc
		root.AddCommand(&cobra.Command{
			Use:   sc.use,
			Short: sc.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := sc.run(config())
				if err != nil {
					return fmt.Errorf("%s: %w", sc.use, err)
				}
				fmt.Printf("%s: %s\n", sc.use, out)
				return nil
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "run every scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sc := range scenarios {
				out, err := sc.run(config())
				if err != nil {
					log.WithError(err).Warnf("%s failed", sc.use)
					continue
				}
				fmt.Printf("%s: %s\n", sc.use, out)
			}
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func config() theory.Config {
	return theory.NewConfig(
		theory.WithTranslateConstraints(flagTranslate),
		theory.WithMinLitsPerVar(flagMinLits),
		theory.WithPropStrength(flagPropStr),
		theory.WithDistinctToCard(flagDistinct),
		theory.WithLearnClauses(flagLearn),
		theory.WithDomSize(flagDomSize),
	)
}

// session bundles the plumbing every scenario needs: a driver over a
// fresh gini instance, the theory-atom adapter, and a literal that is
// unconditionally true (added as a unit clause before anything else),
// used as every unreified ground fact's controlling literal.
type session struct {
	d       *driver.Driver
	host    *hostgini.Adapter
	adapter *atom.Adapter
	trueLit z.Lit
}

func newSession(cfg theory.Config) *session {
	host := hostgini.New(gini.New())
	d := driver.New(cfg)
	d.SetLogger(log)
	a := atom.NewAdapter(d)
	trueLit := host.NewLit()
	host.AddClause(trueLit)
	return &session{d: d, host: host, adapter: a, trueLit: trueLit}
}

// fact loads src as an unconditional ground atom.
func (s *session) fact(src string) error {
	return s.adapter.Load(src, s.trueLit, constraint.FWD, s.host)
}

// init checks for model-input errors and compiles the loaded program
// into the host.
func (s *session) init() error {
	if err := s.adapter.Errors(); err != nil {
		return err
	}
	return s.d.Init(s.host)
}

// decode reads v's value out of the current model: the smallest
// order-literal bound the model satisfies, or the upper end when none
// is materialized below it.
func (s *session) decode(v order.VarID) int64 {
	val := s.d.Store.Domain(v).Upper()
	s.d.Store.AscendOrderLiterals(v, func(k int64, l z.Lit) bool {
		if s.host.ModelValue(l) {
			val = k
			return false
		}
		return true
	})
	return val
}

// model decodes every shown variable.
func (s *session) model() map[string]int64 {
	out := make(map[string]int64)
	for _, v := range s.adapter.ResolveShows() {
		out[s.adapter.Name(v)] = s.decode(v)
	}
	return out
}

// blockModel excludes the decoded model from further enumeration via
// the equality literals of every shown variable whose domain still
// spans a choice; variables already narrowed to a singleton carry no
// decidable literal and would not distinguish models anyway. An empty
// clause results when every shown variable is fixed — the single
// model. Must run after init so every referenced order literal is
// already chained.
func (s *session) blockModel() {
	var clause []z.Lit
	for _, v := range s.adapter.ResolveShows() {
		if s.d.Store.Domain(v).Size() <= 1 {
			continue
		}
		val := s.decode(v)
		eq := s.d.Store.EqualLiteral(v, val, s.host.NewLit, func(eq, le, ge z.Lit) {
			s.host.AddClause(eq.Not(), le)
			s.host.AddClause(eq.Not(), ge)
			s.host.AddClause(le.Not(), ge.Not(), eq)
		})
		clause = append(clause, eq.Not())
	}
	s.host.AddClause(clause...)
}

// enumerate counts models over the shown variables, up to limit.
func (s *session) enumerate(limit int) []map[string]int64 {
	var models []map[string]int64
	for len(models) < limit && s.host.Solve() {
		models = append(models, s.model())
		s.blockModel()
	}
	return models
}

func formatModel(m map[string]int64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

// runSendMoreMoney solves the cryptarithm column-wise with explicit
// carries, which keeps every equation within the unfolding budget:
//
//	d+e = y+10*c1, n+r+c1 = e+10*c2, e+o+c2 = n+10*c3,
//	s+m+c3 = o+10*m (the final carry is m itself).
func runSendMoreMoney(cfg theory.Config) (string, error) {
	s := newSession(cfg)
	for _, l := range []string{"s", "e", "n", "d", "m", "o", "r", "y"} {
		if err := s.fact(fmt.Sprintf("&dom{0..9}=%s", l)); err != nil {
			return "", err
		}
	}
	for _, c := range []string{"c1", "c2", "c3"} {
		if err := s.fact(fmt.Sprintf("&dom{0..1}=%s", c)); err != nil {
			return "", err
		}
	}
	facts := []string{
		"&distinct{s,e,n,d,m,o,r,y}",
		"&sum{s} >= 1",
		"&sum{m} >= 1",
		"&sum{d;e;-1*y;-10*c1} = 0",
		"&sum{n;r;c1;-1*e;-10*c2} = 0",
		"&sum{e;o;c2;-1*n;-10*c3} = 0",
		"&sum{s;m;c3;-1*o;-10*m} = 0",
		"&show{s,e,n,d,m,o,r,y}",
	}
	for _, f := range facts {
		if err := s.fact(f); err != nil {
			return "", err
		}
	}
	if err := s.init(); err != nil {
		return "", err
	}
	if !s.host.Solve() {
		return "UNSAT", nil
	}
	return "SAT " + formatModel(s.model()), nil
}

func runRange(cfg theory.Config) (string, error) {
	s := newSession(cfg)
	facts := []string{"&sum{x} > 0", "&sum{x} < 3", "&show{x}"}
	for _, f := range facts {
		if err := s.fact(f); err != nil {
			return "", err
		}
	}
	if err := s.init(); err != nil {
		return "", err
	}
	models := s.enumerate(16)
	return fmt.Sprintf("%d models", len(models)), nil
}

func runDistinct(cfg theory.Config) (string, error) {
	cfg.DistinctToCard = true
	s := newSession(cfg)
	for _, v := range []string{"x", "y", "z"} {
		if err := s.fact(fmt.Sprintf("&dom{1..3}=%s", v)); err != nil {
			return "", err
		}
	}
	for _, f := range []string{"&distinct{x,y,z}", "&show{x,y,z}"} {
		if err := s.fact(f); err != nil {
			return "", err
		}
	}
	if err := s.init(); err != nil {
		return "", err
	}
	models := s.enumerate(16)
	return fmt.Sprintf("%d models", len(models)), nil
}

func runOverflow(cfg theory.Config) (string, error) {
	s := newSession(cfg)
	if err := s.fact("&dom{0..1073741824}=x"); err != nil { // 0..2^30
		return "", err
	}
	if err := s.fact("&sum{8*x} <= 8589934592"); err != nil { // 2^33
		return "", err
	}
	err := s.init()
	if err != nil {
		return "UNSAT (overflow)", nil
	}
	if !s.host.Solve() {
		return "UNSAT", nil
	}
	return "SAT", nil
}

// runPacking places five items (sizes 3,5,4,3,2, numbered from one)
// into three bins (capacities 10,7,5, numbered from zero) and
// minimizes the number of bins used via the host's cardinality
// sorter. With the optimum enforced, forcing items 1 and 4 into bin 1
// leaves the remaining load too large for any single other bin.
func runPacking(cfg theory.Config) (string, error) {
	s, used, err := buildPacking(cfg)
	if err != nil {
		return "", err
	}
	best, cs, sat := s.host.Minimize(used)
	if !sat {
		return "UNSAT", nil
	}
	s.host.Assume(cs.Leq(best))
	if !s.host.Solve() {
		return "", fmt.Errorf("optimum %d no longer reproducible", best)
	}
	out := fmt.Sprintf("optimum %d bins, %s", best, formatModel(s.model()))

	s.host.Assume(cs.Leq(best))
	s.host.Assume(s.packedLit(1, 1), s.packedLit(4, 1))
	if s.host.Solve() {
		out += "; assumption check: SAT"
	} else {
		out += "; assumption check: UNSAT"
	}
	return out, nil
}

type packingSession struct {
	*session
	eq map[[2]int]z.Lit
}

func (p *packingSession) packedLit(item, bin int) z.Lit { return p.eq[[2]int{item, bin}] }

// buildPacking loads the packing program and returns the bin-used
// objective literals.
func buildPacking(cfg theory.Config) (*packingSession, []z.Lit, error) {
	s := &packingSession{session: newSession(cfg), eq: make(map[[2]int]z.Lit)}
	caps := []int{10, 7, 5}
	sizes := []int{3, 5, 4, 3, 2}
	name := func(i, b int) string { return fmt.Sprintf("packed(%d,%d)", i, b) }

	for i := range sizes {
		for b := range caps {
			if err := s.fact(fmt.Sprintf("&dom{0..1}=%s", name(i+1, b))); err != nil {
				return nil, nil, err
			}
		}
		terms := make([]string, len(caps))
		for b := range caps {
			terms[b] = name(i+1, b)
		}
		if err := s.fact(fmt.Sprintf("&sum{%s} = 1", strings.Join(terms, ";"))); err != nil {
			return nil, nil, err
		}
	}
	for b, capacity := range caps {
		terms := make([]string, len(sizes))
		for i, size := range sizes {
			terms[i] = fmt.Sprintf("%d*%s", size, name(i+1, b))
		}
		if err := s.fact(fmt.Sprintf("&sum{%s} <= %d", strings.Join(terms, ";"), capacity)); err != nil {
			return nil, nil, err
		}
		if err := s.fact(fmt.Sprintf("&dom{0..1}=used(%d)", b)); err != nil {
			return nil, nil, err
		}
		for i := range sizes {
			if err := s.fact(fmt.Sprintf("&sum{%s;-1*used(%d)} <= 0", name(i+1, b), b)); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := s.fact("&minimize{(used(0)@0; u0), (used(1)@0; u1), (used(2)@0; u2)}"); err != nil {
		return nil, nil, err
	}
	if err := s.fact("&show{packed/2}"); err != nil {
		return nil, nil, err
	}

	if err := s.adapter.Errors(); err != nil {
		return nil, nil, err
	}
	if err := s.d.Init(s.host); err != nil {
		return nil, nil, err
	}
	used := make([]z.Lit, 0, len(caps))
	for _, obj := range s.host.Objectives() {
		used = append(used, obj.Lit)
	}
	emit := func(eq, le, ge z.Lit) {
		s.host.AddClause(eq.Not(), le)
		s.host.AddClause(eq.Not(), ge)
		s.host.AddClause(le.Not(), ge.Not(), eq)
	}
	for i := range sizes {
		for b := range caps {
			v := s.adapter.VarID(name(i+1, b))
			s.eq[[2]int{i + 1, b}] = s.d.Store.EqualLiteral(v, 1, s.host.NewLit, emit)
		}
	}
	return s, used, nil
}

// runFlowshop schedules three jobs (machine-1/machine-2 durations
// (3,4), (1,6), (5,5)) over two machines under a completion bound of
// 16, trying every processing order and counting schedules with all
// start times inside a clamp window. The clamp at 11 admits exactly
// the schedules of one order; 10 admits none.
func runFlowshop(cfg theory.Config) (string, error) {
	counts := make([]int, 3)
	for i, clamp := range []int{10, 11, 16} {
		n, err := countFlowshop(cfg, clamp)
		if err != nil {
			return "", err
		}
		counts[i] = n
	}
	return fmt.Sprintf("models: clamp 10 -> %d, clamp 11 -> %d, clamp 16 -> %d",
		counts[0], counts[1], counts[2]), nil
}

func countFlowshop(cfg theory.Config, clamp int) (int, error) {
	jobs := []string{"a", "b", "c"}
	durations := map[string][2]int{"a": {3, 4}, "b": {1, 6}, "c": {5, 5}}
	const bound = 16
	total := 0
	for _, perm := range permutations(jobs) {
		s := newSession(cfg)
		for _, j := range jobs {
			for m := 1; m <= 2; m++ {
				if err := s.fact(fmt.Sprintf("&dom{0..%d}=start(%s,%d)", clamp, j, m)); err != nil {
					return 0, err
				}
			}
			// machine 2 starts after machine 1 finishes the job.
			if err := s.fact(fmt.Sprintf("&sum{start(%s,1);-1*start(%s,2)} <= %d", j, j, -durations[j][0])); err != nil {
				return 0, err
			}
			for m := 1; m <= 2; m++ {
				if err := s.fact(fmt.Sprintf("&sum{start(%s,%d)} <= %d", j, m, bound-durations[j][m-1])); err != nil {
					return 0, err
				}
			}
		}
		for i := 0; i+1 < len(perm); i++ {
			j1, j2 := perm[i], perm[i+1]
			for m := 1; m <= 2; m++ {
				if err := s.fact(fmt.Sprintf("&sum{start(%s,%d);-1*start(%s,%d)} <= %d",
					j1, m, j2, m, -durations[j1][m-1])); err != nil {
					return 0, err
				}
			}
		}
		if err := s.fact("&show{start/2}"); err != nil {
			return 0, err
		}
		if err := s.init(); err != nil {
			return 0, err
		}
		total += len(s.enumerate(64))
	}
	return total, nil
}

func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}
	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}
