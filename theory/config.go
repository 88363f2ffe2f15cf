package theory

// Config holds the tunables that govern how aggressively the theory
// translates constraints to clauses versus propagating them lazily,
// mirroring the teacher's NewCDCLSolverWithConfig(CDCLConfig) shape:
// a plain struct built through functional options rather than a
// constructor with a dozen positional arguments.
type Config struct {
	// TranslateConstraints is the clausal-unfolding budget (C6): a
	// constraint is translated eagerly when the product of its terms'
	// domain sizes, excluding the last term, stays at or below this
	// value; -1 unfolds every constraint. Above the budget the
	// constraint is kept as a lazily propagated one.
	TranslateConstraints int
	// MinLitsPerVar is the minimum number of order literals precreated
	// per variable before solving starts, evenly spaced over the
	// domain; -1 creates one per domain value.
	MinLitsPerVar int
	// PropStrength selects how much propagation work the linear
	// propagator does per call: 1 detects conflicts only, 2 also
	// forces the reification literal, 3 also narrows bounds, and 4
	// also minimizes the reasons it produces.
	PropStrength int
	// DistinctToCard routes &distinct constraints through a
	// cardinality encoding instead of pairwise <>, trading clause
	// count for propagation strength.
	DistinctToCard bool
	// LearnClauses, when set, passes each derived reason clause to the
	// host through AddClause; when unset, the reason is kept privately
	// and returned by Driver.Reason.
	LearnClauses bool
	// DomSize caps how many bound-tightening literals one propagation
	// call may derive per constraint; -1 removes the cap. Large
	// domains otherwise let a single call walk an arbitrary number of
	// values.
	DomSize int
	// ExplicitBinaryOrderClauses suppresses order-literal watches for
	// variables whose precreated literals already cover every domain
	// value: the binary order clauses between them carry the bound
	// information, so the driver never needs to hear about those
	// assignments.
	ExplicitBinaryOrderClauses bool
}

// Option mutates a Config being built by NewConfig.
type Option func(*Config)

// WithTranslateConstraints sets the clausal-unfolding size budget.
func WithTranslateConstraints(n int) Option {
	return func(c *Config) { c.TranslateConstraints = n }
}

// WithMinLitsPerVar sets the minimum number of order literals
// precreated per variable.
func WithMinLitsPerVar(n int) Option {
	return func(c *Config) { c.MinLitsPerVar = n }
}

// WithPropStrength sets the propagation strength level (1-4).
func WithPropStrength(level int) Option {
	return func(c *Config) { c.PropStrength = level }
}

// WithDistinctToCard toggles cardinality encoding for &distinct.
func WithDistinctToCard(on bool) Option {
	return func(c *Config) { c.DistinctToCard = on }
}

// WithLearnClauses toggles permanent reason-clause learning.
func WithLearnClauses(on bool) Option {
	return func(c *Config) { c.LearnClauses = on }
}

// WithDomSize caps per-constraint derivations per propagation call.
func WithDomSize(n int) Option {
	return func(c *Config) { c.DomSize = n }
}

// WithExplicitBinaryOrderClauses toggles watch suppression for fully
// covered variables.
func WithExplicitBinaryOrderClauses(on bool) Option {
	return func(c *Config) { c.ExplicitBinaryOrderClauses = on }
}

// NewConfig returns the default configuration with opts applied on
// top, matching clingcon's defaults of translating small constraints
// and running full bound consistency.
func NewConfig(opts ...Option) Config {
	c := Config{
		TranslateConstraints: 10000,
		MinLitsPerVar:        4,
		PropStrength:         3,
		DistinctToCard:       false,
		LearnClauses:         true,
		DomSize:              -1,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
