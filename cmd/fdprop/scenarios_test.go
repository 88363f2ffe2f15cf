package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xDarkicex/fdprop/theory"
)

func testConfig() theory.Config {
	return theory.NewConfig(
		theory.WithTranslateConstraints(-1),
		theory.WithMinLitsPerVar(-1),
	)
}

func TestScenarioSendMoreMoney(t *testing.T) {
	out, err := runSendMoreMoney(testConfig())
	require.NoError(t, err)
	require.Equal(t, "SAT d=7 e=5 m=1 n=6 o=0 r=8 s=9 y=2", out)
}

func TestScenarioRange(t *testing.T) {
	out, err := runRange(testConfig())
	require.NoError(t, err)
	require.Equal(t, "2 models", out)
}

func TestScenarioDistinctByCardinality(t *testing.T) {
	out, err := runDistinct(testConfig())
	require.NoError(t, err)
	require.Equal(t, "6 models", out)
}

func TestScenarioDistinctPairwise(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg)
	for _, v := range []string{"x", "y", "z"} {
		require.NoError(t, s.fact("&dom{1..3}="+v))
	}
	require.NoError(t, s.fact("&distinct{x,y,z}"))
	require.NoError(t, s.fact("&show{x,y,z}"))
	require.NoError(t, s.init())
	require.Len(t, s.enumerate(16), 6)
}

func TestScenarioOverflow(t *testing.T) {
	out, err := runOverflow(testConfig())
	require.NoError(t, err)
	require.Equal(t, "UNSAT (overflow)", out)
}

func TestScenarioPacking(t *testing.T) {
	out, err := runPacking(testConfig())
	require.NoError(t, err)
	require.Contains(t, out, "optimum 2 bins")
	require.Contains(t, out, "assumption check: UNSAT")
}

func TestScenarioFlowshop(t *testing.T) {
	out, err := runFlowshop(testConfig())
	require.NoError(t, err)
	require.Equal(t, "models: clamp 10 -> 0, clamp 11 -> 6, clamp 16 -> 13", out)
}

// TestTranslationEquivalence solves the same program under two
// unfolding budgets; the model set over the shown variables must not
// depend on which constraints were eligible for eager translation.
func TestTranslationEquivalence(t *testing.T) {
	count := func(budget int) int {
		cfg := theory.NewConfig(
			theory.WithTranslateConstraints(budget),
			theory.WithMinLitsPerVar(-1),
		)
		s := newSession(cfg)
		require.NoError(t, s.fact("&dom{0..5}=x"))
		require.NoError(t, s.fact("&dom{0..5}=y"))
		require.NoError(t, s.fact("&sum{x;y} >= 2"))
		require.NoError(t, s.fact("&sum{x;y} <= 4"))
		require.NoError(t, s.fact("&show{x,y}"))
		require.NoError(t, s.init())
		return len(s.enumerate(64))
	}
	// pairs with 2 <= x+y <= 4 over [0,5]^2: 3+4+5 = 12.
	require.Equal(t, 12, count(-1))
	require.Equal(t, 12, count(100))
}

func TestScenarioDuplicateMinimizeTupleRejected(t *testing.T) {
	s := newSession(testConfig())
	require.NoError(t, s.fact("&dom{0..1}=x"))
	require.NoError(t, s.fact("&minimize{(x@0; t1)}"))
	require.Error(t, s.fact("&minimize{(x@0; t1)}"))
	require.Error(t, s.init())
}
