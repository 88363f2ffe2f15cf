package constraint

import (
	"testing"

	"github.com/go-air/gini/z"

	"github.com/xDarkicex/fdprop/order"
)

func TestNewLinearMergesDuplicateVariables(t *testing.T) {
	terms := []order.View{
		order.NewView(0, 2, 0),
		order.NewView(0, 3, 5),
		order.NewView(1, 1, 0),
	}
	c, ok := NewLinear(terms, 10, z.Dimacs2Lit(1), FWD)
	if !ok {
		t.Fatalf("NewLinear failed unexpectedly")
	}
	if len(c.Terms) != 2 {
		t.Fatalf("got %d terms, want 2", len(c.Terms))
	}
	if c.Bound != 5 {
		t.Errorf("Bound = %d, want 5 (10 - constant 5)", c.Bound)
	}
	var sawVar0 bool
	for _, term := range c.Terms {
		if term.Var == 0 {
			sawVar0 = true
			if term.A != 5 {
				t.Errorf("merged coefficient for var0 = %d, want 5", term.A)
			}
		}
	}
	if !sawVar0 {
		t.Fatalf("expected merged term for var0")
	}
}

func TestNewLinearFactorsCoefficientGCD(t *testing.T) {
	terms := []order.View{order.NewView(0, 4, 0), order.NewView(1, 6, 0)}
	c, ok := NewLinear(terms, 11, z.Dimacs2Lit(1), FWD)
	if !ok {
		t.Fatalf("NewLinear failed unexpectedly")
	}
	if c.Terms[0].A != 2 || c.Terms[1].A != 3 {
		t.Errorf("coefficients = %d,%d, want 2,3", c.Terms[0].A, c.Terms[1].A)
	}
	if c.Bound != 5 {
		t.Errorf("Bound = %d, want floor(11/2) = 5", c.Bound)
	}
}

func TestLinearNegateFlipsTermsAndBound(t *testing.T) {
	terms := []order.View{order.NewView(0, 1, 0), order.NewView(1, -2, 0)}
	c, _ := NewLinear(terms, 3, z.Dimacs2Lit(1), EQ)
	n := c.Negate()
	if n.Bound != -4 {
		t.Errorf("Negate().Bound = %d, want -4", n.Bound)
	}
	if n.Terms[0].A != -1 || n.Terms[1].A != 2 {
		t.Errorf("Negate() coefficients = %d,%d, want -1,2", n.Terms[0].A, n.Terms[1].A)
	}
	if n.Literal != c.Literal.Not() {
		t.Errorf("Negate() must flip the controlling literal")
	}
	if n.Dir != FWD {
		t.Errorf("Negate() direction = %v, want FWD", n.Dir)
	}
}

func TestNewLinearDropsZeroCoefficient(t *testing.T) {
	terms := []order.View{order.NewView(0, 0, 7), order.NewView(1, 1, 0)}
	c, ok := NewLinear(terms, 10, z.Dimacs2Lit(1), FWD)
	if !ok {
		t.Fatalf("NewLinear failed unexpectedly")
	}
	if len(c.Terms) != 1 {
		t.Fatalf("got %d terms, want 1", len(c.Terms))
	}
	if c.Bound != 3 {
		t.Errorf("Bound = %d, want 3 (10 - constant 7)", c.Bound)
	}
}
