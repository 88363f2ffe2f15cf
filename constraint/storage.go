package constraint

import "github.com/xDarkicex/fdprop/order"

// Storage indexes a set of Linear constraints by the variable
// endpoints they watch and maintains the propagation queue, grounded
// on linearpropagator.cpp's ConstraintStorage: per-variable
// lbChanges_/ubChanges_ lists feeding a LIFO work queue, with a
// per-constraint "already queued" flag so a variable touched by many
// constraints in one propagation round enqueues each constraint only
// once.
type Storage struct {
	constraints []Linear
	lowerWatch  map[order.VarID][]int // re-examine when the lower bound rises
	upperWatch  map[order.VarID][]int // re-examine when the upper bound drops
	queue       []int
	queued      []bool
}

// NewStorage returns an empty constraint index.
func NewStorage() *Storage {
	return &Storage{
		lowerWatch: make(map[order.VarID][]int),
		upperWatch: make(map[order.VarID][]int),
	}
}

// Add registers a constraint and returns its storage index. A term
// with a positive coefficient contributes its lower bound to the
// constraint's minimum, so the constraint re-queues when that end
// tightens; a negative coefficient mirrors to the upper end.
func (s *Storage) Add(c Linear) int {
	idx := len(s.constraints)
	c.id = idx
	s.constraints = append(s.constraints, c)
	s.queued = append(s.queued, false)
	for _, t := range c.Terms {
		if t.A > 0 {
			s.lowerWatch[t.Var] = append(s.lowerWatch[t.Var], idx)
		} else {
			s.upperWatch[t.Var] = append(s.upperWatch[t.Var], idx)
		}
	}
	return idx
}

// Constraint returns the constraint at idx.
func (s *Storage) Constraint(idx int) Linear { return s.constraints[idx] }

// Len reports how many constraints are registered.
func (s *Storage) Len() int { return len(s.constraints) }

// NotifyLowerChanged enqueues every constraint watching v's lower end.
func (s *Storage) NotifyLowerChanged(v order.VarID) {
	for _, idx := range s.lowerWatch[v] {
		s.Queue(idx)
	}
}

// NotifyUpperChanged enqueues every constraint watching v's upper end.
func (s *Storage) NotifyUpperChanged(v order.VarID) {
	for _, idx := range s.upperWatch[v] {
		s.Queue(idx)
	}
}

// Queue enqueues one constraint for re-examination, skipping it when
// already pending.
func (s *Storage) Queue(idx int) {
	if s.queued[idx] {
		return
	}
	s.queued[idx] = true
	s.queue = append(s.queue, idx)
}

// PopConstraint removes and returns the most recently queued
// constraint, LIFO, matching ConstraintStorage::popConstraint; ok is
// false when the queue is empty.
func (s *Storage) PopConstraint() (idx int, ok bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	idx = s.queue[len(s.queue)-1]
	s.queue = s.queue[:len(s.queue)-1]
	s.queued[idx] = false
	return idx, true
}

// Pending reports whether any constraint is queued for propagation.
func (s *Storage) Pending() bool { return len(s.queue) > 0 }

// Clear drops all pending work, used when a conflict discards the
// remainder of a propagation round.
func (s *Storage) Clear() {
	for _, idx := range s.queue {
		s.queued[idx] = false
	}
	s.queue = s.queue[:0]
}
