package driver

import "time"

// Stats accumulates internal timing and counting information the
// theory collects about its own work, mirroring clingcon's
// Stats/ClingconStats pair in stats.h: per-round durations plus
// running totals, with an Accumulate step analogous to ClingconStats's
// accu(). These are never reported through an external metrics
// pipeline (no-goal per SPEC_FULL.md §9) — they exist only for tests
// and optional debug logging.
type Stats struct {
	TimeInit      time.Duration
	TimePropagate time.Duration
	TimeCheck     time.Duration
	TimeUndo      time.Duration

	NumIntVariables int
	NumConstraints  int
	NumTranslated   int
	NumLazy         int
	NumLits         int
	NumOrderClauses int
	NumConflicts    int
	NumDerivations  int
}

// Accumulate folds other's counters into s, used when several worker
// threads' per-thread Stats are merged into one report at the end of
// a solve.
func (s *Stats) Accumulate(other Stats) {
	s.TimeInit += other.TimeInit
	s.TimePropagate += other.TimePropagate
	s.TimeCheck += other.TimeCheck
	s.TimeUndo += other.TimeUndo
	s.NumIntVariables += other.NumIntVariables
	s.NumConstraints += other.NumConstraints
	s.NumTranslated += other.NumTranslated
	s.NumLazy += other.NumLazy
	s.NumLits += other.NumLits
	s.NumOrderClauses += other.NumOrderClauses
	s.NumConflicts += other.NumConflicts
	s.NumDerivations += other.NumDerivations
}

// Timer measures one named phase and adds its elapsed duration into
// the Stats field the caller selects, RAII-style via defer.
type Timer struct {
	start time.Time
	into  *time.Duration
}

// StartTimer begins timing a phase whose elapsed time will be added
// to *into when Stop is called.
func StartTimer(into *time.Duration) Timer {
	return Timer{start: timeNow(), into: into}
}

// Stop adds the elapsed time since StartTimer into the target field.
func (t Timer) Stop() {
	*t.into += timeNow().Sub(t.start)
}

// timeNow is indirected so tests can run deterministically without
// depending on wall-clock time; production code always uses
// time.Now().
var timeNow = time.Now
