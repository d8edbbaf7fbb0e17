// Package solver implements the Dependency Solver (C5): A*-guided search
// over partial package assignments.
//
// The backtracking shape (choose next unsatisfied requirement, try
// candidates newest-first, merge the chosen candidate's own requirements
// into the pending set, detect cycles on the current path) is grounded on
// the teacher's solver.go (package vsolver), which performs exactly this
// search as plain backtracking; this package keeps that structure but
// drives it with an A* priority queue and cost function instead of plain
// depth-first recursion, per the specification's search design.
package solver

import (
	"github.com/sirupsen/logrus"

	"github.com/loonghao/rez-next/internal/logx"
)

// Strategy selects how the search terminates and what it returns.
type Strategy uint8

const (
	// Fastest returns the first goal state found; not necessarily optimal.
	Fastest Strategy = iota
	// Optimal continues exploring until no open state can beat the best
	// goal found so far, then returns the minimal-g_cost goal.
	Optimal
	// All collects every goal state found before max_iterations.
	All
)

func (s Strategy) String() string {
	switch s {
	case Fastest:
		return "fastest"
	case Optimal:
		return "optimal"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// ConflictStrategy governs candidate ordering and how version conflicts
// between requirements on the same name are resolved.
type ConflictStrategy uint8

const (
	LatestWins ConflictStrategy = iota
	EarliestWins
	FindCompatible
)

func (c ConflictStrategy) String() string {
	switch c {
	case LatestWins:
		return "latest_wins"
	case EarliestWins:
		return "earliest_wins"
	case FindCompatible:
		return "find_compatible"
	default:
		return "unknown"
	}
}

// Weights holds the h(s) component weights (w_r, w_d, w_c), kept as a
// field distinct from ConflictStrategy on Options per §12.5 (the original
// implementation keeps the weight triple and the conflict-resolution
// strategy as two independent knobs rather than folding the weights into
// the strategy enum).
type Weights struct {
	Remain  float64 // w_r
	Depth   float64 // w_d
	Conflict float64 // w_c
}

// DefaultWeights matches the defaults implied by §4.5's discussion: all
// three components contribute, with conflict weighted lower than it would
// need to be to dominate admissible components in ordinary cases.
var DefaultWeights = Weights{Remain: 1.0, Depth: 1.0, Conflict: 0.1}

// Options configures one Solve call (§4.5).
type Options struct {
	Strategy         Strategy
	MaxIterations    int
	MaxFails         int
	ParallelWorkers  int
	ConflictStrategy ConflictStrategy
	Weights          Weights
	Logger           *logrus.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100000
	}
	if o.MaxFails <= 0 {
		o.MaxFails = 1000
	}
	if o.ParallelWorkers <= 0 {
		o.ParallelWorkers = 1
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights
	}
	return o
}

func (o Options) logger() *logrus.Logger { return logx.Or(o.Logger) }
