package solver

import (
	"sort"
	"time"
)

// Status is the terminal state of a Solve call.
type Status uint8

const (
	StatusSolved Status = iota
	StatusUnsolvable
	StatusIterationLimit
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusUnsolvable:
		return "unsolvable"
	case StatusIterationLimit:
		return "iteration_limit"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Report is the solve report named throughout §4.5: iteration count, peak
// open-set size, elapsed time, and the conflicts encountered along the way.
type Report struct {
	Status       Status
	Iterations   int
	PeakStates   int
	Elapsed      time.Duration
	Conflicts    []ConflictRecord
	TopConflicts []ConflictRecord // top-k (k=10) summary when Unsolvable
	BestPartial  *ResolvedSet      // best partial state by h, when IterationLimit
}

const topConflictLimit = 10

func (r *Report) recordConflict(c ConflictRecord) {
	r.Conflicts = append(r.Conflicts, c)
}

func (r *Report) finalizeTopConflicts() {
	counts := make(map[string]int)
	order := make([]string, 0)
	details := make(map[string]ConflictRecord)
	for _, c := range r.Conflicts {
		key := c.Kind.String() + ":" + c.Name
		if counts[key] == 0 {
			order = append(order, key)
			details[key] = c
		}
		counts[key]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	n := len(order)
	if n > topConflictLimit {
		n = topConflictLimit
	}
	r.TopConflicts = make([]ConflictRecord, 0, n)
	for i := 0; i < n; i++ {
		r.TopConflicts = append(r.TopConflicts, details[order[i]])
	}
}

func (k ConflictKind) String() string {
	switch k {
	case ConflictVersion:
		return "version"
	case ConflictPlatform:
		return "platform"
	case ConflictMissing:
		return "missing"
	case ConflictCycle:
		return "cycle"
	default:
		return "unknown"
	}
}
